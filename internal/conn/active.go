// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package conn

import (
	"swarm/internal/clock"
	"swarm/internal/netutil"
	"swarm/internal/poller"
	"swarm/internal/socketio"
	"swarm/log"
	"swarm/metrics"
)

type activeState int

const (
	acStart activeState = iota
	acConnecting
	acWriteRequest
	acReadResponse
	acDone
)

// respBufSize is the scratch buffer active connections read responses
// into. Response bytes are never inspected, only timed, so any size
// large enough to avoid pathological syscall-per-byte behavior works.
const respBufSize = 4096

// Active is the measured connection FSM: connect, write one request
// verbatim, drain the response to completion, and record TTC/TTFB.
type Active struct {
	fd      int
	ep      netutil.Endpoint
	p       poller.Poller
	desc    poller.Desc
	state   activeState
	request []byte
	offset  int

	ttcSpan  clock.Span
	ttfbSpan clock.Span
	gotFirst bool
	respBuf  [respBufSize]byte

	// Timing accumulates as the FSM progresses and is only meaningful
	// once Done reports true.
	Timing Timing
}

// NewActive creates the non-blocking socket for one measured
// connection. request is shared, read-only, and transmitted verbatim;
// Active never copies or mutates it. The connection is not dialed
// until Start is called.
func NewActive(p poller.Poller, ep netutil.Endpoint, request []byte) (*Active, error) {
	fd, err := netutil.NewNonblockingTCPSocket(ep.Family)
	if err != nil {
		return nil, err
	}
	metrics.Add(metrics.ActiveConnsCreated, 1)
	c := &Active{
		fd:      fd,
		ep:      ep,
		p:       p,
		request: request,
		state:   acStart,
		Timing:  Timing{TTC: NotObserved, TTFB: NotObserved},
	}
	c.desc = poller.Desc{FD: fd, On: c.step}
	return c, nil
}

// Start kicks the FSM. Every later invocation of step comes from the
// poller.
func (c *Active) Start() {
	c.ttcSpan.Start()
	c.ttfbSpan.Start()
	c.step()
}

// Done reports whether the FSM has reached its terminal state.
func (c *Active) Done() bool {
	return c.state == acDone
}

// step dispatches on state and runs until it either needs a readiness
// event to make further progress or reaches DONE. CONNECTING falling
// into WRITE_REQUEST, and a WRITE_REQUEST/READ_RESPONSE hup falling
// into DONE, happen within the same callback invocation: there is no
// poller round trip between them when no event is needed to proceed.
func (c *Active) step() {
	switch c.state {
	case acStart:
		if err := netutil.Connect(c.fd, c.ep); err != nil && err != netutil.ErrConnInProgress {
			log.Fatalf("conn: active fd=%d connect: %v", c.fd, err)
		}
		if err := c.p.Add(&c.desc, poller.Writable); err != nil {
			log.Fatalf("conn: active fd=%d register writable: %v", c.fd, err)
		}
		c.state = acConnecting
		log.Debugf("conn: active fd=%d starting", c.fd)

	case acConnecting:
		c.ttcSpan.Stop()
		c.Timing.TTC = c.ttcSpan.DeltaNS()
		c.state = acWriteRequest
		log.Debugf("conn: active fd=%d connected, ttc=%dns", c.fd, c.Timing.TTC)
		c.step()

	case acWriteRequest:
		n, hup := socketio.Write(c.fd, c.request[c.offset:])
		c.offset += n
		log.Debugf("conn: active fd=%d wrote %d bytes", c.fd, n)
		if hup {
			metrics.Add(metrics.ActiveConnsHup, 1)
			log.Debugf("conn: active fd=%d premature hangup while writing", c.fd)
			c.state = acDone
			c.step()
			return
		}
		if c.offset == len(c.request) {
			if err := netutil.ShutdownWrite(c.fd); err != nil {
				log.Fatalf("conn: active fd=%d shutdown write: %v", c.fd, err)
			}
			if err := c.p.Modify(&c.desc, poller.Readable); err != nil {
				log.Fatalf("conn: active fd=%d register readable: %v", c.fd, err)
			}
			c.state = acReadResponse
			log.Debugf("conn: active fd=%d request sent, reading response", c.fd)
		}
		// Partial write or full write: either way this yields, waiting
		// for the next writability (partial) or readability (complete)
		// event.

	case acReadResponse:
		for {
			n, hup := socketio.Read(c.fd, c.respBuf[:])
			if n > 0 && !c.gotFirst {
				c.ttfbSpan.Stop()
				c.Timing.TTFB = c.ttfbSpan.DeltaNS()
				c.gotFirst = true
				log.Debugf("conn: active fd=%d first byte, ttfb=%dns", c.fd, c.Timing.TTFB)
			}
			if hup {
				c.state = acDone
				c.step()
				return
			}
			if n == 0 {
				// Would block: yield until the next readability event.
				return
			}
		}

	case acDone:
		if err := c.p.Deregister(&c.desc); err != nil {
			log.Fatalf("conn: active fd=%d deregister: %v", c.fd, err)
		}
		if err := netutil.Close(c.fd); err != nil {
			log.Fatalf("conn: active fd=%d close: %v", c.fd, err)
		}
		metrics.Add(metrics.ActiveConnsDone, 1)
		log.Debugf("conn: active fd=%d done", c.fd)
	}
}
