// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package conn

import (
	"swarm/internal/netutil"
	"swarm/internal/poller"
	"swarm/log"
	"swarm/metrics"
)

type idleState int

const (
	idleStart idleState = iota
	idleConnecting
	idleConnected
)

// Idle is the idle connection FSM: establish one TCP connection, then
// hold it open without any further I/O. It exists to occupy a
// server-side slot, exerting socket pressure, not to be measured. The
// idle FSM never writes, never reads, and never closes on its own; if
// the server tears the connection down, this FSM does not observe it
// (there is no read watcher).
type Idle struct {
	fd    int
	ep    netutil.Endpoint
	p     poller.Poller
	desc  poller.Desc
	state idleState
}

// NewIdle creates the non-blocking socket for one idle connection. The
// connection is not dialed until Start is called.
func NewIdle(p poller.Poller, ep netutil.Endpoint) (*Idle, error) {
	fd, err := netutil.NewNonblockingTCPSocket(ep.Family)
	if err != nil {
		return nil, err
	}
	metrics.Add(metrics.IdleConnsCreated, 1)
	c := &Idle{fd: fd, ep: ep, p: p, state: idleStart}
	c.desc = poller.Desc{FD: fd, On: c.step}
	return c, nil
}

// Start kicks the FSM. Every later invocation of step comes from the
// poller, on the writability event the START transition registers.
func (c *Idle) Start() {
	c.step()
}

func (c *Idle) step() {
	switch c.state {
	case idleStart:
		if err := netutil.Connect(c.fd, c.ep); err != nil && err != netutil.ErrConnInProgress {
			log.Fatalf("conn: idle fd=%d connect: %v", c.fd, err)
		}
		if err := c.p.Add(&c.desc, poller.Writable); err != nil {
			log.Fatalf("conn: idle fd=%d register writable: %v", c.fd, err)
		}
		c.state = idleConnecting
		log.Debugf("conn: idle fd=%d starting", c.fd)
	case idleConnecting:
		if err := c.p.Deregister(&c.desc); err != nil {
			log.Fatalf("conn: idle fd=%d deregister: %v", c.fd, err)
		}
		c.state = idleConnected
		metrics.Add(metrics.IdleConnsConnected, 1)
		log.Debugf("conn: idle fd=%d connected", c.fd)
	default:
		// We should be unregistered at this point; the poller must not
		// call back into a CONNECTED idle FSM.
		log.Fatalf("conn: idle fd=%d callback fired in terminal state", c.fd)
	}
}

// Connected reports whether the FSM has reached its terminal state,
// exposed so tests can assert that every idle FSM reaches CONNECTED.
func (c *Idle) Connected() bool {
	return c.state == idleConnected
}

// Close releases the underlying socket. It is called by the driver at
// teardown, after the active phase completes; the idle FSM never
// closes itself.
func (c *Idle) Close() error {
	return netutil.Close(c.fd)
}
