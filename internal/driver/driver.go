// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package driver implements the per-worker driver: the two-phase
// idle-then-active run loop a single worker OS thread executes
// against its shard of the overall connection counts.
package driver

import (
	"swarm/internal/conn"
	"swarm/internal/netutil"
	"swarm/internal/poller"
	"swarm/log"
)

// Driver owns one Poller for its entire lifetime and drives it through
// both phases of one worker's work: establish this worker's share of
// idle connections (if any), wait for them all to connect, then
// establish and measure this worker's share of active connections.
type Driver struct {
	p poller.Poller
}

// New creates a Driver with a fresh platform Poller. A Driver is not
// safe for concurrent use; exactly one belongs to each worker OS
// thread.
func New() (*Driver, error) {
	p, err := poller.New()
	if err != nil {
		return nil, err
	}
	return &Driver{p: p}, nil
}

// Run executes both phases against the resolved endpoint and shared
// request buffer, and returns one conn.Timing per active connection in
// creation order.
//
// Idle connections are established first and fully settled (every one
// reaches CONNECTED) before any active connection is created: idle
// pressure must already be in place before the measured requests are
// sent.
func (d *Driver) Run(nidle, nactive int, ep netutil.Endpoint, request []byte) ([]conn.Timing, error) {
	var idles []*conn.Idle
	if nidle > 0 {
		log.Debugf("driver: creating %d idle connections", nidle)

		idles = make([]*conn.Idle, nidle)
		for i := range idles {
			c, err := conn.NewIdle(d.p, ep)
			if err != nil {
				return nil, err
			}
			idles[i] = c
			c.Start()
		}

		if err := d.p.RunUntilEmpty(); err != nil {
			return nil, err
		}
		log.Debugf("driver: all idle connections established")

		defer func() {
			for _, c := range idles {
				c.Close()
			}
		}()
	}

	log.Debugf("driver: creating %d active connections", nactive)

	actives := make([]*conn.Active, nactive)
	for i := range actives {
		c, err := conn.NewActive(d.p, ep, request)
		if err != nil {
			return nil, err
		}
		actives[i] = c
		c.Start()
	}

	if err := d.p.RunUntilEmpty(); err != nil {
		return nil, err
	}

	results := make([]conn.Timing, nactive)
	for i, c := range actives {
		results[i] = c.Timing
	}
	return results, nil
}

// Close releases the Driver's Poller. Call it once Run has returned
// and no further calls will be made.
func (d *Driver) Close() error {
	return d.p.Close()
}
