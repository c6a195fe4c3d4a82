// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package poller implements a minimal cooperative I/O multiplexer:
// a readiness reactor exposing register, modify, deregister, and
// run-until-empty. One Poller belongs to exactly one worker OS
// thread, driven synchronously by that thread between Run and
// quiescence. There is no cross-thread trigger because nothing
// outside the owning worker ever touches its Poller.
package poller

import "errors"

// errAlreadyRegistered is returned by Add when called twice for the
// same Desc.
var errAlreadyRegistered = errors.New("poller: desc already registered")

// New creates the platform's Poller: epoll on Linux, kqueue on
// BSD/Darwin. Each worker (internal/driver.Driver) owns exactly one,
// for its entire lifetime.
func New() (Poller, error) {
	return newPoller()
}

// Event is the readiness interest registered for a descriptor.
type Event int

// Interest kinds, passed to Add and Modify. ModReadable and ModWritable
// select the same interest as Readable and Writable. Removing a Desc is
// done with Deregister, which takes no Event.
const (
	Readable Event = iota
	Writable
	ModReadable
	ModWritable
)

// Callback fires when a Desc's registered interest becomes ready. The
// FSM that owns the Desc decides what to do next (including,
// eventually, calling Deregister on itself); the poller never inspects
// or retries on the callback's behalf.
type Callback func()

// Desc binds a file descriptor to a Callback. It is created by a
// caller (conn.Idle / conn.Active) and registered with exactly one
// Poller for its lifetime.
type Desc struct {
	FD int
	On Callback

	registered bool
}

// Poller monitors a set of Descs and invokes their callbacks as their
// registered interest becomes ready.
type Poller interface {
	// Add registers desc for the given interest. desc must not already
	// be registered.
	Add(desc *Desc, ev Event) error
	// Modify changes a registered desc's interest in place (used, for
	// example, to reconfigure a watcher from writable to readable once
	// a request has been fully sent).
	Modify(desc *Desc, ev Event) error
	// Deregister removes desc from the poller. It does not close the
	// underlying fd; that remains the caller's responsibility.
	Deregister(desc *Desc) error
	// RunUntilEmpty drives the reactor until no Desc is registered,
	// then returns. It must only be called from the thread that owns
	// this Poller.
	RunUntilEmpty() error
	// Close releases the poller's own kernel resources (the epoll or
	// kqueue fd). It must be called once, after RunUntilEmpty returns
	// and no further Add calls will occur.
	Close() error
}
