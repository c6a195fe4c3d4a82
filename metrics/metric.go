// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package metrics provides swarm's runtime counters: connection
// lifecycle, poller efficiency, and hangup/error breakdown.
package metrics

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/atomic"
)

// All metrics definitions.
const (
	// Active connection FSM metrics.
	ActiveConnsCreated = iota
	ActiveConnsDone
	ActiveConnsHup
	ActiveReadCalls
	ActiveWriteCalls

	// Idle connection FSM metrics.
	IdleConnsCreated
	IdleConnsConnected

	// Poller metrics.
	EpollWait
	EpollNoWait
	EpollEvents

	// Fatal conditions: any syscall errno the drain helpers don't
	// classify as EAGAIN/EINTR/hup. Other fatal paths (such as a connect
	// errno other than "in progress") are not counted here.
	FatalErrors

	Max
)

var metrics [Max]atomic.Uint64

// Add adds delta to the named counter.
func Add(name int, delta uint64) {
	if name >= Max {
		return
	}
	metrics[name].Add(delta)
}

// Get returns one counter's current value.
func Get(name int) uint64 {
	if name >= Max {
		return 0
	}
	return metrics[name].Load()
}

// GetAll returns a snapshot of every counter.
func GetAll() [Max]uint64 {
	var m [Max]uint64
	for i := range metrics {
		m[i] = metrics[i].Load()
	}
	return m
}

// Show prints a snapshot of every counter to stderr. It is intended for
// interactive debugging of a swarm run, not for the stdout result
// stream.
func Show() {
	m := GetAll()
	fmt.Fprintf(os.Stderr, "######### swarm metrics (%s) ###########\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(os.Stderr, "%-50s: %d\n", "# active connections created", m[ActiveConnsCreated])
	fmt.Fprintf(os.Stderr, "%-50s: %d\n", "# active connections reaching DONE", m[ActiveConnsDone])
	fmt.Fprintf(os.Stderr, "%-50s: %d\n", "# active connections that saw a hangup", m[ActiveConnsHup])
	fmt.Fprintf(os.Stderr, "%-50s: %d\n", "# atomic_read calls", m[ActiveReadCalls])
	fmt.Fprintf(os.Stderr, "%-50s: %d\n", "# atomic_write calls", m[ActiveWriteCalls])
	fmt.Fprintf(os.Stderr, "%-50s: %d\n", "# idle connections created", m[IdleConnsCreated])
	fmt.Fprintf(os.Stderr, "%-50s: %d\n", "# idle connections reaching CONNECTED", m[IdleConnsConnected])
	fmt.Fprintf(os.Stderr, "%-50s: %d\n", "# epoll_wait/kevent calls", m[EpollWait])
	fmt.Fprintf(os.Stderr, "%-50s: %d\n", "# epoll_wait/kevent calls returning no events", m[EpollNoWait])
	fmt.Fprintf(os.Stderr, "%-50s: %d\n", "# total readiness events delivered", m[EpollEvents])
	fmt.Fprintf(os.Stderr, "%-50s: %d\n", "# fatal (unclassified) errno occurrences", m[FatalErrors])
}
