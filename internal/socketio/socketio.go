// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package socketio provides non-blocking read/write drain helpers.
// Both helpers are reentrant on distinct fds and never block the
// calling goroutine: they drain until count bytes are transferred,
// the socket would block, or the peer is gone.
package socketio

import (
	"golang.org/x/sys/unix"
	"swarm/log"
	"swarm/metrics"
)

// Read drains up to len(buf) bytes from fd without blocking. It returns
// the number of bytes read and whether the peer hung up (orderly
// close, ECONNRESET, or EPIPE). A return of (n, false) with n <
// len(buf) means "fd would block now, come back on readiness".
//
// Any errno outside EAGAIN/EWOULDBLOCK/EINTR/EPIPE/ECONNRESET is
// treated as a bug or harness misconfiguration and is fatal, since
// continuing past it would silently corrupt the measurement.
func Read(fd int, buf []byte) (n int, hup bool) {
	metrics.Add(metrics.ActiveReadCalls, 1)
	return atomicIO(fd, buf, unix.Read)
}

// Write drains up to len(buf) bytes to fd without blocking. Semantics
// mirror Read.
func Write(fd int, buf []byte) (n int, hup bool) {
	metrics.Add(metrics.ActiveWriteCalls, 1)
	return atomicIO(fd, buf, unix.Write)
}

func atomicIO(fd int, buf []byte, syscall func(fd int, p []byte) (int, error)) (total int, hup bool) {
	for total < len(buf) {
		n, err := syscall(fd, buf[total:])
		if err != nil {
			switch err {
			case unix.EAGAIN:
				return total, false
			case unix.EINTR:
				continue
			case unix.EPIPE, unix.ECONNRESET:
				return total, true
			default:
				metrics.Add(metrics.FatalErrors, 1)
				log.Fatalf("socketio: fd=%d unclassified errno: %v", fd, err)
				return total, true // unreachable; log.Fatalf exits the process.
			}
		}
		if n == 0 {
			// Peer performed an orderly shutdown.
			return total, true
		}
		total += n
	}
	return total, false
}
