// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package netutil

import (
	"os"

	"golang.org/x/sys/unix"
)

// NewNonblockingTCPSocket creates a non-blocking, close-on-exec stream
// socket for the given address family. golang.org/x/sys/unix already
// exposes SOCK_NONBLOCK|SOCK_CLOEXEC as socket(2) type flags on Linux;
// on platforms that lack them the flags would need to be set after the
// call instead.
func NewNonblockingTCPSocket(family int) (int, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	return fd, nil
}

// Connect initiates a non-blocking connect. A nil error means the
// handshake finished synchronously (rare, but legal); ErrConnInProgress
// means the caller must register a writability watcher and wait. Any
// other error is fatal.
func Connect(fd int, ep Endpoint) error {
	err := unix.Connect(fd, ep.Addr)
	if err == nil {
		return nil
	}
	if err == unix.EINPROGRESS {
		return ErrConnInProgress
	}
	return os.NewSyscallError("connect", err)
}

// ErrConnInProgress is returned by Connect when the handshake has been
// initiated but has not completed synchronously; the caller must
// register a writability watcher and wait.
var ErrConnInProgress = unix.EINPROGRESS

// ShutdownWrite closes the write half of the connection after the
// request has been fully written. This signals EOF to servers that
// decide when to finish a response based on the client's half-close.
func ShutdownWrite(fd int) error {
	return os.NewSyscallError("shutdown", unix.Shutdown(fd, unix.SHUT_WR))
}

// Close closes fd and returns any error close(2) reports, EINTR and
// EBADF included.
func Close(fd int) error {
	return os.NewSyscallError("close", unix.Close(fd))
}
