// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build linux

package poller

import (
	"os"

	"golang.org/x/sys/unix"
	"swarm/metrics"
)

const (
	rflags = unix.EPOLLIN | unix.EPOLLRDHUP | unix.EPOLLHUP | unix.EPOLLERR
	wflags = unix.EPOLLOUT | unix.EPOLLHUP | unix.EPOLLERR

	defaultEventCount = 64
)

// epoll is the Linux Poller, built on epoll_create1/epoll_ctl/epoll_wait
// via golang.org/x/sys/unix.
//
// golang.org/x/sys/unix.EpollEvent exposes the kernel's epoll_data_t
// union pre-split into an Fd/Pad pair rather than an opaque pointer-
// sized field, so registered descriptors are keyed by fd in a plain
// map instead of stashing a pointer in that union.
type epoll struct {
	fd     int
	events []unix.EpollEvent
	descs  map[int]*Desc
}

func newPoller() (Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	return &epoll{
		fd:     fd,
		events: make([]unix.EpollEvent, defaultEventCount),
		descs:  make(map[int]*Desc),
	}, nil
}

func (ep *epoll) Add(desc *Desc, ev Event) error {
	if desc.registered {
		return errAlreadyRegistered
	}
	if err := ep.ctl(unix.EPOLL_CTL_ADD, desc.FD, ev); err != nil {
		return err
	}
	desc.registered = true
	ep.descs[desc.FD] = desc
	return nil
}

func (ep *epoll) Modify(desc *Desc, ev Event) error {
	return ep.ctl(unix.EPOLL_CTL_MOD, desc.FD, ev)
}

func (ep *epoll) Deregister(desc *Desc) error {
	if !desc.registered {
		return nil
	}
	err := os.NewSyscallError("epoll_ctl del", unix.EpollCtl(ep.fd, unix.EPOLL_CTL_DEL, desc.FD, nil))
	desc.registered = false
	delete(ep.descs, desc.FD)
	return err
}

func (ep *epoll) ctl(op int, fd int, ev Event) error {
	event := unix.EpollEvent{Fd: int32(fd)}
	switch ev {
	case Readable, ModReadable:
		event.Events = rflags
	case Writable, ModWritable:
		event.Events = wflags
	}
	return os.NewSyscallError("epoll_ctl", unix.EpollCtl(ep.fd, op, fd, &event))
}

func (ep *epoll) RunUntilEmpty() error {
	for len(ep.descs) > 0 {
		n, err := unix.EpollWait(ep.fd, ep.events, -1)
		metrics.Add(metrics.EpollWait, 1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return os.NewSyscallError("epoll_wait", err)
		}
		if n == 0 {
			metrics.Add(metrics.EpollNoWait, 1)
		}
		metrics.Add(metrics.EpollEvents, uint64(n))
		for i := 0; i < n; i++ {
			desc, ok := ep.descs[int(ep.events[i].Fd)]
			if !ok || desc.On == nil {
				continue
			}
			desc.On()
		}
	}
	return nil
}

func (ep *epoll) Close() error {
	return os.NewSyscallError("close", unix.Close(ep.fd))
}
