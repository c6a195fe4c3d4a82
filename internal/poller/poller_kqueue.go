// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build freebsd || dragonfly || darwin

package poller

import (
	"os"

	"golang.org/x/sys/unix"
	"swarm/metrics"
)

const defaultKevent = 64

// kqueue is the BSD/Darwin Poller, built on the kqueue/kevent syscalls.
// There is no cross-goroutine wakeup channel: a worker's Poller is only
// ever driven by the worker that owns it, so there is nothing to wake
// it up from outside.
type kqueue struct {
	fd     int
	events []unix.Kevent_t
	descs  map[int]*Desc
}

func newPoller() (Poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, os.NewSyscallError("kqueue", err)
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("fcntl", err)
	}
	return &kqueue{
		fd:     fd,
		events: make([]unix.Kevent_t, defaultKevent),
		descs:  make(map[int]*Desc),
	}, nil
}

func (k *kqueue) Add(desc *Desc, ev Event) error {
	if desc.registered {
		return errAlreadyRegistered
	}
	if err := k.register(desc.FD, ev, unix.EV_ADD|unix.EV_ENABLE); err != nil {
		return err
	}
	desc.registered = true
	k.descs[desc.FD] = desc
	return nil
}

// Modify switches a Desc's registered filter. kqueue has no single
// "change filter" op, so the previous filter is deleted and the new
// one added, mirroring poller_kqueue.go's modRead/modWrite.
func (k *kqueue) Modify(desc *Desc, ev Event) error {
	prev := int16(unix.EVFILT_READ)
	if ev == Readable || ev == ModReadable {
		prev = unix.EVFILT_WRITE
	}
	_ = k.kevent(desc.FD, prev, unix.EV_DELETE)
	return k.register(desc.FD, ev, unix.EV_ADD|unix.EV_ENABLE)
}

func (k *kqueue) Deregister(desc *Desc) error {
	if !desc.registered {
		return nil
	}
	err1 := k.kevent(desc.FD, unix.EVFILT_READ, unix.EV_DELETE)
	err2 := k.kevent(desc.FD, unix.EVFILT_WRITE, unix.EV_DELETE)
	desc.registered = false
	delete(k.descs, desc.FD)
	if err1 != nil {
		return err1
	}
	return err2
}

func (k *kqueue) register(fd int, ev Event, flags uint16) error {
	filter := int16(unix.EVFILT_WRITE)
	if ev == Readable || ev == ModReadable {
		filter = unix.EVFILT_READ
	}
	return k.kevent(fd, filter, flags)
}

func (k *kqueue) kevent(fd int, filter int16, flags uint16) error {
	ev := unix.Kevent_t{Ident: uint64(fd), Filter: filter, Flags: flags}
	_, err := unix.Kevent(k.fd, []unix.Kevent_t{ev}, nil, nil)
	if err != nil {
		return os.NewSyscallError("kevent", err)
	}
	return nil
}

func (k *kqueue) RunUntilEmpty() error {
	for len(k.descs) > 0 {
		n, err := unix.Kevent(k.fd, nil, k.events, nil)
		metrics.Add(metrics.EpollWait, 1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return os.NewSyscallError("kevent", err)
		}
		if n == 0 {
			metrics.Add(metrics.EpollNoWait, 1)
		}
		metrics.Add(metrics.EpollEvents, uint64(n))
		for i := 0; i < n; i++ {
			desc, ok := k.descs[int(k.events[i].Ident)]
			if !ok || desc.On == nil {
				continue
			}
			desc.On()
		}
	}
	return nil
}

func (k *kqueue) Close() error {
	return os.NewSyscallError("close", unix.Close(k.fd))
}
