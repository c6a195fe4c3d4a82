// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package poller_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
	"swarm/internal/poller"
)

func TestRunUntilEmptyQuiescesOnDeregister(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	p, err := poller.New()
	require.NoError(t, err)
	defer p.Close()

	var fired bool
	desc := &poller.Desc{FD: fds[1]}
	desc.On = func() {
		fired = true
		require.NoError(t, p.Deregister(desc))
	}
	require.NoError(t, p.Add(desc, poller.Readable))

	_, err = unix.Write(fds[0], []byte("x"))
	require.NoError(t, err)

	require.NoError(t, p.RunUntilEmpty())
	require.True(t, fired)
}

func TestModifySwitchesInterest(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	p, err := poller.New()
	require.NoError(t, err)
	defer p.Close()

	var calls int
	desc := &poller.Desc{FD: fds[0]}
	desc.On = func() {
		calls++
		if calls == 1 {
			// Writable immediately; switch to readable and wait for the
			// peer's byte instead of spinning on writability forever.
			require.NoError(t, p.Modify(desc, poller.Readable))
			go func() { unix.Write(fds[1], []byte("y")) }()
			return
		}
		require.NoError(t, p.Deregister(desc))
	}
	require.NoError(t, p.Add(desc, poller.Writable))

	require.NoError(t, p.RunUntilEmpty())
	require.Equal(t, 2, calls)
}
