// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package socketio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
	"swarm/internal/socketio"
)

func socketpair(t *testing.T) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestWriteThenReadFullBuffer(t *testing.T) {
	a, b := socketpair(t)
	payload := []byte("GET / HTTP/1.1\r\n\r\n")

	n, hup := socketio.Write(a, payload)
	require.False(t, hup)
	require.Equal(t, len(payload), n)

	got := make([]byte, len(payload))
	n, hup = socketio.Read(b, got)
	require.False(t, hup)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, got)
}

func TestReadWouldBlockReturnsNoHup(t *testing.T) {
	_, b := socketpair(t)
	buf := make([]byte, 16)
	n, hup := socketio.Read(b, buf)
	assert.Equal(t, 0, n)
	assert.False(t, hup)
}

func TestPeerCloseIsHup(t *testing.T) {
	a, b := socketpair(t)
	require.NoError(t, unix.Close(a))

	buf := make([]byte, 16)
	n, hup := socketio.Read(b, buf)
	assert.Equal(t, 0, n)
	assert.True(t, hup)
}

func TestWriteAfterPeerCloseIsHup(t *testing.T) {
	a, b := socketpair(t)
	require.NoError(t, unix.Close(b))

	// Once b is closed, a write on a reports EPIPE; the loop allows a few
	// attempts before asserting hup, in case the first write does not yet
	// observe the close.
	var hup bool
	for i := 0; i < 10 && !hup; i++ {
		_, hup = socketio.Write(a, []byte("x"))
	}
	assert.True(t, hup)
}
