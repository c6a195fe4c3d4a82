// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package conn_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"swarm/internal/conn"
	"swarm/internal/poller"
)

func TestIdleReachesConnected(t *testing.T) {
	ln, ep := listenLoopback(t)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- c
	}()

	p, err := poller.New()
	require.NoError(t, err)
	defer p.Close()

	c, err := conn.NewIdle(p, ep)
	require.NoError(t, err)
	c.Start()

	runFSM(t, p)
	require.True(t, c.Connected())

	select {
	case peer := <-accepted:
		peer.Close()
	case <-time.After(5 * time.Second):
		t.Fatal("server never observed the idle connection")
	}
	require.NoError(t, c.Close())
}
