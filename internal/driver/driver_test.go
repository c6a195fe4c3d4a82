// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package driver_test

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"swarm/internal/conn"
	"swarm/internal/driver"
	"swarm/internal/netutil"
)

func TestRunIdleThenActive(t *testing.T) {
	ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer ln.Close()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	ep, err := netutil.ResolveEndpoint("127.0.0.1", strconv.Itoa(port))
	require.NoError(t, err)

	const nidle = 2
	const nactive = 3

	// Idle connections just sit there; active connections send a
	// request and expect a reply. Both look identical from accept()
	// until the peer either writes or shuts its write side.
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				buf := make([]byte, 1024)
				n, _ := c.Read(buf)
				if n > 0 {
					c.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
				}
				c.Close()
			}(c)
		}
	}()

	d, err := driver.New()
	require.NoError(t, err)
	defer d.Close()

	req := []byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")

	resultCh := make(chan []conn.Timing, 1)
	errCh := make(chan error, 1)
	go func() {
		results, err := d.Run(nidle, nactive, ep, req)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- results
	}()

	select {
	case err := <-errCh:
		t.Fatalf("driver run failed: %v", err)
	case results := <-resultCh:
		require.Len(t, results, nactive)
		for _, r := range results {
			require.NotEqual(t, conn.NotObserved, r.TTC)
			require.NotEqual(t, conn.NotObserved, r.TTFB)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("driver.Run did not complete")
	}
}
