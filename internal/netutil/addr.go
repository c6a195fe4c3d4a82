// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package netutil provides the non-blocking socket and sockaddr
// plumbing the active/idle connection FSMs need: a resolved endpoint,
// a non-blocking TCP socket, and an async connect.
package netutil

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Endpoint is an opaque, copyable value holding a resolved TCP
// endpoint, built once by the orchestrator and copied by value into
// every FSM.
type Endpoint struct {
	Family int // unix.AF_INET or unix.AF_INET6
	Addr   unix.Sockaddr
}

// ResolveEndpoint resolves host:port into an Endpoint. It is the thin
// adapter the CLI calls once before fanning out workers.
func ResolveEndpoint(host, port string) (Endpoint, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return Endpoint{}, fmt.Errorf("resolve %s:%s: %w", host, port, err)
	}
	return tcpAddrToEndpoint(tcpAddr)
}

func tcpAddrToEndpoint(addr *net.TCPAddr) (Endpoint, error) {
	family := unix.AF_INET
	ip4 := addr.IP.To4()
	if ip4 == nil {
		family = unix.AF_INET6
	}
	switch family {
	case unix.AF_INET:
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)
		return Endpoint{Family: family, Addr: sa}, nil
	default:
		ip6 := addr.IP.To16()
		if ip6 == nil {
			return Endpoint{}, fmt.Errorf("address %s is neither IPv4 nor IPv6", addr.IP)
		}
		sa := &unix.SockaddrInet6{Port: addr.Port}
		copy(sa.Addr[:], ip6)
		if addr.Zone != "" {
			if ifi, err := net.InterfaceByName(addr.Zone); err == nil {
				sa.ZoneId = uint32(ifi.Index)
			}
		}
		return Endpoint{Family: family, Addr: sa}, nil
	}
}
