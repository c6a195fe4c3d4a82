// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Command swarm is the CLI entry point: flag parsing, address
// resolution, HTTP/1.1 request construction, and result formatting
// around the measured engine in swarm.Run.
package main

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"swarm"
	"swarm/internal/netutil"
	"swarm/log"
	"swarm/metrics"
)

var (
	errRed      = color.New(color.FgRed).SprintFunc()
	usageYellow = color.New(color.FgYellow).SprintFunc()
)

func usage(fs *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, usageYellow("usage: swarm [-i nidle] [-t nthreads] <nactive> <host> <port> <url>"))
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "  nactive   number of measured connections (>= 0)")
	fmt.Fprintln(os.Stderr, "  host      target host")
	fmt.Fprintln(os.Stderr, "  port      target port")
	fmt.Fprintln(os.Stderr, "  url       request-target path sent in the GET line")
	fmt.Fprintln(os.Stderr)
	fs.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	fs := pflag.NewFlagSet("swarm", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	nidle := fs.IntP("idle", "i", 0, "idle connections in total across all workers")
	nthreads := fs.IntP("threads", "t", runtime.NumCPU(), "number of worker threads")
	debug := fs.Bool("debug", false, "enable per-state-transition trace logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, errRed(err))
		usage(fs)
		return 1
	}

	if *debug {
		log.SetLevel(zapcore.DebugLevel)
	}

	args := fs.Args()
	if len(args) != 4 {
		fmt.Fprintln(os.Stderr, errRed("expected exactly 4 positional arguments, got ", len(args)))
		usage(fs)
		return 1
	}

	nactive, err := parseNonNegativeInt(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, errRed("nactive: ", err))
		usage(fs)
		return 1
	}
	host, port, url := args[1], args[2], args[3]

	if *nidle < 0 {
		fmt.Fprintln(os.Stderr, errRed("-i/--idle must not be negative"))
		usage(fs)
		return 1
	}
	if *nthreads < 1 {
		fmt.Fprintln(os.Stderr, errRed("-t/--threads must be at least 1"))
		usage(fs)
		return 1
	}

	ep, err := netutil.ResolveEndpoint(host, port)
	if err != nil {
		fmt.Fprintln(os.Stderr, errRed(errors.Wrap(err, "resolve address")))
		return 1
	}

	request := buildRequest(url, host, port)

	results, err := swarm.Run(ep, request, nactive, *nidle, *nthreads)
	if err != nil {
		fmt.Fprintln(os.Stderr, errRed(errors.Wrap(err, "run")))
		return 1
	}

	for _, r := range results {
		fmt.Printf("%d %d\n", r.Timing.TTC, r.Timing.TTFB)
	}
	if *debug {
		metrics.Show()
	}
	return 0
}

func buildRequest(url, host, port string) []byte {
	return []byte(fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n",
		url, net.JoinHostPort(host, port)))
}

func parseNonNegativeInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrap(err, "not an integer")
	}
	if n < 0 {
		return 0, errors.New("must not be negative")
	}
	return n, nil
}
