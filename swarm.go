// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package swarm implements the multi-worker orchestrator: it shards
// active/idle connection counts across a fixed number of OS threads,
// runs one driver per thread to completion, and returns per-connection
// timings in deterministic (worker, slot) order.
package swarm

import (
	"runtime"
	"sync"

	"swarm/internal/conn"
	"swarm/internal/driver"
	"swarm/internal/netutil"
	"swarm/log"
)

// Result is one active connection's recorded timings alongside the
// worker and slot it was created in, so callers can emit results in
// (worker_index, slot_index) lexicographic order.
type Result struct {
	WorkerIndex int
	SlotIndex   int
	Timing      conn.Timing
}

// Run shards nactive and nidle across nthreads workers, one OS thread
// each, and blocks until every worker's driver reaches quiescence. It
// returns one Result per active connection, ordered by worker index
// then slot index, ready for the caller to format and print.
//
// Remainder handling: nactive/nthreads and nidle/nthreads need not
// divide evenly. Rather than silently dropping the remainder, the
// first `remainder` workers each get one extra connection, so every
// requested connection is actually issued.
func Run(ep netutil.Endpoint, request []byte, nactive, nidle, nthreads int) ([]Result, error) {
	if nthreads < 1 {
		nthreads = 1
	}

	activeShares := shard(nactive, nthreads)
	idleShares := shard(nidle, nthreads)

	type workerOutcome struct {
		timings []conn.Timing
		err     error
	}
	outcomes := make([]workerOutcome, nthreads)

	var wg sync.WaitGroup
	wg.Add(nthreads)
	for i := 0; i < nthreads; i++ {
		go func(i int) {
			defer wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			d, err := driver.New()
			if err != nil {
				outcomes[i] = workerOutcome{err: err}
				return
			}
			defer d.Close()

			log.Debugf("swarm: worker %d running nactive=%d nidle=%d", i, activeShares[i], idleShares[i])
			timings, err := d.Run(idleShares[i], activeShares[i], ep, request)
			outcomes[i] = workerOutcome{timings: timings, err: err}
		}(i)
	}
	wg.Wait()

	var results []Result
	for i, o := range outcomes {
		if o.err != nil {
			return nil, o.err
		}
		for slot, t := range o.timings {
			results = append(results, Result{WorkerIndex: i, SlotIndex: slot, Timing: t})
		}
	}
	return results, nil
}

// shard splits total across n workers as evenly as possible: every
// worker gets total/n, and the first total%n workers get one extra.
func shard(total, n int) []int {
	base := total / n
	rem := total % n
	shares := make([]int, n)
	for i := range shares {
		shares[i] = base
		if i < rem {
			shares[i]++
		}
	}
	return shares
}
