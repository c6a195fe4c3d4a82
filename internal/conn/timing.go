// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package conn implements two connection state machines: Idle, which
// only ever establishes a connection and holds it open, and Active,
// which connects, writes one request, drains the response, and
// records timings.
package conn

// Timing is a TTC/TTFB pair in nanoseconds, sentinel -1 meaning "not
// observed".
type Timing struct {
	TTC  int64
	TTFB int64
}

// NotObserved marks a timing that was never recorded.
const NotObserved int64 = -1
