// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package clock provides the monotonic nanosecond timing primitive the
// active connection FSM uses to record TTC and TTFB. It uses the
// monotonic clock reading Go's runtime attaches to time.Now(), rather
// than a wall clock, since a wall clock can step backwards under NTP
// adjustment.
package clock

import "time"

// Span is two timestamps and their delta in nanoseconds. The delta is
// defined only after Stop has been called.
type Span struct {
	start time.Time
	dirty bool
	delta int64
}

// Start records the start timestamp.
func (s *Span) Start() {
	s.start = time.Now()
	s.dirty = true
}

// Stop records the stop timestamp and computes the delta. It is a
// no-op if Start was never called.
func (s *Span) Stop() {
	if !s.dirty {
		return
	}
	s.delta = time.Since(s.start).Nanoseconds()
	s.dirty = false
}

// DeltaNS returns the span's delta in nanoseconds. It is only valid
// after Stop has been called; callers that need a "not observed"
// sentinel track that separately rather than overloading the zero
// value.
func (s *Span) DeltaNS() int64 {
	return s.delta
}
