// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"swarm/internal/clock"
)

func TestSpanDelta(t *testing.T) {
	var s clock.Span
	s.Start()
	time.Sleep(time.Millisecond)
	s.Stop()
	assert.GreaterOrEqual(t, s.DeltaNS(), int64(time.Millisecond))
}

func TestSpanStopWithoutStartIsNoop(t *testing.T) {
	var s clock.Span
	s.Stop()
	assert.Equal(t, int64(0), s.DeltaNS())
}
