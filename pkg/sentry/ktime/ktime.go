// Copyright 2026 The rvkernel Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ktime provides the kernel's view of wall-clock time.
package ktime

import (
	"sync/atomic"
	"time"
)

// Clock is a source of wall-clock time in microseconds.
type Clock interface {
	// NowMicros returns the current time in microseconds. It never
	// returns zero.
	NowMicros() uint64
}

// NowMillis returns the current time of c in milliseconds.
func NowMillis(c Clock) uint64 {
	return c.NowMicros() / 1000
}

// HostClock reads the host's real time clock.
type HostClock struct{}

// NowMicros implements Clock.NowMicros.
func (HostClock) NowMicros() uint64 {
	return uint64(time.Now().UnixMicro())
}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	us atomic.Uint64
}

// NewManualClock returns a clock reading start.
func NewManualClock(start time.Duration) *ManualClock {
	c := &ManualClock{}
	c.us.Store(uint64(start.Microseconds()))
	return c
}

// NowMicros implements Clock.NowMicros.
func (c *ManualClock) NowMicros() uint64 {
	return c.us.Load()
}

// Advance moves c forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.us.Add(uint64(d.Microseconds()))
}
