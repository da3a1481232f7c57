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

package ktime

import (
	"testing"
	"time"
)

func TestManualClock(t *testing.T) {
	c := NewManualClock(2 * time.Second)
	if got := NowMillis(c); got != 2000 {
		t.Errorf("NowMillis() = %d, want 2000", got)
	}
	c.Advance(1500 * time.Microsecond)
	if got := c.NowMicros(); got != 2_001_500 {
		t.Errorf("NowMicros() = %d, want 2001500", got)
	}
}

func TestHostClockNonZero(t *testing.T) {
	var c HostClock
	if c.NowMicros() == 0 {
		t.Errorf("host clock reads zero")
	}
}
