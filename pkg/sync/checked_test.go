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

package sync

import (
	"strings"
	"testing"
)

func mustPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", want)
		}
		if s, ok := r.(string); !ok || !strings.Contains(s, want) {
			t.Fatalf("got panic %v, want one containing %q", r, want)
		}
	}()
	fn()
}

func TestCheckedMutexLockUnlock(t *testing.T) {
	var m CheckedMutex
	m.Lock()
	if !m.Held() {
		t.Errorf("Held() = false after Lock")
	}
	m.Unlock()
	if m.Held() {
		t.Errorf("Held() = true after Unlock")
	}
	m.Lock()
	m.Unlock()
}

func TestCheckedMutexReentrant(t *testing.T) {
	m := CheckedMutex{Name: "processor"}
	m.Lock()
	mustPanic(t, "processor: already borrowed", m.Lock)
}

func TestCheckedMutexUnlockUnlocked(t *testing.T) {
	var m CheckedMutex
	mustPanic(t, "unlock of unlocked", m.Unlock)
}

func TestCheckedMutexTryLock(t *testing.T) {
	var m CheckedMutex
	if !m.TryLock() {
		t.Fatalf("TryLock on free mutex failed")
	}
	if m.TryLock() {
		t.Errorf("TryLock on held mutex succeeded")
	}
}
