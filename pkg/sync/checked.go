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
	"fmt"
	"sync/atomic"
)

// CheckedMutex is a non-reentrant lock for state owned by a single core.
//
// On a single core with cooperative scheduling there is never a second flow
// of control that could release the lock while another waits for it, so an
// acquisition that finds the lock held is a bug (reentrancy, or a lock held
// across a context switch). Lock panics in that case instead of blocking.
//
// The zero value is an unlocked mutex. A CheckedMutex must not be copied after
// first use.
type CheckedMutex struct {
	// Name identifies the protected state in panic messages.
	Name string

	held atomic.Bool
}

// Lock acquires m.
//
// Preconditions: m is not held.
func (m *CheckedMutex) Lock() {
	if !m.held.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("%s: already borrowed", m.name()))
	}
}

// TryLock acquires m if it is not held and reports whether it did.
func (m *CheckedMutex) TryLock() bool {
	return m.held.CompareAndSwap(false, true)
}

// Unlock releases m.
//
// Preconditions: m is held.
func (m *CheckedMutex) Unlock() {
	if !m.held.CompareAndSwap(true, false) {
		panic(fmt.Sprintf("%s: unlock of unlocked mutex", m.name()))
	}
}

// Held returns true if m is currently held.
func (m *CheckedMutex) Held() bool {
	return m.held.Load()
}

func (m *CheckedMutex) name() string {
	if m.Name == "" {
		return "CheckedMutex"
	}
	return m.Name
}
