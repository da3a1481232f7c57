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

package kernel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStrideOrder(t *testing.T) {
	m := NewTaskManager()
	hi := newTask(1, "hi", nil, 2)
	lo := newTask(2, "lo", nil, 16)
	m.Add(hi)
	m.Add(lo)

	var order []string
	for i := 0; i < 10; i++ {
		task, ok := m.Fetch()
		if !ok {
			t.Fatalf("Fetch #%d: queue empty", i)
		}
		order = append(order, task.Name())
		m.Add(task)
	}
	// hi is charged 32768 per run and lo 4096, so lo runs eight times
	// for each run of hi. Equal passes go first in, first out.
	want := []string{"hi", "lo", "lo", "lo", "lo", "lo", "lo", "lo", "lo", "hi"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
	if got, want := hi.stridePass(), uint64(2*BigStride/2); got != want {
		t.Errorf("hi pass = %d, want %d", got, want)
	}
}

func TestFetchEmpty(t *testing.T) {
	m := NewTaskManager()
	if task, ok := m.Fetch(); ok {
		t.Errorf("Fetch on empty queue = %v", task)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestSyscallTable(t *testing.T) {
	s := testSyscalls()
	s.Init()
	if s.Lookup(93) == nil || s.Lookup(124) == nil {
		t.Errorf("registered syscalls not found")
	}
	if s.Lookup(64) != nil || s.Lookup(1<<20) != nil {
		t.Errorf("unregistered syscalls found")
	}
	if diff := cmp.Diff([]uint64{93, 124, 215}, s.Numbers()); diff != "" {
		t.Errorf("Numbers() mismatch (-want +got):\n%s", diff)
	}
	if s.Name(93) != "exit" || s.Name(5) != "sys_5" {
		t.Errorf("Name() = %q, %q", s.Name(93), s.Name(5))
	}
}
