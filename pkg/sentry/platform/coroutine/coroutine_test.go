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

package coroutine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"rvkernel.dev/rvkernel/pkg/sentry/arch"
	"rvkernel.dev/rvkernel/pkg/sentry/platform"
	"rvkernel.dev/rvkernel/pkg/sync"
)

func TestPingPong(t *testing.T) {
	s := New()
	var main, task arch.TaskContext
	var trace []string
	task = arch.NewTaskContext(0, func() {
		for i := 0; i < 3; i++ {
			trace = append(trace, "task")
			s.Switch(&task, &main)
		}
		s.Switch(nil, &main)
	})

	for i := 0; i < 4; i++ {
		trace = append(trace, "main")
		s.Switch(&main, &task)
	}
	want := []string{"main", "task", "main", "task", "main", "task", "main"}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	if got := s.Switches(); got != 8 {
		t.Errorf("Switches() = %d, want 8", got)
	}
	if got := s.Started(); got != 1 {
		t.Errorf("Started() = %d, want 1", got)
	}
}

func TestAbandonRunsDeferred(t *testing.T) {
	s := New()
	var idle arch.TaskContext
	var wg sync.WaitGroup
	wg.Add(2)
	var tasks [2]arch.TaskContext
	for i := range tasks {
		tasks[i] = arch.NewTaskContext(uint64(i), func() {
			defer wg.Done()
			s.Switch(nil, &idle)
		})
	}
	for i := range tasks {
		s.Switch(&idle, &tasks[i])
		if !tasks[i].Started() {
			t.Errorf("task %d not started", i)
		}
	}
	wg.Wait()
}

func TestSwitchToEmptyContextPanics(t *testing.T) {
	s := New()
	var from, to arch.TaskContext
	defer func() {
		if recover() == nil {
			t.Errorf("Switch to a context without entry did not panic")
		}
	}()
	s.Switch(&from, &to)
}

func TestRegistered(t *testing.T) {
	c, err := platform.Lookup("coroutine")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if _, err := c(); err != nil {
		t.Errorf("constructor: %v", err)
	}
	if diff := cmp.Diff([]string{"coroutine"}, platform.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
	if _, err := platform.Lookup("kvm"); err == nil {
		t.Errorf("Lookup of unknown platform succeeded")
	}
}
