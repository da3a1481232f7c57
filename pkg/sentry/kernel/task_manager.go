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
	"github.com/google/btree"
	"rvkernel.dev/rvkernel/pkg/sync"
)

// BigStride is divided by a task's priority to get the pass it is charged
// per dispatch.
const BigStride = 65536

// readyEntry orders a task in the ready queue: lowest pass first, then
// first in first out.
type readyEntry struct {
	pass uint64
	seq  uint64
	t    *Task
}

func readyLess(a, b readyEntry) bool {
	if a.pass != b.pass {
		return a.pass < b.pass
	}
	return a.seq < b.seq
}

// TaskManager is the ready queue. It implements stride scheduling.
type TaskManager struct {
	mu    sync.Mutex
	ready *btree.BTreeG[readyEntry]
	seq   uint64
}

// NewTaskManager returns an empty ready queue.
func NewTaskManager() *TaskManager {
	return &TaskManager{
		ready: btree.NewG(8, readyLess),
	}
}

// Add makes t runnable.
func (m *TaskManager) Add(t *Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready.ReplaceOrInsert(readyEntry{pass: t.stridePass(), seq: m.seq, t: t})
	m.seq++
}

// Fetch removes and returns the ready task with the lowest pass, charging it
// for the dispatch.
func (m *TaskManager) Fetch() (*Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.ready.DeleteMin()
	if !ok {
		return nil, false
	}
	e.t.advancePass()
	return e.t, true
}

// Len returns the number of ready tasks.
func (m *TaskManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready.Len()
}
