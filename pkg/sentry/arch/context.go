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

package arch

// TaskContext is the state saved by a kernel-level context switch: the
// return address, the kernel stack pointer and the callee-saved registers.
//
// On the host, the flow of control a context stands for is kept by the
// platform's switcher in Handle.
type TaskContext struct {
	RA uint64
	SP uint64
	S  [12]uint64

	// Entry is where a context that has never run starts. It must not
	// return; a task leaves its flow by switching away for good.
	Entry func()

	// Handle is owned by the platform switcher.
	Handle any
}

// NewTaskContext returns a context that starts at entry on the kernel stack
// whose top is sp.
func NewTaskContext(sp uint64, entry func()) TaskContext {
	return TaskContext{SP: sp, Entry: entry}
}

// Started returns true once a switcher has given cx a flow of control.
func (cx *TaskContext) Started() bool {
	return cx.Handle != nil
}
