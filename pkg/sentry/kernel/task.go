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
	"fmt"

	"rvkernel.dev/rvkernel/pkg/abi/linux"
	"rvkernel.dev/rvkernel/pkg/sentry/arch"
	"rvkernel.dev/rvkernel/pkg/sentry/mm"
	"rvkernel.dev/rvkernel/pkg/sync"
)

// ThreadID is a task identifier.
type ThreadID int32

// DefaultPriority is the priority of a new task.
const DefaultPriority = 16

// Task is a task control block.
//
// The identity fields are immutable. Everything else is guarded by mu, which
// is a CheckedMutex: it is never held across a context switch, and at most
// one task's mu is held at a time.
type Task struct {
	pid  ThreadID
	name string

	mu sync.CheckedMutex

	// status is the scheduling state of the task.
	status linux.TaskStatus

	// taskCx is the task's kernel flow, saved while it is switched out.
	taskCx arch.TaskContext

	// trapCx is the user register state at the last trap.
	trapCx arch.TrapContext

	// mm is the task's address space. It is nil once the task exited.
	mm *mm.MemorySet

	// syscallTimes counts the syscalls made, by number.
	syscallTimes [linux.MaxSyscallNum]uint32

	// startTimeMs is the time of the first dispatch, zero before it.
	startTimeMs uint64

	// priority weighs the task in stride scheduling. It is at least 2.
	priority uint64

	// pass is the stride scheduling pass value.
	pass uint64

	// exitCode is valid once status is TaskExited.
	exitCode int32
}

func newTask(pid ThreadID, name string, ms *mm.MemorySet, priority uint64) *Task {
	t := &Task{
		pid:      pid,
		name:     name,
		status:   linux.TaskReady,
		mm:       ms,
		priority: priority,
	}
	t.mu.Name = fmt.Sprintf("task %d inner", pid)
	return t
}

// PID returns the task's identifier.
func (t *Task) PID() ThreadID {
	return t.pid
}

// Name returns the task's name.
func (t *Task) Name() string {
	return t.name
}

// String implements fmt.Stringer.String.
func (t *Task) String() string {
	return fmt.Sprintf("%s[%d]", t.name, t.pid)
}

// Status returns the scheduling state of t.
func (t *Task) Status() linux.TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Priority returns the scheduling priority of t.
func (t *Task) Priority() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.priority
}

// StartTimeMs returns when t was first dispatched, or zero.
func (t *Task) StartTimeMs() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startTimeMs
}

// SyscallTimes returns a copy of t's syscall counters.
func (t *Task) SyscallTimes() [linux.MaxSyscallNum]uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.syscallTimes
}

// ExitCode returns the code t exited with.
func (t *Task) ExitCode() int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exitCode
}

// UserToken returns the token of t's address space.
func (t *Task) UserToken() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mm == nil {
		panic(fmt.Sprintf("%v has no address space", t))
	}
	return t.mm.Token()
}

// TrapContext returns t's trap context. Only t's own flow may use it.
func (t *Task) TrapContext() *arch.TrapContext {
	return &t.trapCx
}

// Info returns the task_info view of t at time nowMs.
func (t *Task) Info(nowMs uint64) linux.TaskInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return linux.TaskInfo{
		Status:       t.status,
		SyscallTimes: t.syscallTimes,
		Time:         nowMs - t.startTimeMs,
	}
}

func (t *Task) setPriority(p uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.priority = p
}

func (t *Task) countSyscall(sysno uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sysno < linux.MaxSyscallNum {
		t.syscallTimes[sysno]++
	}
}

// withMemory runs fn on t's address space with t's inner state held.
func (t *Task) withMemory(fn func(ms *mm.MemorySet) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mm == nil {
		panic(fmt.Sprintf("%v has no address space", t))
	}
	return fn(t.mm)
}

// dispatch marks t Running and returns the context to switch to. The first
// dispatch stamps the start time.
func (t *Task) dispatch(nowMs uint64) *arch.TaskContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != linux.TaskReady {
		panic(fmt.Sprintf("dispatching %v in state %v", t, t.status))
	}
	t.status = linux.TaskRunning
	if t.startTimeMs == 0 {
		t.startTimeMs = nowMs
	}
	return &t.taskCx
}

// suspend marks a running t Ready and returns the context to save into.
func (t *Task) suspend() *arch.TaskContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != linux.TaskRunning {
		panic(fmt.Sprintf("suspending %v in state %v", t, t.status))
	}
	t.status = linux.TaskReady
	return &t.taskCx
}

// exit marks a running t Exited and releases its address space.
func (t *Task) exit(code int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != linux.TaskRunning {
		panic(fmt.Sprintf("exiting %v in state %v", t, t.status))
	}
	t.status = linux.TaskExited
	t.exitCode = code
	t.mm.Release()
	t.mm = nil
}

// releaseMemory frees the address space of a task that never exited.
func (t *Task) releaseMemory() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mm != nil {
		t.mm.Release()
		t.mm = nil
	}
}

func (t *Task) stridePass() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pass
}

// advancePass charges t for one dispatch.
func (t *Task) advancePass() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pass += BigStride / t.priority
}
