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

package linux

import (
	"fmt"

	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/marshal"
)

// TaskStatus is the scheduling state of a task as reported to users.
type TaskStatus uint32

// Task states.
const (
	TaskUnInit TaskStatus = iota
	TaskReady
	TaskRunning
	TaskExited
)

// String implements fmt.Stringer.String.
func (s TaskStatus) String() string {
	switch s {
	case TaskUnInit:
		return "UnInit"
	case TaskReady:
		return "Ready"
	case TaskRunning:
		return "Running"
	case TaskExited:
		return "Exited"
	default:
		return fmt.Sprintf("TaskStatus(%d)", uint32(s))
	}
}

// SizeOfTaskInfo is the size of a TaskInfo struct in bytes: the status word,
// the syscall counters, four bytes of padding and the 8-byte aligned time.
const SizeOfTaskInfo = 4 + 4*MaxSyscallNum + 4 + 8

// TaskInfo is the structure written by task_info.
type TaskInfo struct {
	Status       TaskStatus
	SyscallTimes [MaxSyscallNum]uint32
	_            uint32
	// Time is the number of milliseconds since the task first ran.
	Time uint64
}

var _ marshal.Marshallable = (*TaskInfo)(nil)

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (t *TaskInfo) SizeBytes() int {
	return SizeOfTaskInfo
}

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (t *TaskInfo) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint32(dst[:4], uint32(t.Status))
	dst = dst[4:]
	for _, n := range t.SyscallTimes {
		hostarch.ByteOrder.PutUint32(dst[:4], n)
		dst = dst[4:]
	}
	hostarch.ByteOrder.PutUint32(dst[:4], 0)
	dst = dst[4:]
	hostarch.ByteOrder.PutUint64(dst[:8], t.Time)
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (t *TaskInfo) UnmarshalBytes(src []byte) {
	t.Status = TaskStatus(hostarch.ByteOrder.Uint32(src[:4]))
	src = src[4:]
	for i := range t.SyscallTimes {
		t.SyscallTimes[i] = hostarch.ByteOrder.Uint32(src[:4])
		src = src[4:]
	}
	src = src[4:]
	t.Time = hostarch.ByteOrder.Uint64(src[:8])
}
