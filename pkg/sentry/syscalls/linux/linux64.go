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

// Package linux provides the syscall table for the rvkernel RV64 ABI and
// the handlers behind it.
package linux

import (
	"rvkernel.dev/rvkernel/pkg/abi/linux"
	"rvkernel.dev/rvkernel/pkg/errors/linuxerr"
	"rvkernel.dev/rvkernel/pkg/sentry/kernel"
	"rvkernel.dev/rvkernel/pkg/sentry/syscalls"
)

// sysRead is the number of read(2) in the RV64 Linux ABI. There is no input
// device, so it always fails.
const sysRead = 63

// NewRISCV64 returns a fresh table of the supported syscalls. Tables are
// initialized by the kernel that uses them, so each kernel gets its own.
func NewRISCV64() *kernel.SyscallTable {
	return &kernel.SyscallTable{
		Table: map[uint64]kernel.Syscall{
			sysRead:                syscalls.ErrorWithName("read", linuxerr.ENOSYS),
			linux.SYS_WRITE:        syscalls.Supported("write", Write),
			linux.SYS_EXIT:         syscalls.Supported("exit", Exit),
			linux.SYS_SCHED_YIELD:  syscalls.Supported("sched_yield", SchedYield),
			linux.SYS_SET_PRIORITY: syscalls.Supported("set_priority", SetPriority),
			linux.SYS_GETTIMEOFDAY: syscalls.Supported("get_time", GetTime),
			linux.SYS_SBRK:         syscalls.Supported("sbrk", Sbrk),
			linux.SYS_MUNMAP:       syscalls.Supported("munmap", Munmap),
			linux.SYS_MMAP:         syscalls.Supported("mmap", Mmap),
			linux.SYS_TASK_INFO:    syscalls.Supported("task_info", TaskInfo),
		},
	}
}
