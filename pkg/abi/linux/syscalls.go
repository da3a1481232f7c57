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

// Package linux contains the constants and types of the user ABI.
package linux

// Syscall numbers.
const (
	SYS_WRITE        = 64
	SYS_EXIT         = 93
	SYS_SCHED_YIELD  = 124
	SYS_SET_PRIORITY = 140
	SYS_GETTIMEOFDAY = 169
	SYS_SBRK         = 214
	SYS_MUNMAP       = 215
	SYS_MMAP         = 222
	SYS_TASK_INFO    = 410
)

// MaxSyscallNum bounds the syscall numbers tracked per task.
const MaxSyscallNum = 500

// File descriptors understood by write.
const (
	STDIN  = 0
	STDOUT = 1
	STDERR = 2
)
