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

// Package syscalls holds helpers for building syscall tables. Traditionally,
// syscalls are the interface used by applications to request services from
// the kernel; handlers for the supported ones live in the linux subpackage.
package syscalls

import (
	"rvkernel.dev/rvkernel/pkg/sentry/arch"
	"rvkernel.dev/rvkernel/pkg/sentry/kernel"
)

// Supported returns a syscall table entry for an implemented syscall.
func Supported(name string, fn kernel.SyscallFn) kernel.Syscall {
	return kernel.Syscall{Name: name, Fn: fn}
}

// Error returns a syscall handler that will always give the passed error.
func Error(err error) kernel.SyscallFn {
	return func(*kernel.Kernel, arch.SyscallArguments) (uint64, error) {
		return 0, err
	}
}

// ErrorWithName returns a table entry for a known syscall that always fails
// with err.
func ErrorWithName(name string, err error) kernel.Syscall {
	return kernel.Syscall{Name: name, Fn: Error(err)}
}
