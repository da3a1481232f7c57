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
	"rvkernel.dev/rvkernel/pkg/errors/linuxerr"
	"rvkernel.dev/rvkernel/pkg/sentry/arch"
	"rvkernel.dev/rvkernel/pkg/sentry/kernel"
)

// Exit implements exit: the calling task exits with the given code. It
// never returns.
func Exit(k *kernel.Kernel, args arch.SyscallArguments) (uint64, error) {
	k.ExitCurrentAndRunNext(args[0].Int())
	panic("exit returned")
}

// SchedYield implements sched_yield(2).
func SchedYield(k *kernel.Kernel, args arch.SyscallArguments) (uint64, error) {
	k.SuspendCurrentAndRunNext()
	return 0, nil
}

// SetPriority sets the stride priority of the calling task. Priorities below
// 2 fail.
func SetPriority(k *kernel.Kernel, args arch.SyscallArguments) (uint64, error) {
	prio := k.Processor().SetTaskPriority(args[0].Int64())
	if prio < 0 {
		return 0, linuxerr.EINVAL
	}
	return uint64(prio), nil
}
