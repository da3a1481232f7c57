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
	"rvkernel.dev/rvkernel/pkg/abi/linux"
	"rvkernel.dev/rvkernel/pkg/marshal"
	"rvkernel.dev/rvkernel/pkg/sentry/arch"
	"rvkernel.dev/rvkernel/pkg/sentry/kernel"
	"rvkernel.dev/rvkernel/pkg/sentry/ktime"
)

// GetTime writes the current time as a TimeVal to the address in the first
// argument. The second argument, a timezone, is ignored.
func GetTime(k *kernel.Kernel, args arch.SyscallArguments) (uint64, error) {
	addr := args[0].Pointer()
	tv := linux.MicrosToTimeVal(k.Clock().NowMicros())
	k.Processor().CopyToCurrentUser(addr, marshal.Marshal(&tv))
	return 0, nil
}

// TaskInfo writes the status, syscall counts and running time of the
// calling task to the address in the first argument.
func TaskInfo(k *kernel.Kernel, args arch.SyscallArguments) (uint64, error) {
	addr := args[0].Pointer()
	p := k.Processor()
	info := linux.TaskInfo{
		Status:       linux.TaskRunning,
		SyscallTimes: p.SyscallTimes(),
		Time:         ktime.NowMillis(k.Clock()) - p.StartTimeMs(),
	}
	p.CopyToCurrentUser(addr, marshal.Marshal(&info))
	return 0, nil
}
