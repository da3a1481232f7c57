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

package apps

import (
	"rvkernel.dev/rvkernel/pkg/abi/linux"
	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/sentry/kernel"
)

// The user side of the syscall ABI. Arguments that point at memory go
// through a scratch area one page below the initial stack pointer.

const scratchSize = hostarch.PageSize

func scratch(uc *kernel.UserContext) hostarch.VirtAddr {
	return uc.StackPointer() - scratchSize
}

// write writes s to fd in scratch-sized chunks and returns the last result.
func write(uc *kernel.UserContext, fd uint64, s string) int64 {
	var ret int64
	for b := []byte(s); len(b) > 0; {
		n := min(len(b), scratchSize)
		buf := scratch(uc)
		uc.Store(buf, b[:n])
		if ret = uc.Syscall(linux.SYS_WRITE, fd, uint64(buf), uint64(n)); ret < 0 {
			return ret
		}
		b = b[n:]
	}
	return ret
}

func puts(uc *kernel.UserContext, s string) {
	write(uc, linux.STDOUT, s)
}

func getTime(uc *kernel.UserContext) linux.TimeVal {
	buf := scratch(uc)
	uc.Syscall(linux.SYS_GETTIMEOFDAY, uint64(buf), 0, 0)
	b := make([]byte, linux.SizeOfTimeVal)
	uc.Load(buf, b)
	var tv linux.TimeVal
	tv.UnmarshalBytes(b)
	return tv
}

func getTimeMs(uc *kernel.UserContext) uint64 {
	tv := getTime(uc)
	return tv.Sec*1000 + tv.Usec/1000
}

func taskInfo(uc *kernel.UserContext) (linux.TaskInfo, int64) {
	buf := scratch(uc)
	ret := uc.Syscall(linux.SYS_TASK_INFO, uint64(buf), 0, 0)
	b := make([]byte, linux.SizeOfTaskInfo)
	uc.Load(buf, b)
	var info linux.TaskInfo
	info.UnmarshalBytes(b)
	return info, ret
}

func mmap(uc *kernel.UserContext, start hostarch.VirtAddr, length, port uint64) int64 {
	return uc.Syscall(linux.SYS_MMAP, uint64(start), length, port)
}

func munmap(uc *kernel.UserContext, start hostarch.VirtAddr, length uint64) int64 {
	return uc.Syscall(linux.SYS_MUNMAP, uint64(start), length, 0)
}

func sbrk(uc *kernel.UserContext, delta int32) int64 {
	return uc.Syscall(linux.SYS_SBRK, uint64(uint32(delta)), 0, 0)
}

func setPriority(uc *kernel.UserContext, prio int64) int64 {
	return uc.Syscall(linux.SYS_SET_PRIORITY, uint64(prio), 0, 0)
}
