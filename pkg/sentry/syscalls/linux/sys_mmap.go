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
	"rvkernel.dev/rvkernel/pkg/sentry/arch"
	"rvkernel.dev/rvkernel/pkg/sentry/kernel"
)

// Mmap maps [start, start+len) with the R/W/X bits of port, user
// accessible. start must be page aligned and no page may already be mapped.
func Mmap(k *kernel.Kernel, args arch.SyscallArguments) (uint64, error) {
	start := args[0].Pointer()
	length := args[1].Uint64()
	port := args[2].Uint64()
	if err := k.Processor().MMap(start, length, port); err != nil {
		return 0, err
	}
	return 0, nil
}

// Munmap unmaps [start, start+len). Every page must be mapped.
func Munmap(k *kernel.Kernel, args arch.SyscallArguments) (uint64, error) {
	start := args[0].Pointer()
	length := args[1].Uint64()
	if err := k.Processor().MUnmap(start, length); err != nil {
		return 0, err
	}
	return 0, nil
}

// Sbrk moves the program break by the signed 32-bit delta in the first
// argument and returns the old break.
func Sbrk(k *kernel.Kernel, args arch.SyscallArguments) (uint64, error) {
	old, err := k.Processor().ChangeBrk(int64(args[0].Int()))
	if err != nil {
		return 0, err
	}
	return uint64(old), nil
}
