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
	"sort"

	"rvkernel.dev/rvkernel/pkg/abi/linux"
	"rvkernel.dev/rvkernel/pkg/sentry/arch"
)

// SyscallFn is a syscall implementation. A non-nil error is reported to the
// caller as -1.
type SyscallFn func(k *Kernel, args arch.SyscallArguments) (uint64, error)

// Syscall describes a syscall implementation.
type Syscall struct {
	// Name is the syscall name.
	Name string

	// Fn is the implementation.
	Fn SyscallFn
}

// MissingFn is called when a syscall is not in the table.
type MissingFn func(k *Kernel, sysno uint64, args arch.SyscallArguments) (uint64, error)

// SyscallTable maps syscall numbers to implementations.
type SyscallTable struct {
	// Table is the map of syscall numbers to implementations.
	Table map[uint64]Syscall

	// Missing handles syscalls not in Table. If nil, they fail.
	Missing MissingFn

	// lookup is a fixed-size array that holds the syscalls (indexed by
	// their numbers). It is used for fast look ups.
	lookup [linux.MaxSyscallNum]SyscallFn
}

// Init initializes the lookup array. It must be called before Lookup.
func (s *SyscallTable) Init() {
	for num, sc := range s.Table {
		if num >= linux.MaxSyscallNum {
			panic(fmt.Sprintf("syscall %d (%s) outside the table", num, sc.Name))
		}
		s.lookup[num] = sc.Fn
	}
}

// Lookup returns the syscall implementation, if one exists.
func (s *SyscallTable) Lookup(sysno uint64) SyscallFn {
	if sysno < linux.MaxSyscallNum {
		return s.lookup[sysno]
	}
	return nil
}

// Name returns the name of sysno, or its number if it has no entry.
func (s *SyscallTable) Name(sysno uint64) string {
	if sc, ok := s.Table[sysno]; ok {
		return sc.Name
	}
	return fmt.Sprintf("sys_%d", sysno)
}

// Numbers returns the implemented syscall numbers in ascending order.
func (s *SyscallTable) Numbers() []uint64 {
	nums := make([]uint64, 0, len(s.Table))
	for num := range s.Table {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums
}
