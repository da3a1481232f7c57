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

package mm

import (
	"rvkernel.dev/rvkernel/pkg/errors/linuxerr"
	"rvkernel.dev/rvkernel/pkg/hostarch"
)

// InitHeap places an empty heap at bottom.
func (ms *MemorySet) InitHeap(bottom hostarch.VirtAddr) error {
	if !bottom.Aligned() {
		return linuxerr.EINVAL
	}
	ms.heapBottom = bottom
	ms.brk = bottom
	return nil
}

// Brk returns the current program break.
func (ms *MemorySet) Brk() hostarch.VirtAddr {
	return ms.brk
}

// ChangeBrk moves the program break by delta bytes and returns the old
// break. The break may not move below the heap bottom.
//
// Pages [heapBottom, ceil(brk)) are mapped at all times.
func (ms *MemorySet) ChangeBrk(delta int64) (hostarch.VirtAddr, error) {
	old := ms.brk
	next := hostarch.VirtAddr(int64(old) + delta)
	if delta < 0 && (next < ms.heapBottom || next > old) {
		return 0, linuxerr.EINVAL
	}
	if delta > 0 && next < old {
		return 0, linuxerr.ENOMEM
	}
	oldEnd, newEnd := old.Ceil(), next.Ceil()
	switch {
	case newEnd > oldEnd:
		if err := ms.MMap(oldEnd.Addr(), uint64(newEnd-oldEnd)*hostarch.PageSize, heapPerms); err != nil {
			return 0, err
		}
	case newEnd < oldEnd:
		if err := ms.MUnmap(newEnd.Addr(), uint64(oldEnd-newEnd)*hostarch.PageSize); err != nil {
			return 0, err
		}
	}
	ms.brk = next
	return old, nil
}
