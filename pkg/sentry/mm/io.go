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
	"fmt"
	"iter"

	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/ring0/pagetables"
)

// TranslatedByteBuffer returns the physical memory backing [ptr, ptr+length)
// in the address space activated by token, one slice per page touched, each
// clipped to the part of the range in that page.
//
// The sequence is lazy. Every page touched must be mapped; reaching an
// unmapped page panics.
func TranslatedByteBuffer(alloc pagetables.Allocator, token uint64, ptr hostarch.VirtAddr, length uint64) iter.Seq[[]byte] {
	return translated(alloc, token, ptr, length, false)
}

// translated is TranslatedByteBuffer that also panics on a page without
// Writable if write is set.
func translated(alloc pagetables.Allocator, token uint64, ptr hostarch.VirtAddr, length uint64, write bool) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		pt := pagetables.FromToken(alloc, token)
		start, end := uint64(ptr), uint64(ptr)+length
		for start < end {
			va := hostarch.VirtAddr(start)
			vpn := va.Floor()
			pte, ok := pt.Translate(vpn)
			if !ok {
				panic(fmt.Sprintf("user address %v is not mapped in %#x", va, token))
			}
			if write && !pte.Writable() {
				panic(fmt.Sprintf("user address %v is not writable in %#x: %v", va, token, pte))
			}
			stop := min(end, uint64(vpn.Next().Addr()))
			off := va.PageOffset()
			frame := alloc.Bytes(pte.PPN())
			if !yield(frame[off : off+(stop-start)]) {
				return
			}
			start = stop
		}
	}
}

// CopyToUser copies src to dst in the address space activated by token.
// Every destination page must be mapped writable.
func CopyToUser(alloc pagetables.Allocator, token uint64, dst hostarch.VirtAddr, src []byte) {
	for b := range translated(alloc, token, dst, uint64(len(src)), true) {
		src = src[copy(b, src):]
	}
}

// CopyFromUser fills dst from src in the address space activated by token.
func CopyFromUser(alloc pagetables.Allocator, token uint64, dst []byte, src hostarch.VirtAddr) {
	for b := range TranslatedByteBuffer(alloc, token, src, uint64(len(dst))) {
		dst = dst[copy(dst, b):]
	}
}
