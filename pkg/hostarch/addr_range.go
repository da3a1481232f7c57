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

package hostarch

import (
	"fmt"
	"iter"
)

// A VPNRange is the half-open range of pages [Start, End).
//
// VPNRanges are immutable and may be copied by value. A range whose End is
// not above its Start is empty.
type VPNRange struct {
	Start VirtPageNum
	End   VirtPageNum
}

// PageRangeOf returns the pages touched by the byte range [start,
// start+length). A zero length yields an empty range.
func PageRangeOf(start VirtAddr, length uint64) VPNRange {
	end := VirtAddrOf(uint64(start) + length)
	return VPNRange{Start: start.Floor(), End: end.Ceil()}
}

// Len returns the number of pages in r.
func (r VPNRange) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return uint64(r.End - r.Start)
}

// Contains returns true if vpn is in r.
func (r VPNRange) Contains(vpn VirtPageNum) bool {
	return r.Start <= vpn && vpn < r.End
}

// All iterates over every page in r in ascending order.
func (r VPNRange) All() iter.Seq[VirtPageNum] {
	return func(yield func(VirtPageNum) bool) {
		for vpn := r.Start; vpn < r.End; vpn = vpn.Next() {
			if !yield(vpn) {
				return
			}
		}
	}
}

// String implements fmt.Stringer.String.
func (r VPNRange) String() string {
	return fmt.Sprintf("[%#x, %#x)", uint64(r.Start), uint64(r.End))
}
