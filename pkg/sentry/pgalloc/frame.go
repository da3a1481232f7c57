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

package pgalloc

import (
	"fmt"

	"rvkernel.dev/rvkernel/pkg/hostarch"
)

// Frame is exclusive ownership of one physical frame. Release returns the
// frame to its allocator; a Frame must be released exactly once.
type Frame struct {
	// PPN is the frame's physical page number.
	PPN hostarch.PhysPageNum

	a        *FrameAllocator
	released bool
}

// Bytes returns the contents of the frame.
func (f *Frame) Bytes() []byte {
	return f.a.Bytes(f.PPN)
}

// Release returns the frame to the allocator.
func (f *Frame) Release() {
	if f.released {
		panic(fmt.Sprintf("double release of %v", f.PPN))
	}
	f.released = true
	f.a.dealloc(f.PPN)
}

// String implements fmt.Stringer.String.
func (f *Frame) String() string {
	return fmt.Sprintf("Frame{%v}", f.PPN)
}
