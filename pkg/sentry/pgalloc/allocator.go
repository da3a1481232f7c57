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

	"github.com/google/btree"
	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/log"
	"rvkernel.dev/rvkernel/pkg/metric"
	"rvkernel.dev/rvkernel/pkg/sync"
)

var (
	framesAllocated = metric.MustCreateNewUint64Metric("pgalloc_frames_allocated", "Number of frames handed out.")
	framesReleased  = metric.MustCreateNewUint64Metric("pgalloc_frames_released", "Number of frames returned.")
)

// FrameAllocator hands out the frames of a MemoryFile.
//
// Frames that were never used are handed out in ascending order; frames that
// were released are reused before them, lowest page number first.
type FrameAllocator struct {
	mf *MemoryFile

	// mu protects the fields below.
	mu sync.Mutex

	// current is the lowest frame that has never been handed out.
	current hostarch.PhysPageNum

	// end bounds current.
	end hostarch.PhysPageNum

	// recycled holds released frames.
	recycled *btree.BTreeG[hostarch.PhysPageNum]

	// outstanding is the number of frames currently allocated.
	outstanding uint64
}

// NewFrameAllocator returns an allocator over every frame of mf.
func NewFrameAllocator(mf *MemoryFile) *FrameAllocator {
	return &FrameAllocator{
		mf:      mf,
		current: mf.Start(),
		end:     mf.End(),
		recycled: btree.NewG(8, func(a, b hostarch.PhysPageNum) bool {
			return a < b
		}),
	}
}

// MemoryFile returns the memory the allocator hands out.
func (a *FrameAllocator) MemoryFile() *MemoryFile {
	return a.mf
}

// Bytes returns the contents of frame ppn.
func (a *FrameAllocator) Bytes(ppn hostarch.PhysPageNum) []byte {
	return a.mf.Bytes(ppn)
}

// Allocate returns a zeroed frame, or false if memory is exhausted.
func (a *FrameAllocator) Allocate() (*Frame, bool) {
	a.mu.Lock()
	ppn, ok := a.recycled.DeleteMin()
	if !ok {
		if a.current == a.end {
			a.mu.Unlock()
			return nil, false
		}
		ppn = a.current
		a.current++
	}
	a.outstanding++
	a.mu.Unlock()
	framesAllocated.Increment()

	clear(a.mf.Bytes(ppn))
	return &Frame{PPN: ppn, a: a}, true
}

// MustAllocate is Allocate for callers that treat exhaustion as fatal.
func (a *FrameAllocator) MustAllocate() *Frame {
	f, ok := a.Allocate()
	if !ok {
		panic("out of physical frames")
	}
	return f
}

// dealloc returns ppn to the allocator.
//
// Preconditions: ppn is allocated.
func (a *FrameAllocator) dealloc(ppn hostarch.PhysPageNum) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ppn >= a.current || a.recycled.Has(ppn) {
		panic(fmt.Sprintf("frame %v has not been allocated", ppn))
	}
	a.recycled.ReplaceOrInsert(ppn)
	a.outstanding--
	framesReleased.Increment()
	if log.IsLogging(log.Debug) {
		log.Debugf("pgalloc: released %v, %d outstanding", ppn, a.outstanding)
	}
}

// Outstanding returns the number of allocated frames.
func (a *FrameAllocator) Outstanding() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outstanding
}

// Available returns the number of frames Allocate can still return.
func (a *FrameAllocator) Available() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return uint64(a.end-a.current) + uint64(a.recycled.Len())
}
