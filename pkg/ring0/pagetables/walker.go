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

package pagetables

import (
	"rvkernel.dev/rvkernel/pkg/hostarch"
)

// WalkStep is one level of a translation.
type WalkStep struct {
	// Level is 0 for the root table.
	Level int

	// Table is the frame holding the table consulted at this level.
	Table hostarch.PhysPageNum

	// Index is the slot consulted.
	Index int

	// Entry is the slot's contents.
	Entry PTE
}

// Walk returns the steps of translating vpn. The walk stops early at the
// first invalid directory entry.
func (pt *PageTable) Walk(vpn hostarch.VirtPageNum) []WalkStep {
	var steps []WalkStep
	ppn := pt.root
	for level, i := range vpn.Indexes() {
		pte := pt.table(ppn)[i]
		steps = append(steps, WalkStep{Level: level, Table: ppn, Index: i, Entry: pte})
		if !pte.Valid() || level == hostarch.Levels-1 {
			break
		}
		ppn = pte.PPN()
	}
	return steps
}

// Visitor is called for each valid leaf found by Visit. Returning false
// stops the iteration.
type Visitor func(vpn hostarch.VirtPageNum, pte PTE) bool

// Visit calls fn for every valid leaf in ascending virtual page order.
func (pt *PageTable) Visit(fn Visitor) {
	pt.visit(pt.root, 0, 0, fn)
}

func (pt *PageTable) visit(ppn hostarch.PhysPageNum, level int, prefix hostarch.VirtPageNum, fn Visitor) bool {
	for i, pte := range pt.table(ppn) {
		if !pte.Valid() {
			continue
		}
		vpn := prefix<<hostarch.IndexBits | hostarch.VirtPageNum(i)
		if level == hostarch.Levels-1 {
			if !fn(vpn, pte) {
				return false
			}
			continue
		}
		if !pt.visit(pte.PPN(), level+1, vpn, fn) {
			return false
		}
	}
	return true
}
