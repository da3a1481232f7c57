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

// Package coroutine implements platform.Switcher with goroutines. Every
// task context is backed by one goroutine, and all but one of them are
// parked at any time.
package coroutine

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"rvkernel.dev/rvkernel/pkg/log"
	"rvkernel.dev/rvkernel/pkg/sentry/arch"
	"rvkernel.dev/rvkernel/pkg/sentry/platform"
)

// fiber is the flow of control behind a context.
type fiber struct {
	// wake has capacity one so that a flow resumed before it parks does
	// not lose the wakeup.
	wake chan struct{}
}

func newFiber() *fiber {
	return &fiber{wake: make(chan struct{}, 1)}
}

// Switcher is a platform.Switcher.
type Switcher struct {
	switches atomic.Uint64
	started  atomic.Uint64
}

var _ platform.Switcher = (*Switcher)(nil)

// New returns a Switcher.
func New() *Switcher {
	return &Switcher{}
}

// Switches returns the number of switches performed.
func (s *Switcher) Switches() uint64 {
	return s.switches.Load()
}

// Started returns the number of flows started from an Entry.
func (s *Switcher) Started() uint64 {
	return s.started.Load()
}

func fiberOf(cx *arch.TaskContext) *fiber {
	f, ok := cx.Handle.(*fiber)
	if !ok {
		panic(fmt.Sprintf("task context handle %T was not created by this switcher", cx.Handle))
	}
	return f
}

// Switch implements platform.Switcher.Switch.
func (s *Switcher) Switch(from, to *arch.TaskContext) {
	if from == to {
		panic("switch to the running context")
	}
	var self *fiber
	if from != nil {
		// The first save of a flow adopts the calling goroutine.
		if from.Handle == nil {
			from.Handle = newFiber()
		}
		self = fiberOf(from)
	}
	s.switches.Add(1)
	s.resume(to)

	if self == nil {
		// Deferred calls of the abandoned flow run here, after to has
		// been resumed.
		runtime.Goexit()
	}
	<-self.wake
}

// resume wakes the flow behind cx, starting it if it never ran.
func (s *Switcher) resume(cx *arch.TaskContext) {
	if cx.Handle != nil {
		fiberOf(cx).wake <- struct{}{}
		return
	}
	if cx.Entry == nil {
		panic("switch to a context with no flow and no entry")
	}
	cx.Handle = newFiber()
	s.started.Add(1)
	entry := cx.Entry
	go func() {
		entry()
		panic("task entry returned")
	}()
	if log.IsLogging(log.Debug) {
		log.Debugf("coroutine: started flow at sp %#x", cx.SP)
	}
}

func init() {
	platform.Register("coroutine", func() (platform.Switcher, error) {
		return New(), nil
	})
}
