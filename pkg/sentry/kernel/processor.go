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
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
	"rvkernel.dev/rvkernel/pkg/abi/linux"
	"rvkernel.dev/rvkernel/pkg/errors/linuxerr"
	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/log"
	"rvkernel.dev/rvkernel/pkg/ring0/pagetables"
	"rvkernel.dev/rvkernel/pkg/sentry/arch"
	"rvkernel.dev/rvkernel/pkg/sentry/ktime"
	"rvkernel.dev/rvkernel/pkg/sentry/mm"
	"rvkernel.dev/rvkernel/pkg/sentry/platform"
	"rvkernel.dev/rvkernel/pkg/sync"
)

// ProcessorOpts configures the dispatch loop.
type ProcessorOpts struct {
	// HaltWhenIdle makes RunTasks return once no task is ready.
	HaltWhenIdle bool

	// IdleBackoffMax caps the wait between looks at an empty ready queue.
	IdleBackoffMax time.Duration

	// IdleLogEvery rate limits the idle warning.
	IdleLogEvery time.Duration
}

const (
	defaultIdleBackoffMax = 100 * time.Millisecond
	defaultIdleLogEvery   = time.Second
)

// errIdle is returned by the idle probe while the ready queue is empty.
var errIdle = errors.New("no ready task")

// Processor is the scheduling state of the single core: the running task and
// the idle flow that runs the dispatch loop.
type Processor struct {
	// mu guards current. It is never held across a context switch.
	mu sync.CheckedMutex

	// current is the task running on the core, if any.
	current *Task

	// idle is the dispatch loop's own flow. No task ever runs on it.
	idle arch.TaskContext

	tasks    *TaskManager
	switcher platform.Switcher
	clock    ktime.Clock
	alloc    pagetables.Allocator
	opts     ProcessorOpts
	idleLog  log.Logger
}

// NewProcessor returns a processor dispatching from tasks.
func NewProcessor(tasks *TaskManager, switcher platform.Switcher, clock ktime.Clock, alloc pagetables.Allocator, opts ProcessorOpts) *Processor {
	if opts.IdleBackoffMax <= 0 {
		opts.IdleBackoffMax = defaultIdleBackoffMax
	}
	if opts.IdleLogEvery <= 0 {
		opts.IdleLogEvery = defaultIdleLogEvery
	}
	return &Processor{
		mu:       sync.CheckedMutex{Name: "processor"},
		tasks:    tasks,
		switcher: switcher,
		clock:    clock,
		alloc:    alloc,
		opts:     opts,
		idleLog:  log.BasicRateLimitedLogger(opts.IdleLogEvery),
	}
}

// TakeCurrent removes and returns the running task.
func (p *Processor) TakeCurrent() *Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.current
	p.current = nil
	return t
}

// Current returns the running task, or nil.
func (p *Processor) Current() *Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Processor) mustCurrent() *Task {
	t := p.Current()
	if t == nil {
		panic("no current task")
	}
	return t
}

// RunTasks is the dispatch loop. It runs ready tasks until ctx is done, or,
// with HaltWhenIdle, until the ready queue is empty.
//
// Each round fetches a task under the processor lock, marks it Running,
// installs it as current, drops the lock and switches to it. The switch
// returns when the task calls Schedule.
func (p *Processor) RunTasks(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.mu.Lock()
		t, ok := p.tasks.Fetch()
		if !ok {
			p.mu.Unlock()
			if p.opts.HaltWhenIdle {
				log.Infof("All applications completed")
				return nil
			}
			if err := p.waitForWork(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if !errors.Is(err, errIdle) {
					return err
				}
			}
			continue
		}
		next := t.dispatch(ktime.NowMillis(p.clock))
		p.current = t
		p.mu.Unlock()
		dispatches.Increment()

		if log.IsLogging(log.Debug) {
			log.Debugf("switch to pid %d (%s)", t.PID(), t.Name())
		}
		p.switcher.Switch(&p.idle, next)
	}
}

// waitForWork backs off until a task is ready or ctx is done. It returns
// errIdle if it gave up early with the queue still empty, in which case the
// caller looks again.
func (p *Processor) waitForWork(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxInterval = p.opts.IdleBackoffMax
	b.MaxElapsedTime = 0
	err := backoff.Retry(func() error {
		if p.tasks.Len() > 0 {
			return nil
		}
		p.idleLog.Warningf("processor idle: no ready task")
		return errIdle
	}, backoff.WithContext(b, ctx))
	if errors.Is(err, errIdle) && ctx.Err() == nil {
		// WithContext stops once the deadline is nearer than the next
		// interval. Sleep out one interval here instead of spinning.
		timer := time.NewTimer(p.opts.IdleBackoffMax)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
	return err
}

// Schedule saves the calling task's flow into cx and resumes the dispatch
// loop. It returns when the task is dispatched again. A nil cx abandons the
// calling flow.
func (p *Processor) Schedule(cx *arch.TaskContext) {
	if p.mu.Held() {
		panic("Schedule with the processor lock held")
	}
	p.switcher.Switch(cx, &p.idle)
}

// CurrentUserToken returns the address space token of the running task.
func (p *Processor) CurrentUserToken() uint64 {
	return p.mustCurrent().UserToken()
}

// CurrentTrapCx returns the trap context of the running task.
func (p *Processor) CurrentTrapCx() *arch.TrapContext {
	return p.mustCurrent().TrapContext()
}

// CopyToCurrentUser copies src to dst in the running task's address space.
// Every page of the destination must be mapped.
func (p *Processor) CopyToCurrentUser(dst hostarch.VirtAddr, src []byte) {
	mm.CopyToUser(p.alloc, p.CurrentUserToken(), dst, src)
}

// CopyFromCurrentUser fills dst from src in the running task's address
// space. Every page of the source must be mapped.
func (p *Processor) CopyFromCurrentUser(dst []byte, src hostarch.VirtAddr) {
	mm.CopyFromUser(p.alloc, p.CurrentUserToken(), dst, src)
}

// AddSyscallTimes counts one call of syscall sysno by the running task.
func (p *Processor) AddSyscallTimes(sysno uint64) {
	p.mustCurrent().countSyscall(sysno)
}

// SyscallTimes returns the syscall counters of the running task.
func (p *Processor) SyscallTimes() [linux.MaxSyscallNum]uint32 {
	return p.mustCurrent().SyscallTimes()
}

// StartTimeMs returns when the running task was first dispatched.
func (p *Processor) StartTimeMs() uint64 {
	return p.mustCurrent().StartTimeMs()
}

// MMap maps [start, start+length) in the running task with the R/W/X bits
// of port.
//
// port must be nonzero and fit in hostarch.PortMask, and start must be page
// aligned (EINVAL). No page of the range may be mapped (EEXIST).
func (p *Processor) MMap(start hostarch.VirtAddr, length uint64, port uint64) error {
	if port&^hostarch.PortMask != 0 || port&hostarch.PortMask == 0 {
		return linuxerr.EINVAL
	}
	if !start.Aligned() {
		return linuxerr.EINVAL
	}
	flags := pagetables.FlagsFor(hostarch.AccessTypeFromPort(port), true)
	return p.mustCurrent().withMemory(func(ms *mm.MemorySet) error {
		if ms.AnyMapped(start, length) {
			return linuxerr.EEXIST
		}
		return ms.MMap(start, length, flags)
	})
}

// MUnmap unmaps [start, start+length) in the running task. start must be
// page aligned and every page of the range mapped (EINVAL).
func (p *Processor) MUnmap(start hostarch.VirtAddr, length uint64) error {
	if !start.Aligned() {
		return linuxerr.EINVAL
	}
	return p.mustCurrent().withMemory(func(ms *mm.MemorySet) error {
		if !ms.AllMapped(start, length) {
			return linuxerr.EINVAL
		}
		return ms.MUnmap(start, length)
	})
}

// ChangeBrk moves the running task's program break by delta and returns the
// old break.
func (p *Processor) ChangeBrk(delta int64) (hostarch.VirtAddr, error) {
	var old hostarch.VirtAddr
	err := p.mustCurrent().withMemory(func(ms *mm.MemorySet) error {
		var err error
		old, err = ms.ChangeBrk(delta)
		return err
	})
	return old, err
}

// SetTaskPriority sets the running task's priority and returns it, or
// returns -1 if priority is below 2.
func (p *Processor) SetTaskPriority(priority int64) int64 {
	if priority < 2 {
		return -1
	}
	p.mustCurrent().setPriority(uint64(priority))
	return priority
}
