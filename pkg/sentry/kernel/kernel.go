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

// Package kernel provides the scheduling core: task control blocks, the
// stride ready queue, the processor's dispatch loop and the trap entry into
// the syscall table.
//
// Lock order: Processor.mu may be held while taking a Task.mu. No two
// Task.mu are ever held together, and neither lock is held across a context
// switch.
package kernel

import (
	"context"
	"fmt"
	"io"

	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/log"
	"rvkernel.dev/rvkernel/pkg/ring0/pagetables"
	"rvkernel.dev/rvkernel/pkg/sentry/arch"
	"rvkernel.dev/rvkernel/pkg/sentry/ktime"
	"rvkernel.dev/rvkernel/pkg/sentry/mm"
	"rvkernel.dev/rvkernel/pkg/sentry/pgalloc"
	"rvkernel.dev/rvkernel/pkg/sentry/platform"
	"rvkernel.dev/rvkernel/pkg/sync"
)

// User address space layout.
const (
	// UserTextBase is where a program's text page is mapped.
	UserTextBase = hostarch.VirtAddr(0x10000)

	// UserStackSize is the size of a user stack.
	UserStackSize = 2 * hostarch.PageSize

	// UserStackTop is the initial user stack pointer. A guard page lies
	// between the text and the stack.
	UserStackTop = UserTextBase + 2*hostarch.PageSize + UserStackSize

	// UserHeapBottom is the initial program break.
	UserHeapBottom = UserStackTop
)

// Kernel stacks sit below the trampoline, one per pid, each followed by a
// guard page.
const (
	trampoline      = 1<<hostarch.VAWidth - hostarch.PageSize
	kernelStackSize = 2 * hostarch.PageSize
)

func kernelStackTop(pid ThreadID) uint64 {
	return trampoline - uint64(pid)*(kernelStackSize+hostarch.PageSize)
}

// InitKernelArgs holds arguments to New.
type InitKernelArgs struct {
	// MemoryFrames is the number of physical frames.
	MemoryFrames uint64

	// Clock is the wall clock. If nil, the host clock is used.
	Clock ktime.Clock

	// Switcher performs context switches.
	Switcher platform.Switcher

	// Console receives writes to stdout.
	Console io.Writer

	// SyscallTable is the syscall table. Init is called on it.
	SyscallTable *SyscallTable

	// DefaultPriority is the priority of new tasks. Zero means
	// DefaultPriority.
	DefaultPriority uint64

	// Processor configures the dispatch loop.
	Processor ProcessorOpts
}

// Kernel ties the core together.
type Kernel struct {
	mf    *pgalloc.MemoryFile
	alloc *pgalloc.FrameAllocator

	// kernelSpace is the page table whose token trap contexts return to.
	kernelSpace *pagetables.PageTable

	proc     *Processor
	tasks    *TaskManager
	clock    ktime.Clock
	console  io.Writer
	syscalls *SyscallTable

	defaultPriority uint64

	// mu guards the fields below.
	mu sync.Mutex

	nextPID ThreadID
	all     []*Task
}

// New returns a kernel with an empty ready queue.
func New(args InitKernelArgs) (*Kernel, error) {
	if args.Switcher == nil {
		return nil, fmt.Errorf("no switcher")
	}
	if args.SyscallTable == nil {
		return nil, fmt.Errorf("no syscall table")
	}
	if args.DefaultPriority == 0 {
		args.DefaultPriority = DefaultPriority
	}
	if args.DefaultPriority < 2 {
		return nil, fmt.Errorf("default priority %d below 2", args.DefaultPriority)
	}
	if args.Clock == nil {
		args.Clock = ktime.HostClock{}
	}
	if args.Console == nil {
		args.Console = io.Discard
	}
	mf, err := pgalloc.NewMemoryFile(args.MemoryFrames)
	if err != nil {
		return nil, fmt.Errorf("creating physical memory: %w", err)
	}
	args.SyscallTable.Init()

	k := &Kernel{
		mf:              mf,
		alloc:           pgalloc.NewFrameAllocator(mf),
		tasks:           NewTaskManager(),
		clock:           args.Clock,
		console:         args.Console,
		syscalls:        args.SyscallTable,
		defaultPriority: args.DefaultPriority,
	}
	k.kernelSpace = pagetables.New(k.alloc)
	k.proc = NewProcessor(k.tasks, args.Switcher, k.clock, k.alloc, args.Processor)
	log.Infof("Kernel: %d frames of memory at %v, kernel token %#x", args.MemoryFrames, mf.Start().Addr(), k.kernelSpace.Token())
	return k, nil
}

// Processor returns the processor.
func (k *Kernel) Processor() *Processor {
	return k.proc
}

// TaskManager returns the ready queue.
func (k *Kernel) TaskManager() *TaskManager {
	return k.tasks
}

// FrameAllocator returns the physical frame allocator.
func (k *Kernel) FrameAllocator() *pgalloc.FrameAllocator {
	return k.alloc
}

// Clock returns the wall clock.
func (k *Kernel) Clock() ktime.Clock {
	return k.clock
}

// Console returns the console writer.
func (k *Kernel) Console() io.Writer {
	return k.console
}

// SyscallTable returns the syscall table.
func (k *Kernel) SyscallTable() *SyscallTable {
	return k.syscalls
}

// Tasks returns every task spawned, in spawn order.
func (k *Kernel) Tasks() []*Task {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]*Task(nil), k.all...)
}

// Spawn creates a Ready task running prog in a fresh address space with a
// text page, a user stack and an empty heap.
func (k *Kernel) Spawn(name string, prog Program) (*Task, error) {
	ms := mm.NewMemorySet(k.alloc)
	if err := ms.MMap(UserTextBase, hostarch.PageSize, pagetables.Readable|pagetables.Executable|pagetables.User); err != nil {
		ms.Release()
		return nil, fmt.Errorf("mapping text of %q: %w", name, err)
	}
	sp, err := ms.MapUserStack(UserStackTop, UserStackSize)
	if err != nil {
		ms.Release()
		return nil, fmt.Errorf("mapping stack of %q: %w", name, err)
	}
	if err := ms.InitHeap(UserHeapBottom); err != nil {
		ms.Release()
		return nil, err
	}

	k.mu.Lock()
	pid := k.nextPID
	k.nextPID++
	t := newTask(pid, name, ms, k.defaultPriority)
	k.all = append(k.all, t)
	k.mu.Unlock()

	kstack := kernelStackTop(pid)
	t.trapCx = arch.AppInitContext(UserTextBase, sp, k.kernelSpace.Token(), kstack, trapHandlerAddr)
	uc := &UserContext{k: k, t: t}
	t.taskCx = arch.NewTaskContext(kstack, func() { uc.run(prog) })

	k.tasks.Add(t)
	tasksSpawned.Increment()
	log.Debugf("Spawned %v, token %#x", t, ms.Token())
	return t, nil
}

// Run runs the dispatch loop. See Processor.RunTasks.
func (k *Kernel) Run(ctx context.Context) error {
	return k.proc.RunTasks(ctx)
}

// Release frees the memory of every task that did not exit and unmaps
// physical memory. k must not be running.
func (k *Kernel) Release() error {
	for _, t := range k.Tasks() {
		t.releaseMemory()
	}
	k.kernelSpace.Release()
	if n := k.alloc.Outstanding(); n != 0 {
		log.Warningf("Kernel released with %d frames outstanding", n)
	}
	return k.mf.Close()
}
