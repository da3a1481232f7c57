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
	"rvkernel.dev/rvkernel/pkg/abi/linux"
	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/log"
	"rvkernel.dev/rvkernel/pkg/sentry/arch"
	"rvkernel.dev/rvkernel/pkg/sentry/mm"
)

// trapHandlerAddr is recorded in trap contexts as the kernel entry point.
const trapHandlerAddr = 0xffffffffc0200000

// Program is the user code of a task. It runs on the task's flow and
// reaches the kernel only through its UserContext.
type Program func(uc *UserContext)

// UserContext is what a running program sees of the machine: its registers,
// its address space and the ecall instruction.
type UserContext struct {
	k *Kernel
	t *Task
}

// Task returns the task running the program.
func (uc *UserContext) Task() *Task {
	return uc.t
}

// Kernel returns the kernel the program runs on.
func (uc *UserContext) Kernel() *Kernel {
	return uc.k
}

// Syscall traps into the kernel with syscall sysno and returns a0.
func (uc *UserContext) Syscall(sysno uint64, a0, a1, a2 uint64) int64 {
	cx := uc.t.TrapContext()
	cx.SetSyscall(sysno, arch.SyscallArguments{{Value: a0}, {Value: a1}, {Value: a2}})
	uc.k.TrapHandler()
	return int64(uc.t.TrapContext().Return())
}

// Yield gives up the core.
func (uc *UserContext) Yield() {
	uc.Syscall(linux.SYS_SCHED_YIELD, 0, 0, 0)
}

// Exit ends the program. It does not return.
func (uc *UserContext) Exit(code int32) {
	uc.Syscall(linux.SYS_EXIT, uint64(code), 0, 0)
	panic("exit returned")
}

// StackPointer returns the program's stack pointer.
func (uc *UserContext) StackPointer() hostarch.VirtAddr {
	return hostarch.VirtAddr(uc.t.TrapContext().X[arch.RegSP])
}

// Store writes b at addr through the program's page table.
func (uc *UserContext) Store(addr hostarch.VirtAddr, b []byte) {
	mm.CopyToUser(uc.k.alloc, uc.t.UserToken(), addr, b)
}

// Load reads len(b) bytes at addr through the program's page table.
func (uc *UserContext) Load(addr hostarch.VirtAddr, b []byte) {
	mm.CopyFromUser(uc.k.alloc, uc.t.UserToken(), b, addr)
}

// run is the body of a task's flow: it runs the program and exits with
// status 0 if the program returns.
func (uc *UserContext) run(prog Program) {
	prog(uc)
	uc.Exit(0)
}

// TrapHandler handles an ecall from the running task: it steps over the
// instruction, counts the syscall, runs it and stores the result in a0.
func (k *Kernel) TrapHandler() {
	cx := k.proc.CurrentTrapCx()
	cx.SkipEcall()
	sysno := cx.SyscallNo()
	k.proc.AddSyscallTimes(sysno)
	ret := k.executeSyscall(sysno, cx.SyscallArgs())
	// The syscall may have switched away and back.
	k.proc.CurrentTrapCx().SetReturn(ret)
}

func (k *Kernel) executeSyscall(sysno uint64, args arch.SyscallArguments) uint64 {
	fn := k.syscalls.Lookup(sysno)
	var (
		ret uint64
		err error
	)
	switch {
	case fn != nil:
		ret, err = fn(k, args)
	case k.syscalls.Missing != nil:
		ret, err = k.syscalls.Missing(k, sysno, args)
	default:
		log.Warningf("Unsupported syscall %d", sysno)
		syscallsHandled.Increment("missing")
		return ^uint64(0)
	}
	if err != nil {
		syscallsHandled.Increment("error")
		if log.IsLogging(log.Debug) {
			log.Debugf("%s(%v, %v, %v) failed: %v", k.syscalls.Name(sysno), args[0], args[1], args[2], err)
		}
		return ^uint64(0)
	}
	syscallsHandled.Increment("ok")
	return ret
}
