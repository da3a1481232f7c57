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

package arch

import (
	"fmt"

	"rvkernel.dev/rvkernel/pkg/hostarch"
)

// sstatus bits.
const (
	// SstatusSPP is set when the trap came from supervisor mode.
	SstatusSPP = 1 << 8
	// SstatusSPIE holds the interrupt enable bit restored by sret.
	SstatusSPIE = 1 << 5
)

// TrapContext is the register snapshot taken when a task traps into the
// kernel, plus what the trap path needs to get back into the kernel.
type TrapContext struct {
	// X holds the integer registers; X[0] is always zero.
	X [32]uint64

	Sstatus uint64
	Sepc    uint64

	// KernelSatp is the token of the kernel address space.
	KernelSatp uint64

	// KernelSp is the top of the task's kernel stack.
	KernelSp uint64

	// TrapHandler is the address of the kernel trap handler.
	TrapHandler uint64
}

// AppInitContext returns the context that enters user mode at entry with
// the stack pointer at sp.
func AppInitContext(entry hostarch.VirtAddr, sp hostarch.VirtAddr, kernelSatp, kernelSp, trapHandler uint64) TrapContext {
	cx := TrapContext{
		Sstatus:     SstatusSPIE,
		Sepc:        uint64(entry),
		KernelSatp:  kernelSatp,
		KernelSp:    kernelSp,
		TrapHandler: trapHandler,
	}
	cx.X[RegSP] = uint64(sp)
	return cx
}

// SyscallNo returns the syscall number, held in a7.
func (cx *TrapContext) SyscallNo() uint64 {
	return cx.X[RegA7]
}

// SyscallArgs returns a0 through a2.
func (cx *TrapContext) SyscallArgs() SyscallArguments {
	return SyscallArguments{
		{Value: cx.X[RegA0]},
		{Value: cx.X[RegA1]},
		{Value: cx.X[RegA2]},
	}
}

// SetSyscall loads a syscall number and its arguments, as an ecall
// instruction would find them.
func (cx *TrapContext) SetSyscall(no uint64, args SyscallArguments) {
	cx.X[RegA7] = no
	cx.X[RegA0] = args[0].Value
	cx.X[RegA1] = args[1].Value
	cx.X[RegA2] = args[2].Value
}

// Return returns the syscall return value, held in a0.
func (cx *TrapContext) Return() uint64 {
	return cx.X[RegA0]
}

// SetReturn sets the syscall return value.
func (cx *TrapContext) SetReturn(v uint64) {
	cx.X[RegA0] = v
}

// SkipEcall advances sepc past the 4-byte ecall instruction.
func (cx *TrapContext) SkipEcall() {
	cx.Sepc += 4
}

// String implements fmt.Stringer.String.
func (cx *TrapContext) String() string {
	return fmt.Sprintf("TrapContext{sepc=%#x sp=%#x a0=%#x a7=%d}", cx.Sepc, cx.X[RegSP], cx.X[RegA0], cx.X[RegA7])
}
