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

// Package apps holds the built-in user programs rvsim boots.
package apps

import (
	"fmt"
	"sort"
	"strings"

	"rvkernel.dev/rvkernel/pkg/abi/linux"
	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/sentry/kernel"
)

var programs = map[string]kernel.Program{
	"hello":     hello,
	"power3":    power(3, 10007),
	"power5":    power(5, 10007),
	"power7":    power(7, 10007),
	"sleep":     sleep,
	"mmap":      mmapTest,
	"sbrk":      sbrkTest,
	"taskinfo":  taskInfoTest,
	"prio_low":  stride(5),
	"prio_high": stride(10),
}

// Names returns the names of every built-in program in order.
func Names() []string {
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the program called name.
func Lookup(name string) (kernel.Program, error) {
	prog, ok := programs[name]
	if !ok {
		return nil, fmt.Errorf("unknown program %q, have: %s", name, strings.Join(Names(), ", "))
	}
	return prog, nil
}

func hello(uc *kernel.UserContext) {
	puts(uc, "Hello, world!\n")
}

// power prints base^i mod m, yielding between steps.
func power(base, m uint64) kernel.Program {
	const steps = 40
	return func(uc *kernel.UserContext) {
		p := uint64(1)
		for i := 1; i <= steps; i++ {
			p = p * base % m
			if i%10 == 0 {
				puts(uc, fmt.Sprintf("power_%d [%d/%d]\n", base, i, steps))
			}
			uc.Yield()
		}
		puts(uc, fmt.Sprintf("%d^%d = %d(MOD %d)\n", base, steps, p, m))
		puts(uc, fmt.Sprintf("Test power_%d OK!\n", base))
	}
}

// sleep yields until 50ms of wall time have passed.
func sleep(uc *kernel.UserContext) {
	start := getTimeMs(uc)
	for getTimeMs(uc) < start+50 {
		uc.Yield()
	}
	puts(uc, "Test sleep OK!\n")
}

func mmapTest(uc *kernel.UserContext) {
	const start = hostarch.VirtAddr(0x10000000)
	const length = 2 * hostarch.PageSize
	if mmap(uc, start, length, 3) != 0 {
		puts(uc, "mmap failed\n")
		uc.Exit(-1)
	}
	msg := []byte("across a page boundary")
	at := start + hostarch.PageSize - 8
	uc.Store(at, msg)
	got := make([]byte, len(msg))
	uc.Load(at, got)
	if string(got) != string(msg) {
		puts(uc, "mmap readback mismatch\n")
		uc.Exit(-1)
	}
	if mmap(uc, start, hostarch.PageSize, 3) != -1 {
		puts(uc, "overlapping mmap succeeded\n")
		uc.Exit(-1)
	}
	if munmap(uc, start, length) != 0 || munmap(uc, start, length) != -1 {
		puts(uc, "munmap failed\n")
		uc.Exit(-1)
	}
	puts(uc, "Test mmap OK!\n")
}

func sbrkTest(uc *kernel.UserContext) {
	old := sbrk(uc, 0)
	if sbrk(uc, hostarch.PageSize) != old {
		puts(uc, "sbrk grow failed\n")
		uc.Exit(-1)
	}
	heap := hostarch.VirtAddr(old)
	uc.Store(heap, []byte("heap"))
	if sbrk(uc, -hostarch.PageSize) != old+hostarch.PageSize {
		puts(uc, "sbrk shrink failed\n")
		uc.Exit(-1)
	}
	if sbrk(uc, -1) != -1 {
		puts(uc, "sbrk below the heap bottom succeeded\n")
		uc.Exit(-1)
	}
	puts(uc, "Test sbrk OK!\n")
}

func taskInfoTest(uc *kernel.UserContext) {
	getTime(uc)
	uc.Yield()
	info, ret := taskInfo(uc)
	if ret != 0 || info.Status != linux.TaskRunning {
		puts(uc, "task_info failed\n")
		uc.Exit(-1)
	}
	puts(uc, fmt.Sprintf("task_info: get_time=%d yield=%d task_info=%d time=%dms\n",
		info.SyscallTimes[linux.SYS_GETTIMEOFDAY],
		info.SyscallTimes[linux.SYS_SCHED_YIELD],
		info.SyscallTimes[linux.SYS_TASK_INFO],
		info.Time))
}

// stride sets its priority and yields until 100ms have passed, then
// reports how many times it ran. Higher priorities run proportionally more
// often.
func stride(prio int64) kernel.Program {
	return func(uc *kernel.UserContext) {
		if setPriority(uc, prio) != prio {
			puts(uc, "set_priority failed\n")
			uc.Exit(-1)
		}
		deadline := getTimeMs(uc) + 100
		runs := 0
		for getTimeMs(uc) < deadline {
			runs++
			uc.Yield()
		}
		puts(uc, fmt.Sprintf("priority %d done, ran %d times\n", prio, runs))
	}
}
