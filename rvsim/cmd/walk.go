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

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/subcommands"
	"rvkernel.dev/rvkernel/pkg/hostarch"
	"rvkernel.dev/rvkernel/pkg/ring0/pagetables"
	"rvkernel.dev/rvkernel/pkg/sentry/mm"
	"rvkernel.dev/rvkernel/pkg/sentry/pgalloc"
	"rvkernel.dev/rvkernel/rvsim/config"
	"rvkernel.dev/rvkernel/rvsim/flag"
)

// Walk implements subcommands.Command for the "walk" command, which maps a
// range into a fresh address space and prints how each page translates.
type Walk struct {
	port uint64
}

// Name implements subcommands.Command.Name.
func (*Walk) Name() string {
	return "walk"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Walk) Synopsis() string {
	return "map a range and print its Sv39 page table walk"
}

// Usage implements subcommands.Command.Usage.
func (*Walk) Usage() string {
	return `walk [-port=3] <start> <length> - maps [start, start+length) and prints the walk of every page.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (w *Walk) SetFlags(f *flag.FlagSet) {
	f.Uint64Var(&w.port, "port", 3, "R/W/X bits of the mapping, as in mmap.")
}

// Execute implements subcommands.Command.Execute.
func (w *Walk) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	start, err := strconv.ParseUint(f.Arg(0), 0, 64)
	if err != nil {
		Fatalf("parsing start: %v", err)
	}
	length, err := strconv.ParseUint(f.Arg(1), 0, 64)
	if err != nil {
		Fatalf("parsing length: %v", err)
	}
	if err := walk(os.Stdout, conf.MemoryFrames, hostarch.VirtAddr(start), length, w.port); err != nil {
		Fatalf("%v", err)
	}
	return subcommands.ExitSuccess
}

// walk maps the range in a scratch memory of frames frames and writes the
// token and per-page walk to out.
func walk(out io.Writer, frames uint64, start hostarch.VirtAddr, length, port uint64) error {
	if port&^hostarch.PortMask != 0 || port&hostarch.PortMask == 0 {
		return fmt.Errorf("invalid port %#x", port)
	}
	if !start.Aligned() {
		return fmt.Errorf("start %v is not page aligned", start)
	}
	mf, err := pgalloc.NewMemoryFile(frames)
	if err != nil {
		return err
	}
	defer mf.Close()
	alloc := pgalloc.NewFrameAllocator(mf)

	ms := mm.NewMemorySet(alloc)
	defer ms.Release()
	flags := pagetables.FlagsFor(hostarch.AccessTypeFromPort(port), true)
	if err := ms.MMap(start, length, flags); err != nil {
		return fmt.Errorf("mapping %v+%#x: %w", start, length, err)
	}

	pt := ms.PageTable()
	fmt.Fprintf(out, "token %#x root %v, %d directory frames, %d leaf frames\n", pt.Token(), pt.Root(), pt.DirectoryFrames(), ms.LeafFrames())
	for vpn := range hostarch.PageRangeOf(start, length).All() {
		fmt.Fprintf(out, "%v (%v):\n", vpn, vpn.Addr())
		for _, step := range pt.Walk(vpn) {
			fmt.Fprintf(out, "  L%d %v[%3d] = %v\n", step.Level, step.Table, step.Index, step.Entry)
		}
	}
	return nil
}
