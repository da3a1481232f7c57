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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"
	"rvkernel.dev/rvkernel/pkg/sentry/kernel"
	"rvkernel.dev/rvkernel/pkg/sentry/platform"
	"rvkernel.dev/rvkernel/pkg/sentry/syscalls/linux"
	"rvkernel.dev/rvkernel/rvsim/flag"
)

// Syscalls implements subcommands.Command for the "syscalls" command.
type Syscalls struct {
	output string
}

// SyscallDoc represents a single item of syscall documentation.
type SyscallDoc struct {
	Number uint64 `json:"number" yaml:"number"`
	Name   string `json:"name" yaml:"name"`
}

type outputFunc func(io.Writer, []SyscallDoc) error

// A map of output type names to output functions.
var outputMap = map[string]outputFunc{
	"table": outputTable,
	"json":  outputJSON,
	"yaml":  outputYAML,
}

// Name implements subcommands.Command.Name.
func (*Syscalls) Name() string {
	return "syscalls"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Syscalls) Synopsis() string {
	return "Print the supported syscalls."
}

// Usage implements subcommands.Command.Usage.
func (*Syscalls) Usage() string {
	return `syscalls [options] - Print the supported syscalls.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *Syscalls) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.output, "o", "table", "Output format (table, json, yaml).")
}

// Execute implements subcommands.Command.Execute.
func (s *Syscalls) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	out, ok := outputMap[s.output]
	if !ok {
		Fatalf("Unsupported output format %q", s.output)
	}
	if err := out(os.Stdout, syscallDocs(linux.NewRISCV64())); err != nil {
		Fatalf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}

func syscallDocs(table *kernel.SyscallTable) []SyscallDoc {
	table.Init()
	var docs []SyscallDoc
	for _, num := range table.Numbers() {
		docs = append(docs, SyscallDoc{Number: num, Name: table.Name(num)})
	}
	return docs
}

func outputTable(w io.Writer, docs []SyscallDoc) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NUM\tNAME")
	for _, d := range docs {
		fmt.Fprintf(tw, "%d\t%s\n", d.Number, d.Name)
	}
	return tw.Flush()
}

func outputJSON(w io.Writer, docs []SyscallDoc) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

func outputYAML(w io.Writer, docs []SyscallDoc) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return err
	}
	return enc.Close()
}

// Platforms implements subcommands.Command for the "platforms" command.
type Platforms struct{}

// Name implements subcommands.Command.Name.
func (*Platforms) Name() string {
	return "platforms"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Platforms) Synopsis() string {
	return "Print a list of available platforms."
}

// Usage implements subcommands.Command.Usage.
func (*Platforms) Usage() string {
	return `platforms [options] - Print available platforms.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Platforms) SetFlags(f *flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Platforms) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	for _, p := range platform.List() {
		fmt.Fprintf(os.Stdout, "%s\n", p)
	}
	return subcommands.ExitSuccess
}
