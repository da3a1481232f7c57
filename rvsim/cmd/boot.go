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
	"os/signal"

	"github.com/gofrs/flock"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
	"rvkernel.dev/rvkernel/pkg/log"
	"rvkernel.dev/rvkernel/pkg/metric"
	"rvkernel.dev/rvkernel/pkg/prometheus"
	"rvkernel.dev/rvkernel/pkg/sentry/kernel"
	"rvkernel.dev/rvkernel/pkg/sentry/ktime"
	"rvkernel.dev/rvkernel/pkg/sentry/platform"
	"rvkernel.dev/rvkernel/pkg/sentry/syscalls/linux"
	"rvkernel.dev/rvkernel/rvsim/apps"
	"rvkernel.dev/rvkernel/rvsim/config"
	"rvkernel.dev/rvkernel/rvsim/flag"
)

// Boot implements subcommands.Command for the "boot" command which starts
// the kernel and runs built-in programs on it until they all exit.
type Boot struct {
	// metrics is where to write metrics once the kernel stops. "-" means
	// stdout; empty disables the export.
	metrics string

	// exporterPrefix prefixes every exported metric name.
	exporterPrefix string
}

// Name implements subcommands.Command.Name.
func (*Boot) Name() string {
	return "boot"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Boot) Synopsis() string {
	return "boot the kernel and run built-in programs"
}

// Usage implements subcommands.Command.Usage.
func (*Boot) Usage() string {
	return `boot [flags] [program...] - runs the named built-in programs, or those in --apps, or all of them.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (b *Boot) SetFlags(f *flag.FlagSet) {
	f.StringVar(&b.metrics, "metrics", "", "write Prometheus metrics to this file after the run, '-' for stdout.")
	f.StringVar(&b.exporterPrefix, "exporter-prefix", "rvsim_", "prefix for all metric names, following Prometheus exporter convention.")
}

// Execute implements subcommands.Command.Execute.
func (b *Boot) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	conf := args[0].(*config.Config)

	names := f.Args()
	if len(names) == 0 {
		names = conf.AppList()
	}
	if len(names) == 0 {
		names = apps.Names()
	}

	k, err := newKernel(conf, os.Stdout)
	if err != nil {
		Fatalf("creating kernel: %v", err)
	}
	for _, name := range names {
		prog, err := apps.Lookup(name)
		if err != nil {
			Fatalf("%v", err)
		}
		if _, err := k.Spawn(name, prog); err != nil {
			Fatalf("spawning %q: %v", name, err)
		}
	}

	runErr := run(ctx, k)

	status := subcommands.ExitSuccess
	for _, t := range k.Tasks() {
		log.Infof("%v: status %v, exit code %d", t, t.Status(), t.ExitCode())
		if t.ExitCode() != 0 {
			status = subcommands.ExitFailure
		}
	}
	if b.metrics != "" {
		if err := b.exportMetrics(); err != nil {
			Fatalf("exporting metrics: %v", err)
		}
	}
	if err := k.Release(); err != nil {
		log.Warningf("Releasing kernel memory: %v", err)
	}
	if runErr != nil {
		Fatalf("%v", runErr)
	}
	return status
}

// newKernel builds a kernel from conf.
func newKernel(conf *config.Config, console io.Writer) (*kernel.Kernel, error) {
	ctor, err := platform.Lookup(conf.Platform)
	if err != nil {
		return nil, err
	}
	sw, err := ctor()
	if err != nil {
		return nil, fmt.Errorf("creating platform %q: %w", conf.Platform, err)
	}
	return kernel.New(kernel.InitKernelArgs{
		MemoryFrames:    conf.MemoryFrames,
		Clock:           ktime.HostClock{},
		Switcher:        sw,
		Console:         console,
		SyscallTable:    linux.NewRISCV64(),
		DefaultPriority: conf.DefaultPriority,
		Processor: kernel.ProcessorOpts{
			HaltWhenIdle:   conf.HaltWhenIdle,
			IdleBackoffMax: conf.IdleBackoffMax,
			IdleLogEvery:   conf.IdleLogEvery,
		},
	})
}

// run runs the dispatch loop next to a signal watcher. A SIGINT or SIGTERM
// stops the loop at the next dispatch.
func run(ctx context.Context, k *kernel.Kernel) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGINT, unix.SIGTERM)
	defer signal.Stop(sigs)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return k.Run(gctx)
	})
	g.Go(func() error {
		select {
		case sig := <-sigs:
			log.Warningf("Received %v, stopping", sig)
			return fmt.Errorf("interrupted by %v", sig)
		case <-gctx.Done():
			return nil
		}
	})
	return g.Wait()
}

func (b *Boot) exportMetrics() error {
	w := io.Writer(os.Stdout)
	if b.metrics != "-" {
		// Concurrent boots exporting to the same file take turns.
		fl := flock.New(b.metrics)
		if err := fl.Lock(); err != nil {
			return fmt.Errorf("locking %q: %w", b.metrics, err)
		}
		defer fl.Unlock()
		f, err := os.Create(b.metrics)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	written, err := prometheus.Write(w, metric.GetSnapshot(), prometheus.ExportOptions{
		CommentHeader:  "rvsim boot metrics",
		ExporterPrefix: b.exporterPrefix,
	})
	if err != nil {
		return err
	}
	log.Infof("Wrote %d bytes of Prometheus metric data", written)
	return nil
}
