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

package config

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"rvkernel.dev/rvkernel/rvsim/flag"
)

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	flagSet.String("config", "", "path to a TOML file with configuration values. Flags set on the command line take precedence.")

	// Debugging flags.
	flagSet.String("log", "", "file path where internal debug information is written, default is stderr.")
	flagSet.String("log-format", "text", "log format: text (default), json, or logrus.")
	flagSet.Bool("debug", false, "enable debug logging.")
	flagSet.String("debug-log", "", "additional location for logs. If it ends with '/', log files are created inside the directory with default names. The following variables are available: %TIMESTAMP%, %COMMAND%.")
	flagSet.String("debug-log-format", "text", "log format: text (default), json, or logrus.")
	flagSet.Bool("alsologtostderr", false, "send log messages to stderr.")

	// Flags that control kernel behavior.
	flagSet.String("platform", "coroutine", "specifies which context switch implementation to use.")
	flagSet.Uint64("memory-frames", 2048, "number of 4 KiB physical frames.")
	flagSet.Uint64("default-priority", 16, "stride priority of new tasks, at least 2.")
	flagSet.Bool("halt-when-idle", true, "stop once no task is ready instead of waiting for more.")
	flagSet.Duration("idle-backoff-max", 100*time.Millisecond, "maximum wait between looks at an empty ready queue.")
	flagSet.Duration("idle-log-every", time.Second, "minimum interval between idle warnings.")
	flagSet.String("apps", "", "comma-separated list of built-in programs to boot. Empty means all.")
}

// NewFromFlags creates a new Config with values coming from command line
// flags, layered over the TOML file named by --config if any.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	conf := &Config{}

	obj := reflect.ValueOf(conf).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("flag")
		if !ok {
			// No flag set for this field.
			continue
		}
		fl := flagSet.Lookup(name)
		if fl == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		x := reflect.ValueOf(flag.Get(fl.Value))
		obj.Field(i).Set(x)
	}

	if conf.ConfigFile != "" {
		if _, err := toml.DecodeFile(conf.ConfigFile, conf); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", conf.ConfigFile, err)
		}
		// Explicit flags win over the file.
		var err error
		flagSet.Visit(func(fl *flag.Flag) {
			if err != nil {
				return
			}
			if _, ok := fieldForFlag(st, fl.Name); ok {
				err = conf.set(fl.Name, flag.Get(fl.Value))
			}
		})
		if err != nil {
			return nil, err
		}
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// NewFromTOML decodes a Config from TOML text, starting from the flag
// defaults.
func NewFromTOML(data string) (*Config, error) {
	flagSet := flag.NewFlagSet("tmp", flag.ContinueOnError)
	RegisterFlags(flagSet)
	conf, err := NewFromFlags(flagSet)
	if err != nil {
		return nil, err
	}
	if _, err := toml.Decode(data, conf); err != nil {
		return nil, err
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func fieldForFlag(st reflect.Type, name string) (int, bool) {
	for i := 0; i < st.NumField(); i++ {
		if tag, ok := st.Field(i).Tag.Lookup("flag"); ok && tag == name {
			return i, true
		}
	}
	return 0, false
}

func (c *Config) set(name string, value any) error {
	obj := reflect.ValueOf(c).Elem()
	i, ok := fieldForFlag(obj.Type(), name)
	if !ok {
		return fmt.Errorf("flag %q not found", name)
	}
	obj.Field(i).Set(reflect.ValueOf(value))
	return nil
}

// ToFlags returns a slice of flags that correspond to the given Config.
// Values equal to the flag default are omitted.
func (c *Config) ToFlags() []string {
	var rv []string

	// Construct a temporary set for default plumbing.
	flagSet := flag.NewFlagSet("tmp", flag.ContinueOnError)
	RegisterFlags(flagSet)

	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("flag")
		if !ok {
			// No flag set for this field.
			continue
		}
		val := getVal(obj.Field(i))

		flag := flagSet.Lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		if val == flag.DefValue {
			continue
		}
		rv = append(rv, fmt.Sprintf("--%s=%s", flag.Name, val))
	}
	return rv
}

// Override writes a new value to a flag.
func (c *Config) Override(flagSet *flag.FlagSet, name string, value string) error {
	fl := flagSet.Lookup(name)
	if fl == nil {
		return fmt.Errorf("flag %q not found. Cannot set it to %q", name, value)
	}
	// Use flag to convert the string value to the underlying flag type, using
	// the same rules as the command-line for consistency.
	if err := fl.Value.Set(value); err != nil {
		return fmt.Errorf("error setting flag %s=%q: %w", name, value, err)
	}
	if err := c.set(name, flag.Get(fl.Value)); err != nil {
		return err
	}
	// Validates the config again to ensure it's left in a consistent state.
	return c.validate()
}

func getVal(field reflect.Value) string {
	if str, ok := field.Addr().Interface().(fmt.Stringer); ok {
		return str.String()
	}
	switch field.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(field.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(field.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(field.Uint(), 10)
	case reflect.String:
		return field.String()
	default:
		panic("unknown type " + field.Kind().String())
	}
}
