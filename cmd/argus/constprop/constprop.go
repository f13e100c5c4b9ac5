// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package constprop implements the front-end to the argus constant propagation tool, which runs
// the IDE constant propagation client on programs in the textual ir format.
package constprop

import (
	"context"
	"fmt"
	"os"

	"github.com/argus-analysis/argus/analysis/constprop"
	"github.com/argus-analysis/argus/analysis/ir"
	"github.com/argus-analysis/argus/cmd/argus/tools"
	"github.com/argus-analysis/argus/internal/formatutil"
)

// Usage for the constprop subcommand.
const Usage = ` Run constant propagation on a program in the textual ir format.
Usage:
  argus constprop [options] <file.ir>
Examples:
  % argus constprop -entry main program.ir
`

// Flags represents the parsed flags for the constprop subcommand.
type Flags struct {
	tools.CommonFlags
	entry string
}

// NewFlags parses the constprop flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("constprop")
	entry := flags.FlagSet.String("entry", "main", "entry procedure of the analysis")
	tools.SetUsage(flags.FlagSet, Usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command constprop with args %v: %v", args, err)
	}
	return Flags{
		CommonFlags: tools.CommonFlags{
			FlagSet:    flags.FlagSet,
			ConfigPath: *flags.ConfigPath,
			Verbose:    *flags.Verbose,
			WithTest:   *flags.WithTest,
		},
		entry: *entry,
	}, nil
}

// Run parses the ir file given in the flags, solves constant propagation from the entry
// procedure, and prints the value returned at every exit of every analyzed procedure.
func Run(flags Flags) error {
	cfg, err := tools.ConfigOrDefault(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	args := flags.FlagSet.Args()
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one ir file")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("could not open %s: %w", args[0], err)
	}
	defer f.Close()
	prog, err := ir.Parse(f)
	if err != nil {
		return fmt.Errorf("could not parse %s: %w", args[0], err)
	}
	if prog.Proc(flags.entry) == nil {
		return fmt.Errorf("no procedure named %q", flags.entry)
	}

	res, err := constprop.Run(context.Background(), prog, flags.entry, cfg)
	if err != nil {
		return err
	}
	if res.Unsound() {
		fmt.Printf("%s analysis incomplete, values may be imprecise\n", formatutil.Yellow("[WARN]"))
	}
	for _, p := range prog.Procs() {
		for _, i := range p.Instrs {
			if i.Op != ir.Ret {
				continue
			}
			if v, ok := res.ValueAt(i, constprop.Fact{Var: i.X}); ok {
				fmt.Printf("%s: returns %s\n", i, formatutil.Bold(v))
			}
		}
	}
	return nil
}
