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

// Package annotate implements the front-end to the argus annotate tool, which runs the taint
// analysis and writes the findings back into the analyzed sources as comments above the
// offending statements.
package annotate

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/tools/go/ssa"

	"github.com/argus-analysis/argus/analysis"
	"github.com/argus-analysis/argus/analysis/annotate"
	"github.com/argus-analysis/argus/analysis/ssataint"
	"github.com/argus-analysis/argus/cmd/argus/tools"
)

// Usage for the annotate subcommand.
const Usage = ` Annotate sources with taint analysis findings.
Usage:
  argus annotate [options] <package path(s)>
Examples:
  % argus annotate -config config.yaml -write package...
`

// Flags represents the parsed flags for the annotate subcommand.
type Flags struct {
	tools.CommonFlags
	write bool
	dir   string
}

// NewFlags parses the annotate flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("annotate")
	write := flags.FlagSet.Bool("write", false, "rewrite the source files in place")
	dir := flags.FlagSet.String("dir", ".", "directory to resolve packages from")
	tools.SetUsage(flags.FlagSet, Usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command annotate with args %v: %v", args, err)
	}
	return Flags{
		CommonFlags: tools.CommonFlags{
			FlagSet:    flags.FlagSet,
			ConfigPath: *flags.ConfigPath,
			Verbose:    *flags.Verbose,
			WithTest:   *flags.WithTest,
		},
		write: *write,
		dir:   *dir,
	}, nil
}

// Run runs the taint analysis on the packages given in the flags and annotates the statements
// where tainted data reaches a sink.
func Run(flags Flags) error {
	cfg, err := tools.ConfigOrDefault(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	if len(cfg.TaintTrackingProblems) == 0 {
		return fmt.Errorf("no taint tracking problems in config")
	}

	program, err := analysis.LoadProgram(nil, "", ssa.InstantiateGenerics, flags.FlagSet.Args())
	if err != nil {
		return fmt.Errorf("could not load program: %w", err)
	}
	mains := analysis.MainFunctions(program.Program)
	if len(mains) == 0 {
		return fmt.Errorf("no main function found in the loaded packages")
	}

	var marks []annotate.Mark
	fset := program.Program.Fset
	for _, main := range mains {
		report, err := ssataint.Analyze(context.Background(), program.Program, main, cfg)
		if err != nil {
			return err
		}
		for _, flow := range report.Flows {
			pos := fset.Position(flow.Sink.Pos())
			marks = append(marks, annotate.Mark{
				File: pos.Filename,
				Line: pos.Line,
				Text: fmt.Sprintf("tainted data from [%s] reaches this sink", flow.Source),
			})
		}
	}
	if len(marks) == 0 {
		fmt.Println("no taint flows detected, nothing to annotate")
		return nil
	}
	return annotate.Apply(flags.dir, flags.FlagSet.Args(), marks, os.Stdout, flags.write)
}
