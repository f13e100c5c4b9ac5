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

// Package taint implements the front-end to the argus taint tool, which runs the taint analysis
// on the SSA representation of your code.
package taint

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/tools/go/ssa"

	"github.com/argus-analysis/argus/analysis"
	"github.com/argus-analysis/argus/analysis/ssataint"
	"github.com/argus-analysis/argus/cmd/argus/tools"
	"github.com/argus-analysis/argus/internal/formatutil"
)

// Usage for the taint subcommand.
const Usage = ` Perform taint analysis on your packages.
Usage:
  argus taint [options] <package path(s)>
Examples:
  % argus taint -config config.yaml package...
`

// Run runs the taint analysis on the packages given in the flags.
func Run(flags tools.CommonFlags) error {
	cfg, err := tools.ConfigOrDefault(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	if len(cfg.TaintTrackingProblems) == 0 {
		return fmt.Errorf("no taint tracking problems in config")
	}

	start := time.Now()
	program, err := analysis.LoadProgram(nil, "", ssa.InstantiateGenerics, flags.FlagSet.Args())
	if err != nil {
		return fmt.Errorf("could not load program: %w", err)
	}
	fmt.Fprintf(os.Stderr, "%s loaded program in %.2fs\n",
		formatutil.Faint("[INFO]"), time.Since(start).Seconds())

	mains := analysis.MainFunctions(program.Program)
	if len(mains) == 0 {
		return fmt.Errorf("no main function found in the loaded packages")
	}

	for _, main := range mains {
		report, err := ssataint.Analyze(context.Background(), program.Program, main, cfg)
		if err != nil {
			return err
		}
		report.WriteReport(os.Stdout)
	}
	return nil
}
