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

// Package recursion implements the front-end to the argus recursion tool, which reports the
// recursive functions of a program from the cycles of its call graph.
package recursion

import (
	"fmt"
	"os"

	"golang.org/x/tools/go/ssa"

	"github.com/argus-analysis/argus/analysis"
	"github.com/argus-analysis/argus/analysis/ssagraph"
	"github.com/argus-analysis/argus/cmd/argus/tools"
	"github.com/argus-analysis/argus/internal/formatutil"
	"github.com/argus-analysis/argus/internal/graphutil"
)

// Usage for the recursion subcommand.
const Usage = ` Report the recursive functions of your packages.
Usage:
  argus recursion [options] <package path(s)>
Examples:
  % argus recursion package...
`

// Run loads the packages given in the flags, builds their call graph and prints every function
// that participates in a call cycle.
func Run(flags tools.CommonFlags) error {
	program, err := analysis.LoadProgram(nil, "", ssa.InstantiateGenerics, flags.FlagSet.Args())
	if err != nil {
		return fmt.Errorf("could not load program: %w", err)
	}
	cg, err := ssagraph.BuildCallGraph(program.Program)
	if err != nil {
		return err
	}
	g := graphutil.FromCallGraph(cg)
	labels := graphutil.RecursiveLabels(g)
	if len(labels) == 0 {
		fmt.Printf("%s no recursive functions found\n", formatutil.Green("[OK]"))
		return nil
	}
	fmt.Printf("%d recursive functions:\n", len(labels))
	for _, label := range labels {
		fmt.Fprintf(os.Stdout, "  %s\n", label)
	}
	return nil
}
