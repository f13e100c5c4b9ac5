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

package ssataint

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/argus-analysis/argus/analysis/config"
	"github.com/argus-analysis/argus/analysis/ifds"
	"github.com/argus-analysis/argus/analysis/ssagraph"
	"github.com/argus-analysis/argus/internal/formatutil"
)

// A Flow is one detected source-to-sink flow in the SSA program.
type Flow struct {
	Source ssa.Instruction
	Sink   *ssa.Call
	Val    ssa.Value
}

func (f Flow) String() string {
	pos := f.Sink.Parent().Prog.Fset.Position(f.Sink.Pos())
	return fmt.Sprintf("taint from [%s] reaches sink at %s through %s", f.Source, pos, f.Val.Name())
}

// A Report aggregates the flows detected for every taint specification in the config.
type Report struct {
	Flows   []Flow
	Unsound bool
}

// Analyze runs taint tracking over the SSA program from entry, once per taint specification in
// cfg. The pointer analysis that resolves dynamic calls also answers may-alias queries for the
// values of the filtered packages, which the problem uses to track loads through aliased
// addresses.
func Analyze(ctx context.Context, prog *ssa.Program, entry *ssa.Function, cfg *config.Config) (*Report, error) {
	cg, aliases, err := ssagraph.BuildAliasedCallGraph(prog, func(f *ssa.Function) bool {
		return cfg.MatchPkgFilter(funcPackage(f))
	})
	if err != nil {
		return nil, err
	}
	graph := ssagraph.NewGraph(prog, cg)
	report := &Report{}
	for _, ts := range cfg.TaintTrackingProblems {
		problem := NewProblem(ts, aliases)
		res, err := ifds.NewSolver[Fact, ifds.Unit](problem, graph, cfg).Solve(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("taint analysis failed: %w", err)
		}
		report.Unsound = report.Unsound || res.Unsound()
		report.Flows = append(report.Flows, scanSinks(prog, ts, cfg, res)...)
	}
	return report, nil
}

// scanSinks walks every sink call site in the analyzed packages and reports the tainted
// arguments reaching it.
func scanSinks(prog *ssa.Program, ts config.TaintSpec, cfg *config.Config,
	res *ifds.Result[Fact, ifds.Unit]) []Flow {
	var flows []Flow
	for f := range ssautil.AllFunctions(prog) {
		if f.Package() != nil && !cfg.MatchPkgFilter(f.Package().Pkg.Path()) {
			continue
		}
		for _, block := range f.Blocks {
			for _, instr := range block.Instrs {
				call, ok := instr.(*ssa.Call)
				if !ok {
					continue
				}
				cid, named := calleeCid(call)
				if !named || !ts.IsSink(cid) {
					continue
				}
				for _, d := range res.FactsAt(call) {
					for _, arg := range call.Call.Args {
						if arg == d.Val {
							flows = append(flows, Flow{Source: d.Source, Sink: call, Val: arg})
						}
					}
				}
			}
		}
	}
	return flows
}

// WriteReport renders the flows to w, one per line.
func (r *Report) WriteReport(w io.Writer) {
	if r.Unsound {
		fmt.Fprintf(w, "%s analysis incomplete, results may miss flows\n", formatutil.Yellow("[WARN]"))
	}
	if len(r.Flows) == 0 {
		fmt.Fprintf(w, "%s no taint flows detected\n", formatutil.Green("[OK]"))
		return
	}
	for _, f := range r.Flows {
		fmt.Fprintf(w, "%s %s\n", formatutil.Red("[ALERT]"), f)
	}
}
