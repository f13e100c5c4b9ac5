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

package taint

import (
	"context"
	"fmt"
	"io"

	"github.com/argus-analysis/argus/analysis/config"
	"github.com/argus-analysis/argus/analysis/ifds"
	"github.com/argus-analysis/argus/analysis/ir"
	"github.com/argus-analysis/argus/internal/funcutil"
)

// A Flow is one detected source-to-sink flow: the source call that produced the taint, the sink
// call that received it, and the argument that carried it there.
type Flow struct {
	Source *ir.Instr
	Sink   *ir.Instr
	Var    string
}

func (f Flow) String() string {
	return fmt.Sprintf("taint from [%s] reaches sink [%s] through %q", f.Source, f.Sink, f.Var)
}

// A Report aggregates the flows detected for every taint specification in the config.
type Report struct {
	Flows   []Flow
	Stats   []ifds.Stats
	Unsound bool
}

// Analyze runs taint tracking over prog from the named entry procedure, once per taint
// specification in cfg, and scans the tabulated facts for taint reaching sink arguments.
func Analyze(ctx context.Context, prog *ir.Program, entry string, cfg *config.Config) (*Report, error) {
	entryProc := prog.Proc(entry)
	if entryProc == nil {
		return nil, fmt.Errorf("no procedure named %q", entry)
	}
	report := &Report{}
	for _, ts := range cfg.TaintTrackingProblems {
		problem := NewProblem(prog, ts)
		res, err := ifds.NewSolver[Fact, ifds.Unit](problem, prog, cfg).Solve(ctx, entryProc)
		if err != nil {
			return nil, fmt.Errorf("taint analysis failed: %w", err)
		}
		report.Stats = append(report.Stats, res.Stats())
		report.Unsound = report.Unsound || res.Unsound()
		report.Flows = append(report.Flows, scanSinks(prog, ts, res)...)
	}
	return report, nil
}

// scanSinks walks every sink call site and reports the tainted arguments reaching it.
func scanSinks(prog *ir.Program, ts config.TaintSpec, res *ifds.Result[Fact, ifds.Unit]) []Flow {
	var flows []Flow
	for _, p := range prog.Procs() {
		for _, i := range p.Instrs {
			if i.Op != ir.Call || !ts.IsSink(calleeCid(i.Callee)) {
				continue
			}
			for _, d := range res.FactsAt(i) {
				if funcutil.Contains(i.Args, d.Var) {
					flows = append(flows, Flow{Source: d.Source, Sink: i, Var: d.Var})
				}
			}
		}
	}
	return flows
}

// WriteReport renders the flows to w, one per line, with terminal colors when supported.
func (r *Report) WriteReport(w io.Writer) {
	if r.Unsound {
		fmt.Fprintf(w, "%s analysis incomplete, results may miss flows\n", warnTag())
	}
	if len(r.Flows) == 0 {
		fmt.Fprintf(w, "%s no taint flows detected\n", okTag())
		return
	}
	for _, f := range r.Flows {
		fmt.Fprintf(w, "%s %s\n", alertTag(), f)
	}
}
