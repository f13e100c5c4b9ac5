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

package typestate

import (
	"context"
	"fmt"

	"github.com/argus-analysis/argus/analysis/config"
	"github.com/argus-analysis/argus/analysis/ifds"
	"github.com/argus-analysis/argus/analysis/ir"
	"github.com/argus-analysis/argus/internal/funcutil"
)

// ViolationKind classifies a protocol violation.
type ViolationKind int8

const (
	// DoubleClose is a close call on an already-closed resource.
	DoubleClose ViolationKind = iota + 1
	// UseAfterClose is a use call on a closed resource.
	UseAfterClose
)

func (k ViolationKind) String() string {
	if k == DoubleClose {
		return "double close"
	}
	return "use after close"
}

// A Violation is one detected protocol violation: the resource, where it was acquired, and the
// call that misused it.
type Violation struct {
	Kind ViolationKind
	Var  string
	Open *ir.Instr
	At   *ir.Instr
}

func (v Violation) String() string {
	return fmt.Sprintf("%s of %q opened at [%s], at [%s]", v.Kind, v.Var, v.Open, v.At)
}

// A Report aggregates the violations detected for every typestate specification in the config.
type Report struct {
	Violations []Violation
	Unsound    bool
}

// Analyze runs the typestate analysis over prog from the named entry procedure, once per
// typestate specification in cfg, and checks every close and use call site against the
// tabulated states.
func Analyze(ctx context.Context, prog *ir.Program, entry string, cfg *config.Config) (*Report, error) {
	entryProc := prog.Proc(entry)
	if entryProc == nil {
		return nil, fmt.Errorf("no procedure named %q", entry)
	}
	report := &Report{}
	for _, ts := range cfg.TypestateProblems {
		problem := NewProblem(prog, ts)
		res, err := ifds.NewSolver[Fact, ifds.Unit](problem, prog, cfg).Solve(ctx, entryProc)
		if err != nil {
			return nil, fmt.Errorf("typestate analysis failed: %w", err)
		}
		report.Unsound = report.Unsound || res.Unsound()
		report.Violations = append(report.Violations, scanProtocol(prog, ts, res)...)
	}
	return report, nil
}

// scanProtocol checks close and use call sites: a Closed fact on a closed argument is a double
// close, a Closed fact on a used argument is a use after close.
func scanProtocol(prog *ir.Program, ts config.TypestateSpec, res *ifds.Result[Fact, ifds.Unit]) []Violation {
	var violations []Violation
	for _, p := range prog.Procs() {
		for _, i := range p.Instrs {
			if i.Op != ir.Call {
				continue
			}
			cid := calleeCid(i.Callee)
			isClose, isUse := ts.IsClose(cid), ts.IsUse(cid)
			if !isClose && !isUse {
				continue
			}
			for _, d := range res.FactsAt(i) {
				if d.State != Closed || !funcutil.Contains(i.Args, d.Var) {
					continue
				}
				kind := UseAfterClose
				if isClose {
					kind = DoubleClose
				}
				violations = append(violations, Violation{Kind: kind, Var: d.Var, Open: d.Site, At: i})
			}
		}
	}
	return violations
}
