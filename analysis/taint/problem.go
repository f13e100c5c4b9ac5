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

// Package taint implements configuration-driven taint tracking as an IFDS problem over the ir.
// Sources, sinks and sanitizers are matched by code identifiers from the config; a fact is a
// tainted variable together with the source call that tainted it.
package taint

import (
	"github.com/argus-analysis/argus/analysis/config"
	"github.com/argus-analysis/argus/analysis/ifds"
	"github.com/argus-analysis/argus/analysis/ir"
	"github.com/argus-analysis/argus/internal/funcutil"
)

// Fact marks one variable as tainted by the source call Source. The empty Fact is the zero fact.
type Fact struct {
	Var    string
	Source *ir.Instr
}

// Problem is the taint-tracking IFDS problem for one taint specification.
type Problem struct {
	ifds.IFDSProblem[Fact]
	prog *ir.Program
	ts   config.TaintSpec
}

var _ ifds.Problem[Fact, ifds.Unit] = (*Problem)(nil)

// NewProblem builds the taint problem for prog and one taint specification.
func NewProblem(prog *ir.Program, ts config.TaintSpec) *Problem {
	return &Problem{prog: prog, ts: ts}
}

func calleeCid(name string) config.CodeIdentifier {
	return config.CodeIdentifier{Method: name}
}

// isModeled reports whether a callee is fully described by the specification. Modeled callees
// are handled at the call site and never entered, even when their body is present.
func (p *Problem) isModeled(callee string) bool {
	cid := calleeCid(callee)
	return p.ts.IsSource(cid) || p.ts.IsSink(cid) || p.ts.IsSanitizer(cid)
}

// ZeroFact returns the empty fact.
func (p *Problem) ZeroFact() Fact { return Fact{} }

// InitialFacts seeds nothing beyond the zero fact.
func (p *Problem) InitialFacts(entry ifds.Proc) []Fact { return nil }

// NormalFlow propagates taint through assignments: stores and loads move taint between
// registers and slots, binops taint their result if an operand is tainted, and a clean
// definition kills taint on the defined name.
func (p *Problem) NormalFlow(n ifds.Node, d Fact) []Fact {
	i := n.(*ir.Instr)
	if d == (Fact{}) {
		return nil
	}
	var out []Fact
	keep := func(killed string) {
		if d.Var != killed {
			out = append(out, d)
		}
	}
	switch i.Op {
	case ir.Const:
		keep(i.Dst)
	case ir.Binop:
		keep(i.Dst)
		if d.Var == i.X || d.Var == i.Y {
			out = append(out, Fact{i.Dst, d.Source})
		}
	case ir.Load:
		keep(i.Dst)
		if d.Var == i.Slot {
			out = append(out, Fact{i.Dst, d.Source})
		}
	case ir.Store:
		keep(i.Slot)
		if d.Var == i.X {
			out = append(out, Fact{i.Slot, d.Source})
		}
	default:
		out = append(out, d)
	}
	return out
}

// CallFlow maps tainted arguments to callee parameters. Modeled callees are never entered.
func (p *Problem) CallFlow(call ifds.Node, callee ifds.Proc, d Fact) []Fact {
	i := call.(*ir.Instr)
	if d == (Fact{}) || p.isModeled(i.Callee) {
		return nil
	}
	params := callee.(*ir.Proc).Params
	var out []Fact
	for j, arg := range i.Args {
		if j < len(params) && d.Var == arg {
			out = append(out, Fact{params[j], d.Source})
		}
	}
	return out
}

// ReturnFlow maps taint on a returned register to the call's destination.
func (p *Problem) ReturnFlow(call ifds.Node, callee ifds.Proc, exitFact, callFact Fact) []Fact {
	i := call.(*ir.Instr)
	if exitFact == (Fact{}) || i.Dst == "" {
		return nil
	}
	for _, exit := range callee.(*ir.Proc).Instrs {
		if exit.Op == ir.Ret && exit.X == exitFact.Var {
			return []Fact{{i.Dst, exitFact.Source}}
		}
	}
	return nil
}

// CallToReturnFlow applies the call-site models: a source taints the call's result, a sanitizer
// cleans its arguments, and taint on names untouched by the call bypasses it.
func (p *Problem) CallToReturnFlow(call ifds.Node, d Fact) []Fact {
	i := call.(*ir.Instr)
	cid := calleeCid(i.Callee)
	if d == (Fact{}) {
		if p.ts.IsSource(cid) && i.Dst != "" {
			return []Fact{{i.Dst, i}}
		}
		return nil
	}
	if p.ts.IsSanitizer(cid) && funcutil.Contains(i.Args, d.Var) {
		return nil
	}
	if d.Var == i.Dst {
		return nil
	}
	return []Fact{d}
}
