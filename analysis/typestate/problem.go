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

// Package typestate implements an open/close typestate analysis as an IFDS problem over the ir:
// resources acquired at configured open calls are tracked through copies and calls, and close
// and use call sites are checked against the tracked state.
package typestate

import (
	"github.com/argus-analysis/argus/analysis/config"
	"github.com/argus-analysis/argus/analysis/ifds"
	"github.com/argus-analysis/argus/analysis/ir"
	"github.com/argus-analysis/argus/internal/funcutil"
)

// State is the tracked protocol state of a resource.
type State int8

const (
	// Opened means the resource was acquired and not released.
	Opened State = iota + 1
	// Closed means the resource was released.
	Closed
)

func (s State) String() string {
	if s == Opened {
		return "opened"
	}
	return "closed"
}

// Fact tracks one variable holding a resource in a protocol state, with the call that acquired
// it. The empty Fact is the zero fact.
type Fact struct {
	Var   string
	State State
	Site  *ir.Instr
}

// Problem is the typestate IFDS problem for one typestate specification.
type Problem struct {
	ifds.IFDSProblem[Fact]
	prog *ir.Program
	ts   config.TypestateSpec
}

var _ ifds.Problem[Fact, ifds.Unit] = (*Problem)(nil)

// NewProblem builds the typestate problem for prog and one specification.
func NewProblem(prog *ir.Program, ts config.TypestateSpec) *Problem {
	return &Problem{prog: prog, ts: ts}
}

func calleeCid(name string) config.CodeIdentifier {
	return config.CodeIdentifier{Method: name}
}

func (p *Problem) isModeled(callee string) bool {
	cid := calleeCid(callee)
	return p.ts.IsOpen(cid) || p.ts.IsClose(cid) || p.ts.IsUse(cid)
}

// ZeroFact returns the empty fact.
func (p *Problem) ZeroFact() Fact { return Fact{} }

// InitialFacts seeds nothing beyond the zero fact.
func (p *Problem) InitialFacts(entry ifds.Proc) []Fact { return nil }

// NormalFlow propagates resource facts through copies, the same way taint moves: stores, loads
// and binops alias the state onto the new name, clean definitions kill it.
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
	case ir.Const, ir.Binop:
		keep(i.Dst)
	case ir.Load:
		keep(i.Dst)
		if d.Var == i.Slot {
			out = append(out, Fact{i.Dst, d.State, d.Site})
		}
	case ir.Store:
		keep(i.Slot)
		if d.Var == i.X {
			out = append(out, Fact{i.Slot, d.State, d.Site})
		}
	default:
		out = append(out, d)
	}
	return out
}

// CallFlow maps resource arguments to callee parameters. Modeled callees are never entered.
func (p *Problem) CallFlow(call ifds.Node, callee ifds.Proc, d Fact) []Fact {
	i := call.(*ir.Instr)
	if d == (Fact{}) || p.isModeled(i.Callee) {
		return nil
	}
	params := callee.(*ir.Proc).Params
	var out []Fact
	for j, arg := range i.Args {
		if j < len(params) && d.Var == arg {
			out = append(out, Fact{params[j], d.State, d.Site})
		}
	}
	return out
}

// ReturnFlow maps a returned resource to the call's destination.
func (p *Problem) ReturnFlow(call ifds.Node, callee ifds.Proc, exitFact, callFact Fact) []Fact {
	i := call.(*ir.Instr)
	if exitFact == (Fact{}) || i.Dst == "" {
		return nil
	}
	for _, exit := range callee.(*ir.Proc).Instrs {
		if exit.Op == ir.Ret && exit.X == exitFact.Var {
			return []Fact{{i.Dst, exitFact.State, exitFact.Site}}
		}
	}
	return nil
}

// CallToReturnFlow applies the protocol: an open call acquires a resource in the Opened state,
// a close call moves its argument to Closed, and unrelated facts bypass the call. Closed facts
// stay alive so later misuse remains visible.
func (p *Problem) CallToReturnFlow(call ifds.Node, d Fact) []Fact {
	i := call.(*ir.Instr)
	cid := calleeCid(i.Callee)
	if d == (Fact{}) {
		if p.ts.IsOpen(cid) && i.Dst != "" {
			return []Fact{{i.Dst, Opened, i}}
		}
		return nil
	}
	if p.ts.IsClose(cid) && funcutil.Contains(i.Args, d.Var) {
		return []Fact{{d.Var, Closed, d.Site}}
	}
	if d.Var == i.Dst {
		return nil
	}
	return []Fact{d}
}
