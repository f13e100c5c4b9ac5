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

// Package constprop implements linear constant propagation as an IDE problem over the ir: facts
// are program variables, values are elements of the flat constant lattice, and edge functions
// carry the arithmetic from definitions to uses.
package constprop

import (
	"context"

	"github.com/argus-analysis/argus/analysis/config"
	"github.com/argus-analysis/argus/analysis/ifds"
	"github.com/argus-analysis/argus/analysis/ir"
)

// Fact names one variable (register or memory slot) holding a possibly-constant value. The
// empty Fact is the zero fact.
type Fact struct {
	Var string
}

// arith is the edge function for a binop whose other operand is a known literal: it applies
// v (op) k, or k (op) v when the tracked variable is the right operand.
type arith struct {
	op      ir.ArithOp
	k       int64
	varLeft bool
}

func (a arith) Apply(v Value) Value {
	c, ok := v.Constant()
	if !ok {
		return v
	}
	if a.varLeft {
		return ConstVal(a.op.Eval(c, a.k))
	}
	return ConstVal(a.op.Eval(a.k, c))
}

// Problem is the linear constant propagation IDE problem. Precision is per variable: a binop
// folds only when the other operand is resolvable from the enclosing procedure's literal
// environment, otherwise the result goes to Top.
type Problem struct {
	prog *ir.Program
	env  map[*ir.Proc]map[string]int64
}

var _ ifds.Problem[Fact, Value] = (*Problem)(nil)

// NewProblem builds the problem for prog, precomputing each procedure's literal environment.
func NewProblem(prog *ir.Program) *Problem {
	env := map[*ir.Proc]map[string]int64{}
	for _, p := range prog.Procs() {
		env[p] = literalEnv(p)
	}
	return &Problem{prog: prog, env: env}
}

// literalEnv maps the single-assignment names of a branch-free procedure to the literals they
// provably hold. Procedures with branches get an empty environment; reassigned names are
// excluded rather than tracked per program point.
func literalEnv(p *ir.Proc) map[string]int64 {
	env := map[string]int64{}
	if p.HasBranches() {
		return env
	}
	assigns := map[string]int{}
	for _, i := range p.Instrs {
		switch i.Op {
		case ir.Const, ir.Binop, ir.Load, ir.Call:
			assigns[i.Dst]++
		case ir.Store:
			assigns[i.Slot]++
		}
	}
	for _, i := range p.Instrs {
		switch i.Op {
		case ir.Const:
			if assigns[i.Dst] == 1 {
				env[i.Dst] = i.K
			}
		case ir.Binop:
			if assigns[i.Dst] != 1 {
				continue
			}
			if x, ok := env[i.X]; ok {
				if y, ok := env[i.Y]; ok {
					env[i.Dst] = i.Arith.Eval(x, y)
				}
			}
		case ir.Load:
			if assigns[i.Dst] == 1 {
				if v, ok := env[i.Slot]; ok {
					env[i.Dst] = v
				}
			}
		case ir.Store:
			if assigns[i.Slot] == 1 {
				if v, ok := env[i.X]; ok {
					env[i.Slot] = v
				}
			}
		}
	}
	return env
}

func (p *Problem) known(i *ir.Instr, name string) (int64, bool) {
	v, ok := p.env[i.Parent][name]
	return v, ok
}

// Top implements the flat constant lattice.
func (p *Problem) Top() Value { return TopVal() }

// Bottom implements the flat constant lattice.
func (p *Problem) Bottom() Value { return Bot() }

// Join keeps equal constants, treats Bottom as neutral and collapses disagreement to Top.
func (p *Problem) Join(v1, v2 Value) Value {
	if v1.kind == bottom {
		return v2
	}
	if v2.kind == bottom {
		return v1
	}
	if v1 == v2 {
		return v1
	}
	return TopVal()
}

// ZeroFact returns the empty fact.
func (p *Problem) ZeroFact() Fact { return Fact{} }

// InitialFacts seeds nothing beyond the zero fact.
func (p *Problem) InitialFacts(entry ifds.Proc) []Fact { return nil }

// NormalFlow tracks definitions: assignments gen a fact for their destination, redefinition
// kills the old fact, everything else passes through.
func (p *Problem) NormalFlow(n ifds.Node, d Fact) []Fact {
	i := n.(*ir.Instr)
	zero := Fact{}
	var out []Fact
	keep := func(killed string) {
		if d != zero && d.Var != killed {
			out = append(out, d)
		}
	}
	switch i.Op {
	case ir.Const:
		keep(i.Dst)
		if d == zero {
			out = append(out, Fact{i.Dst})
		}
	case ir.Binop:
		keep(i.Dst)
		_, okX := p.known(i, i.X)
		_, okY := p.known(i, i.Y)
		switch {
		case d == zero && okX && okY:
			out = append(out, Fact{i.Dst})
		case d.Var == i.X && okY, d.Var == i.Y && okX:
			out = append(out, Fact{i.Dst})
		case d.Var == i.X || d.Var == i.Y:
			// Two non-literal operands cannot be folded pointwise.
			out = append(out, Fact{i.Dst})
		}
	case ir.Load:
		keep(i.Dst)
		if d.Var == i.Slot {
			out = append(out, Fact{i.Dst})
		} else if d == zero {
			if _, ok := p.known(i, i.Slot); ok {
				out = append(out, Fact{i.Dst})
			}
		}
	case ir.Store:
		keep(i.Slot)
		if d.Var == i.X {
			out = append(out, Fact{i.Slot})
		} else if d == zero {
			if _, ok := p.known(i, i.X); ok {
				out = append(out, Fact{i.Slot})
			}
		}
	default:
		keep("")
	}
	return out
}

// NormalEdge attaches values to the transitions of NormalFlow: literal definitions are constant
// edges, binops with one known operand are linear transformers, copies are the identity.
func (p *Problem) NormalEdge(a *ifds.Algebra[Value], n ifds.Node, from, to Fact) *ifds.EdgeFunction[Value] {
	i := n.(*ir.Instr)
	zero := Fact{}
	switch i.Op {
	case ir.Const:
		if from == zero && to.Var == i.Dst {
			return a.Constant(ConstVal(i.K))
		}
	case ir.Binop:
		if to.Var != i.Dst || from.Var == i.Dst {
			return a.Identity()
		}
		x, okX := p.known(i, i.X)
		y, okY := p.known(i, i.Y)
		switch {
		case from == zero && okX && okY:
			return a.Constant(ConstVal(i.Arith.Eval(x, y)))
		case from.Var == i.X && okY:
			return a.FromOp(arith{op: i.Arith, k: y, varLeft: true})
		case from.Var == i.Y && okX:
			return a.FromOp(arith{op: i.Arith, k: x, varLeft: false})
		case from.Var == i.X || from.Var == i.Y:
			return a.Constant(TopVal())
		}
	case ir.Load:
		if to.Var == i.Dst && from == zero {
			if v, ok := p.known(i, i.Slot); ok {
				return a.Constant(ConstVal(v))
			}
		}
	case ir.Store:
		if to.Var == i.Slot && from == zero {
			if v, ok := p.known(i, i.X); ok {
				return a.Constant(ConstVal(v))
			}
		}
	}
	return a.Identity()
}

// CallFlow maps argument facts to parameter facts; arguments resolvable from the caller's
// literal environment enter the callee from the zero fact.
func (p *Problem) CallFlow(call ifds.Node, callee ifds.Proc, d Fact) []Fact {
	i := call.(*ir.Instr)
	params := callee.(*ir.Proc).Params
	zero := Fact{}
	var out []Fact
	for j, arg := range i.Args {
		if j >= len(params) {
			break
		}
		if d.Var == arg {
			out = append(out, Fact{params[j]})
		} else if d == zero {
			if _, ok := p.known(i, arg); ok {
				out = append(out, Fact{params[j]})
			}
		}
	}
	return out
}

// CallEdge carries known argument literals into the callee as constants; direct argument
// passing is the identity.
func (p *Problem) CallEdge(a *ifds.Algebra[Value], call ifds.Node, from, to Fact) *ifds.EdgeFunction[Value] {
	i := call.(*ir.Instr)
	if from != (Fact{}) {
		return a.Identity()
	}
	targets, _ := i.Parent.Prog().CallTargets(call)
	for _, t := range targets {
		params := t.(*ir.Proc).Params
		for j, arg := range i.Args {
			if j < len(params) && params[j] == to.Var {
				if v, ok := p.known(i, arg); ok {
					return a.Constant(ConstVal(v))
				}
			}
		}
	}
	return a.Identity()
}

// ReturnFlow maps facts on returned registers to the call's destination. Callee locals do not
// escape.
func (p *Problem) ReturnFlow(call ifds.Node, callee ifds.Proc, exitFact, callFact Fact) []Fact {
	i := call.(*ir.Instr)
	if exitFact == (Fact{}) || i.Dst == "" {
		return nil
	}
	for _, exit := range callee.(*ir.Proc).Instrs {
		if exit.Op == ir.Ret && exit.X == exitFact.Var {
			return []Fact{{i.Dst}}
		}
	}
	return nil
}

// ReturnEdge is the identity: the returned value is the exit fact's value.
func (p *Problem) ReturnEdge(a *ifds.Algebra[Value], call ifds.Node, exitFact, to Fact) *ifds.EdgeFunction[Value] {
	return a.Identity()
}

// CallToReturnFlow kills the call's destination locally; everything else bypasses the call.
func (p *Problem) CallToReturnFlow(call ifds.Node, d Fact) []Fact {
	i := call.(*ir.Instr)
	if d == (Fact{}) || d.Var == i.Dst {
		return nil
	}
	return []Fact{d}
}

// CallToReturnEdge is the identity.
func (p *Problem) CallToReturnEdge(a *ifds.Algebra[Value], call ifds.Node, from, to Fact) *ifds.EdgeFunction[Value] {
	return a.Identity()
}

// Run solves constant propagation for prog starting at the named procedure.
func Run(ctx context.Context, prog *ir.Program, entry string, cfg *config.Config) (*ifds.Result[Fact, Value], error) {
	return ifds.NewSolver[Fact, Value](NewProblem(prog), prog, cfg).Solve(ctx, prog.Proc(entry))
}
