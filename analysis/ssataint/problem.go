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

// Package ssataint runs configuration-driven taint tracking over Go programs in SSA form, using
// the same code identifiers as the portable taint analysis to match sources, sinks and
// sanitizers against called functions.
package ssataint

import (
	"go/token"

	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"

	"github.com/argus-analysis/argus/analysis/config"
	"github.com/argus-analysis/argus/analysis/ifds"
)

// Fact marks one SSA value as tainted by the source call Source. The empty Fact is the zero
// fact.
type Fact struct {
	Val    ssa.Value
	Source ssa.Instruction
}

// Problem is the taint-tracking IFDS problem over SSA for one taint specification. The alias
// map carries the points-to sets queried by the pointer analysis; loads through an address that
// may alias a tainted address propagate taint.
type Problem struct {
	ifds.IFDSProblem[Fact]
	ts      config.TaintSpec
	aliases map[ssa.Value]pointer.Pointer
}

var _ ifds.Problem[Fact, ifds.Unit] = (*Problem)(nil)

// NewProblem builds the SSA taint problem for one taint specification. aliases may be nil, in
// which case only syntactically identical addresses are related.
func NewProblem(ts config.TaintSpec, aliases map[ssa.Value]pointer.Pointer) *Problem {
	return &Problem{ts: ts, aliases: aliases}
}

// mayAlias reports whether the pointer analysis found a and b possibly pointing to the same
// object. Values without a recorded points-to set never alias.
func (p *Problem) mayAlias(a, b ssa.Value) bool {
	pa, ok := p.aliases[a]
	if !ok {
		return false
	}
	pb, ok := p.aliases[b]
	if !ok {
		return false
	}
	return pa.MayAlias(pb)
}

// funcPackage returns the package path of f, empty for synthetic functions.
func funcPackage(f *ssa.Function) string {
	if f == nil {
		return ""
	}
	if f.Package() != nil {
		return f.Package().Pkg.Path()
	}
	if f.Object() != nil && f.Object().Pkg() != nil {
		return f.Object().Pkg().Path()
	}
	return ""
}

// calleeCid returns the code identifier of a call's callee, and false when the callee cannot be
// named statically.
func calleeCid(call *ssa.Call) (config.CodeIdentifier, bool) {
	if call.Call.IsInvoke() {
		m := call.Call.Method
		cid := config.CodeIdentifier{Method: m.Name()}
		if m.Pkg() != nil {
			cid.Package = m.Pkg().Path()
		}
		return cid, true
	}
	if f := call.Call.StaticCallee(); f != nil {
		return config.CodeIdentifier{Package: funcPackage(f), Method: f.Name()}, true
	}
	return config.CodeIdentifier{}, false
}

func (p *Problem) isModeledCall(call *ssa.Call) bool {
	cid, ok := calleeCid(call)
	if !ok {
		return false
	}
	return p.ts.IsSource(cid) || p.ts.IsSink(cid) || p.ts.IsSanitizer(cid)
}

// ZeroFact returns the empty fact.
func (p *Problem) ZeroFact() Fact { return Fact{} }

// InitialFacts seeds nothing beyond the zero fact.
func (p *Problem) InitialFacts(entry ifds.Proc) []Fact { return nil }

// taints reports whether fact d flows into the value computed by instruction i through one of
// its operands. Loads through a tainted address are tainted too.
func taints(i ssa.Instruction, d Fact) bool {
	for _, op := range i.Operands(nil) {
		if *op == d.Val {
			return true
		}
	}
	return false
}

// NormalFlow propagates taint through value instructions and stores. SSA values are immutable,
// so existing facts are never killed; new facts are generated for derived values.
func (p *Problem) NormalFlow(n ifds.Node, d Fact) []Fact {
	i := n.(ssa.Instruction)
	if d == (Fact{}) {
		return nil
	}
	out := []Fact{d}
	switch instr := i.(type) {
	case *ssa.Store:
		if instr.Val == d.Val {
			out = append(out, Fact{instr.Addr, d.Source})
		}
	case *ssa.UnOp:
		if instr.Op == token.MUL && (instr.X == d.Val || p.mayAlias(instr.X, d.Val)) {
			out = append(out, Fact{instr, d.Source})
		}
	case *ssa.Return:
		// handled by ReturnFlow
	default:
		if v, ok := i.(ssa.Value); ok && taints(i, d) {
			out = append(out, Fact{v, d.Source})
		}
	}
	return out
}

// CallFlow maps tainted arguments to callee parameters, including the receiver of an invoke
// call. Modeled callees are never entered.
func (p *Problem) CallFlow(call ifds.Node, callee ifds.Proc, d Fact) []Fact {
	c := call.(*ssa.Call)
	f := callee.(*ssa.Function)
	if d == (Fact{}) || p.isModeledCall(c) {
		return nil
	}
	args := c.Call.Args
	params := f.Params
	if c.Call.IsInvoke() && len(params) > 0 {
		// The receiver is the first parameter of the resolved method.
		args = append([]ssa.Value{c.Call.Value}, args...)
	}
	var out []Fact
	for j, arg := range args {
		if j < len(params) && d.Val == arg {
			out = append(out, Fact{params[j], d.Source})
		}
	}
	return out
}

// ReturnFlow maps taint on a returned result to the call's value.
func (p *Problem) ReturnFlow(call ifds.Node, callee ifds.Proc, exitFact, callFact Fact) []Fact {
	c := call.(*ssa.Call)
	if exitFact == (Fact{}) {
		return nil
	}
	for _, exit := range callee.(*ssa.Function).Blocks {
		for _, instr := range exit.Instrs {
			ret, ok := instr.(*ssa.Return)
			if !ok {
				continue
			}
			for _, res := range ret.Results {
				if res == exitFact.Val {
					return []Fact{{c, exitFact.Source}}
				}
			}
		}
	}
	return nil
}

// CallToReturnFlow applies the call-site models: a source taints the call's value, a sanitizer
// cleans its arguments, everything else bypasses the call untouched.
func (p *Problem) CallToReturnFlow(call ifds.Node, d Fact) []Fact {
	c := call.(*ssa.Call)
	cid, named := calleeCid(c)
	if d == (Fact{}) {
		if named && p.ts.IsSource(cid) {
			return []Fact{{c, c}}
		}
		return nil
	}
	if named && p.ts.IsSanitizer(cid) {
		for _, arg := range c.Call.Args {
			if arg == d.Val {
				return nil
			}
		}
	}
	return []Fact{d}
}
