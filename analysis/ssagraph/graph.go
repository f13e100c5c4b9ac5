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

// Package ssagraph adapts an SSA program to the solver's supergraph interface: nodes are
// ssa.Instructions, procedures are ssa.Functions, and dynamic call sites are resolved through a
// call graph built by the pointer analysis or class hierarchy analysis.
package ssagraph

import (
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/ssa"

	"github.com/argus-analysis/argus/analysis/ifds"
)

// Graph is an ifds.Supergraph over an SSA program. Per-function successor and exit tables are
// built lazily, so only the functions the solver actually reaches pay for indexing.
type Graph struct {
	prog *ssa.Program
	cg   *callgraph.Graph

	indexed map[*ssa.Function]bool
	succs   map[ssa.Instruction][]ifds.Node
	exits   map[*ssa.Function][]ifds.Node
}

var _ ifds.Supergraph = (*Graph)(nil)

// NewGraph builds the supergraph adapter for prog. cg may be nil, in which case only static
// call sites resolve.
func NewGraph(prog *ssa.Program, cg *callgraph.Graph) *Graph {
	return &Graph{
		prog:    prog,
		cg:      cg,
		indexed: map[*ssa.Function]bool{},
		succs:   map[ssa.Instruction][]ifds.Node{},
		exits:   map[*ssa.Function][]ifds.Node{},
	}
}

func (g *Graph) index(f *ssa.Function) {
	if g.indexed[f] {
		return
	}
	g.indexed[f] = true
	for _, block := range f.Blocks {
		for k, instr := range block.Instrs {
			if k+1 < len(block.Instrs) {
				g.succs[instr] = []ifds.Node{block.Instrs[k+1]}
				continue
			}
			var out []ifds.Node
			for _, succ := range block.Succs {
				if len(succ.Instrs) > 0 {
					out = append(out, succ.Instrs[0])
				}
			}
			g.succs[instr] = out
			if ret, ok := instr.(*ssa.Return); ok {
				g.exits[f] = append(g.exits[f], ret)
			}
		}
	}
}

// EntryOf returns the first instruction of p's entry block.
func (g *Graph) EntryOf(p ifds.Proc) ifds.Node {
	f := p.(*ssa.Function)
	g.index(f)
	return f.Blocks[0].Instrs[0]
}

// ExitsOf returns the return instructions of p.
func (g *Graph) ExitsOf(p ifds.Proc) []ifds.Node {
	f := p.(*ssa.Function)
	g.index(f)
	return g.exits[f]
}

// ProcOf returns the function containing n.
func (g *Graph) ProcOf(n ifds.Node) ifds.Proc {
	return n.(ssa.Instruction).Parent()
}

// Succs returns the intra-procedural successors of n.
func (g *Graph) Succs(n ifds.Node) []ifds.Node {
	i := n.(ssa.Instruction)
	g.index(i.Parent())
	return g.succs[i]
}

// CallTargets resolves a call instruction to callees with a body. Static callees resolve
// directly; dynamic and interface calls go through the call graph.
func (g *Graph) CallTargets(n ifds.Node) ([]ifds.Proc, bool) {
	call, ok := n.(*ssa.Call)
	if !ok {
		return nil, false
	}
	if callee := call.Call.StaticCallee(); callee != nil {
		if len(callee.Blocks) == 0 {
			return nil, true
		}
		return []ifds.Proc{callee}, true
	}
	if g.cg == nil {
		return nil, true
	}
	caller := g.cg.Nodes[call.Parent()]
	if caller == nil {
		return nil, true
	}
	var targets []ifds.Proc
	for _, edge := range caller.Out {
		if edge.Site == ssa.CallInstruction(call) && len(edge.Callee.Func.Blocks) > 0 {
			targets = append(targets, edge.Callee.Func)
		}
	}
	return targets, true
}

// ReturnSite returns the instruction following a call in its block. A call never terminates a
// block in the SSA form, so the successor instruction always exists.
func (g *Graph) ReturnSite(n ifds.Node) ifds.Node {
	call := n.(*ssa.Call)
	g.index(call.Parent())
	return g.succs[ssa.Instruction(call)][0]
}
