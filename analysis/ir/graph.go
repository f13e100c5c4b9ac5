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

package ir

import "github.com/argus-analysis/argus/analysis/ifds"

// Program implements ifds.Supergraph: nodes are instructions, procedures are ifds.Procs, and
// call resolution is by callee name.

// EntryOf returns the first instruction of p.
func (prog *Program) EntryOf(p ifds.Proc) ifds.Node {
	return p.(*Proc).Instrs[0]
}

// ExitsOf returns the Ret instructions of p.
func (prog *Program) ExitsOf(p ifds.Proc) []ifds.Node {
	var exits []ifds.Node
	for _, i := range p.(*Proc).Instrs {
		if i.Op == Ret {
			exits = append(exits, i)
		}
	}
	return exits
}

// ProcOf returns the procedure containing n.
func (prog *Program) ProcOf(n ifds.Node) ifds.Proc {
	return n.(*Instr).Parent
}

// Succs returns the intra-procedural successors of n. Call instructions fall through to their
// return site; the solver routes inter-procedural flow itself.
func (prog *Program) Succs(n ifds.Node) []ifds.Node {
	i := n.(*Instr)
	switch i.Op {
	case Ret:
		return nil
	case If:
		return []ifds.Node{i.Parent.Instrs[i.Then], i.Parent.Instrs[i.Else]}
	default:
		if next := i.Index + 1; next < len(i.Parent.Instrs) {
			return []ifds.Node{i.Parent.Instrs[next]}
		}
		return nil
	}
}

// CallTargets resolves the callee of a call instruction by name. A call to an undefined name is
// still a call site, with no targets.
func (prog *Program) CallTargets(n ifds.Node) ([]ifds.Proc, bool) {
	i := n.(*Instr)
	if i.Op != Call {
		return nil, false
	}
	if callee := prog.procs[i.Callee]; callee != nil {
		return []ifds.Proc{callee}, true
	}
	return nil, true
}

// ReturnSite returns the instruction following a call.
func (prog *Program) ReturnSite(n ifds.Node) ifds.Node {
	i := n.(*Instr)
	return i.Parent.Instrs[i.Index+1]
}
