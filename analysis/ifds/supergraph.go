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

package ifds

import "fmt"

// A Node is a program point in the analyzed program: a statement or instruction. Implementations
// must have a comparable dynamic type (typically a pointer), since nodes are used as map keys.
type Node interface {
	fmt.Stringer
}

// A Proc is a procedure of the analyzed program. Implementations must have a comparable dynamic
// type.
type Proc interface {
	Name() string
}

// A Supergraph gives the solver access to the control flow and call structure of the analyzed
// program. It is a read-only input, supplied once at solver construction; the solver never
// mutates it. Call-graph construction and indirect-call resolution happen behind this interface.
type Supergraph interface {
	// EntryOf returns the entry node of the procedure.
	EntryOf(p Proc) Node

	// ExitsOf returns the exit nodes of the procedure. A procedure may have several exits; each
	// contributes separately to the procedure's summary.
	ExitsOf(p Proc) []Node

	// ProcOf returns the procedure enclosing the node.
	ProcOf(n Node) Proc

	// Succs returns the intraprocedural control-flow successors of the node. Exit nodes have no
	// successors.
	Succs(n Node) []Node

	// CallTargets reports whether n is a call site, and if so which procedures it may invoke.
	// An empty target list with isCall=true denotes an unresolved call; the solver then
	// propagates along the call-to-return channel only.
	CallTargets(n Node) (targets []Proc, isCall bool)

	// ReturnSite returns the node where control resumes in the caller after the call at n
	// returns, or nil if there is none.
	ReturnSite(n Node) Node
}
