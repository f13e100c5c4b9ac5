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

// A Lattice is the value domain of an IDE problem. Join must be associative, commutative and
// idempotent; the solver relies on those laws for soundness of the value computation.
type Lattice[V comparable] interface {
	// Top returns the least informative value, absorbing under Join.
	Top() V

	// Bottom returns the neutral element of Join; it is the default of (node, fact) pairs no
	// path has contributed to yet, and the value computation starts from it.
	Bottom() V

	// Join merges the values obtained along two different paths.
	Join(v1 V, v2 V) V
}

// A Problem bundles the flow functions and the value lattice of one client analysis. A Problem is
// a pure, stateless description: it must not retain references to solver internals, and the same
// Problem value may be handed to several independent solvers. Fact type F must be comparable; the
// solver deduplicates path edges by fact equality. The distinguished zero fact represents
// "unconditionally holds" and seeds facts that do not depend on any input fact.
//
// Every flow function must return a finite fact set on each call. The solver enforces a
// configurable cap and abandons branches that exceed it (counted as a non-finite flow).
type Problem[F comparable, V comparable] interface {
	Lattice[V]

	// ZeroFact returns the distinguished zero fact.
	ZeroFact() F

	// InitialFacts returns the facts holding at the entry of the entry procedure. The zero fact
	// is always added by the solver and need not be included.
	InitialFacts(entry Proc) []F

	// NormalFlow transfers fact d across the non-call node n.
	NormalFlow(n Node, d F) []F

	// CallFlow maps fact d at call site call into facts holding at callee's entry.
	CallFlow(call Node, callee Proc, d F) []F

	// ReturnFlow maps exitFact, holding at an exit of callee, into facts holding at the return
	// site of call. callFact is the caller-side fact that entered the callee.
	ReturnFlow(call Node, callee Proc, exitFact F, callFact F) []F

	// CallToReturnFlow transfers fact d from the call site directly to its return site, without
	// entering any callee. This is the only channel for unresolved calls.
	CallToReturnFlow(call Node, d F) []F

	// NormalEdge returns the edge function attached to the (from, to) fact transition at node n.
	NormalEdge(a *Algebra[V], n Node, from F, to F) *EdgeFunction[V]

	// CallEdge returns the edge function for the transition from caller fact to callee entry fact.
	CallEdge(a *Algebra[V], call Node, from F, to F) *EdgeFunction[V]

	// ReturnEdge returns the edge function for the transition from callee exit fact to return-site fact.
	ReturnEdge(a *Algebra[V], call Node, exitFact F, to F) *EdgeFunction[V]

	// CallToReturnEdge returns the edge function for the call-to-return transition.
	CallToReturnEdge(a *Algebra[V], call Node, from F, to F) *EdgeFunction[V]
}

// Unit is the value domain of reachability-only (IFDS) problems: a single value, so that all edge
// functions collapse to the identity.
type Unit struct{}

// IFDSProblem provides the trivial value lattice and identity edge functions for reachability-only
// clients. Embed it and implement ZeroFact, InitialFacts and the flow functions to obtain a full
// Problem[F, Unit].
type IFDSProblem[F comparable] struct{}

// Top returns the unit value.
func (IFDSProblem[F]) Top() Unit { return Unit{} }

// Bottom returns the unit value.
func (IFDSProblem[F]) Bottom() Unit { return Unit{} }

// Join returns the unit value.
func (IFDSProblem[F]) Join(Unit, Unit) Unit { return Unit{} }

// NormalEdge returns the identity edge function.
func (IFDSProblem[F]) NormalEdge(a *Algebra[Unit], _ Node, _ F, _ F) *EdgeFunction[Unit] {
	return a.Identity()
}

// CallEdge returns the identity edge function.
func (IFDSProblem[F]) CallEdge(a *Algebra[Unit], _ Node, _ F, _ F) *EdgeFunction[Unit] {
	return a.Identity()
}

// ReturnEdge returns the identity edge function.
func (IFDSProblem[F]) ReturnEdge(a *Algebra[Unit], _ Node, _ F, _ F) *EdgeFunction[Unit] {
	return a.Identity()
}

// CallToReturnEdge returns the identity edge function.
func (IFDSProblem[F]) CallToReturnEdge(a *Algebra[Unit], _ Node, _ F, _ F) *EdgeFunction[Unit] {
	return a.Identity()
}
