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

import (
	"errors"
	"fmt"
)

// ErrInconsistentEdgeFunction is returned when Compose or Join is applied to edge functions that
// belong to different algebra instances. This is a client contract violation: caches are scoped to
// one solver, and mixing them would cross-contaminate independent analyses. The solver treats it
// as fatal.
var ErrInconsistentEdgeFunction = errors.New("edge functions belong to different algebra instances")

// EdgeKind discriminates the variants of an edge function.
type EdgeKind int8

const (
	// KindIdentity is e(v) = v.
	KindIdentity EdgeKind = iota + 1
	// KindConstant is e(v) = c for a fixed lattice value c.
	KindConstant
	// KindGenKill is the gen/kill transformer: e(v) = gen if kill, Join(v, gen) otherwise.
	KindGenKill
	// KindComposed is e(v) = f(g(v)).
	KindComposed
	// KindJoined is e(v) = Join(f(v), g(v)).
	KindJoined
	// KindClient is a client-supplied transformer (see EdgeOp).
	KindClient
)

// An EdgeOp is a client-defined value transformer used for edge functions that the built-in
// variants cannot express (e.g. arithmetic over the lattice). Implementations must be comparable
// values: the algebra interns them by equality so that composition memoization stays effective.
type EdgeOp[V comparable] interface {
	Apply(v V) V
}

// An EdgeFunction is a composable, joinable value transformer attached to a fact-pair transition.
// Edge functions are represented as tagged variants rather than opaque closures so that they are
// structurally comparable; the algebra interns them, making pointer equality meaningful and the
// composition cache effective. Edge functions are created only through an Algebra and are
// immutable.
type EdgeFunction[V comparable] struct {
	kind  EdgeKind
	c     V // Constant
	gen   V // GenKill
	kill  bool
	left  *EdgeFunction[V] // Composed: outer; Joined: first
	right *EdgeFunction[V] // Composed: inner; Joined: second
	op    EdgeOp[V]
	owner *Algebra[V]
}

// Kind returns the variant of the edge function.
func (f *EdgeFunction[V]) Kind() EdgeKind { return f.kind }

// IsIdentity returns true if f is the identity function of its algebra.
func (f *EdgeFunction[V]) IsIdentity() bool { return f.kind == KindIdentity }

// Apply evaluates the edge function on v. The lattice is needed to evaluate GenKill and Joined
// variants.
func (f *EdgeFunction[V]) Apply(l Lattice[V], v V) V {
	switch f.kind {
	case KindIdentity:
		return v
	case KindConstant:
		return f.c
	case KindGenKill:
		if f.kill {
			return f.gen
		}
		return l.Join(v, f.gen)
	case KindComposed:
		return f.left.Apply(l, f.right.Apply(l, v))
	case KindJoined:
		return l.Join(f.left.Apply(l, v), f.right.Apply(l, v))
	case KindClient:
		return f.op.Apply(v)
	default:
		panic(fmt.Sprintf("invalid edge function kind %d", f.kind))
	}
}

func (f *EdgeFunction[V]) String() string {
	switch f.kind {
	case KindIdentity:
		return "id"
	case KindConstant:
		return fmt.Sprintf("const(%v)", f.c)
	case KindGenKill:
		return fmt.Sprintf("genkill(%v,%v)", f.gen, f.kill)
	case KindComposed:
		return fmt.Sprintf("(%s ∘ %s)", f.left, f.right)
	case KindJoined:
		return fmt.Sprintf("(%s ⊔ %s)", f.left, f.right)
	case KindClient:
		return fmt.Sprintf("op(%v)", f.op)
	default:
		return "invalid"
	}
}

type funcPair[V comparable] struct {
	f *EdgeFunction[V]
	g *EdgeFunction[V]
}

type genKillKey[V comparable] struct {
	gen  V
	kill bool
}

// An Algebra builds and interns the edge functions of one solver instance. Interning makes
// pointer equality coincide with structural equality, which is what makes the composition memo
// cache sound: composing the same two functions twice returns the same pointer without
// re-deriving the composition. An Algebra must never be shared between independent solvers.
type Algebra[V comparable] struct {
	identity  *EdgeFunction[V]
	constants map[V]*EdgeFunction[V]
	genKills  map[genKillKey[V]]*EdgeFunction[V]
	ops       map[EdgeOp[V]]*EdgeFunction[V]
	composed  map[funcPair[V]]*EdgeFunction[V]
	joined    map[funcPair[V]]*EdgeFunction[V]

	composeHits   int
	composeMisses int
}

// NewAlgebra returns a fresh algebra with empty caches.
func NewAlgebra[V comparable]() *Algebra[V] {
	a := &Algebra[V]{
		constants: map[V]*EdgeFunction[V]{},
		genKills:  map[genKillKey[V]]*EdgeFunction[V]{},
		ops:       map[EdgeOp[V]]*EdgeFunction[V]{},
		composed:  map[funcPair[V]]*EdgeFunction[V]{},
		joined:    map[funcPair[V]]*EdgeFunction[V]{},
	}
	a.identity = &EdgeFunction[V]{kind: KindIdentity, owner: a}
	return a
}

// Identity returns the identity edge function e(v) = v.
func (a *Algebra[V]) Identity() *EdgeFunction[V] { return a.identity }

// Constant returns the constant edge function e(v) = c.
func (a *Algebra[V]) Constant(c V) *EdgeFunction[V] {
	if f, ok := a.constants[c]; ok {
		return f
	}
	f := &EdgeFunction[V]{kind: KindConstant, c: c, owner: a}
	a.constants[c] = f
	return f
}

// GenKill returns the gen/kill edge function: e(v) = gen when kill is set, Join(v, gen) otherwise.
func (a *Algebra[V]) GenKill(gen V, kill bool) *EdgeFunction[V] {
	k := genKillKey[V]{gen, kill}
	if f, ok := a.genKills[k]; ok {
		return f
	}
	f := &EdgeFunction[V]{kind: KindGenKill, gen: gen, kill: kill, owner: a}
	a.genKills[k] = f
	return f
}

// FromOp wraps a client-defined transformer into an edge function. Ops are interned by equality,
// so two equal op values yield the same edge function.
func (a *Algebra[V]) FromOp(op EdgeOp[V]) *EdgeFunction[V] {
	if f, ok := a.ops[op]; ok {
		return f
	}
	f := &EdgeFunction[V]{kind: KindClient, op: op, owner: a}
	a.ops[op] = f
	return f
}

// Compose returns the composition e(v) = f(g(v)). Compositions are memoized by the (f, g) pair;
// repeated compositions of the same operands return the cached function. Composing functions
// from different algebras returns ErrInconsistentEdgeFunction.
func (a *Algebra[V]) Compose(f, g *EdgeFunction[V]) (*EdgeFunction[V], error) {
	if f.owner != a || g.owner != a {
		return nil, ErrInconsistentEdgeFunction
	}
	// Structural simplifications keep chains short and the cache small.
	if f.kind == KindIdentity {
		return g, nil
	}
	if g.kind == KindIdentity {
		return f, nil
	}
	if f.kind == KindConstant {
		// A constant ignores its input.
		return f, nil
	}
	key := funcPair[V]{f, g}
	if composed, ok := a.composed[key]; ok {
		a.composeHits++
		return composed, nil
	}
	a.composeMisses++
	composed := &EdgeFunction[V]{kind: KindComposed, left: f, right: g, owner: a}
	a.composed[key] = composed
	return composed, nil
}

// Join returns the pointwise join e(v) = Join(f(v), g(v)), memoized like Compose. Joining
// functions from different algebras returns ErrInconsistentEdgeFunction.
func (a *Algebra[V]) Join(f, g *EdgeFunction[V]) (*EdgeFunction[V], error) {
	if f.owner != a || g.owner != a {
		return nil, ErrInconsistentEdgeFunction
	}
	if f == g {
		return f, nil
	}
	key := funcPair[V]{f, g}
	if joined, ok := a.joined[key]; ok {
		return joined, nil
	}
	joined := &EdgeFunction[V]{kind: KindJoined, left: f, right: g, owner: a}
	a.joined[key] = joined
	// Join is commutative; cache both orders.
	a.joined[funcPair[V]{g, f}] = joined
	return joined, nil
}

// CacheStats returns the number of composition cache hits and misses.
func (a *Algebra[V]) CacheStats() (hits int, misses int) {
	return a.composeHits, a.composeMisses
}
