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

package ifds_test

import (
	"errors"
	"testing"

	"github.com/argus-analysis/argus/analysis/ifds"
)

// maxLattice is a small integer lattice with join = max, used to exercise edge functions.
type maxLattice struct{}

func (maxLattice) Top() int    { return 1 << 30 }
func (maxLattice) Bottom() int { return -(1 << 30) }

func (maxLattice) Join(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// addOp is a client transformer e(v) = v + k.
type addOp struct {
	k int
}

func (o addOp) Apply(v int) int { return v + o.k }

func TestComposeIdentitySimplification(t *testing.T) {
	a := ifds.NewAlgebra[int]()
	f := a.FromOp(addOp{k: 1})
	left, err := a.Compose(a.Identity(), f)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if left != f {
		t.Errorf("id ∘ f should simplify to f, got %s", left)
	}
	right, err := a.Compose(f, a.Identity())
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if right != f {
		t.Errorf("f ∘ id should simplify to f, got %s", right)
	}
}

func TestComposeConstantAbsorbs(t *testing.T) {
	a := ifds.NewAlgebra[int]()
	c := a.Constant(7)
	f := a.FromOp(addOp{k: 1})
	g, err := a.Compose(c, f)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if g != c {
		t.Errorf("const ∘ f should simplify to const, got %s", g)
	}
	if v := g.Apply(maxLattice{}, 3); v != 7 {
		t.Errorf("expected constant 7, got %d", v)
	}
}

func TestComposeMemoized(t *testing.T) {
	a := ifds.NewAlgebra[int]()
	f := a.FromOp(addOp{k: 1})
	g := a.FromOp(addOp{k: 2})
	c1, err := a.Compose(f, g)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	c2, err := a.Compose(f, g)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if c1 != c2 {
		t.Errorf("repeated composition should return the cached function")
	}
	hits, misses := a.CacheStats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d hits and %d misses", hits, misses)
	}
	// f(g(0)) = (0 + 2) + 1
	if v := c1.Apply(maxLattice{}, 0); v != 3 {
		t.Errorf("expected 3, got %d", v)
	}
}

func TestInterning(t *testing.T) {
	a := ifds.NewAlgebra[int]()
	if a.Constant(3) != a.Constant(3) {
		t.Errorf("equal constants should intern to the same function")
	}
	if a.FromOp(addOp{k: 1}) != a.FromOp(addOp{k: 1}) {
		t.Errorf("equal ops should intern to the same function")
	}
	if a.GenKill(5, true) != a.GenKill(5, true) {
		t.Errorf("equal gen/kill functions should intern to the same function")
	}
	if a.Constant(3) == a.Constant(4) {
		t.Errorf("distinct constants should not intern to the same function")
	}
}

func TestJoin(t *testing.T) {
	a := ifds.NewAlgebra[int]()
	f := a.FromOp(addOp{k: 1})
	g := a.Constant(10)

	same, err := a.Join(f, f)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if same != f {
		t.Errorf("join of a function with itself should be the function, got %s", same)
	}

	j1, err := a.Join(f, g)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	j2, err := a.Join(g, f)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if j1 != j2 {
		t.Errorf("join should be cached commutatively")
	}
	// Join(f, g)(5) = max(5 + 1, 10)
	if v := j1.Apply(maxLattice{}, 5); v != 10 {
		t.Errorf("expected 10, got %d", v)
	}
	if v := j1.Apply(maxLattice{}, 42); v != 43 {
		t.Errorf("expected 43, got %d", v)
	}
}

func TestGenKillApply(t *testing.T) {
	a := ifds.NewAlgebra[int]()
	l := maxLattice{}
	gen := a.GenKill(5, false)
	if v := gen.Apply(l, 7); v != 7 {
		t.Errorf("gen without kill should join, expected 7, got %d", v)
	}
	if v := gen.Apply(l, 2); v != 5 {
		t.Errorf("gen without kill should join, expected 5, got %d", v)
	}
	kill := a.GenKill(5, true)
	if v := kill.Apply(l, 7); v != 5 {
		t.Errorf("gen with kill should replace, expected 5, got %d", v)
	}
}

func TestCrossAlgebraIsFatal(t *testing.T) {
	a := ifds.NewAlgebra[int]()
	b := ifds.NewAlgebra[int]()
	if _, err := a.Compose(a.Identity(), b.Identity()); !errors.Is(err, ifds.ErrInconsistentEdgeFunction) {
		t.Errorf("composing across algebras should fail, got %v", err)
	}
	if _, err := a.Join(b.Constant(1), a.Constant(1)); !errors.Is(err, ifds.ErrInconsistentEdgeFunction) {
		t.Errorf("joining across algebras should fail, got %v", err)
	}
	if !ifds.IsFatal(ifds.ErrInconsistentEdgeFunction) {
		t.Errorf("inconsistent edge functions should be fatal")
	}
	if ifds.IsFatal(ifds.ErrBudgetExceeded) {
		t.Errorf("budget exhaustion should not be fatal")
	}
}
