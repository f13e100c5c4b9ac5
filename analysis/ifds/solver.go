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
	"context"
	"fmt"

	"github.com/argus-analysis/argus/analysis/config"
	"github.com/argus-analysis/argus/internal/funcutil"
)

// A PathEdge records that fact TargetFact holds at Target whenever StartFact holds at the entry
// node Start of the enclosing procedure. Path edges are the unit of work of the tabulation.
type PathEdge[F comparable] struct {
	Start      Node
	StartFact  F
	Target     Node
	TargetFact F
}

func (e PathEdge[F]) String() string {
	return fmt.Sprintf("<%v,%v> -> <%v,%v>", e.Start, e.StartFact, e.Target, e.TargetFact)
}

// startKey identifies a procedure analysis context: the procedure's entry node together with the
// fact holding at it.
type startKey[F comparable] struct {
	entry Node
	fact  F
}

// incomingEdge records a call site waiting on summaries of a callee context. When a new summary
// for the context is tabulated, every waiter is resumed at its return site.
type incomingEdge[F comparable, V comparable] struct {
	call      Node
	retSite   Node
	callFact  F
	start     Node // entry node of the calling procedure
	startFact F
	callEdge  *EdgeFunction[V] // call fact -> callee entry fact
	callerPhi *EdgeFunction[V] // jump function of <start,startFact> -> <call,callFact>
}

// summaryEdge records one tabulated exit of a callee context: the fact at the exit node and the
// composed edge function from the context's entry fact to it. Each exit contributes its own
// summary; callers join the contributions at the return site.
type summaryEdge[F comparable, V comparable] struct {
	exit     Node
	exitFact F
	fn       *EdgeFunction[V]
}

// A Solver runs the IFDS/IDE tabulation for one problem over one supergraph. A Solver is
// single-use: construct, call Solve once, then query the Result. All caches (jump functions,
// summaries, edge-function algebra) are owned by the solver instance; nothing is global.
type Solver[F comparable, V comparable] struct {
	problem Problem[F, V]
	graph   Supergraph
	alg     *Algebra[V]
	logger  *config.LogGroup

	maxFactsPerFlow int
	maxOps          int

	zero F

	// jump maps each discovered path edge to the edge functions contributed to it. The
	// effective jump function is the join of the list; membership is by pointer, which the
	// algebra's interning makes meaningful.
	jump      map[PathEdge[F]][]*EdgeFunction[V]
	facts     map[Node]map[F]bool
	incoming  map[startKey[F]][]incomingEdge[F, V]
	summaries map[startKey[F]][]summaryEdge[F, V]
	worklist  []PathEdge[F]
	seeds     []startKey[F]
	values    map[Node]map[F]V
	missing   map[Node]bool

	stats Stats
}

// NewSolver returns a solver for the given problem and supergraph, with budgets and logging
// taken from cfg.
func NewSolver[F comparable, V comparable](p Problem[F, V], g Supergraph, cfg *config.Config) *Solver[F, V] {
	maxFacts := cfg.MaxFactsPerFlow
	if maxFacts <= 0 {
		maxFacts = config.DefaultMaxFactsPerFlow
	}
	maxOps := cfg.MaxSolverOperations
	if maxOps <= 0 {
		maxOps = config.DefaultMaxSolverOperations
	}
	return &Solver[F, V]{
		problem:         p,
		graph:           g,
		alg:             NewAlgebra[V](),
		logger:          config.NewLogGroup(cfg),
		maxFactsPerFlow: maxFacts,
		maxOps:          maxOps,
		zero:            p.ZeroFact(),
		jump:            map[PathEdge[F]][]*EdgeFunction[V]{},
		facts:           map[Node]map[F]bool{},
		incoming:        map[startKey[F]][]incomingEdge[F, V]{},
		summaries:       map[startKey[F]][]summaryEdge[F, V]{},
		missing:         map[Node]bool{},
	}
}

// Algebra exposes the solver's edge-function algebra. Problems receive it through their edge
// methods; it is exported for tests and diagnostics.
func (s *Solver[F, V]) Algebra() *Algebra[V] { return s.alg }

// Solve runs the tabulation from the entry procedure to a fixed point, then computes lattice
// values. It returns a non-nil Result even when the run is cut short: on budget exhaustion or
// context cancellation the Result has status Incomplete and holds the partial tables. A fatal
// error (inconsistent edge functions) returns status Failed along with the error.
func (s *Solver[F, V]) Solve(ctx context.Context, entry Proc) (*Result[F, V], error) {
	status := Completed
	err := s.run(ctx, entry)
	switch {
	case err == nil:
	case IsFatal(err):
		s.logger.Errorf("solver aborted: %s", err)
		return s.result(Failed), err
	default:
		s.logger.Warnf("solver stopped early: %s", err)
		status = Incomplete
	}
	// Values are computed even over a partial table so that Incomplete runs stay queryable.
	s.computeValues()
	return s.result(status), nil
}

func (s *Solver[F, V]) run(ctx context.Context, entry Proc) error {
	sp := s.graph.EntryOf(entry)
	seeds := append(s.problem.InitialFacts(entry), s.zero)
	for _, d := range seeds {
		key := startKey[F]{sp, d}
		if !funcutil.Contains(s.seeds, key) {
			s.seeds = append(s.seeds, key)
		}
		if err := s.propagate(PathEdge[F]{sp, d, sp, d}, s.alg.Identity()); err != nil {
			return err
		}
	}

	for len(s.worklist) > 0 {
		if s.stats.WorklistOps >= s.maxOps {
			return fmt.Errorf("%w: %d operations", ErrBudgetExceeded, s.stats.WorklistOps)
		}
		if s.stats.WorklistOps%256 == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %s", ErrBudgetExceeded, err)
			}
		}
		s.stats.WorklistOps++

		e := s.worklist[len(s.worklist)-1]
		s.worklist = s.worklist[:len(s.worklist)-1]
		phi, err := s.jumpFunction(e)
		if err != nil {
			return err
		}
		if s.logger.LogsTrace() {
			s.logger.Tracef("process %s with %s", e, phi)
		}

		if _, isCall := s.graph.CallTargets(e.Target); isCall {
			err = s.processCall(e, phi)
		} else if s.isExit(e.Target) {
			err = s.processExit(e, phi)
		} else {
			err = s.processNormal(e, phi)
		}
		if err != nil {
			return err
		}
	}
	s.stats.ComposeHits, s.stats.ComposeMisses = s.alg.CacheStats()
	return nil
}

func (s *Solver[F, V]) isExit(n Node) bool {
	return funcutil.Contains(s.graph.ExitsOf(s.graph.ProcOf(n)), n)
}

// jumpFunction folds the contributions to a path edge into its effective jump function. Memoized
// joins make repeated folds cheap and pointer-stable.
func (s *Solver[F, V]) jumpFunction(e PathEdge[F]) (*EdgeFunction[V], error) {
	fns := s.jump[e]
	phi := fns[0]
	for _, f := range fns[1:] {
		joined, err := s.alg.Join(phi, f)
		if err != nil {
			return nil, err
		}
		phi = joined
	}
	return phi, nil
}

// propagate adds an edge-function contribution to a path edge and schedules it if the
// contribution is new. Duplicate contributions (by pointer) are dropped.
func (s *Solver[F, V]) propagate(e PathEdge[F], phi *EdgeFunction[V]) error {
	fns, seen := s.jump[e]
	if funcutil.Contains(fns, phi) {
		return nil
	}
	s.jump[e] = append(fns, phi)
	if !seen {
		s.stats.PathEdges++
		m := s.facts[e.Target]
		if m == nil {
			m = map[F]bool{}
			s.facts[e.Target] = m
		}
		m[e.TargetFact] = true
	}
	s.worklist = append(s.worklist, e)
	return nil
}

// boundedFlow enforces the per-flow fact cap. Oversized outputs are dropped entirely and the
// branch abandoned, so a runaway fact generator degrades one flow instead of the whole run.
func (s *Solver[F, V]) boundedFlow(n Node, d F, out []F) []F {
	if len(out) > s.maxFactsPerFlow {
		s.stats.NonFiniteFlows++
		s.logger.Warnf("non-finite flow at %v: %d facts from %v exceed cap %d, abandoning branch",
			n, len(out), d, s.maxFactsPerFlow)
		return nil
	}
	return out
}

// withZero preserves the zero fact through a flow step. Clients never need to re-emit zero from
// their flow functions; the solver keeps it alive on every zero-sourced flow.
func (s *Solver[F, V]) withZero(d F, out []F) []F {
	if d == s.zero && !funcutil.Contains(out, s.zero) {
		return append(out, s.zero)
	}
	return out
}

func (s *Solver[F, V]) result(status Status) *Result[F, V] {
	s.stats.ComposeHits, s.stats.ComposeMisses = s.alg.CacheStats()
	return &Result[F, V]{
		status:  status,
		stats:   s.stats,
		lattice: s.problem,
		values:  s.values,
		facts:   s.facts,
		zero:    s.zero,
	}
}
