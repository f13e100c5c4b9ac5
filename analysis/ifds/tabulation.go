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

import "github.com/argus-analysis/argus/internal/funcutil"

// processNormal extends a path edge through an intra-procedural node: the flow function's output
// facts are fanned out to every successor, with the node's edge function composed onto the jump
// function.
func (s *Solver[F, V]) processNormal(e PathEdge[F], phi *EdgeFunction[V]) error {
	n, d := e.Target, e.TargetFact
	out := s.boundedFlow(n, d, s.withZero(d, s.problem.NormalFlow(n, d)))
	if len(out) == 0 {
		return nil
	}
	for _, m := range s.graph.Succs(n) {
		for _, d2 := range out {
			f := s.problem.NormalEdge(s.alg, n, d, d2)
			composed, err := s.alg.Compose(f, phi)
			if err != nil {
				return err
			}
			if err := s.propagate(PathEdge[F]{e.Start, e.StartFact, m, d2}, composed); err != nil {
				return err
			}
		}
	}
	return nil
}

// processCall handles a path edge ending at a call site. Local effects travel the call-to-return
// channel; for each resolvable callee, call facts are mapped into the callee context, the context
// is registered as waiting on summaries, and already-tabulated summaries are applied immediately.
// A call with no resolvable target degrades to call-to-return only.
func (s *Solver[F, V]) processCall(e PathEdge[F], phi *EdgeFunction[V]) error {
	n, d := e.Target, e.TargetFact
	retSite := s.graph.ReturnSite(n)
	if retSite == nil {
		// Nowhere to resume: neither the call-to-return channel nor callee summaries can
		// deliver facts anywhere, so the call is skipped entirely.
		if !s.missing[n] {
			s.missing[n] = true
			s.stats.MissingCallTargets++
			s.logger.Warnf("no return site at call %v, skipping", n)
		}
		return nil
	}
	targets, _ := s.graph.CallTargets(n)

	ctr := s.boundedFlow(n, d, s.withZero(d, s.problem.CallToReturnFlow(n, d)))
	for _, d2 := range ctr {
		f := s.problem.CallToReturnEdge(s.alg, n, d, d2)
		composed, err := s.alg.Compose(f, phi)
		if err != nil {
			return err
		}
		if err := s.propagate(PathEdge[F]{e.Start, e.StartFact, retSite, d2}, composed); err != nil {
			return err
		}
	}

	if len(targets) == 0 {
		if !s.missing[n] {
			s.missing[n] = true
			s.stats.MissingCallTargets++
			s.logger.Warnf("no resolvable target at call %v, analyzing call-to-return only", n)
		}
		return nil
	}

	for _, callee := range targets {
		entryN := s.graph.EntryOf(callee)
		cf := s.boundedFlow(n, d, s.withZero(d, s.problem.CallFlow(n, callee, d)))
		for _, d3 := range cf {
			callEdge := s.problem.CallEdge(s.alg, n, d, d3)
			key := startKey[F]{entryN, d3}
			in := incomingEdge[F, V]{
				call:      n,
				retSite:   retSite,
				callFact:  d,
				start:     e.Start,
				startFact: e.StartFact,
				callEdge:  callEdge,
				callerPhi: phi,
			}
			if funcutil.Contains(s.incoming[key], in) {
				continue
			}
			s.incoming[key] = append(s.incoming[key], in)

			if err := s.propagate(PathEdge[F]{entryN, d3, entryN, d3}, s.alg.Identity()); err != nil {
				return err
			}
			if sums := s.summaries[key]; len(sums) > 0 {
				s.stats.SummariesReused++
				if s.logger.LogsTrace() {
					s.logger.Tracef("reusing %d summaries of %s for call %v", len(sums), callee.Name(), n)
				}
				for _, sum := range sums {
					if err := s.applySummary(in, callee, sum); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// processExit records one summary edge for the callee context and resumes every call site
// waiting on it. Each exit node contributes a separate summary; contributions from multiple
// exits join at the caller's return site through propagate.
func (s *Solver[F, V]) processExit(e PathEdge[F], phi *EdgeFunction[V]) error {
	key := startKey[F]{e.Start, e.StartFact}
	sum := summaryEdge[F, V]{exit: e.Target, exitFact: e.TargetFact, fn: phi}
	if funcutil.Contains(s.summaries[key], sum) {
		return nil
	}
	s.summaries[key] = append(s.summaries[key], sum)
	s.stats.SummariesComputed++

	callee := s.graph.ProcOf(e.Target)
	if s.logger.LogsTrace() {
		s.logger.Tracef("summary %s: <%v> -> <%v,%v> with %s", callee.Name(), e.StartFact, e.Target, e.TargetFact, phi)
	}
	for _, in := range s.incoming[key] {
		if err := s.applySummary(in, callee, sum); err != nil {
			return err
		}
	}
	return nil
}

// applySummary plumbs one callee summary back into one waiting call site: exit facts are mapped
// to return-site facts, and the full caller-to-return-site edge function is built as
// returnEdge ∘ summary ∘ callEdge ∘ callerJump.
func (s *Solver[F, V]) applySummary(in incomingEdge[F, V], callee Proc, sum summaryEdge[F, V]) error {
	out := s.boundedFlow(in.call, sum.exitFact,
		s.withZero(sum.exitFact, s.problem.ReturnFlow(in.call, callee, sum.exitFact, in.callFact)))
	for _, d5 := range out {
		retEdge := s.problem.ReturnEdge(s.alg, in.call, sum.exitFact, d5)
		f, err := s.alg.Compose(sum.fn, in.callEdge)
		if err != nil {
			return err
		}
		f, err = s.alg.Compose(retEdge, f)
		if err != nil {
			return err
		}
		f, err = s.alg.Compose(f, in.callerPhi)
		if err != nil {
			return err
		}
		if err := s.propagate(PathEdge[F]{in.start, in.startFact, in.retSite, d5}, f); err != nil {
			return err
		}
	}
	return nil
}
