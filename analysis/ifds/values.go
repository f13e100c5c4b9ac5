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

// computeValues runs the second phase of the IDE tabulation: values are seeded at the analysis
// entry points, pushed across call edges to every reached procedure context until a fixed point,
// and finally each path edge's jump function is evaluated on its context's entry value to yield
// the value at the edge's target. Values accumulate by join, starting from Bottom.
func (s *Solver[F, V]) computeValues() {
	s.values = map[Node]map[F]V{}

	get := func(n Node, d F) V {
		if v, ok := s.values[n][d]; ok {
			return v
		}
		return s.problem.Bottom()
	}
	// set joins v into the stored value and reports whether it changed.
	set := func(n Node, d F, v V) bool {
		m := s.values[n]
		if m == nil {
			m = map[F]V{}
			s.values[n] = m
		}
		old, ok := m[d]
		if !ok {
			old = s.problem.Bottom()
		}
		joined := s.problem.Join(old, v)
		if ok && joined == old {
			return false
		}
		m[d] = joined
		return true
	}

	byStart := map[startKey[F]][]PathEdge[F]{}
	for e := range s.jump {
		k := startKey[F]{e.Start, e.StartFact}
		byStart[k] = append(byStart[k], e)
	}

	// Phase a: entry values of every reached context.
	var work []startKey[F]
	for _, sd := range s.seeds {
		if set(sd.entry, sd.fact, s.problem.Bottom()) {
			work = append(work, sd)
		}
	}
	for len(work) > 0 {
		sk := work[len(work)-1]
		work = work[:len(work)-1]
		entryVal := get(sk.entry, sk.fact)
		for _, e := range byStart[sk] {
			targets, isCall := s.graph.CallTargets(e.Target)
			if !isCall {
				continue
			}
			phi, err := s.jumpFunction(e)
			if err != nil {
				s.logger.Errorf("value phase: %s", err)
				continue
			}
			atCall := phi.Apply(s.problem, entryVal)
			for _, callee := range targets {
				entryN := s.graph.EntryOf(callee)
				for _, d3 := range s.withZero(e.TargetFact, s.problem.CallFlow(e.Target, callee, e.TargetFact)) {
					ce := s.problem.CallEdge(s.alg, e.Target, e.TargetFact, d3)
					if set(entryN, d3, ce.Apply(s.problem, atCall)) {
						work = append(work, startKey[F]{entryN, d3})
					}
				}
			}
		}
	}

	// Phase b: evaluate every jump function on its context's entry value.
	for e := range s.jump {
		phi, err := s.jumpFunction(e)
		if err != nil {
			s.logger.Errorf("value phase: %s", err)
			continue
		}
		set(e.Target, e.TargetFact, phi.Apply(s.problem, get(e.Start, e.StartFact)))
	}
}
