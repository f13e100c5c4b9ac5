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

// Status reports how a solver run ended.
type Status int8

const (
	// Completed means the tabulation reached a fixed point within budget.
	Completed Status = iota
	// Incomplete means the run was cut off by the operation budget or context cancellation.
	// The partial table remains queryable but results are unsound.
	Incomplete
	// Failed means the run aborted on a fatal error (inconsistent edge functions).
	Failed
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Incomplete:
		return "incomplete"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Stats collects counters accumulated during a solver run.
type Stats struct {
	// WorklistOps is the number of worklist items processed.
	WorklistOps int
	// PathEdges is the number of distinct path edges discovered.
	PathEdges int
	// SummariesComputed is the number of (procedure, entry fact, exit fact) summaries tabulated.
	SummariesComputed int
	// SummariesReused is the number of call sites served from an existing summary instead of
	// re-analyzing the callee.
	SummariesReused int
	// ComposeHits and ComposeMisses report the composition cache behavior.
	ComposeHits   int
	ComposeMisses int
	// NonFiniteFlows counts flow-function outputs truncated by the per-flow fact cap.
	NonFiniteFlows int
	// MissingCallTargets counts call sites with no resolvable callee or no return site.
	MissingCallTargets int
}

// A Result holds the tables produced by a solver run: which facts reach which nodes, and for IDE
// problems, the joined lattice value of each fact at each node.
type Result[F comparable, V comparable] struct {
	status  Status
	stats   Stats
	lattice Lattice[V]
	values  map[Node]map[F]V
	facts   map[Node]map[F]bool
	zero    F
}

// Status reports how the run ended.
func (r *Result[F, V]) Status() Status { return r.status }

// Stats returns the run counters.
func (r *Result[F, V]) Stats() Stats { return r.stats }

// Unsound returns true if the tables may be missing flows, i.e. the run did not complete.
func (r *Result[F, V]) Unsound() bool { return r.status != Completed }

// HasFactAt reports whether fact d was tabulated as reaching node n.
func (r *Result[F, V]) HasFactAt(n Node, d F) bool {
	return r.facts[n][d]
}

// FactsAt returns the facts reaching node n. The zero fact is implicit at every reachable node
// and is not included.
func (r *Result[F, V]) FactsAt(n Node) []F {
	var out []F
	for d := range r.facts[n] {
		if d != r.zero {
			out = append(out, d)
		}
	}
	return out
}

// ValueAt returns the lattice value of fact d at node n. The second return is false when d does
// not reach n; callers should then treat the value as Top.
func (r *Result[F, V]) ValueAt(n Node, d F) (V, bool) {
	if v, ok := r.values[n][d]; ok {
		return v, true
	}
	var zero V
	if !r.facts[n][d] {
		return zero, false
	}
	return r.lattice.Top(), true
}
