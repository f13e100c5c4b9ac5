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

// Package graphutil provides a directed graph abstraction over call graphs so they can be fed
// to existing graph libraries, and cycle enumeration on top of it.
package graphutil

import (
	"sort"

	"golang.org/x/tools/go/callgraph"
	"gonum.org/v1/gonum/graph"

	"github.com/argus-analysis/argus/analysis/ir"
)

// DGraph is a directed graph over int64 node ids with string labels. It implements the methods
// to satisfy graph.Iterator and Gonum's graph.Graph, so both libraries can traverse it.
type DGraph struct {
	// The order of the graph
	order int

	// Labels maps node ids to display labels
	Labels map[int64]string

	// Keys are all the node IDs
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge from x to y
	Edges map[int64]map[int64]bool
}

// FromCallGraph builds a DGraph from an SSA call graph, with node ids taken from the call graph
// node ids and functions as labels.
func FromCallGraph(cg *callgraph.Graph) DGraph {
	n := len(cg.Nodes)
	labels := make(map[int64]string, n)
	edges := make(map[int64]map[int64]bool, n)
	keys := make([]int64, 0, n)
	for _, node := range cg.Nodes {
		id := int64(node.ID)
		keys = append(keys, id)
		labels[id] = node.String()
		if node.Func != nil {
			labels[id] = node.Func.String()
		}
		edges[id] = map[int64]bool{}
		for _, e := range node.Out {
			if e.Callee != nil {
				edges[id][int64(e.Callee.ID)] = true
			}
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return DGraph{order: n, Labels: labels, Edges: edges, Keys: keys}
}

// FromProgram builds a DGraph from the name-resolved call graph of an ir program, with
// procedures as nodes in definition order.
func FromProgram(prog *ir.Program) DGraph {
	procs := prog.Procs()
	ids := make(map[string]int64, len(procs))
	labels := make(map[int64]string, len(procs))
	edges := make(map[int64]map[int64]bool, len(procs))
	keys := make([]int64, len(procs))
	for j, p := range procs {
		ids[p.Name()] = int64(j)
		labels[int64(j)] = p.Name()
		keys[j] = int64(j)
	}
	for j, p := range procs {
		edges[int64(j)] = map[int64]bool{}
		for _, i := range p.Instrs {
			if i.Op != ir.Call {
				continue
			}
			if callee, ok := ids[i.Callee]; ok {
				edges[int64(j)][callee] = true
			}
		}
	}
	return DGraph{order: len(procs), Labels: labels, Edges: edges, Keys: keys}
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only
// the edges that have both the origin and destination nodes in the include nodes are kept in
// the resulting graph. The subgraph's order and Labels are the same as in the original, so node
// indices stay consistent across subgraphs.
func Subgraph(original DGraph, include []int64) DGraph {
	in := make(map[int64]bool, len(include))
	edges := make(map[int64]map[int64]bool, len(include))
	keys := make([]int64, len(include))

	for j, i := range include {
		keys[j] = i
		in[i] = true
	}

	for _, i := range include {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if in[e] {
				edges[i][e] = true
			}
		}
	}

	return DGraph{
		order:  original.Order(),
		Labels: original.Labels,
		Edges:  edges,
		Keys:   keys,
	}
}

// Order implements the order of the graph.Iterator interface for the DGraph
func (c DGraph) Order() int {
	return c.order
}

// Visit implements the graph.Iterator interface for the DGraph
func (c DGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := c.Labels[int64(v)]; !ok {
		return false
	}
	for w := range c.Edges[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface
func (c DGraph) Node(v int) graph.Node {
	return LNode{id: int64(v), label: c.Labels[int64(v)]}
}

// Nodes returns the set of nodes in the graph
func (c DGraph) Nodes() graph.Nodes {
	return &NodeSet{graph: c, ids: c.Keys, cur: 0}
}

// From returns the set of nodes reachable from the id
func (c DGraph) From(id int64) graph.Nodes {
	var keys []int64
	for out := range c.Edges[id] {
		keys = append(keys, out)
	}
	return &NodeSet{graph: c, ids: keys, cur: 0}
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node
// identifiers
func (c DGraph) HasEdgeBetween(xid, yid int64) bool {
	return c.Edges[xid][yid] || c.Edges[yid][xid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (c DGraph) Edge(uid, vid int64) graph.Edge {
	if c.Edges[uid][vid] {
		return DEdge{from: c.Node(int(uid)).(LNode), to: c.Node(int(vid)).(LNode)}
	}
	return nil
}

// *************** Nodes implementation **********************

// LNode is a labeled node implementing the graph.Node interface
type LNode struct {
	id    int64
	label string
}

// ID returns the id of the node
func (n LNode) ID() int64 {
	return n.id
}

func (n LNode) String() string {
	return n.label
}

// NodeSet implements the graph.Nodes interface, an iterator over a set of nodes
type NodeSet struct {
	graph DGraph

	// ids is the set of node ids in the iterator
	ids []int64

	// cur is the current index of the iterator. The current node is ids[cur]
	// invariant: 0 <= cur < len(ids)
	cur int
}

// Next moves the current node to the next, and returns true if such a node exists. Otherwise,
// returns false and the current node has not changed.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the length of the node set
func (ns *NodeSet) Len() int {
	return len(ns.ids)
}

// Reset resets the id of the current node in the set
func (ns *NodeSet) Reset() {
	ns.cur = 0
}

// Node return the current node in the set
func (ns *NodeSet) Node() graph.Node {
	return ns.graph.Node(int(ns.ids[ns.cur]))
}

// *************** Edge implementation **********************

// DEdge implements the graph.Edge interface
type DEdge struct {
	from LNode
	to   LNode
}

// From returns the origin of the edge
func (e DEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e DEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e DEdge) ReversedEdge() graph.Edge {
	return DEdge{from: e.to, to: e.from}
}
