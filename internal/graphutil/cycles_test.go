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

package graphutil_test

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/argus-analysis/argus/analysis/ir"
	"github.com/argus-analysis/argus/internal/funcutil"
	"github.com/argus-analysis/argus/internal/graphutil"
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

// recursiveProgram has one mutual recursion (a <-> b), one self loop (c) and a non-recursive
// entry point calling both.
func recursiveProgram() *ir.Program {
	prog := ir.NewProgram()
	main := prog.NewProc("main")
	main.Const("x", 1)
	main.Call("r", "a", "x")
	main.Call("s", "c", "x")
	main.Ret("r")

	a := prog.NewProc("a", "n")
	a.Call("r", "b", "n")
	a.Ret("r")

	b := prog.NewProc("b", "n")
	b.Call("r", "a", "n")
	b.Ret("r")

	c := prog.NewProc("c", "n")
	c.Call("r", "c", "n")
	c.Ret("r")
	return prog
}

func TestFindAllElementaryCycles(t *testing.T) {
	g := graphutil.FromProgram(recursiveProgram())
	stats := graph.Check(g)
	t.Logf("Stats:\n\tsize: %d\n\tmulti: %d\n\tloops: %d\n\tisolated: %d",
		stats.Size, stats.Multi, stats.Loops, stats.Isolated)

	cycles := graphutil.FindAllElementaryCycles(g)
	// Node ids follow definition order: main=0, a=1, b=2, c=3.
	expected := []string{"121", "33"}

	n := len(cycles)
	if n != 2 {
		t.Fatalf("Expected 2 elementary cycles, found %d", n)
	}
	results := make([]string, n)
	for i, cycle := range cycles {
		results[i] = strings.Join(
			funcutil.Map(cycle, func(_x int64) string { return strconv.Itoa(int(_x)) }),
			"")
	}
	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	if !slices.Equal(results, expected) {
		t.Fatalf("Expected cycles %v, found %v", expected, results)
	}
}

func TestFindAllElementaryCycles_acyclic(t *testing.T) {
	prog := ir.NewProgram()
	main := prog.NewProc("main")
	main.Const("x", 1)
	main.Call("r", "f", "x")
	main.Ret("r")
	f := prog.NewProc("f", "n")
	f.Ret("n")

	cycles := graphutil.FindAllElementaryCycles(graphutil.FromProgram(prog))
	if len(cycles) != 0 {
		t.Fatalf("Expected no elementary cycles, found %d", len(cycles))
	}
}

func TestRecursiveLabels(t *testing.T) {
	labels := graphutil.RecursiveLabels(graphutil.FromProgram(recursiveProgram()))
	expected := []string{"a", "b", "c"}
	if !slices.Equal(labels, expected) {
		t.Fatalf("Expected recursive labels %v, found %v", expected, labels)
	}
}
