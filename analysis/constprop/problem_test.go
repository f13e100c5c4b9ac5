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

package constprop_test

import (
	"context"
	"strings"
	"testing"

	"github.com/argus-analysis/argus/analysis/config"
	"github.com/argus-analysis/argus/analysis/constprop"
	"github.com/argus-analysis/argus/analysis/ifds"
	"github.com/argus-analysis/argus/analysis/ir"
)

func solve(t *testing.T, prog *ir.Program) *ifds.Result[constprop.Fact, constprop.Value] {
	t.Helper()
	res, err := constprop.Run(context.Background(), prog, "main", config.NewDefault())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if res.Status() != ifds.Completed {
		t.Fatalf("expected status completed, got %s", res.Status())
	}
	return res
}

func checkConst(t *testing.T, res *ifds.Result[constprop.Fact, constprop.Value], n ifds.Node, v string, want int64) {
	t.Helper()
	val, ok := res.ValueAt(n, constprop.Fact{Var: v})
	if !ok {
		t.Fatalf("%q does not reach %s", v, n)
	}
	k, isConst := val.Constant()
	if !isConst || k != want {
		t.Errorf("expected %q = %d at %s, got %s", v, want, n, val)
	}
}

func checkTop(t *testing.T, res *ifds.Result[constprop.Fact, constprop.Value], n ifds.Node, v string) {
	t.Helper()
	val, ok := res.ValueAt(n, constprop.Fact{Var: v})
	if !ok {
		t.Fatalf("%q does not reach %s", v, n)
	}
	if !val.IsTop() {
		t.Errorf("expected %q to be ⊤ at %s, got %s", v, n, val)
	}
}

func TestStoredConstantsFold(t *testing.T) {
	prog := ir.NewProgram()
	main := prog.NewProc("main")
	main.Const("x", 1)
	main.Const("y", 2)
	main.Store("sx", "x")
	main.Store("sy", "y")
	main.Load("a", "sx")
	main.Load("b", "sy")
	main.Binop("z", "a", ir.Add, "b")
	ret := main.Ret("z")

	res := solve(t, prog)
	checkConst(t, res, ret, "z", 3)
	checkConst(t, res, ret, "a", 1)
	checkConst(t, res, ret, "b", 2)
}

func TestLinearArithThroughCall(t *testing.T) {
	prog := ir.NewProgram()
	main := prog.NewProc("main")
	main.Const("one", 1)
	main.Const("two", 2)
	main.Call("r1", "addFive", "one")
	main.Call("r2", "addFive", "two")
	ret := main.Ret("r1")
	addFive := prog.NewProc("addFive", "n")
	addFive.Const("five", 5)
	addFive.Binop("m", "n", ir.Add, "five")
	addFive.Ret("m")

	res := solve(t, prog)
	// Each call site keeps its own argument value through the shared summary.
	checkConst(t, res, ret, "r1", 6)
	checkConst(t, res, ret, "r2", 7)
}

func TestMultiExitJoin(t *testing.T) {
	prog := ir.NewProgram()
	main := prog.NewProc("main")
	main.Const("c", 0)
	main.Call("r", "pick", "c")
	ret := main.Ret("r")
	pick := prog.NewProc("pick", "c")
	pick.IfGoto("c", 1, 3)
	pick.Const("a", 1)
	pick.Ret("a")
	pick.Const("b", 2)
	pick.Ret("b")

	res := solve(t, prog)
	// The two exits return different constants; the caller must see their join.
	checkTop(t, res, ret, "r")
	if res.Stats().SummariesComputed < 2 {
		t.Errorf("expected one summary per exit, got %d", res.Stats().SummariesComputed)
	}
}

func TestConflictingStoresGoToTop(t *testing.T) {
	prog := ir.NewProgram()
	main := prog.NewProc("main")
	main.Const("x", 1)
	main.Const("y", 2)
	main.Store("s", "x")
	main.Store("s", "y")
	main.Load("a", "s")
	main.Binop("z", "a", ir.Add, "a")
	ret := main.Ret("z")

	res := solve(t, prog)
	// The slot is written twice, so its literal is not resolvable.
	checkTop(t, res, ret, "z")
}

func TestRunParsedProgram(t *testing.T) {
	src := `
# fold two literals through registers
proc main:
  x = 1
  y = 2
  z = x + y
  ret z
`
	prog, err := ir.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	res := solve(t, prog)
	main := prog.Proc("main")
	checkConst(t, res, main.Instrs[len(main.Instrs)-1], "z", 3)
}
