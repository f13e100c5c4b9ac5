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

package ir_test

import (
	"strings"
	"testing"

	"github.com/argus-analysis/argus/analysis/ir"
)

func TestParse(t *testing.T) {
	src := `
# a small program exercising every instruction
proc main:
  x = 1
  store s x
  a = load s
  z = a + x
  r = call add(x, z)
  if r goto 6 else 7
  ret r
  ret z

proc add(a, b):
  c = a + b
  ret c
`
	prog, err := ir.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	main := prog.Proc("main")
	if main == nil {
		t.Fatalf("missing proc main")
	}
	if len(main.Instrs) != 8 {
		t.Fatalf("expected 8 instructions in main, got %d", len(main.Instrs))
	}
	wantOps := []ir.Op{ir.Const, ir.Store, ir.Load, ir.Binop, ir.Call, ir.If, ir.Ret, ir.Ret}
	for j, op := range wantOps {
		if main.Instrs[j].Op != op {
			t.Errorf("instruction %d: expected op %v, got %v", j, op, main.Instrs[j].Op)
		}
	}
	call := main.Instrs[4]
	if call.Callee != "add" || len(call.Args) != 2 || call.Args[0] != "x" || call.Args[1] != "z" {
		t.Errorf("unexpected call instruction %s", call)
	}
	if got := call.String(); got != "main.4: r = add[x z]" {
		t.Errorf("unexpected call rendering %q", got)
	}
	branch := main.Instrs[5]
	if branch.Then != 6 || branch.Else != 7 {
		t.Errorf("unexpected branch targets in %s", branch)
	}
	if !main.HasBranches() {
		t.Errorf("main should report branches")
	}

	add := prog.Proc("add")
	if add == nil {
		t.Fatalf("missing proc add")
	}
	if len(add.Params) != 2 || add.Params[0] != "a" || add.Params[1] != "b" {
		t.Errorf("unexpected params %v", add.Params)
	}
	if add.HasBranches() {
		t.Errorf("add should not report branches")
	}
	if got := add.Instrs[0].String(); got != "add.0: c = a + b" {
		t.Errorf("unexpected binop rendering %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
	}{
		{"instruction outside proc", "x = 1\n"},
		{"branch target out of range", "proc main:\n  if c goto 4 else 0\n  ret c\n"},
		{"negative branch target", "proc main:\n  if c goto -1 else 2\n  x = 1\n  ret x\n"},
		{"call as last instruction", "proc main:\n  x = 1\n  r = call id(x)\n"},
		{"empty proc", "proc main:\n"},
		{"malformed branch", "proc main:\n  if c goto x else y\n  ret c\n"},
		{"unknown operator", "proc main:\n  z = x % y\n  ret z\n"},
		{"garbage line", "proc main:\n  frobnicate\n  ret x\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ir.Parse(strings.NewReader(tc.src)); err == nil {
				t.Errorf("expected a parse error")
			}
		})
	}
}

func TestProgramSupergraph(t *testing.T) {
	prog := ir.NewProgram()
	main := prog.NewProc("main")
	main.Const("c", 1)
	branch := main.IfGoto("c", 2, 3)
	main.Call("r", "f", "c")
	ret := main.Ret("c")
	f := prog.NewProc("f", "n")
	fret := f.Ret("n")

	if prog.EntryOf(main) != main.Instrs[0] {
		t.Errorf("entry of main should be its first instruction")
	}
	exits := prog.ExitsOf(f)
	if len(exits) != 1 || exits[0] != fret {
		t.Errorf("unexpected exits %v", exits)
	}
	succs := prog.Succs(branch)
	if len(succs) != 2 || succs[0] != main.Instrs[2] || succs[1] != ret {
		t.Errorf("unexpected branch successors %v", succs)
	}
	if got := prog.Succs(ret); len(got) != 0 {
		t.Errorf("a return should have no successors, got %v", got)
	}
	call := main.Instrs[2]
	targets, isCall := prog.CallTargets(call)
	if !isCall || len(targets) != 1 || targets[0] != f {
		t.Errorf("unexpected call targets %v", targets)
	}
	if _, isCall := prog.CallTargets(branch); isCall {
		t.Errorf("a branch is not a call site")
	}
	if prog.ReturnSite(call) != ret {
		t.Errorf("return site of the call should be the next instruction")
	}
	if prog.ProcOf(fret).Name() != "f" {
		t.Errorf("unexpected enclosing procedure for %s", fret)
	}
}
