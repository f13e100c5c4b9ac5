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

package ssataint_test

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/argus-analysis/argus/analysis/config"
	"github.com/argus-analysis/argus/analysis/ifds"
	"github.com/argus-analysis/argus/analysis/ssagraph"
	"github.com/argus-analysis/argus/analysis/ssataint"
)

// aliasedSrc stores a secret through p and reads it back through r, which the builder turns
// into a phi over p and q. Only the pointer analysis can relate the load address to p.
const aliasedSrc = `package main

var flag bool

func getSecret() int { return 42 }

func send(int) {}

func main() {
	p := new(int)
	q := new(int)
	r := p
	if flag {
		r = q
	}
	*p = getSecret()
	send(*r)
}
`

func buildMain(t *testing.T, src string) (*ssa.Program, *ssa.Function) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "main.go", src, 0)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	pkg, _, err := ssautil.BuildPackage(&types.Config{}, fset, types.NewPackage("main", "main"),
		[]*ast.File{file}, ssa.SanityCheckFunctions)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return pkg.Prog, pkg.Func("main")
}

func ssaTaintConfig() *config.Config {
	cfg := config.NewDefault()
	cfg.TaintTrackingProblems = []config.TaintSpec{
		{
			Sources: []config.CodeIdentifier{{Method: "getSecret"}},
			Sinks:   []config.CodeIdentifier{{Method: "send"}},
		},
	}
	return cfg
}

func findCall(f *ssa.Function, callee string) *ssa.Call {
	for _, block := range f.Blocks {
		for _, instr := range block.Instrs {
			if call, ok := instr.(*ssa.Call); ok {
				if sc := call.Call.StaticCallee(); sc != nil && sc.Name() == callee {
					return call
				}
			}
		}
	}
	return nil
}

func findLoad(f *ssa.Function) *ssa.UnOp {
	for _, block := range f.Blocks {
		for _, instr := range block.Instrs {
			if load, ok := instr.(*ssa.UnOp); ok && load.Op == token.MUL {
				if _, isPhi := load.X.(*ssa.Phi); isPhi {
					return load
				}
			}
		}
	}
	return nil
}

func TestAnalyzeAliasedLoad(t *testing.T) {
	prog, main := buildMain(t, aliasedSrc)
	report, err := ssataint.Analyze(context.Background(), prog, main, ssaTaintConfig())
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(report.Flows) != 1 {
		t.Fatalf("expected 1 flow, got %d: %v", len(report.Flows), report.Flows)
	}
	f := report.Flows[0]
	if f.Sink != findCall(main, "send") {
		t.Errorf("flow reached the wrong sink: %s", f)
	}
	if f.Val != ssa.Value(findLoad(main)) {
		t.Errorf("expected the flow to reach the sink through the load, got %s", f.Val.Name())
	}
}

// Without alias information the load address is only related to syntactically identical
// values, so the secret stored through p never reaches the read through the phi.
func TestLoadWithoutAliasInfo(t *testing.T) {
	prog, main := buildMain(t, aliasedSrc)
	cfg := ssaTaintConfig()
	cg, err := ssagraph.BuildCallGraph(prog)
	if err != nil {
		t.Fatalf("call graph construction failed: %v", err)
	}
	graph := ssagraph.NewGraph(prog, cg)
	problem := ssataint.NewProblem(cfg.TaintTrackingProblems[0], nil)
	res, err := ifds.NewSolver[ssataint.Fact, ifds.Unit](problem, graph, cfg).Solve(context.Background(), main)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	load := findLoad(main)
	for _, d := range res.FactsAt(findCall(main, "send")) {
		if d.Val == ssa.Value(load) {
			t.Errorf("load tainted without alias information")
		}
	}
}
