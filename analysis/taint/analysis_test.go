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

package taint_test

import (
	"context"
	"testing"

	"github.com/argus-analysis/argus/analysis/config"
	"github.com/argus-analysis/argus/analysis/ir"
	"github.com/argus-analysis/argus/analysis/taint"
)

func taintConfig() *config.Config {
	cfg := config.NewDefault()
	cfg.TaintTrackingProblems = []config.TaintSpec{
		{
			Sources:    []config.CodeIdentifier{{Method: "getSecret"}},
			Sinks:      []config.CodeIdentifier{{Method: "send"}},
			Sanitizers: []config.CodeIdentifier{{Method: "scrub"}},
		},
	}
	return cfg
}

func TestFlowThroughCall(t *testing.T) {
	prog := ir.NewProgram()
	main := prog.NewProc("main")
	source := main.Call("s", "getSecret")
	main.Call("u", "fwd", "s")
	sink := main.Call("", "send", "u")
	main.Ret("u")
	fwd := prog.NewProc("fwd", "p")
	fwd.Ret("p")

	report, err := taint.Analyze(context.Background(), prog, "main", taintConfig())
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(report.Flows) != 1 {
		t.Fatalf("expected 1 flow, got %d: %v", len(report.Flows), report.Flows)
	}
	f := report.Flows[0]
	if f.Source != source || f.Sink != sink || f.Var != "u" {
		t.Errorf("unexpected flow %s", f)
	}
}

func TestFlowThroughMemory(t *testing.T) {
	prog := ir.NewProgram()
	main := prog.NewProc("main")
	main.Call("s", "getSecret")
	main.Store("slot", "s")
	main.Load("v", "slot")
	main.Call("", "send", "v")
	main.Ret("v")

	report, err := taint.Analyze(context.Background(), prog, "main", taintConfig())
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(report.Flows) != 1 {
		t.Fatalf("expected 1 flow, got %d", len(report.Flows))
	}
	if report.Flows[0].Var != "v" {
		t.Errorf("expected the flow to reach the sink through %q, got %q", "v", report.Flows[0].Var)
	}
}

func TestSanitizerStopsFlow(t *testing.T) {
	prog := ir.NewProgram()
	main := prog.NewProc("main")
	main.Call("s", "getSecret")
	main.Call("c", "scrub", "s")
	main.Call("", "send", "c")
	main.Call("", "send", "s")
	main.Ret("c")

	report, err := taint.Analyze(context.Background(), prog, "main", taintConfig())
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(report.Flows) != 0 {
		t.Fatalf("expected no flows past the sanitizer, got %d: %v", len(report.Flows), report.Flows)
	}
}

func TestCleanProgram(t *testing.T) {
	prog := ir.NewProgram()
	main := prog.NewProc("main")
	main.Const("x", 1)
	main.Call("", "send", "x")
	main.Ret("x")

	report, err := taint.Analyze(context.Background(), prog, "main", taintConfig())
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(report.Flows) != 0 {
		t.Fatalf("expected no flows, got %d", len(report.Flows))
	}
}

func TestIncompleteRunReportedUnsound(t *testing.T) {
	prog := ir.NewProgram()
	main := prog.NewProc("main")
	main.Call("s", "getSecret")
	main.Store("slot", "s")
	main.Load("v", "slot")
	main.Call("", "send", "v")
	main.Ret("v")

	cfg := taintConfig()
	cfg.MaxSolverOperations = 1
	report, err := taint.Analyze(context.Background(), prog, "main", cfg)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if !report.Unsound {
		t.Errorf("a truncated run must be reported unsound")
	}
}
