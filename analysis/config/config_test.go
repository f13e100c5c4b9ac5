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

package config

import (
	"path/filepath"
	"testing"
)

func checkEqualOnNonEmptyFields(t *testing.T, cid1 CodeIdentifier, cid2 CodeIdentifier) {
	cid2c := CompileRegexes(cid2)
	if !cid1.equalOnNonEmptyFields(cid2c) {
		t.Errorf("%v should be equal modulo empty fields to %v", cid1, cid2)
	}
}

func checkNotEqualOnNonEmptyFields(t *testing.T, cid1 CodeIdentifier, cid2 CodeIdentifier) {
	cid2c := CompileRegexes(cid2)
	if cid1.equalOnNonEmptyFields(cid2c) {
		t.Errorf("%v should not be equal modulo empty fields to %v", cid1, cid2)
	}
}

func TestCodeIdentifier_equalOnNonEmptyFields_selfEquals(t *testing.T) {
	cid1 := CodeIdentifier{"a", "b", "", "c", nil}
	checkEqualOnNonEmptyFields(t, cid1, cid1)
}

func TestCodeIdentifier_equalOnNonEmptyFields_emptyMatchesAny(t *testing.T) {
	cid1 := CodeIdentifier{"a", "b", "c", "d", nil}
	cid2 := CodeIdentifier{"de", "234jbn", "23kjb", "d", nil}
	cidEmpty := CodeIdentifier{}
	checkEqualOnNonEmptyFields(t, cid1, cidEmpty)
	checkEqualOnNonEmptyFields(t, cid2, cidEmpty)
}

func TestCodeIdentifier_equalOnNonEmptyFields_oneDiff(t *testing.T) {
	cid1 := CodeIdentifier{"a", "b", "", "", nil}
	cid2 := CodeIdentifier{"a", "", "", "", nil}
	checkEqualOnNonEmptyFields(t, cid1, cid2)
	checkNotEqualOnNonEmptyFields(t, cid2, cid1)
}

func TestCodeIdentifier_equalOnNonEmptyFields_regexes(t *testing.T) {
	cid1 := CodeIdentifier{"main", "b", "", "", nil}
	cid1bis := CodeIdentifier{"command-line-arguments", "b", "", "", nil}
	cid2 := CodeIdentifier{"(main)|(command-line-arguments)$", "", "", "", nil}
	checkEqualOnNonEmptyFields(t, cid1, cid2)
	checkEqualOnNonEmptyFields(t, cid1bis, cid2)
}

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()
	if cfg.MaxFactsPerFlow != DefaultMaxFactsPerFlow {
		t.Errorf("default max-facts-per-flow should be %d, got %d", DefaultMaxFactsPerFlow, cfg.MaxFactsPerFlow)
	}
	if cfg.MaxSolverOperations != DefaultMaxSolverOperations {
		t.Errorf("default max-solver-operations should be %d, got %d", DefaultMaxSolverOperations, cfg.MaxSolverOperations)
	}
	if cfg.LogLevel != int(InfoLevel) {
		t.Errorf("default log level should be info, got %d", cfg.LogLevel)
	}
	if !cfg.MatchPkgFilter("github.com/any/package") {
		t.Errorf("an unset package filter should match everything")
	}
}

func TestLoadConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.MaxFactsPerFlow != 128 {
		t.Errorf("expected max-facts-per-flow 128, got %d", cfg.MaxFactsPerFlow)
	}
	if cfg.MaxSolverOperations != 100000 {
		t.Errorf("expected max-solver-operations 100000, got %d", cfg.MaxSolverOperations)
	}
	if cfg.LogLevel != int(DebugLevel) {
		t.Errorf("expected log-level debug, got %d", cfg.LogLevel)
	}
	if !cfg.ReportFlows {
		t.Errorf("expected report-flows to be set")
	}

	if len(cfg.TaintTrackingProblems) != 1 {
		t.Fatalf("expected 1 taint tracking problem, got %d", len(cfg.TaintTrackingProblems))
	}
	ts := cfg.TaintTrackingProblems[0]
	if !ts.IsSource(CodeIdentifier{Method: "getSecret"}) {
		t.Errorf("getSecret should be a source")
	}
	if !ts.IsSink(CodeIdentifier{Package: "net", Method: "send"}) {
		t.Errorf("net.send should be a sink")
	}
	if ts.IsSink(CodeIdentifier{Package: "crypto", Method: "send"}) {
		t.Errorf("crypto.send should not be a sink")
	}
	if !ts.IsSanitizer(CodeIdentifier{Method: "scrub"}) {
		t.Errorf("scrub should be a sanitizer")
	}
	// The config-level queries fold over every taint specification.
	if !cfg.IsSomeSource(CodeIdentifier{Method: "getSecret"}) {
		t.Errorf("getSecret should be a source of some problem")
	}
	if !cfg.IsSomeSink(CodeIdentifier{Package: "net", Method: "send"}) {
		t.Errorf("net.send should be a sink of some problem")
	}
	if !cfg.IsSomeSanitizer(CodeIdentifier{Method: "scrub"}) {
		t.Errorf("scrub should be a sanitizer of some problem")
	}
	if cfg.IsSomeSource(CodeIdentifier{Method: "send"}) {
		t.Errorf("send should not be a source of any problem")
	}

	if len(cfg.TypestateProblems) != 1 {
		t.Fatalf("expected 1 typestate problem, got %d", len(cfg.TypestateProblems))
	}
	proto := cfg.TypestateProblems[0]
	if !proto.IsOpen(CodeIdentifier{Package: "os", Method: "Open"}) {
		t.Errorf("os.Open should open the protocol")
	}
	if !proto.IsClose(CodeIdentifier{Method: "Close"}) {
		t.Errorf("Close should close the protocol")
	}
	if !proto.IsUse(CodeIdentifier{Method: "Read"}) || !proto.IsUse(CodeIdentifier{Method: "Write"}) {
		t.Errorf("Read and Write should be protocol uses")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "does-not-exist.yaml")); err == nil {
		t.Errorf("loading a missing file should fail")
	}
}

func TestMatchPkgFilter(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !cfg.MatchPkgFilter("github.com/example/core") {
		t.Errorf("package filter should match packages under the prefix")
	}
	if cfg.MatchPkgFilter("github.com/other/core") {
		t.Errorf("package filter should reject packages outside the prefix")
	}
}
