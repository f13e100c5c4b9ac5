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

package ssagraph

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// This file contains functions for running the pointer analysis on a program. The pointer
// analysis is implemented in the x/tools/go/pointer package.

// DoPointerAnalysis runs the pointer analysis on the program p, marking every value in the
// functions filtered by functionFilter as potential value to query for aliasing.
//
// - p is the program to be analyzed
//
// - functionFilter determines whether to add the values of the function in the Queries or
// IndirectQueries of the result
//
// - buildCallGraph determines whether the analysis must also build the callgraph of the program
func DoPointerAnalysis(p *ssa.Program, functionFilter func(*ssa.Function) bool, buildCallGraph bool) (*pointer.Result,
	error) {
	pCfg := &pointer.Config{
		Mains:           ssautil.MainPackages(p.AllPackages()),
		Reflection:      false,
		BuildCallGraph:  buildCallGraph,
		Queries:         make(map[ssa.Value]struct{}),
		IndirectQueries: make(map[ssa.Value]struct{}),
	}

	for function := range ssautil.AllFunctions(p) {
		// Every value of the filtered functions that can potentially alias is marked for
		// querying.
		if functionFilter(function) {
			for _, block := range function.Blocks {
				for _, instruction := range block.Instrs {
					addQuery(pCfg, instruction)
				}
			}
		}
	}

	return pointer.Analyze(pCfg)
}

// addQuery adds a query for the instruction to the pointer configuration, performing all the
// necessary checks to ensure the query can be added safely.
func addQuery(cfg *pointer.Config, instruction ssa.Instruction) {
	if instruction == nil {
		return
	}

	for _, operand := range instruction.Operands([]*ssa.Value{}) {
		if *operand != nil && (*operand).Type() != nil {
			typ := (*operand).Type()
			// Add query if value is of a type that can point
			if pointer.CanPoint(typ) {
				cfg.AddQuery(*operand)
			}
			indirectQuery(typ, operand, cfg)
		}
	}
}

// indirectQuery wraps an update to the IndirectQuery of the pointer config. We need to wrap it
// because typ.Underlying() may panic despite typ being non-nil
func indirectQuery(typ types.Type, operand *ssa.Value, cfg *pointer.Config) {
	defer func() {
		if r := recover(); r != nil {
			// Do nothing. Occurs on a *ssa.opaqueType
		}
	}()

	if typ.Underlying() != nil {
		// Add indirect query if value is of pointer type, and underlying type can point
		if ptrType, ok := typ.Underlying().(*types.Pointer); ok {
			if pointer.CanPoint(ptrType.Elem()) {
				cfg.AddIndirectQuery(*operand)
			}
		}
	}
}

// BuildCallGraph computes a call graph for prog, with the pointer analysis when the program has
// main packages and falling back to class hierarchy analysis otherwise. The pointer analysis is
// over-approximating; its documentation claims soundness for programs without reflection or
// unsafe Go.
func BuildCallGraph(prog *ssa.Program) (*callgraph.Graph, error) {
	cg, _, err := BuildAliasedCallGraph(prog, func(_ *ssa.Function) bool { return false })
	return cg, err
}

// BuildAliasedCallGraph computes the call graph like BuildCallGraph and additionally queries
// the points-to set of every pointer-typed value in the functions accepted by functionFilter.
// The returned alias map is nil when the program has no main package, since the pointer
// analysis cannot run without one.
func BuildAliasedCallGraph(prog *ssa.Program, functionFilter func(*ssa.Function) bool) (*callgraph.Graph,
	map[ssa.Value]pointer.Pointer, error) {
	if len(ssautil.MainPackages(prog.AllPackages())) > 0 {
		result, err := DoPointerAnalysis(prog, functionFilter, true)
		if err != nil {
			return nil, nil, fmt.Errorf("pointer analysis failed: %w", err)
		}
		return result.CallGraph, result.Queries, nil
	}
	return cha.CallGraph(prog), nil, nil
}
