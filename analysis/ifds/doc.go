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

// Package ifds implements a generic interprocedural dataflow solver in the IFDS/IDE style
// (Reps, Horwitz and Sagiv's tabulation algorithm). Clients supply a Problem: flow functions
// that transfer facts across statements, calls and returns, and, for value-computing (IDE)
// analyses, edge functions over a value lattice. The solver propagates path edges over the
// exploded supergraph to a fixed point, caching whole-procedure summaries so that repeated and
// recursive calls to the same procedure with the same entry fact are analyzed exactly once.
//
// The solver never materializes the exploded supergraph; it traverses it on demand through the
// Supergraph interface, which abstracts the program representation (see the ir and ssagraph
// packages for concrete implementations).
package ifds
