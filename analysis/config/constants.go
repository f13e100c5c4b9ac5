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

const (
	// DefaultMaxFactsPerFlow is the default cap on the number of facts a single flow function
	// application may return. A flow function exceeding the cap is treated as non-finite: the
	// branch is abandoned and counted, instead of letting the solver diverge.
	DefaultMaxFactsPerFlow = 512

	// DefaultMaxSolverOperations is the default budget on worklist operations for one solve.
	DefaultMaxSolverOperations = 5_000_000
)
