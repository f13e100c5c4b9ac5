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

package ifds

import "errors"

// ErrBudgetExceeded is returned (wrapped) when the solver stops because the operation budget ran
// out or the context was cancelled. The run ends with status Incomplete, not Failed: the partial
// tables remain queryable but unsound.
var ErrBudgetExceeded = errors.New("solver budget exceeded")

// IsFatal reports whether err ends the run with status Failed rather than Incomplete. Only
// client contract violations are fatal; resource exhaustion is not.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInconsistentEdgeFunction)
}
