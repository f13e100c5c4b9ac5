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

package constprop

import "fmt"

type valueKind int8

const (
	bottom valueKind = iota
	known
	top
)

// Value is an element of the flat constant lattice: Bottom (no information yet), a single
// integer constant, or Top (not a constant). Join keeps equal constants, treats Bottom as
// neutral and collapses disagreeing constants to Top.
type Value struct {
	kind valueKind
	k    int64
}

// Bot is the Bottom element.
func Bot() Value { return Value{} }

// TopVal is the Top element.
func TopVal() Value { return Value{kind: top} }

// ConstVal is the constant k.
func ConstVal(k int64) Value { return Value{kind: known, k: k} }

// Constant returns the constant and true when v is a single constant.
func (v Value) Constant() (int64, bool) { return v.k, v.kind == known }

// IsTop reports whether v is Top.
func (v Value) IsTop() bool { return v.kind == top }

func (v Value) String() string {
	switch v.kind {
	case bottom:
		return "⊥"
	case known:
		return fmt.Sprintf("%d", v.k)
	default:
		return "⊤"
	}
}
