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

package formatutil

import (
	"strings"
	"testing"
)

// The colored output depends on whether standard output is a terminal, so the tests only check
// that the formatted text carries its arguments through.
func TestColors(t *testing.T) {
	colors := map[string]func(...interface{}) string{
		"Bold":   Bold,
		"Faint":  Faint,
		"Red":    Red,
		"Green":  Green,
		"Yellow": Yellow,
		"Cyan":   Cyan,
	}
	for name, color := range colors {
		if out := color("alert ", 42); !strings.Contains(out, "alert 42") {
			t.Errorf("%s dropped its arguments: %q", name, out)
		}
	}
}

func TestSanitize(t *testing.T) {
	if got := Sanitize("abc"); got != "abc" {
		t.Errorf("plain text should be unchanged, got %q", got)
	}
	if got := Sanitize("\x1b[31mred"); strings.ContainsRune(got, '\x1b') {
		t.Errorf("escape byte survived sanitizing: %q", got)
	}
}
