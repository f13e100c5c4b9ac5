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
	"bytes"
	"strings"
	"testing"
)

func capturedLogGroup(level int) (*LogGroup, *bytes.Buffer) {
	cfg := NewDefault()
	cfg.LogLevel = level
	logger := NewLogGroup(cfg)
	buf := &bytes.Buffer{}
	logger.SetAllOutput(buf)
	logger.SetAllFlags(0)
	return logger, buf
}

func TestLogGroupLevels(t *testing.T) {
	logger, buf := capturedLogGroup(int(InfoLevel))
	logger.Infof("solving %s", "main")
	logger.Debugf("path edge %d", 1)
	logger.Tracef("jump function %d", 2)
	out := buf.String()
	if !strings.Contains(out, "[INFO] solving main") {
		t.Errorf("info message missing from output %q", out)
	}
	if strings.Contains(out, "[DEBUG]") || strings.Contains(out, "[TRACE]") {
		t.Errorf("messages above the configured level leaked into output %q", out)
	}
	if logger.LogsTrace() {
		t.Errorf("info-level group should not trace")
	}

	logger, buf = capturedLogGroup(int(DebugLevel))
	logger.Debugf("path edge %d", 1)
	logger.Warnf("missing target")
	logger.Errorf("budget exceeded")
	out = buf.String()
	for _, want := range []string{"[DEBUG] path edge 1", "[WARN] missing target", "[ERROR] budget exceeded"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}

	logger, _ = capturedLogGroup(int(TraceLevel))
	if !logger.LogsTrace() {
		t.Errorf("trace-level group should trace")
	}
}
