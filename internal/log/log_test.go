// Copyright 2026 DigitalOcean.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	l, err := New(&buf, "")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	l.Debugf("scanning bus %d", 0)
	l.Warnf("bus range %d overlaps", 1)

	out := buf.String()
	if strings.Contains(out, "scanning bus") {
		t.Fatalf("debug record logged at default level:\n%s", out)
	}
	if !strings.Contains(out, `level=warning msg="bus range 1 overlaps"`) {
		t.Fatalf("warning record missing:\n%s", out)
	}
	if strings.Contains(out, "time=") {
		t.Fatalf("unexpected timestamp:\n%s", out)
	}
}

func TestNewDebug(t *testing.T) {
	var buf bytes.Buffer

	l, err := New(&buf, "debug")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	l.Debugf("scanning bus %d", 0)
	if !strings.Contains(buf.String(), "scanning bus 0") {
		t.Fatalf("debug record missing:\n%s", buf.String())
	}
}

func TestNewBadLevel(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
