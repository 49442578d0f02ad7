// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panelsim

import (
	"bytes"
	"strings"
	"testing"
)

func TestTerminalRender(t *testing.T) {
	for _, tc := range []struct {
		step      int
		wantLines int
	}{
		{step: 0, wantLines: 80},
		{step: 1, wantLines: 160},
		{step: 4, wantLines: 40},
	} {
		var buf bytes.Buffer
		term := NewTerminalWriter(&buf, &TerminalOpts{Step: tc.step})
		if err := term.Render(New(&DefaultOpts)); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.HasPrefix(out, "\033[H") {
			t.Errorf("step %d: output does not start by moving the cursor home", tc.step)
		}
		if got := strings.Count(out, "\n"); got != tc.wantLines {
			t.Errorf("step %d: %d lines, want %d", tc.step, got, tc.wantLines)
		}
	}
}

func TestTerminalHalt(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminalWriter(&buf, &TerminalOpts{})
	if err := term.Halt(); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "\n\033[0m" {
		t.Errorf("Halt() wrote %q", got)
	}
}
