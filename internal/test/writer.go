// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package test

import (
	"strings"
	"testing"
	"unicode"
)

// Writer adapts a testing.TB to the io.Writer interface so loggers under
// test print through t.Log. Blank lines are dropped.
type Writer struct {
	testing.TB
}

func (t Writer) Write(b []byte) (n int, err error) {
	if len(b) == 0 {
		return 0, nil
	}
	for _, part := range strings.Split(string(b), "\n") {
		if s := strings.TrimRightFunc(part, unicode.IsSpace); s != "" {
			t.Log(s)
		}
	}
	return len(b), nil
}
