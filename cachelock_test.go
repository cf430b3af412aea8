// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packwright

import (
	"path/filepath"
	"testing"

	"github.com/packwright/packwright/internal/test"
)

func TestLockCache(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()
	dir := h.Path("cache")

	l, err := LockCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if l.Path() != filepath.Join(dir, CacheLockName) {
		t.Errorf("unexpected lock path %s", l.Path())
	}
	h.MustExist(l.Path())

	_, err = LockCache(dir)
	if err == nil {
		t.Fatal("expected the second lock attempt to fail")
	}
	if _, ok := err.(CouldNotLockCacheError); !ok {
		t.Errorf("expected a CouldNotLockCacheError, got %T: %s", err, err)
	}

	h.Must(l.Unlock())
	h.Must(l.Unlock())

	l2, err := LockCache(dir)
	if err != nil {
		t.Fatalf("lock should be available after Unlock: %s", err)
	}
	h.Must(l2.Unlock())
}
