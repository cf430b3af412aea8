// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package test holds helpers shared by packwright's tests.
package test

import (
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

// Helper with utilities for testing.
type Helper struct {
	t       *testing.T
	tempdir string
}

// NewHelper initializes a new helper for testing.
func NewHelper(t *testing.T) *Helper {
	return &Helper{t: t}
}

// Must gives a fatal error if err is not nil.
func (h *Helper) Must(err error) {
	if err != nil {
		h.t.Fatalf("%+v", err)
	}
}

// check gives a test non-fatal error if err is not nil.
func (h *Helper) check(err error) {
	if err != nil {
		h.t.Errorf("%+v", err)
	}
}

// Logger returns a logger that writes to the test log.
func (h *Helper) Logger() *log.Logger {
	return log.New(Writer{h.t}, "", 0)
}

// makeTempdir makes the temporary directory for this test. If it was already
// created, this does nothing.
func (h *Helper) makeTempdir() {
	if h.tempdir == "" {
		dir, err := ioutil.TempDir("", "packwright-test")
		h.Must(err)
		// Resolve symlinks so paths compare equal with what the code under
		// test computes (macOS tempdirs live behind /var -> /private/var).
		h.tempdir, err = filepath.EvalSymlinks(dir)
		h.Must(err)
	}
}

// TempFile writes contents to path inside the temporary directory.
func (h *Helper) TempFile(path, contents string) {
	h.TempBytes(path, []byte(contents))
}

// TempBytes writes b to path inside the temporary directory.
func (h *Helper) TempBytes(path string, b []byte) {
	h.makeTempdir()
	h.Must(os.MkdirAll(filepath.Join(h.tempdir, filepath.Dir(path)), 0755))
	h.Must(ioutil.WriteFile(filepath.Join(h.tempdir, path), b, 0644))
}

// TempDir adds a directory inside the temporary directory.
func (h *Helper) TempDir(path string) {
	h.makeTempdir()
	fullPath := filepath.Join(h.tempdir, path)
	if err := os.MkdirAll(fullPath, 0755); err != nil && !os.IsExist(err) {
		h.t.Fatalf("%+v", errors.Errorf("unable to create temp directory: %s", fullPath))
	}
}

// Path returns the absolute pathname to name within the temporary directory.
func (h *Helper) Path(name string) string {
	h.makeTempdir()
	if name == "." {
		return h.tempdir
	}
	return filepath.Join(h.tempdir, name)
}

// ReadFile returns the contents of path within the temporary directory.
func (h *Helper) ReadFile(name string) string {
	p := h.Path(name)
	h.MustExist(p)
	b, err := ioutil.ReadFile(p)
	h.Must(err)
	return string(b)
}

// MustExist fails if path does not exist.
func (h *Helper) MustExist(path string) {
	if !h.Exist(path) {
		h.t.Fatalf("%+v", errors.Errorf("%s does not exist but should", path))
	}
}

// MustNotExist fails if path exists.
func (h *Helper) MustNotExist(path string) {
	if h.Exist(path) {
		h.t.Fatalf("%+v", errors.Errorf("%s exists but should not", path))
	}
}

// Exist returns whether or not a path exists.
func (h *Helper) Exist(path string) bool {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false
		}
		h.t.Fatalf("%+v", errors.Wrapf(err, "error checking if path exists: %s", path))
	}
	return true
}

// Cleanup removes the temporary directory.
func (h *Helper) Cleanup() {
	if h.tempdir != "" {
		h.check(os.RemoveAll(h.tempdir))
	}
}
