// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packwright

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// writeFile serializes in and writes it to path with mode perm. The data goes to a
// temporary file in the same directory first, so a failed write never
// leaves a truncated file behind.
func writeFile(path string, in toml.Marshaler, perm os.FileMode) error {
	s, err := in.MarshalTOML()
	if err != nil {
		return err
	}

	f, err := ioutil.TempFile(filepath.Dir(path), "."+filepath.Base(path))
	if err != nil {
		return errors.Wrap(err, "failed to create temporary file")
	}
	tmp := f.Name()

	if _, err = f.Write(s); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err = f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err = os.Chmod(tmp, perm); err != nil {
		os.Remove(tmp)
		return err
	}
	if err = os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "cannot rename %s to %s", tmp, path)
	}
	return nil
}

// IsDir determines if the path given is a directory or not.
func IsDir(name string) (bool, error) {
	fi, err := os.Stat(name)
	if err != nil {
		return false, err
	}
	if !fi.IsDir() {
		return false, errors.Errorf("%q is not a directory", name)
	}
	return true, nil
}
