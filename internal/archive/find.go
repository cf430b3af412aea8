// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/packwright/packwright/check"
	"github.com/pkg/errors"
)

// FindArchives returns the paths of every jar below dir, sorted. Hidden
// directories are not entered.
func FindArchives(dir string) ([]string, error) {
	var jars []string
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			name := de.Name()
			if de.IsDir() {
				if osPathname != dir && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.EqualFold(filepath.Ext(name), ".jar") {
				jars = append(jars, osPathname)
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s for archives", dir)
	}

	sort.Strings(jars)
	return jars, nil
}

// ExtractAll extracts the records of every jar below dir, in path order. Jars
// that cannot be read are logged and skipped.
func ExtractAll(dir string, logger *log.Logger) ([]check.Record, error) {
	jars, err := FindArchives(dir)
	if err != nil {
		return nil, err
	}

	var out []check.Record
	for _, jar := range jars {
		recs, err := Extract(jar, logger)
		if err != nil {
			if logger != nil {
				logger.Printf("warning: %s", err)
			}
			continue
		}
		out = append(out, recs...)
	}
	return out, nil
}
