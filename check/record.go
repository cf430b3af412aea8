// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package check verifies that a fixed set of installed mod archives satisfies
// its own declared dependencies, and summarizes what the set as a whole
// requires of the game and loader.
package check

import "strings"

// A Constraint is one dependency declared by a record.
type Constraint struct {
	Target string
	// Range is the declared range string, kept verbatim. It is only parsed
	// when checked.
	Range     string
	Mandatory bool
	// Virtual marks the game runtime or the loader rather than another mod.
	Virtual bool
}

// A Record describes one mod found in a local archive.
type Record struct {
	ID           string
	Name         string
	Version      string
	Loader       string
	Dependencies []Constraint
	// Aliases are further ids this record satisfies.
	Aliases []string

	// File is the archive the record was read from.
	File string
	// Nested is set for records bundled inside another archive, in which case
	// Parent holds the id of the enclosing record.
	Nested bool
	Parent string
}

// DisplayName is the record's name, or its id when it has none.
func (r Record) DisplayName() string {
	if strings.TrimSpace(r.Name) == "" {
		return r.ID
	}
	return r.Name
}

var virtualTargets = map[string]bool{
	"minecraft":     true,
	"forge":         true,
	"neoforge":      true,
	"fabricloader":  true,
	"fabric-loader": true,
	"fabric":        true,
	"quilt_loader":  true,
	"quilt":         true,
	"liteloader":    true,
	"cauldron":      true,
	"java":          true,
	"fml":           true,
}

// IsVirtualTarget reports whether id names the game, a loader, or the Java
// runtime rather than a mod.
func IsVirtualTarget(id string) bool {
	return virtualTargets[strings.ToLower(id)]
}
