// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package feedback reports how a new lock differs from the previous one.
package feedback

import (
	"fmt"
	"log"
	"sort"

	"github.com/packwright/packwright"
)

// Change kinds
const (
	KindAdd    = "add"
	KindUpdate = "update"
	KindRemove = "remove"
)

// A Change is one project whose locked version moved between two locks.
type Change struct {
	Kind      string
	ProjectID string
	From, To  packwright.LockedMod
}

func (c Change) String() string {
	switch c.Kind {
	case KindAdd:
		return fmt.Sprintf("Adding %s at %s", c.ProjectID, describe(c.To))
	case KindRemove:
		return fmt.Sprintf("Removing %s at %s", c.ProjectID, describe(c.From))
	}
	return fmt.Sprintf("Updating %s from %s to %s", c.ProjectID, describe(c.From), describe(c.To))
}

// describe renders a locked version as "0.5.3 (sod-053)".
func describe(m packwright.LockedMod) string {
	if m.Version == "" {
		return m.VersionID
	}
	return fmt.Sprintf("%s (%s)", m.Version, m.VersionID)
}

// DiffLocks lists the projects added, removed or moved to another version
// between old and cur, sorted by project id. A nil old lock means every
// project in cur is added.
func DiffLocks(old, cur *packwright.Lock) []Change {
	prev := make(map[string]packwright.LockedMod)
	if old != nil {
		for _, m := range old.Mods {
			prev[m.ProjectID] = m
		}
	}

	var out []Change
	seen := make(map[string]bool)
	for _, m := range cur.Mods {
		seen[m.ProjectID] = true
		p, ok := prev[m.ProjectID]
		switch {
		case !ok:
			out = append(out, Change{Kind: KindAdd, ProjectID: m.ProjectID, To: m})
		case p.VersionID != m.VersionID:
			out = append(out, Change{Kind: KindUpdate, ProjectID: m.ProjectID, From: p, To: m})
		}
	}
	for id, p := range prev {
		if !seen[id] {
			out = append(out, Change{Kind: KindRemove, ProjectID: id, From: p})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out
}

// LogChanges logs one line per change, or a note that nothing changed.
func LogChanges(logger *log.Logger, changes []Change) {
	if len(changes) == 0 {
		logger.Println("Lock is unchanged")
		return
	}
	for _, c := range changes {
		logger.Printf("  %v", c)
	}
}
