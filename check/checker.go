// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/packwright/packwright/version"
	"github.com/pkg/errors"
)

// FindingKind classifies the outcome of checking one dependency.
type FindingKind int

const (
	// Pass means the dependency is present at an acceptable version.
	Pass FindingKind = iota
	// Missing means nothing in the set has the dependency's id.
	Missing
	// Incompatible means the dependency is present at a version outside the
	// declared range.
	Incompatible
	// Unverifiable means the declared range could not be parsed. It is
	// reported but does not fail the check.
	Unverifiable
)

func (k FindingKind) String() string {
	switch k {
	case Pass:
		return "ok"
	case Missing:
		return "missing"
	case Incompatible:
		return "incompatible"
	case Unverifiable:
		return "unverifiable"
	}
	return fmt.Sprintf("FindingKind(%d)", int(k))
}

// Failed reports whether a finding of this kind makes the set unsatisfied.
func (k FindingKind) Failed() bool {
	return k == Missing || k == Incompatible
}

// A Finding is the result of checking a single dependency of a single record.
type Finding struct {
	Kind FindingKind
	// Requester is the record declaring the dependency.
	RequesterID   string
	RequesterName string
	Target        string
	Range         string
	// Found is the version of the record satisfying Target, if any.
	Found string
	// Err holds the parse failure behind an Unverifiable finding.
	Err error
}

func (f Finding) String() string {
	head := fmt.Sprintf("%s (%s) requires %s %s", f.RequesterName, f.RequesterID, f.Target, f.Range)
	switch f.Kind {
	case Pass:
		return head + " - found v" + f.Found
	case Missing:
		return head + " - NOT FOUND"
	case Incompatible:
		return head + " - found v" + f.Found + " (INCOMPATIBLE)"
	case Unverifiable:
		return head + " - found v" + f.Found + " (cannot verify)"
	}
	return head
}

// A Report is the outcome of Check.
type Report struct {
	// Satisfied is false if any finding is Missing or Incompatible.
	Satisfied bool
	Findings  []Finding
}

// Checker verifies a fixed set of records against each other.
type Checker struct {
	records []Record
	byID    *recordTrie
	virtual *requirementTrie
}

// New indexes records by id and alias and collects their mandatory virtual
// requirements. When two records claim the same id, the later one wins.
// Nested records are indexed like any other.
func New(records []Record) *Checker {
	records = append([]Record(nil), records...)
	c := &Checker{
		records: records,
		byID:    newRecordTrie(),
		virtual: newRequirementTrie(),
	}

	for k := range records {
		r := &records[k]
		c.byID.Insert(r.ID, r)
		for _, alias := range r.Aliases {
			c.byID.Insert(alias, r)
		}
	}

	for _, r := range records {
		for _, dep := range r.Dependencies {
			if dep.Virtual && dep.Mandatory {
				c.virtual.Append(dep.Target, requirement{
					requester: r.DisplayName(),
					rng:       dep.Range,
				})
			}
		}
	}
	return c
}

// Lookup returns the record that satisfies id, if any.
func (c *Checker) Lookup(id string) (Record, bool) {
	r, ok := c.byID.Get(id)
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Check verifies every mandatory dependency on another mod. Findings follow
// record order, then dependency order within each record.
func (c *Checker) Check() Report {
	rep := Report{Satisfied: true}
	for _, r := range c.records {
		for _, dep := range r.Dependencies {
			if dep.Virtual || !dep.Mandatory {
				continue
			}
			f := c.checkOne(r, dep)
			if f.Kind.Failed() {
				rep.Satisfied = false
			}
			rep.Findings = append(rep.Findings, f)
		}
	}
	return rep
}

func (c *Checker) checkOne(r Record, dep Constraint) Finding {
	f := Finding{
		RequesterID:   r.ID,
		RequesterName: r.DisplayName(),
		Target:        dep.Target,
		Range:         dep.Range,
	}

	found, ok := c.byID.Get(dep.Target)
	if !ok {
		f.Kind = Missing
		return f
	}
	f.Found = found.Version

	rng, err := version.ParseRange(dep.Range)
	if err != nil {
		f.Kind = Unverifiable
		f.Err = err
		return f
	}
	if rng.Contains(version.Parse(found.Version)) {
		f.Kind = Pass
	} else {
		f.Kind = Incompatible
	}
	return f
}

// Missing returns the sorted, distinct ids of mandatory mod dependencies that
// no record satisfies.
func (c *Checker) Missing() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.records {
		for _, dep := range r.Dependencies {
			if dep.Virtual || !dep.Mandatory || seen[dep.Target] {
				continue
			}
			if _, ok := c.byID.Get(dep.Target); !ok {
				seen[dep.Target] = true
				out = append(out, dep.Target)
			}
		}
	}
	sort.Strings(out)
	return out
}

// A RequirementGroup gathers the records that declared the same range string
// on a virtual target.
type RequirementGroup struct {
	Range string
	Names []string
}

// Requesters lists the group's names, abbreviated past three.
func (g RequirementGroup) Requesters() string {
	if len(g.Names) <= 3 {
		return strings.Join(g.Names, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(g.Names[:3], ", "), len(g.Names)-3)
}

// A VirtualRequirement summarizes every mandatory range declared on one
// virtual target.
type VirtualRequirement struct {
	Target string
	// Combined is the intersection of every declared range that parsed.
	Combined version.Range
	// Conflict is set when no version satisfies every declared range.
	Conflict bool
	// Groups lists the distinct declared ranges, sorted by range string.
	Groups []RequirementGroup
	// Err reports the first declared range that could not be parsed. That
	// range is left out of Combined.
	Err error
}

// VirtualSummary intersects the requirements on each virtual target, sorted
// by target id.
func (c *Checker) VirtualSummary() []VirtualRequirement {
	var out []VirtualRequirement
	c.virtual.Walk(func(target string, reqs []requirement) {
		vr := VirtualRequirement{
			Target:   target,
			Combined: version.Any(),
			Groups:   groupRequirements(reqs),
		}

		first := true
		for _, req := range reqs {
			rng, err := version.ParseRange(req.rng)
			if err != nil {
				if vr.Err == nil {
					vr.Err = errors.Wrapf(err, "%s requirement from %s", target, req.requester)
				}
				continue
			}
			if first {
				vr.Combined, first = rng, false
			} else {
				vr.Combined = vr.Combined.Intersect(rng)
			}
		}
		vr.Conflict = vr.Combined.IsEmpty()
		out = append(out, vr)
	})
	return out
}

func groupRequirements(reqs []requirement) []RequirementGroup {
	idx := make(map[string]int)
	var groups []RequirementGroup
	for _, req := range reqs {
		k, ok := idx[req.rng]
		if !ok {
			k = len(groups)
			idx[req.rng] = k
			groups = append(groups, RequirementGroup{Range: req.rng})
		}
		groups[k].Names = append(groups[k].Names, req.requester)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Range < groups[j].Range
	})
	return groups
}
