// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"

	"github.com/packwright/packwright/check"
	"github.com/packwright/packwright/resolve"
	"github.com/packwright/packwright/version"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Machine-readable forms of the command output, printed with -yaml.

type resolveReport struct {
	GameVersion string           `yaml:"game_version,omitempty"`
	Loader      string           `yaml:"loader,omitempty"`
	MinTier     string           `yaml:"min_tier,omitempty"`
	Resolved    []resolvedReport `yaml:"resolved"`
	Unresolved  []string         `yaml:"unresolved,omitempty"`
}

type resolvedReport struct {
	Project  string   `yaml:"project"`
	ID       string   `yaml:"id"`
	Version  string   `yaml:"version"`
	Tier     string   `yaml:"tier,omitempty"`
	Files    []string `yaml:"files,omitempty"`
	Requires []string `yaml:"requires,omitempty"`
}

func newResolveReport(req resolve.Request, res resolve.Result) resolveReport {
	rep := resolveReport{
		GameVersion: req.Platform.GameVersion,
		Loader:      req.Platform.Loader,
		MinTier:     req.MinTier,
		Resolved:    make([]resolvedReport, 0, len(res.Resolved)),
		Unresolved:  res.Unresolved,
	}
	for _, v := range res.Resolved {
		rr := resolvedReport{
			Project: v.ProjectID,
			ID:      v.ID,
			Version: v.VersionNumber,
			Tier:    v.Tier,
		}
		for _, f := range v.Files {
			rr.Files = append(rr.Files, f.URL)
		}
		for _, d := range v.Dependencies {
			if d.Kind == resolve.Required {
				rr.Requires = append(rr.Requires, d.ProjectID)
			}
		}
		rep.Resolved = append(rep.Resolved, rr)
	}
	return rep
}

type checkReport struct {
	Dir          string              `yaml:"dir"`
	Mods         []modReport         `yaml:"mods"`
	Satisfied    bool                `yaml:"satisfied"`
	Findings     []findingReport     `yaml:"findings"`
	Requirements []requirementReport `yaml:"requirements,omitempty"`
	Missing      []string            `yaml:"missing,omitempty"`
}

type modReport struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	Version string `yaml:"version"`
	Loader  string `yaml:"loader,omitempty"`
	File    string `yaml:"file"`
	Parent  string `yaml:"bundled_in,omitempty"`
}

type findingReport struct {
	Status   string `yaml:"status"`
	Mod      string `yaml:"mod"`
	Requires string `yaml:"requires"`
	Range    string `yaml:"range"`
	Found    string `yaml:"found,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

type requirementReport struct {
	Target    string              `yaml:"target"`
	Combined  string              `yaml:"combined,omitempty"`
	Intervals []intervalReport    `yaml:"intervals,omitempty"`
	Conflict  bool                `yaml:"conflict"`
	Error     string              `yaml:"error,omitempty"`
	Groups    map[string][]string `yaml:"ranges"`
}

// intervalReport spells out one interval of a combined range. Absent bounds
// are unbounded.
type intervalReport struct {
	Min          string `yaml:"min,omitempty"`
	MinInclusive bool   `yaml:"min_inclusive,omitempty"`
	Max          string `yaml:"max,omitempty"`
	MaxInclusive bool   `yaml:"max_inclusive,omitempty"`
}

func newIntervalReports(r version.Range) []intervalReport {
	var out []intervalReport
	for _, iv := range r.Intervals() {
		ir := intervalReport{}
		if iv.Min != nil {
			ir.Min, ir.MinInclusive = iv.Min.String(), iv.MinInclusive
		}
		if iv.Max != nil {
			ir.Max, ir.MaxInclusive = iv.Max.String(), iv.MaxInclusive
		}
		out = append(out, ir)
	}
	return out
}

func newCheckReport(dir string, records []check.Record, rep check.Report, virt []check.VirtualRequirement, missing []string, failedOnly bool) checkReport {
	out := checkReport{
		Dir:       dir,
		Satisfied: rep.Satisfied,
		Missing:   missing,
		Findings:  []findingReport{},
	}
	for _, r := range records {
		out.Mods = append(out.Mods, modReport{
			ID:      r.ID,
			Name:    r.Name,
			Version: r.Version,
			Loader:  r.Loader,
			File:    r.File,
			Parent:  r.Parent,
		})
	}
	for _, f := range rep.Findings {
		if failedOnly && !f.Kind.Failed() {
			continue
		}
		fr := findingReport{
			Status:   f.Kind.String(),
			Mod:      f.RequesterID,
			Requires: f.Target,
			Range:    f.Range,
			Found:    f.Found,
		}
		if f.Err != nil {
			fr.Error = f.Err.Error()
		}
		out.Findings = append(out.Findings, fr)
	}
	for _, vr := range virt {
		rr := requirementReport{
			Target:   vr.Target,
			Conflict: vr.Conflict,
			Groups:   make(map[string][]string, len(vr.Groups)),
		}
		if !vr.Conflict {
			rr.Combined = vr.Combined.String()
			rr.Intervals = newIntervalReports(vr.Combined)
		}
		if vr.Err != nil {
			rr.Error = vr.Err.Error()
		}
		for _, g := range vr.Groups {
			rr.Groups[g.Range] = g.Names
		}
		out.Requirements = append(out.Requirements, rr)
	}
	return out
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode YAML output")
	}
	return errors.Wrap(enc.Close(), "failed to encode YAML output")
}
