// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolve computes the set of mod versions needed to satisfy a list
// of requested projects, following required dependencies through a remote
// Registry.
//
// Resolution is greedy: every project gets the newest version that matches
// the target platform and stability tier, and that choice is never revisited.
package resolve

import (
	"context"
	"io/ioutil"
	"strings"

	"github.com/packwright/packwright/version"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the registry calls issued at once within one
// resolution step.
const DefaultConcurrency = 8

// A Request describes what to resolve.
type Request struct {
	// Identifiers are project slugs or ids. The slice is not modified.
	Identifiers []string
	Platform    Platform
	// MinTier is the least stable tier accepted: alpha, beta or release.
	// Empty means alpha.
	MinTier string
}

// A Result holds the selected versions, in the order they were selected, and
// the requested identifiers that matched nothing in any registry.
type Result struct {
	Resolved   []VersionRecord
	Unresolved []string
}

// Engine resolves requests against a Registry, falling back to further
// registries for what the first one cannot resolve.
type Engine struct {
	reg         Registry
	fallbacks   []Registry
	l           *logrus.Logger
	concurrency int
}

// NewEngine returns an Engine that queries reg. A nil logger discards all
// output.
func NewEngine(reg Registry, l *logrus.Logger) *Engine {
	if l == nil {
		l = logrus.New()
		l.Out = ioutil.Discard
	}
	return &Engine{
		reg:         reg,
		l:           l,
		concurrency: DefaultConcurrency,
	}
}

// SetConcurrency changes the number of registry calls allowed in flight. Values
// below one are ignored.
func (e *Engine) SetConcurrency(n int) {
	if n > 0 {
		e.concurrency = n
	}
}

// SetFallbacks sets the registries asked, in order, for the requested
// identifiers still unresolved after the registries before them. Each one
// resolves its share, dependencies included, on its own; selections are not
// shared between registries.
func (e *Engine) SetFallbacks(regs ...Registry) {
	e.fallbacks = regs
}

// resolution is the state of resolving against one registry.
type resolution struct {
	reg          Registry
	req          Request
	seenProjects map[string]bool
	seenVersions map[string]bool
	resolved     []VersionRecord
}

// Resolve runs the direct phase for the requested identifiers, then follows
// required dependencies until no new version is found. Identifiers left over
// go to each fallback registry in turn. Registry errors abort the whole
// resolution.
func (e *Engine) Resolve(ctx context.Context, req Request) (Result, error) {
	var res Result
	ids := uniqueStrings(req.Identifiers)
	for k, reg := range append([]Registry{e.reg}, e.fallbacks...) {
		if len(ids) == 0 {
			break
		}
		if k > 0 {
			e.l.WithFields(logrus.Fields{
				"registry":   k,
				"unresolved": len(ids),
			}).Info("Trying fallback registry")
		}

		r := &resolution{
			reg:          reg,
			req:          req,
			seenProjects: make(map[string]bool),
			seenVersions: make(map[string]bool),
		}
		satisfied, err := e.resolveDirect(ctx, r, ids)
		if err != nil {
			return Result{}, err
		}
		if err := e.resolveClosure(ctx, r); err != nil {
			return Result{}, err
		}
		res.Resolved = append(res.Resolved, r.resolved...)

		var rest []string
		for _, id := range ids {
			if !satisfied[id] {
				rest = append(rest, id)
			}
		}
		ids = rest
	}

	for _, id := range ids {
		e.l.WithFields(logrus.Fields{
			"id":       id,
			"platform": req.Platform,
			"tier":     normalizeTier(req.MinTier),
		}).Warn("No compatible version found for requested project")
	}
	res.Unresolved = ids
	return res, nil
}

// resolveDirect selects a version for each requested identifier and reports
// which identifiers, as given, were satisfied. Slugs match regardless of case.
func (e *Engine) resolveDirect(ctx context.Context, r *resolution, ids []string) (map[string]bool, error) {
	satisfied := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return satisfied, nil
	}

	projects, err := r.reg.ProjectsByIdentifier(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up requested projects")
	}

	e.l.WithFields(logrus.Fields{
		"requested": len(ids),
		"found":     len(projects),
	}).Debug("Looked up requested projects")

	picks, err := e.selectLatest(ctx, r, projects)
	if err != nil {
		return nil, err
	}

	for k, p := range projects {
		v := picks[k]
		if v == nil || r.seenProjects[p.ID] {
			continue
		}
		r.accept(*v)
		for _, id := range ids {
			if id == p.ID || strings.EqualFold(id, p.Slug) {
				satisfied[id] = true
			}
		}

		e.l.WithFields(logrus.Fields{
			"project": p.Slug,
			"version": v.VersionNumber,
		}).Info("Selected version for requested project")
	}
	return satisfied, nil
}

func (e *Engine) resolveClosure(ctx context.Context, r *resolution) error {
	frontier := r.resolved
	for iter := 1; len(frontier) > 0; iter++ {
		versionIDs, projectIDs := r.collectTargets(frontier)
		if len(versionIDs) == 0 && len(projectIDs) == 0 {
			return nil
		}

		e.l.WithFields(logrus.Fields{
			"iteration": iter,
			"versions":  len(versionIDs),
			"projects":  len(projectIDs),
		}).Debug("Beginning closure iteration")

		var (
			byID   []VersionRecord
			picked []*VersionRecord
		)
		g, gctx := errgroup.WithContext(ctx)
		if len(versionIDs) > 0 {
			g.Go(func() error {
				var err error
				byID, err = r.reg.VersionsByID(gctx, versionIDs)
				return errors.Wrapf(err, "failed to fetch dependency versions %v", versionIDs)
			})
		}
		if len(projectIDs) > 0 {
			g.Go(func() error {
				projects, err := r.reg.ProjectsByIdentifier(gctx, projectIDs)
				if err != nil {
					return errors.Wrapf(err, "failed to look up dependency projects %v", projectIDs)
				}
				picked, err = e.selectLatest(gctx, r, projects)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		// Everything queued this round counts as seen, found or not, so a
		// dead reference is never looked up twice.
		for _, id := range versionIDs {
			r.seenVersions[id] = true
		}
		for _, id := range projectIDs {
			r.seenProjects[id] = true
		}

		var next []VersionRecord
		add := func(v VersionRecord) {
			if containsVersion(next, v.ID) {
				return
			}
			r.accept(v)
			next = append(next, v)
			e.l.WithFields(logrus.Fields{
				"project": v.ProjectID,
				"version": v.VersionNumber,
			}).Info("Selected version for dependency")
		}
		for _, v := range byID {
			add(v)
		}
		for _, v := range picked {
			if v != nil {
				add(*v)
			}
		}
		frontier = next
	}
	return nil
}

// collectTargets gathers the required dependencies of frontier that have not
// been seen yet, in first-reference order and without duplicates.
func (r *resolution) collectTargets(frontier []VersionRecord) (versionIDs, projectIDs []string) {
	queued := make(map[string]bool)
	for _, v := range frontier {
		for _, dep := range v.Dependencies {
			if dep.Kind != Required {
				continue
			}
			switch {
			case dep.VersionID != "":
				if !r.seenVersions[dep.VersionID] && !queued["v:"+dep.VersionID] {
					queued["v:"+dep.VersionID] = true
					versionIDs = append(versionIDs, dep.VersionID)
				}
			case dep.ProjectID != "":
				if !r.seenProjects[dep.ProjectID] && !queued["p:"+dep.ProjectID] {
					queued["p:"+dep.ProjectID] = true
					projectIDs = append(projectIDs, dep.ProjectID)
				}
			}
		}
	}
	return versionIDs, projectIDs
}

func (r *resolution) accept(v VersionRecord) {
	r.seenVersions[v.ID] = true
	r.seenProjects[v.ProjectID] = true
	r.resolved = append(r.resolved, v)
}

// selectLatest lists the versions of every platform-compatible project
// concurrently and returns, index-aligned with projects, the newest
// acceptable version of each, or nil.
func (e *Engine) selectLatest(ctx context.Context, r *resolution, projects []Project) ([]*VersionRecord, error) {
	picks := make([]*VersionRecord, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for k, p := range projects {
		if !r.req.Platform.admits(p.GameVersions, p.Loaders) {
			e.l.WithFields(logrus.Fields{
				"project":  p.Slug,
				"platform": r.req.Platform,
			}).Debug("Project does not support target platform")
			continue
		}

		k, p := k, p
		g.Go(func() error {
			vs, err := r.reg.ListProjectVersions(gctx, p.ID)
			if err != nil {
				return errors.Wrapf(err, "failed to list versions of %s", p.ID)
			}
			picks[k] = pickLatest(vs, r.req.Platform, r.req.MinTier)

			e.l.WithFields(logrus.Fields{
				"project":    p.Slug,
				"candidates": len(vs),
				"selected":   picks[k] != nil,
			}).Debug("Filtered project versions")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return picks, nil
}

// pickLatest returns the highest version in vs that suits the platform and
// tier. Among order-equal versions the first listed wins.
func pickLatest(vs []VersionRecord, p Platform, minTier string) *VersionRecord {
	var (
		best  *VersionRecord
		bestV version.Version
	)
	for k := range vs {
		v := &vs[k]
		if !p.admits(v.GameVersions, v.Loaders) || !tierAccepts(v.Tier, minTier) {
			continue
		}
		pv := version.Parse(v.VersionNumber)
		if best == nil || version.Compare(pv, bestV) > 0 {
			best, bestV = v, pv
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

func containsVersion(vs []VersionRecord, id string) bool {
	for _, v := range vs {
		if v.ID == id {
			return true
		}
	}
	return false
}

// uniqueStrings returns a copy of in without duplicates or empty strings.
func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
