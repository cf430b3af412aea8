// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// memRegistry is an in-memory Registry that records every call it serves.
// Slugs match regardless of case, as they do on Modrinth.
type memRegistry struct {
	projects []Project
	versions map[string][]VersionRecord // by project id, registry order
	fail     map[string]bool            // project ids whose version listing errors

	mu         sync.Mutex
	identCalls [][]string
	listCalls  []string
	byIDCalls  [][]string
}

func (r *memRegistry) ProjectsByIdentifier(ctx context.Context, ids []string) ([]Project, error) {
	r.mu.Lock()
	r.identCalls = append(r.identCalls, append([]string(nil), ids...))
	r.mu.Unlock()

	var out []Project
	for _, id := range ids {
		for _, p := range r.projects {
			if p.ID == id || strings.EqualFold(p.Slug, id) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (r *memRegistry) ListProjectVersions(ctx context.Context, projectID string) ([]VersionRecord, error) {
	r.mu.Lock()
	r.listCalls = append(r.listCalls, projectID)
	r.mu.Unlock()

	if r.fail[projectID] {
		return nil, errors.New("connection reset by peer")
	}
	return r.versions[projectID], nil
}

func (r *memRegistry) VersionsByID(ctx context.Context, ids []string) ([]VersionRecord, error) {
	r.mu.Lock()
	r.byIDCalls = append(r.byIDCalls, append([]string(nil), ids...))
	r.mu.Unlock()

	var out []VersionRecord
	for _, id := range ids {
		for _, vs := range r.versions {
			for _, v := range vs {
				if v.ID == id {
					out = append(out, v)
				}
			}
		}
	}
	return out, nil
}

func (r *memRegistry) listCount(projectID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for _, id := range r.listCalls {
		if id == projectID {
			n++
		}
	}
	return n
}

func mkVersion(id, project, num, tier string, deps ...DependencyRef) VersionRecord {
	return VersionRecord{
		ID:            id,
		ProjectID:     project,
		VersionNumber: num,
		GameVersions:  []string{"1.20.1"},
		Loaders:       []string{"fabric"},
		Tier:          tier,
		Dependencies:  deps,
	}
}

func requires(project string) DependencyRef {
	return DependencyRef{ProjectID: project, Kind: Required}
}

// fabricRegistry is a small snapshot of a fabric mod ecosystem:
// sodium and lithium require fabric-api, iris requires sodium at a pinned
// version, and modmenu optionally wants cloth-config.
func fabricRegistry() *memRegistry {
	return &memRegistry{
		projects: []Project{
			{ID: "AANobbMI", Slug: "sodium", Loaders: []string{"fabric", "quilt"}},
			{ID: "P7dR8mSH", Slug: "fabric-api", Loaders: []string{"fabric"}},
			{ID: "gvQqBUqZ", Slug: "lithium"},
			{ID: "YL57xq9U", Slug: "iris"},
			{ID: "mOgUt4GM", Slug: "modmenu"},
			{ID: "9s6osm5g", Slug: "cloth-config"},
			{ID: "fRiHVvU7", Slug: "forge-only", Loaders: []string{"forge"}},
		},
		versions: map[string][]VersionRecord{
			"AANobbMI": {
				mkVersion("sod-050", "AANobbMI", "mc1.20.1-0.5.0", "release", requires("P7dR8mSH")),
				mkVersion("sod-052", "AANobbMI", "mc1.20.1-0.5.2", "release", requires("P7dR8mSH")),
				mkVersion("sod-053b", "AANobbMI", "mc1.20.1-0.5.3", "beta", requires("P7dR8mSH")),
			},
			"P7dR8mSH": {
				mkVersion("fapi-87", "P7dR8mSH", "0.87.0+1.20.1", "release"),
				mkVersion("fapi-92", "P7dR8mSH", "0.92.2+1.20.1", "release"),
				{
					ID: "fapi-99", ProjectID: "P7dR8mSH", VersionNumber: "0.99.0+1.21",
					GameVersions: []string{"1.21"}, Loaders: []string{"fabric"}, Tier: "release",
				},
			},
			"gvQqBUqZ": {
				mkVersion("lith-05", "gvQqBUqZ", "mc1.20.1-0.11.2", "release", requires("P7dR8mSH")),
			},
			"YL57xq9U": {
				mkVersion("iris-16", "YL57xq9U", "1.6.11+1.20.1", "release",
					DependencyRef{ProjectID: "AANobbMI", VersionID: "sod-050", Kind: Required}),
			},
			"mOgUt4GM": {
				mkVersion("mm-7", "mOgUt4GM", "7.2.2", "release",
					DependencyRef{ProjectID: "9s6osm5g", Kind: Optional},
					DependencyRef{ProjectID: "P7dR8mSH", Kind: Required}),
			},
			"9s6osm5g": {
				mkVersion("cc-11", "9s6osm5g", "11.1.106", "release"),
			},
			"fRiHVvU7": {
				{ID: "fo-1", ProjectID: "fRiHVvU7", VersionNumber: "1.0", Loaders: []string{"forge"}, Tier: "release"},
			},
		},
	}
}
