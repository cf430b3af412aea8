// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"context"
	"strings"
)

// Registry is the remote source of projects and their published versions.
//
// Lookups that find nothing return an empty slice and a nil error. A non-nil
// error means the registry could not be reached or refused the request, and
// aborts resolution.
type Registry interface {
	// ProjectsByIdentifier returns the projects whose slug or id is among ids.
	ProjectsByIdentifier(ctx context.Context, ids []string) ([]Project, error)
	// ListProjectVersions returns every published version of a project.
	ListProjectVersions(ctx context.Context, projectID string) ([]VersionRecord, error)
	// VersionsByID returns the versions with the given ids.
	VersionsByID(ctx context.Context, ids []string) ([]VersionRecord, error)
}

// A Project is a registry entry that owns a series of versions.
type Project struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
	// Platform constraints declared for the project as a whole. Empty means
	// unconstrained.
	GameVersions []string `json:"game_versions,omitempty"`
	Loaders      []string `json:"loaders,omitempty"`
}

// Relationship classifies a dependency reference between versions.
type Relationship string

// Only Required relationships are followed during resolution.
const (
	Required     Relationship = "required"
	Optional     Relationship = "optional"
	Incompatible Relationship = "incompatible"
	Embedded     Relationship = "embedded"
)

// A DependencyRef points at another project, or at one specific version of
// it. When VersionID is set it wins over ProjectID.
type DependencyRef struct {
	ProjectID string       `json:"project_id,omitempty"`
	VersionID string       `json:"version_id,omitempty"`
	Kind      Relationship `json:"dependency_type"`
}

// A File is one downloadable artifact attached to a version.
type File struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	SHA1     string `json:"sha1,omitempty"`
	SHA512   string `json:"sha512,omitempty"`
	Primary  bool   `json:"primary,omitempty"`
}

// A VersionRecord is one published version of a project.
type VersionRecord struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"project_id"`
	Name          string          `json:"name,omitempty"`
	VersionNumber string          `json:"version_number"`
	GameVersions  []string        `json:"game_versions,omitempty"`
	Loaders       []string        `json:"loaders,omitempty"`
	Tier          string          `json:"version_type,omitempty"`
	Dependencies  []DependencyRef `json:"dependencies,omitempty"`
	Files         []File          `json:"files,omitempty"`
}

// PrimaryFile returns the first file flagged primary, else the first file.
func (v VersionRecord) PrimaryFile() (File, bool) {
	for _, f := range v.Files {
		if f.Primary {
			return f, true
		}
	}
	if len(v.Files) > 0 {
		return v.Files[0], true
	}
	return File{}, false
}

// A Platform is the game runtime a resolution targets.
type Platform struct {
	GameVersion string
	Loader      string
}

// admits reports whether declared platform constraints include p. An empty
// declaration admits every platform, and so does an empty field of p.
func (p Platform) admits(gameVersions, loaders []string) bool {
	if p.GameVersion != "" && len(gameVersions) > 0 && !containsFold(gameVersions, p.GameVersion) {
		return false
	}
	if p.Loader != "" && len(loaders) > 0 && !containsFold(loaders, p.Loader) {
		return false
	}
	return true
}

func (p Platform) String() string {
	return p.Loader + "@" + p.GameVersion
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// Stability tiers, least stable first.
const (
	TierAlpha   = "alpha"
	TierBeta    = "beta"
	TierRelease = "release"
)

func normalizeTier(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return TierAlpha
	}
	return t
}

// tierAccepts compares tier names as plain strings. For alpha, beta and
// release this matches their stability order; any other name sorts wherever
// the alphabet puts it.
func tierAccepts(candidate, min string) bool {
	return normalizeTier(candidate) >= normalizeTier(min)
}
