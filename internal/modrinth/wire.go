// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package modrinth

import "github.com/packwright/packwright/resolve"

// JSON shapes of the v2 API, trimmed to the fields we read.

type wireProject struct {
	ID           string   `json:"id"`
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	GameVersions []string `json:"game_versions"`
	Loaders      []string `json:"loaders"`
}

func (p wireProject) toProject() resolve.Project {
	return resolve.Project{
		ID:           p.ID,
		Slug:         p.Slug,
		Title:        p.Title,
		GameVersions: p.GameVersions,
		Loaders:      p.Loaders,
	}
}

type wireDependency struct {
	VersionID      string `json:"version_id"`
	ProjectID      string `json:"project_id"`
	FileName       string `json:"file_name"`
	DependencyType string `json:"dependency_type"`
}

type wireFile struct {
	Hashes struct {
		SHA1   string `json:"sha1"`
		SHA512 string `json:"sha512"`
	} `json:"hashes"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Primary  bool   `json:"primary"`
	Size     int64  `json:"size"`
}

type wireVersion struct {
	ID            string           `json:"id"`
	ProjectID     string           `json:"project_id"`
	Name          string           `json:"name"`
	VersionNumber string           `json:"version_number"`
	GameVersions  []string         `json:"game_versions"`
	Loaders       []string         `json:"loaders"`
	VersionType   string           `json:"version_type"`
	Dependencies  []wireDependency `json:"dependencies"`
	Files         []wireFile       `json:"files"`
}

func (v wireVersion) toVersionRecord() resolve.VersionRecord {
	vr := resolve.VersionRecord{
		ID:            v.ID,
		ProjectID:     v.ProjectID,
		Name:          v.Name,
		VersionNumber: v.VersionNumber,
		GameVersions:  v.GameVersions,
		Loaders:       v.Loaders,
		Tier:          v.VersionType,
	}
	for _, d := range v.Dependencies {
		vr.Dependencies = append(vr.Dependencies, resolve.DependencyRef{
			ProjectID: d.ProjectID,
			VersionID: d.VersionID,
			Kind:      resolve.Relationship(d.DependencyType),
		})
	}
	for _, f := range v.Files {
		vr.Files = append(vr.Files, resolve.File{
			URL:      f.URL,
			Filename: f.Filename,
			Size:     f.Size,
			SHA1:     f.Hashes.SHA1,
			SHA512:   f.Hashes.SHA512,
			Primary:  f.Primary,
		})
	}
	return vr
}

func toVersionRecords(raw []wireVersion) []resolve.VersionRecord {
	out := make([]resolve.VersionRecord, len(raw))
	for k, v := range raw {
		out[k] = v.toVersionRecord()
	}
	return out
}
