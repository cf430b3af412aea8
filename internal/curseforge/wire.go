// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package curseforge

import (
	"strconv"
	"strings"

	"github.com/packwright/packwright/resolve"
)

// JSON shapes of the v1 API, trimmed to the fields we read. Every response
// wraps its payload in "data".

type wireMod struct {
	ID   int    `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

func (m wireMod) toProject() resolve.Project {
	return resolve.Project{
		ID:    strconv.Itoa(m.ID),
		Slug:  m.Slug,
		Title: m.Name,
	}
}

type wireHash struct {
	Value string `json:"value"`
	Algo  int    `json:"algo"`
}

const hashSHA1 = 1

type wireDependency struct {
	ModID        int `json:"modId"`
	RelationType int `json:"relationType"`
}

var relationships = map[int]resolve.Relationship{
	1: resolve.Embedded,
	2: resolve.Optional,
	3: resolve.Required,
	4: resolve.Optional,
	5: resolve.Incompatible,
	6: resolve.Embedded,
}

var releaseTypes = map[int]string{
	1: resolve.TierRelease,
	2: resolve.TierBeta,
	3: resolve.TierAlpha,
}

type wireFile struct {
	ID           int              `json:"id"`
	ModID        int              `json:"modId"`
	DisplayName  string           `json:"displayName"`
	FileName     string           `json:"fileName"`
	ReleaseType  int              `json:"releaseType"`
	FileLength   int64            `json:"fileLength"`
	DownloadURL  string           `json:"downloadUrl"`
	IsAvailable  bool             `json:"isAvailable"`
	GameVersions []string         `json:"gameVersions"`
	Hashes       []wireHash       `json:"hashes"`
	Dependencies []wireDependency `json:"dependencies"`
}

// toVersionRecord maps a file onto a version. Files carry no version number
// of their own; the file id, which grows with every upload, stands in so that
// the newest file orders highest.
func (f wireFile) toVersionRecord() resolve.VersionRecord {
	v := resolve.VersionRecord{
		ID:            strconv.Itoa(f.ID),
		ProjectID:     strconv.Itoa(f.ModID),
		Name:          f.DisplayName,
		VersionNumber: strconv.Itoa(f.ID),
		Tier:          releaseTypes[f.ReleaseType],
	}

	// gameVersions mixes game versions with loader and environment names.
	for _, gv := range f.GameVersions {
		lower := strings.ToLower(gv)
		switch {
		case loaderTypes[lower] != 0:
			v.Loaders = append(v.Loaders, lower)
		case gv != "" && gv[0] >= '0' && gv[0] <= '9':
			v.GameVersions = append(v.GameVersions, gv)
		}
	}

	for _, d := range f.Dependencies {
		kind, ok := relationships[d.RelationType]
		if !ok {
			continue
		}
		v.Dependencies = append(v.Dependencies, resolve.DependencyRef{
			ProjectID: strconv.Itoa(d.ModID),
			Kind:      kind,
		})
	}

	file := resolve.File{
		URL:      f.DownloadURL,
		Filename: f.FileName,
		Size:     f.FileLength,
		Primary:  true,
	}
	for _, h := range f.Hashes {
		if h.Algo == hashSHA1 {
			file.SHA1 = h.Value
		}
	}
	v.Files = []resolve.File{file}
	return v
}

type wirePagination struct {
	Index       int `json:"index"`
	PageSize    int `json:"pageSize"`
	ResultCount int `json:"resultCount"`
	TotalCount  int `json:"totalCount"`
}

type modsResponse struct {
	Data []wireMod `json:"data"`
}

type filesResponse struct {
	Data       []wireFile     `json:"data"`
	Pagination wirePagination `json:"pagination"`
}

type downloadURLResponse struct {
	Data string `json:"data"`
}
