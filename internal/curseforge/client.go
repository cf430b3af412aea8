// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package curseforge implements resolve.Registry over the CurseForge v1 HTTP
// API. Mods are projects and files are versions; both are addressed by their
// numeric ids in decimal.
package curseforge

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/packwright/packwright/internal/registryhttp"
	"github.com/packwright/packwright/resolve"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultURL is the public CurseForge API.
const DefaultURL = "https://api.curseforge.com"

// minecraftGameID is CurseForge's id for Minecraft.
const minecraftGameID = 432

// pageSize is the largest page the files endpoint serves.
const pageSize = 50

// maxSearches bounds the slug searches in flight at once.
const maxSearches = 4

var loaderTypes = map[string]int{
	"forge":      1,
	"cauldron":   2,
	"liteloader": 3,
	"fabric":     4,
	"quilt":      5,
	"neoforge":   6,
}

// Call kinds, as reported by Stats.
const (
	callSearch      = "search"
	callMods        = "mods"
	callFiles       = "files"
	callFileIDs     = "file-ids"
	callDownloadURL = "download-url"
)

// Client talks to the CurseForge API. It is safe for concurrent use once
// configured.
type Client struct {
	http     *registryhttp.Client
	platform resolve.Platform
}

var _ resolve.Registry = &Client{}

// NewClient returns a client for the API at baseURL, authenticating with
// apiKey. CurseForge rejects requests without a key, so one is required.
func NewClient(baseURL, apiKey string, hc *http.Client) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("a CurseForge API key is required")
	}
	u, err := registryhttp.ParseBaseURL(baseURL, DefaultURL)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("x-api-key", apiKey)
	return &Client{http: registryhttp.New(u, header, hc)}, nil
}

// SetPlatform narrows searches and file listings to p on the server side.
// It must be called before the client is used.
func (c *Client) SetPlatform(p resolve.Platform) {
	c.platform = p
}

// Release cancels every call in flight and makes later calls fail.
func (c *Client) Release() {
	c.http.Release()
}

// Stats reports the number and total duration of completed calls by kind.
func (c *Client) Stats() []registryhttp.CallStats {
	return c.http.Stats()
}

// platformQuery adds the platform filters to q.
func (c *Client) platformQuery(q url.Values) url.Values {
	if c.platform.GameVersion != "" {
		q.Set("gameVersion", c.platform.GameVersion)
	}
	if t := loaderTypes[strings.ToLower(c.platform.Loader)]; t != 0 {
		q.Set("modLoaderType", strconv.Itoa(t))
	}
	return q
}

// ProjectsByIdentifier fetches numeric ids in one call and searches for every
// other identifier as a slug.
func (c *Client) ProjectsByIdentifier(ctx context.Context, ids []string) ([]resolve.Project, error) {
	var (
		modIDs []int
		slugs  []string
	)
	for _, id := range ids {
		if n, err := strconv.Atoi(id); err == nil && n > 0 {
			modIDs = append(modIDs, n)
		} else if id != "" {
			slugs = append(slugs, id)
		}
	}

	var out []resolve.Project
	if len(modIDs) > 0 {
		var resp modsResponse
		if err := c.http.Post(ctx, callMods, "/v1/mods", map[string][]int{"modIds": modIDs}, &resp); err != nil {
			return nil, err
		}
		for _, m := range resp.Data {
			out = append(out, m.toProject())
		}
	}

	found := make([]*resolve.Project, len(slugs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxSearches)
	for k, slug := range slugs {
		k, slug := k, slug
		g.Go(func() error {
			q := c.platformQuery(url.Values{
				"gameId":   {strconv.Itoa(minecraftGameID)},
				"slug":     {slug},
				"pageSize": {"1"},
			})
			var resp modsResponse
			if err := c.http.Get(gctx, callSearch, "/v1/mods/search", q, &resp); err != nil {
				return err
			}
			if len(resp.Data) > 0 {
				p := resp.Data[0].toProject()
				found[k] = &p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, p := range found {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// ListProjectVersions pages through the available files of a mod.
func (c *Client) ListProjectVersions(ctx context.Context, projectID string) ([]resolve.VersionRecord, error) {
	var out []resolve.VersionRecord
	for index := 0; ; {
		q := c.platformQuery(url.Values{
			"index":    {strconv.Itoa(index)},
			"pageSize": {strconv.Itoa(pageSize)},
		})
		var resp filesResponse
		if err := c.http.Get(ctx, callFiles, "/v1/mods/"+url.PathEscape(projectID)+"/files", q, &resp); err != nil {
			return nil, err
		}
		vs, err := c.toVersionRecords(ctx, resp.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)

		index = resp.Pagination.Index + resp.Pagination.ResultCount
		if resp.Pagination.ResultCount == 0 || index >= resp.Pagination.TotalCount {
			return out, nil
		}
	}
}

// VersionsByID fetches specific files. Ids that are not numeric match
// nothing.
func (c *Client) VersionsByID(ctx context.Context, ids []string) ([]resolve.VersionRecord, error) {
	var fileIDs []int
	for _, id := range ids {
		if n, err := strconv.Atoi(id); err == nil && n > 0 {
			fileIDs = append(fileIDs, n)
		}
	}
	if len(fileIDs) == 0 {
		return nil, nil
	}

	var resp filesResponse
	if err := c.http.Post(ctx, callFileIDs, "/v1/mods/files", map[string][]int{"fileIds": fileIDs}, &resp); err != nil {
		return nil, err
	}
	return c.toVersionRecords(ctx, resp.Data)
}

// toVersionRecords drops unavailable files and asks for the download URL of
// files that were listed without one.
func (c *Client) toVersionRecords(ctx context.Context, files []wireFile) ([]resolve.VersionRecord, error) {
	var out []resolve.VersionRecord
	for _, f := range files {
		if !f.IsAvailable {
			continue
		}
		if f.DownloadURL == "" {
			var resp downloadURLResponse
			path := "/v1/mods/" + strconv.Itoa(f.ModID) + "/files/" + strconv.Itoa(f.ID) + "/download-url"
			if err := c.http.Get(ctx, callDownloadURL, path, nil, &resp); err != nil {
				return nil, err
			}
			f.DownloadURL = resp.Data
		}
		out = append(out, f.toVersionRecord())
	}
	return out, nil
}
