// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package modrinth implements resolve.Registry over the Modrinth v2 HTTP API.
package modrinth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/packwright/packwright/internal/registryhttp"
	"github.com/packwright/packwright/resolve"
)

// DefaultURL is the public Modrinth API.
const DefaultURL = "https://api.modrinth.com"

// Call kinds, as reported by Stats.
const (
	callProjects     = "projects"
	callListVersions = "list-versions"
	callVersions     = "versions"
)

// Client talks to a Modrinth-compatible registry. It is safe for concurrent
// use.
type Client struct {
	http *registryhttp.Client
}

var _ resolve.Registry = &Client{}

// NewClient returns a client for the registry at baseURL. An empty token sends
// no Authorization header; a nil hc uses http.DefaultClient.
func NewClient(baseURL, token string, hc *http.Client) (*Client, error) {
	u, err := registryhttp.ParseBaseURL(baseURL, DefaultURL)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if token != "" {
		// Modrinth takes the bare token, without a scheme.
		header.Set("Authorization", token)
	}
	return &Client{http: registryhttp.New(u, header, hc)}, nil
}

// Release cancels every call in flight and makes later calls fail.
func (c *Client) Release() {
	c.http.Release()
}

// Stats reports the number and total duration of completed calls by kind.
func (c *Client) Stats() []registryhttp.CallStats {
	return c.http.Stats()
}

// ProjectsByIdentifier looks projects up by slug or id.
func (c *Client) ProjectsByIdentifier(ctx context.Context, ids []string) ([]resolve.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var raw []wireProject
	if err := c.http.Get(ctx, callProjects, "/v2/projects", idsQuery(ids), &raw); err != nil {
		return nil, err
	}

	out := make([]resolve.Project, len(raw))
	for k, p := range raw {
		out[k] = p.toProject()
	}
	return out, nil
}

// ListProjectVersions lists every version of a project.
func (c *Client) ListProjectVersions(ctx context.Context, projectID string) ([]resolve.VersionRecord, error) {
	var raw []wireVersion
	if err := c.http.Get(ctx, callListVersions, "/v2/project/"+url.PathEscape(projectID)+"/version", nil, &raw); err != nil {
		return nil, err
	}
	return toVersionRecords(raw), nil
}

// VersionsByID fetches specific versions.
func (c *Client) VersionsByID(ctx context.Context, ids []string) ([]resolve.VersionRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var raw []wireVersion
	if err := c.http.Get(ctx, callVersions, "/v2/versions", idsQuery(ids), &raw); err != nil {
		return nil, err
	}
	return toVersionRecords(raw), nil
}

func idsQuery(ids []string) url.Values {
	// Marshaling a []string cannot fail.
	b, _ := json.Marshal(ids)
	return url.Values{"ids": []string{string(b)}}
}
