// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package registryhttp carries the HTTP plumbing shared by the registry
// clients: request setup, call tracking and JSON decoding.
package registryhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// UserAgent is sent with every request.
var UserAgent = "packwright (github.com/packwright/packwright)"

// Client issues JSON requests against one registry. It is safe for
// concurrent use.
type Client struct {
	base   *url.URL
	header http.Header
	hc     *http.Client
	cm     *callManager
}

// ParseBaseURL parses a registry base URL, defaulting to def when raw is
// empty. Only http and https are accepted.
func ParseBaseURL(raw, def string) (*url.URL, error) {
	if raw == "" {
		raw = def
	}
	u, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid registry URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("registry URL %q must be http or https", raw)
	}
	return u, nil
}

// New returns a client for the registry at base. header is added to every
// request; a nil hc uses http.DefaultClient.
func New(base *url.URL, header http.Header, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		base:   base,
		header: header,
		hc:     hc,
		cm:     newCallManager(context.Background()),
	}
}

// Release cancels every call in flight and makes later calls fail.
func (c *Client) Release() {
	c.cm.release()
}

// Stats reports the number and total duration of completed calls by kind.
func (c *Client) Stats() []CallStats {
	return c.cm.stats()
}

// Get decodes the JSON response to a GET of path into out. A 404 leaves out
// untouched and is not an error.
func (c *Client) Get(ctx context.Context, kind, path string, q url.Values, out interface{}) error {
	return c.do(ctx, kind, http.MethodGet, path, q, nil, out)
}

// Post sends body as JSON to path and decodes the response into out, with
// the same 404 handling as Get.
func (c *Client) Post(ctx context.Context, kind, path string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s request", kind)
	}
	return c.do(ctx, kind, http.MethodPost, path, nil, b, out)
}

func (c *Client) do(ctx context.Context, kind, method, path string, q url.Values, body []byte, out interface{}) error {
	u := *c.base
	u.Path += path
	u.RawQuery = q.Encode()

	ctx, done, err := c.cm.setUpCall(ctx, method+" "+u.String(), kind)
	if err != nil {
		return errors.Wrapf(err, "registry client released before %s", kind)
	}
	defer done()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, u.String(), rd)
	if err != nil {
		return errors.Wrapf(err, "failed to build request for %s", u.String())
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s request failed", kind)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(ioutil.Discard, resp.Body)
		return nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("%s %s: %s: %s", method, u.String(), resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode %s response", kind)
	}
	return nil
}
