// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packwright

import (
	"bytes"
	"io"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// RegistryConfigName is the registry config file name, kept in the cache
// directory.
const RegistryConfigName = "registry.toml"

// RegistryConfig holds the registry endpoint and the token used to talk to
// it, and the CurseForge endpoint and API key used for projects the registry
// does not know.
type RegistryConfig struct {
	url   string
	token string

	cfURL string
	cfKey string
}

// NewRegistryConfig creates a registry config from url and token. An empty
// url means the public registry.
func NewRegistryConfig(url, token string) *RegistryConfig {
	return &RegistryConfig{url: strings.TrimSpace(url), token: strings.TrimSpace(token)}
}

// URL returns the registry base URL, or "" for the default registry.
func (rc *RegistryConfig) URL() string {
	return rc.url
}

// Token returns the registry token, or "" when none is configured.
func (rc *RegistryConfig) Token() string {
	return rc.token
}

// SetCurseForge sets the CurseForge endpoint and API key. An empty url means
// the public API; an empty key turns the CurseForge fallback off.
func (rc *RegistryConfig) SetCurseForge(url, key string) {
	rc.cfURL, rc.cfKey = strings.TrimSpace(url), strings.TrimSpace(key)
}

// CurseForgeURL returns the CurseForge base URL, or "" for the public API.
func (rc *RegistryConfig) CurseForgeURL() string {
	return rc.cfURL
}

// CurseForgeKey returns the CurseForge API key, or "" when none is configured.
func (rc *RegistryConfig) CurseForgeKey() string {
	return rc.cfKey
}

type rawConfig struct {
	Registry   rawRegistry    `toml:"registry"`
	CurseForge *rawCurseForge `toml:"curseforge,omitempty"`
}

type rawRegistry struct {
	URL   string `toml:"url,omitempty"`
	Token string `toml:"token,omitempty"`
}

type rawCurseForge struct {
	URL    string `toml:"url,omitempty"`
	APIKey string `toml:"api-key,omitempty"`
}

// readRegistryConfig returns a RegistryConfig read from r.
func readRegistryConfig(r io.Reader) (*RegistryConfig, error) {
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "unable to read byte stream")
	}
	raw := rawConfig{}
	if err := toml.Unmarshal(buf.Bytes(), &raw); err != nil {
		return nil, errors.Wrap(err, "unable to parse the registry config as TOML")
	}
	rc := NewRegistryConfig(raw.Registry.URL, raw.Registry.Token)
	if raw.CurseForge != nil {
		rc.SetCurseForge(raw.CurseForge.URL, raw.CurseForge.APIKey)
	}
	return rc, nil
}

func (rc *RegistryConfig) toRaw() rawConfig {
	raw := rawConfig{
		Registry: rawRegistry{
			URL:   rc.url,
			Token: rc.token,
		},
	}
	if rc.cfURL != "" || rc.cfKey != "" {
		raw.CurseForge = &rawCurseForge{URL: rc.cfURL, APIKey: rc.cfKey}
	}
	return raw
}

// MarshalTOML serializes this registry config into TOML via an intermediate raw form.
func (rc *RegistryConfig) MarshalTOML() ([]byte, error) {
	result, err := toml.Marshal(rc.toRaw())
	return result, errors.Wrap(err, "unable to marshal registry config to TOML string")
}
