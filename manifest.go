// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packwright

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// ManifestName is the manifest file name used by packwright.
const ManifestName = "packwright.toml"

// DefaultModsDir is where mods are looked for when the manifest does not say.
const DefaultModsDir = "mods"

var knownTiers = map[string]bool{"": true, "alpha": true, "beta": true, "release": true}

// Manifest names the mods a pack wants and the platform it targets.
type Manifest struct {
	GameVersion string
	Loader      string
	MinTier     string
	ModsDir     string
	Mods        []string
}

type rawManifest struct {
	GameVersion string   `toml:"game-version,omitempty"`
	Loader      string   `toml:"loader,omitempty"`
	MinTier     string   `toml:"min-tier,omitempty"`
	ModsDir     string   `toml:"mods-dir,omitempty"`
	Mods        []string `toml:"mods,omitempty"`
}

func readManifest(r io.Reader) (*Manifest, error) {
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "unable to read byte stream")
	}

	raw := rawManifest{}
	if err := toml.Unmarshal(buf.Bytes(), &raw); err != nil {
		return nil, errors.Wrap(err, "unable to parse the manifest as TOML")
	}

	m := &Manifest{
		GameVersion: strings.TrimSpace(raw.GameVersion),
		Loader:      strings.ToLower(strings.TrimSpace(raw.Loader)),
		MinTier:     strings.ToLower(strings.TrimSpace(raw.MinTier)),
		ModsDir:     raw.ModsDir,
	}
	seen := make(map[string]bool, len(raw.Mods))
	for _, id := range raw.Mods {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		m.Mods = append(m.Mods, id)
	}
	return m, nil
}

// Validate returns warnings about values that are accepted but probably
// wrong.
func (m *Manifest) Validate() []string {
	var warns []string
	if m.GameVersion == "" {
		warns = append(warns, "no game-version set; versions for any game version are accepted")
	}
	if m.Loader == "" {
		warns = append(warns, "no loader set; versions for any loader are accepted")
	}
	if !knownTiers[m.MinTier] {
		warns = append(warns, fmt.Sprintf("min-tier %q is not one of alpha, beta or release; tiers are compared by name", m.MinTier))
	}
	return warns
}

func (m *Manifest) toRaw() rawManifest {
	return rawManifest{
		GameVersion: m.GameVersion,
		Loader:      m.Loader,
		MinTier:     m.MinTier,
		ModsDir:     m.ModsDir,
		Mods:        m.Mods,
	}
}

// MarshalTOML serializes this manifest into TOML via an intermediate raw form.
func (m *Manifest) MarshalTOML() ([]byte, error) {
	result, err := toml.Marshal(m.toRaw())
	return result, errors.Wrap(err, "unable to marshal the manifest to TOML")
}
