// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packwright

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/packwright/packwright/resolve"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// LockName is the lock file name used by packwright.
const LockName = "packwright.lock"

// Lock records the versions a resolution selected for a manifest.
type Lock struct {
	Memo       []byte
	Mods       []LockedMod
	Unresolved []string
}

// LockedMod is one selected version and the file to download for it.
type LockedMod struct {
	ProjectID string
	VersionID string
	Version   string
	Tier      string
	Filename  string
	URL       string
	SHA1      string
	SHA512    string
}

type rawLock struct {
	Memo       string      `toml:"memo"`
	Unresolved []string    `toml:"unresolved,omitempty"`
	Mods       []rawLocked `toml:"mod"`
}

type rawLocked struct {
	ProjectID string `toml:"project"`
	VersionID string `toml:"version-id"`
	Version   string `toml:"version"`
	Tier      string `toml:"tier,omitempty"`
	Filename  string `toml:"file,omitempty"`
	URL       string `toml:"url,omitempty"`
	SHA1      string `toml:"sha1,omitempty"`
	SHA512    string `toml:"sha512,omitempty"`
}

// HashInputs digests the parts of m that influence a resolution. Two
// manifests with the same digest resolve identically against the same
// registry state.
func (m *Manifest) HashInputs() []byte {
	h := sha256.New()
	fmt.Fprintf(h, "game-version=%s\nloader=%s\nmin-tier=%s\n", m.GameVersion, m.Loader, m.MinTier)
	for _, id := range m.Mods {
		fmt.Fprintf(h, "mod=%s\n", id)
	}
	return h.Sum(nil)
}

// NewLock builds a lock from a resolution of m.
func NewLock(m *Manifest, res resolve.Result) *Lock {
	l := &Lock{
		Memo:       m.HashInputs(),
		Mods:       make([]LockedMod, len(res.Resolved)),
		Unresolved: append([]string(nil), res.Unresolved...),
	}
	for k, v := range res.Resolved {
		lm := LockedMod{
			ProjectID: v.ProjectID,
			VersionID: v.ID,
			Version:   v.VersionNumber,
			Tier:      v.Tier,
		}
		if f, ok := v.PrimaryFile(); ok {
			lm.Filename, lm.URL = f.Filename, f.URL
			lm.SHA1, lm.SHA512 = f.SHA1, f.SHA512
		}
		l.Mods[k] = lm
	}
	sort.Sort(sortedLockedMods(l.Mods))
	return l
}

// Matches reports whether l was produced from a manifest with the same
// resolution inputs as m.
func (l *Lock) Matches(m *Manifest) bool {
	return l != nil && bytes.Equal(l.Memo, m.HashInputs())
}

func readLock(r io.Reader) (*Lock, error) {
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "unable to read byte stream")
	}

	raw := rawLock{}
	if err := toml.Unmarshal(buf.Bytes(), &raw); err != nil {
		return nil, errors.Wrap(err, "unable to parse the lock as TOML")
	}

	b, err := hex.DecodeString(raw.Memo)
	if err != nil {
		return nil, errors.Errorf("invalid hash digest in lock's memo field")
	}
	l := &Lock{
		Memo:       b,
		Mods:       make([]LockedMod, len(raw.Mods)),
		Unresolved: raw.Unresolved,
	}
	for k, rm := range raw.Mods {
		if rm.ProjectID == "" {
			return nil, errors.Errorf("lock file has a mod entry without a project")
		}
		if rm.VersionID == "" {
			return nil, errors.Errorf("lock file has entry for %s, but specifies no version", rm.ProjectID)
		}
		l.Mods[k] = LockedMod{
			ProjectID: rm.ProjectID,
			VersionID: rm.VersionID,
			Version:   rm.Version,
			Tier:      rm.Tier,
			Filename:  rm.Filename,
			URL:       rm.URL,
			SHA1:      rm.SHA1,
			SHA512:    rm.SHA512,
		}
	}
	return l, nil
}

func (l *Lock) toRaw() rawLock {
	raw := rawLock{
		Memo:       hex.EncodeToString(l.Memo),
		Unresolved: l.Unresolved,
		Mods:       make([]rawLocked, len(l.Mods)),
	}
	for k, lm := range l.Mods {
		raw.Mods[k] = rawLocked{
			ProjectID: lm.ProjectID,
			VersionID: lm.VersionID,
			Version:   lm.Version,
			Tier:      lm.Tier,
			Filename:  lm.Filename,
			URL:       lm.URL,
			SHA1:      lm.SHA1,
			SHA512:    lm.SHA512,
		}
	}
	return raw
}

// MarshalTOML serializes this lock into TOML via an intermediate raw form.
func (l *Lock) MarshalTOML() ([]byte, error) {
	result, err := toml.Marshal(l.toRaw())
	return result, errors.Wrap(err, "unable to marshal lock to TOML string")
}

type sortedLockedMods []LockedMod

func (s sortedLockedMods) Len() int      { return len(s) }
func (s sortedLockedMods) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s sortedLockedMods) Less(i, j int) bool {
	if c := strings.Compare(s[i].ProjectID, s[j].ProjectID); c != 0 {
		return c < 0
	}
	return s[i].VersionID < s[j].VersionID
}
