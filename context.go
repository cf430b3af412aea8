// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package packwright holds the project files of a mod pack: the manifest
// naming the mods it wants, the lock recording what was resolved for them,
// and the registry credentials kept in the cache directory.
package packwright

import (
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Ctx defines the supporting context of a packwright invocation.
type Ctx struct {
	WorkingDir string      // Where to execute.
	CacheDir   string      // Registry cache and credentials.
	Out, Err   *log.Logger // Required loggers.
	Verbose    bool        // Enables more verbose logging.

	// Platform overrides taken from the environment. They win over the
	// manifest when set.
	GameVersion string
	Loader      string

	// CurseForgeKey, when set, wins over the key in the registry config.
	CurseForgeKey string
}

// DefaultCacheDir picks the cache directory from the environment, as looked
// up by getenv: $PACKWRIGHT_CACHE if set, else $HOME/.cache/packwright.
func DefaultCacheDir(getenv func(string) string) string {
	if dir := getenv("PACKWRIGHT_CACHE"); dir != "" {
		return dir
	}
	return filepath.Join(getenv("HOME"), ".cache", "packwright")
}

// LoadManifest reads the manifest in the working directory and applies the
// context's platform overrides. Validation warnings are logged to Err.
func (c *Ctx) LoadManifest() (*Manifest, error) {
	path := filepath.Join(c.WorkingDir, ManifestName)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", path)
	}
	defer f.Close()

	m, err := readManifest(f)
	if err != nil {
		return nil, errors.Wrapf(err, "error while parsing %s", path)
	}

	if c.GameVersion != "" {
		m.GameVersion = c.GameVersion
	}
	if c.Loader != "" {
		m.Loader = c.Loader
	}
	for _, w := range m.Validate() {
		c.Err.Printf("%s: %s", ManifestName, w)
	}
	return m, nil
}

// ModsDir returns the absolute directory that holds the pack's mods.
func (c *Ctx) ModsDir(m *Manifest) string {
	dir := DefaultModsDir
	if m != nil && m.ModsDir != "" {
		dir = m.ModsDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.WorkingDir, dir)
}

// LoadLock reads the lock in the working directory. A missing lock is not an
// error; nil is returned instead.
func (c *Ctx) LoadLock() (*Lock, error) {
	path := filepath.Join(c.WorkingDir, LockName)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", path)
	}
	defer f.Close()

	l, err := readLock(f)
	if err != nil {
		return nil, errors.Wrapf(err, "error while parsing %s", path)
	}
	return l, nil
}

// WriteLock writes l to the lock file in the working directory.
func (c *Ctx) WriteLock(l *Lock) error {
	path := filepath.Join(c.WorkingDir, LockName)
	return errors.Wrapf(writeFile(path, l, 0644), "failed to write %s", path)
}

// LoadRegistryConfig reads the registry credentials from the cache
// directory. A missing file yields the default registry without a token.
func (c *Ctx) LoadRegistryConfig() (*RegistryConfig, error) {
	path := filepath.Join(c.CacheDir, RegistryConfigName)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewRegistryConfig("", ""), nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", path)
	}
	defer f.Close()

	rc, err := readRegistryConfig(f)
	return rc, errors.Wrapf(err, "error while parsing %s", path)
}

// SaveRegistryConfig writes rc to the cache directory, creating it if needed.
func (c *Ctx) SaveRegistryConfig(rc *RegistryConfig) error {
	if err := os.MkdirAll(c.CacheDir, 0700); err != nil {
		return errors.Wrapf(err, "failed to create cache directory %s", c.CacheDir)
	}
	path := filepath.Join(c.CacheDir, RegistryConfigName)
	return errors.Wrapf(writeFile(path, rc, 0600), "failed to write %s", path)
}
