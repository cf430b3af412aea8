// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packwright

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/packwright/packwright/internal/test"
)

func newTestCtx(h *test.Helper) *Ctx {
	h.TempDir("pack")
	h.TempDir("cache")
	return &Ctx{
		WorkingDir: h.Path("pack"),
		CacheDir:   h.Path("cache"),
		Out:        h.Logger(),
		Err:        h.Logger(),
	}
}

func TestDefaultCacheDir(t *testing.T) {
	env := map[string]string{"HOME": "/home/steve"}
	getenv := func(k string) string { return env[k] }

	if got, want := DefaultCacheDir(getenv), filepath.Join("/home/steve", ".cache", "packwright"); got != want {
		t.Errorf("unexpected cache dir:\n\t(GOT): %s\n\t(WNT): %s", got, want)
	}
	env["PACKWRIGHT_CACHE"] = "/tmp/pw"
	if got := DefaultCacheDir(getenv); got != "/tmp/pw" {
		t.Errorf("PACKWRIGHT_CACHE should win, got %s", got)
	}
}

func TestCtxLoadManifest(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()
	c := newTestCtx(h)

	if _, err := c.LoadManifest(); err == nil {
		t.Fatal("expected an error for a missing manifest")
	}

	h.TempFile(filepath.Join("pack", ManifestName), `
game-version = "1.19.2"
loader = "forge"
mods = ["jei"]
`)
	m, err := c.LoadManifest()
	if err != nil {
		t.Fatal(err)
	}
	if m.GameVersion != "1.19.2" || m.Loader != "forge" {
		t.Errorf("unexpected platform %s/%s", m.GameVersion, m.Loader)
	}

	c.GameVersion, c.Loader = "1.20.1", "neoforge"
	m, err = c.LoadManifest()
	if err != nil {
		t.Fatal(err)
	}
	if m.GameVersion != "1.20.1" || m.Loader != "neoforge" {
		t.Errorf("overrides were not applied: %s/%s", m.GameVersion, m.Loader)
	}
	if !reflect.DeepEqual(m.Mods, []string{"jei"}) {
		t.Errorf("unexpected mods %q", m.Mods)
	}
}

func TestCtxModsDir(t *testing.T) {
	c := &Ctx{WorkingDir: "/packs/mine"}
	cases := []struct {
		m    *Manifest
		want string
	}{
		{nil, filepath.Join("/packs/mine", "mods")},
		{&Manifest{}, filepath.Join("/packs/mine", "mods")},
		{&Manifest{ModsDir: "instance/mods"}, filepath.Join("/packs/mine", "instance", "mods")},
		{&Manifest{ModsDir: "/srv/mods"}, "/srv/mods"},
	}
	for _, cs := range cases {
		if got := c.ModsDir(cs.m); got != cs.want {
			t.Errorf("unexpected mods dir:\n\t(GOT): %s\n\t(WNT): %s", got, cs.want)
		}
	}
}

func TestCtxLockFile(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()
	c := newTestCtx(h)

	if l, err := c.LoadLock(); l != nil || err != nil {
		t.Fatalf("a missing lock should load as nil, got %+v, %v", l, err)
	}

	l := &Lock{Memo: []byte{1}, Mods: []LockedMod{{ProjectID: "AANobbMI", VersionID: "v1", Version: "1.0"}}}
	if err := c.WriteLock(l); err != nil {
		t.Fatal(err)
	}
	back, err := c.LoadLock()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, l) {
		t.Errorf("lock did not load back:\n\t(GOT): %+v\n\t(WNT): %+v", back, l)
	}
	got := h.ReadFile(filepath.Join("pack", LockName))
	if !strings.Contains(got, `project = "AANobbMI"`) {
		t.Errorf("unexpected lock contents:\n%s", got)
	}
}

func TestCtxRegistryConfig(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()
	c := newTestCtx(h)
	c.CacheDir = h.Path("fresh-cache")

	rc, err := c.LoadRegistryConfig()
	if err != nil {
		t.Fatal(err)
	}
	if rc.URL() != "" || rc.Token() != "" {
		t.Errorf("a missing config should be empty, got %+v", rc)
	}

	if err := c.SaveRegistryConfig(NewRegistryConfig("https://example.test", "tok")); err != nil {
		t.Fatal(err)
	}
	rc, err = c.LoadRegistryConfig()
	if err != nil {
		t.Fatal(err)
	}
	if rc.URL() != "https://example.test" || rc.Token() != "tok" {
		t.Errorf("unexpected config after save: %+v", rc)
	}
}
