// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packwright

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/packwright/packwright/resolve"
)

func TestReadLock(t *testing.T) {
	for _, name := range []string{"lock/error0.toml", "lock/error1.toml"} {
		f := openTestFile(t, name)
		if _, err := readLock(f); err == nil {
			t.Errorf("Reading %s should have caused error, but did not", name)
		}
		f.Close()
	}

	lf := openTestFile(t, "lock/golden.toml")
	defer lf.Close()
	got, err := readLock(lf)
	if err != nil {
		t.Fatalf("Should have read Lock correctly, but got err %q", err)
	}

	want := &Lock{
		Memo:       []byte{0x0c, 0x5a, 0x1f},
		Unresolved: []string{"not-a-mod"},
		Mods: []LockedMod{
			{
				ProjectID: "AANobbMI",
				VersionID: "OihdIimA",
				Version:   "mc1.20.1-0.5.3",
				Tier:      "release",
				Filename:  "sodium-fabric-mc1.20.1-0.5.3.jar",
				URL:       "https://cdn.modrinth.com/data/AANobbMI/versions/OihdIimA/sodium-fabric-mc1.20.1-0.5.3.jar",
				SHA512:    "def",
			},
			{ProjectID: "P7dR8mSH", VersionID: "fapi-92", Version: "0.92.0+1.20.1"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Valid lock did not parse as expected:\n\t(GOT): %+v\n\t(WNT): %+v", got, want)
	}
}

func TestNewLock(t *testing.T) {
	m := &Manifest{GameVersion: "1.20.1", Loader: "fabric", Mods: []string{"sodium", "ghost"}}
	res := resolve.Result{
		Resolved: []resolve.VersionRecord{
			{
				ID: "sod-052", ProjectID: "AANobbMI", VersionNumber: "0.5.2", Tier: "release",
				Files: []resolve.File{
					{Filename: "sodium-sources.jar", URL: "https://x/src"},
					{Filename: "sodium.jar", URL: "https://x/main", SHA512: "abc", Primary: true},
				},
			},
			{
				ID: "fapi-92", ProjectID: "P7dR8mSH", VersionNumber: "0.92.0", Tier: "release",
				Files: []resolve.File{{Filename: "fabric-api.jar", URL: "https://x/fapi"}},
			},
			{ID: "nofile", ProjectID: "0000", VersionNumber: "1"},
			{
				ID: "4712866", ProjectID: "238222", VersionNumber: "4712866",
				Files: []resolve.File{
					{Filename: "jei.jar", URL: "https://x/jei", SHA1: "aa11", Primary: true},
					{Filename: "jei-api.jar", URL: "https://x/jei-api", Primary: true},
				},
			},
		},
		Unresolved: []string{"ghost"},
	}

	l := NewLock(m, res)
	if !l.Matches(m) {
		t.Error("lock should match the manifest it was built from")
	}
	if l.Matches(&Manifest{GameVersion: "1.20.2", Loader: "fabric", Mods: m.Mods}) {
		t.Error("lock should not match a manifest for another game version")
	}

	want := []LockedMod{
		{ProjectID: "0000", VersionID: "nofile", Version: "1"},
		{ProjectID: "238222", VersionID: "4712866", Version: "4712866", Filename: "jei.jar", URL: "https://x/jei", SHA1: "aa11"},
		{ProjectID: "AANobbMI", VersionID: "sod-052", Version: "0.5.2", Tier: "release", Filename: "sodium.jar", URL: "https://x/main", SHA512: "abc"},
		{ProjectID: "P7dR8mSH", VersionID: "fapi-92", Version: "0.92.0", Tier: "release", Filename: "fabric-api.jar", URL: "https://x/fapi"},
	}
	if !reflect.DeepEqual(l.Mods, want) {
		t.Errorf("unexpected locked mods:\n\t(GOT): %+v\n\t(WNT): %+v", l.Mods, want)
	}
	if !reflect.DeepEqual(l.Unresolved, []string{"ghost"}) {
		t.Errorf("unexpected unresolved list %q", l.Unresolved)
	}

	res.Unresolved[0] = "mutated"
	if l.Unresolved[0] != "ghost" {
		t.Error("lock shares the unresolved slice with the result")
	}
}

func TestWriteLock(t *testing.T) {
	l := &Lock{
		Memo: []byte{0xde, 0xad},
		Mods: []LockedMod{
			{ProjectID: "AANobbMI", VersionID: "sod-052", Version: "0.5.2", URL: "https://x/main"},
		},
	}
	b, err := l.MarshalTOML()
	if err != nil {
		t.Fatalf("Error while marshaling valid lock to TOML: %q", err)
	}
	if !bytes.Contains(b, []byte(`memo = "dead"`)) {
		t.Errorf("memo should be hex encoded:\n%s", b)
	}

	got, err := readLock(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, l) {
		t.Errorf("Lock did not survive a write:\n\t(GOT): %+v\n\t(WNT): %+v", got, l)
	}
}
