// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packwright

import (
	"bytes"
	"reflect"
	"testing"
)

func TestReadRegistryConfig(t *testing.T) {
	f := openTestFile(t, "registryconfig/golden.toml")
	defer f.Close()
	got, err := readRegistryConfig(f)
	if err != nil {
		t.Fatalf("Should have read Config correctly, but got err %q", err)
	}

	want := NewRegistryConfig("https://staging-api.modrinth.com", "mrp_2erygdasE45rty5JKwewrr75cb15rdeE")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Valid config did not parse as expected:\n\t(GOT): %+v\n\t(WNT): %+v", got, want)
	}
}

func TestWriteRegistryConfig(t *testing.T) {
	c := NewRegistryConfig(" https://staging-api.modrinth.com ", "tok")
	if c.URL() != "https://staging-api.modrinth.com" {
		t.Errorf("URL should be trimmed, got %q", c.URL())
	}

	b, err := c.MarshalTOML()
	if err != nil {
		t.Fatalf("Error while marshaling valid config to TOML: %q", err)
	}
	got, err := readRegistryConfig(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, c) {
		t.Errorf("Config did not survive a write:\n\t(GOT): %+v\n\t(WNT): %+v", got, c)
	}
}

func TestReadRegistryConfigCurseForge(t *testing.T) {
	f := openTestFile(t, "registryconfig/curseforge.toml")
	defer f.Close()
	got, err := readRegistryConfig(f)
	if err != nil {
		t.Fatalf("Should have read Config correctly, but got err %q", err)
	}

	if got.URL() != "" || got.CurseForgeURL() != "" {
		t.Errorf("expected default endpoints, got %q and %q", got.URL(), got.CurseForgeURL())
	}
	if want := "$2a$10$bL4bIL5pUWqfcO7KQtnMReakwtfHbNKh6v1uTpKlzhwoueEJQnPnm"; got.CurseForgeKey() != want {
		t.Errorf("unexpected CurseForge key:\n\t(GOT): %q\n\t(WNT): %q", got.CurseForgeKey(), want)
	}
}

func TestWriteRegistryConfigCurseForge(t *testing.T) {
	c := NewRegistryConfig("", "tok")
	c.SetCurseForge("http://localhost:8080 ", " key")

	b, err := c.MarshalTOML()
	if err != nil {
		t.Fatalf("Error while marshaling valid config to TOML: %q", err)
	}
	if !bytes.Contains(b, []byte("[curseforge]")) {
		t.Errorf("expected a curseforge table, got:\n%s", b)
	}
	got, err := readRegistryConfig(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, c) {
		t.Errorf("Config did not survive a write:\n\t(GOT): %+v\n\t(WNT): %+v", got, c)
	}

	// Without CurseForge settings the table is left out.
	b, err = NewRegistryConfig("", "tok").MarshalTOML()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(b, []byte("curseforge")) {
		t.Errorf("expected no curseforge table, got:\n%s", b)
	}
}
