// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"archive/zip"
	"bytes"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/packwright/packwright/check"
	"github.com/packwright/packwright/internal/test"
)

// jarBytes builds an in-memory jar. Entries are written in sorted name order.
func jarBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, n := range names {
		w, err := zw.Create(n)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(files[n])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeJar(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(p, jarBytes(t, files), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "archive")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %s", err)
	}
	return dir
}

func testLogger(t *testing.T) *log.Logger {
	return log.New(test.Writer{TB: t}, "", 0)
}

const createModsTOML = `
modLoader = "javafml"
loaderVersion = "[47,)"
license = "MIT"

[[mods]]
modId = "create"
version = "${file.jarVersion}"
displayName = "Create"

[[dependencies.create]]
modId = "forge"
mandatory = true
versionRange = "[47.1.3,)"
ordering = "NONE"
side = "BOTH"

[[dependencies.create]]
modId = "minecraft"
mandatory = true
versionRange = "[1.20.1,1.20.2)"

[[dependencies.create]]
modId = "flywheel"
mandatory = true
versionRange = "[0.6.10,0.6.11)"

[[dependencies.create]]
modId = "jei"
mandatory = false
versionRange = "*"
`

func TestExtractForge(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	p := writeJar(t, dir, "create-1.20.1-0.5.1.f.jar", map[string]string{
		"META-INF/mods.toml":   createModsTOML,
		"META-INF/MANIFEST.MF": "Manifest-Version: 1.0\r\nImplementation-Version: 0.5.1.f\r\n",
		"META-INF/jarjar/flywheel-forge-1.20.1-0.6.10-7.jar": string(jarBytes(t, map[string]string{
			"META-INF/mods.toml": `
[[mods]]
modId = "flywheel"
version = "0.6.10-7"
`,
		})),
	})

	recs, err := Extract(p, testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected the jar and its bundled flywheel, got %+v", recs)
	}

	main := recs[0]
	if main.ID != "create" || main.Name != "Create" || main.Version != "0.5.1.f" || main.Loader != LoaderForge {
		t.Errorf("unexpected main record: %+v", main)
	}
	if main.File != p || main.Nested {
		t.Errorf("unexpected provenance on main record: %+v", main)
	}

	want := []check.Constraint{
		{Target: "forge", Range: "[47.1.3,)", Mandatory: true, Virtual: true},
		{Target: "minecraft", Range: "[1.20.1,1.20.2)", Mandatory: true, Virtual: true},
		{Target: "flywheel", Range: "[0.6.10,0.6.11)", Mandatory: true},
		{Target: "jei", Range: "*", Mandatory: false},
	}
	if !reflect.DeepEqual(main.Dependencies, want) {
		t.Errorf("unexpected dependencies:\n\t(GOT): %+v\n\t(WNT): %+v", main.Dependencies, want)
	}

	fw := recs[1]
	if fw.ID != "flywheel" || fw.Version != "0.6.10-7" || !fw.Nested || fw.Parent != "create" || fw.File != p {
		t.Errorf("unexpected nested record: %+v", fw)
	}

	// The whole jar checks out on its own, jei being optional.
	if rep := check.New(recs).Check(); !rep.Satisfied {
		t.Errorf("expected the jar to satisfy itself: %v", rep.Findings)
	}
}

func TestExtractNeoForge(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	p := writeJar(t, dir, "thing.jar", map[string]string{
		"META-INF/neoforge.mods.toml": `
[[mods]]
modId = "thing"
version = "2.1"
provides = ["thing_api"]

[[dependencies.thing]]
modId = "neoforge"
type = "required"
versionRange = "[20.4,)"

[[dependencies.thing]]
modId = "curios"
type = "optional"
versionRange = "[7,)"
`,
	})

	recs, err := Extract(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	r := recs[0]
	if r.Loader != LoaderNeoForge {
		t.Errorf("expected neoforge loader, got %q", r.Loader)
	}
	if !reflect.DeepEqual(r.Aliases, []string{"thing_api"}) {
		t.Errorf("unexpected aliases: %v", r.Aliases)
	}
	if len(r.Dependencies) != 2 || !r.Dependencies[0].Mandatory || r.Dependencies[1].Mandatory {
		t.Errorf("unexpected dependencies: %+v", r.Dependencies)
	}
}

func TestExtractFabric(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	p := writeJar(t, dir, "sodium-fabric-mc1.20.1-0.5.3.jar", map[string]string{
		"fabric.mod.json": `{
  "schemaVersion": 1,
  "id": "sodium",
  "version": "0.5.3+mc1.20.1",
  "name": "Sodium",
  "provides": ["embeddium_compat"],
  "depends": {
    "minecraft": "1.20.1",
    "fabricloader": ">=0.12.0",
    "fabric-api": ["0.87", "0.88"],
    "indium": "[1.0.0,)"
  }
}`,
		"META-INF/jars/broken.jar": "not a zip",
	})

	recs, err := Extract(p, testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected the broken bundled jar to be skipped, got %+v", recs)
	}

	r := recs[0]
	if r.ID != "sodium" || r.Loader != LoaderFabric || r.Version != "0.5.3+mc1.20.1" {
		t.Errorf("unexpected record: %+v", r)
	}
	var got []string
	for _, d := range r.Dependencies {
		got = append(got, d.Target+" "+d.Range)
	}
	want := []string{"minecraft 1.20.1", "fabricloader >=0.12.0", "fabric-api *", "indium [1.0.0,)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("dependencies out of document order:\n\t(GOT): %v\n\t(WNT): %v", got, want)
	}
}

func TestExtractQuilt(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	p := writeJar(t, dir, "q.jar", map[string]string{
		"quilt.mod.json": `{
  "schema_version": 1,
  "quilt_loader": {
    "id": "qsl_thing",
    "version": "1.2.3",
    "metadata": {"name": "QSL Thing"},
    "provides": ["thing", {"id": "thing_core"}],
    "depends": [
      "quilt_loader",
      {"id": "minecraft", "versions": "1.20.1"},
      {"id": "qsl", "versions": "[6,7)"},
      {"id": "modmenu", "optional": true}
    ]
  }
}`,
	})

	recs, err := Extract(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	r := recs[0]
	if r.ID != "qsl_thing" || r.Name != "QSL Thing" || r.Loader != LoaderQuilt {
		t.Errorf("unexpected record: %+v", r)
	}
	if !reflect.DeepEqual(r.Aliases, []string{"thing", "thing_core"}) {
		t.Errorf("unexpected aliases: %v", r.Aliases)
	}
	want := []check.Constraint{
		{Target: "quilt_loader", Range: "*", Mandatory: true, Virtual: true},
		{Target: "minecraft", Range: "1.20.1", Mandatory: true, Virtual: true},
		{Target: "qsl", Range: "[6,7)", Mandatory: true},
		{Target: "modmenu", Range: "*", Mandatory: false},
	}
	if !reflect.DeepEqual(r.Dependencies, want) {
		t.Errorf("unexpected dependencies:\n\t(GOT): %+v\n\t(WNT): %+v", r.Dependencies, want)
	}
}

func TestExtractLegacyFormats(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	table := []struct {
		name  string
		files map[string]string
		id    string
		ver   string
		ld    string
		deps  int
	}{
		{
			name:  "mcmod list",
			files: map[string]string{"mcmod.info": `[{"modid": "jei", "name": "JEI", "version": "4.16", "requiredMods": ["forge"]}]`},
			id:    "jei", ver: "4.16", ld: LoaderForge, deps: 1,
		},
		{
			name:  "mcmod v2",
			files: map[string]string{"mcmod.info": `{"modListVersion": 2, "modList": [{"modid": "ae2", "version": "rv6"}]}`},
			id:    "ae2", ver: "rv6", ld: LoaderForge,
		},
		{
			name:  "litemod",
			files: map[string]string{"litemod.json": `{"name": "voxelmap", "displayName": "VoxelMap", "version": "1.7.10"}`},
			id:    "voxelmap", ver: "1.7.10", ld: LoaderLiteLoader,
		},
	}

	for _, c := range table {
		t.Run(c.name, func(t *testing.T) {
			recs, err := Extract(writeJar(t, dir, c.id+".jar", c.files), nil)
			if err != nil {
				t.Fatal(err)
			}
			r := recs[0]
			if r.ID != c.id || r.Version != c.ver || r.Loader != c.ld || len(r.Dependencies) != c.deps {
				t.Errorf("unexpected record: %+v", r)
			}
		})
	}
}

func TestExtractFileNameFallback(t *testing.T) {
	table := map[string]check.Record{
		"sodium-mc1.20.1-0.5.3.jar":  {ID: "sodium", Name: "sodium", Version: "0.5.3"},
		"jei-forge-15.2.0.27.jar":    {ID: "jei", Name: "jei", Version: "15.2.0.27"},
		"Cool-Mod_1.4.2-beta.jar":    {ID: "cool_mod", Name: "Cool-Mod", Version: "1.4.2-beta"},
		"resourcepack-overlay.jar":   {ID: "resourcepack_overlay", Name: "resourcepack-overlay", Version: UnknownVersion},
	}
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	for name, want := range table {
		p := writeJar(t, dir, name, map[string]string{"assets/readme.txt": "hi"})
		recs, err := Extract(p, nil)
		if err != nil {
			t.Fatal(err)
		}
		want.File = p
		if len(recs) != 1 || !reflect.DeepEqual(recs[0], want) {
			t.Errorf("%s:\n\t(GOT): %+v\n\t(WNT): %+v", name, recs, want)
		}
	}
}

func TestExtractPlaceholderFromFileName(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	p := writeJar(t, dir, "thing-3.4.5.jar", map[string]string{
		"META-INF/mods.toml": "[[mods]]\nmodId = \"thing\"\nversion = \"${file.jarVersion}\"\n",
	})
	recs, err := Extract(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Version != "3.4.5" {
		t.Errorf("expected the version from the file name, got %q", recs[0].Version)
	}
}

func TestExtractErrors(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	notZip := filepath.Join(dir, "plain.jar")
	if err := ioutil.WriteFile(notZip, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Extract(notZip, nil); err == nil {
		t.Errorf("expected an error for a file that is not a zip")
	}

	badMeta := writeJar(t, dir, "bad.jar", map[string]string{"fabric.mod.json": "{"})
	if _, err := Extract(badMeta, nil); err == nil {
		t.Errorf("expected an error for malformed metadata")
	}
}

func TestFindArchives(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	empty := map[string]string{"a.txt": ""}
	writeJar(t, dir, "b.jar", empty)
	writeJar(t, dir, "a.JAR", empty)
	writeJar(t, dir, "sub/c.jar", empty)
	writeJar(t, dir, ".disabled/d.jar", empty)
	if err := ioutil.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := FindArchives(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.JAR"),
		filepath.Join(dir, "b.jar"),
		filepath.Join(dir, "sub", "c.jar"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected archives:\n\t(GOT): %v\n\t(WNT): %v", got, want)
	}
}

func TestExtractAllSkipsUnreadable(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	writeJar(t, dir, "a-1.0.jar", map[string]string{"x": ""})
	if err := ioutil.WriteFile(filepath.Join(dir, "b.jar"), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	recs, err := ExtractAll(dir, testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != "a" {
		t.Errorf("expected only a-1.0.jar, got %+v", recs)
	}
}
