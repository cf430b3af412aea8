// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archive reads mod metadata out of jar files.
//
// A jar may describe itself with any one of several metadata files depending
// on the loader it targets; the first one found, in the order below, wins:
//
//	META-INF/mods.toml            Forge
//	META-INF/neoforge.mods.toml   NeoForge
//	fabric.mod.json               Fabric
//	quilt.mod.json                Quilt
//	mcmod.info                    legacy Forge
//	litemod.json                  LiteLoader
//
// Jars bundled inside a jar are read one level deep.
package archive

import (
	"archive/zip"
	"bytes"
	"io/ioutil"
	"log"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/packwright/packwright/check"
	"github.com/pkg/errors"
)

// Loader names recorded on extracted records.
const (
	LoaderForge      = "forge"
	LoaderNeoForge   = "neoforge"
	LoaderFabric     = "fabric"
	LoaderQuilt      = "quilt"
	LoaderLiteLoader = "liteloader"
)

// UnknownVersion is recorded when neither metadata nor the file name carry a
// version.
const UnknownVersion = "unknown"

// jarEntries gives access to the files inside a jar by name.
type jarEntries struct {
	name  string // base file name of the jar
	files map[string]*zip.File
	order []string
}

func newJarEntries(name string, zr *zip.Reader) *jarEntries {
	j := &jarEntries{
		name:  name,
		files: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		j.files[f.Name] = f
		j.order = append(j.order, f.Name)
	}
	return j
}

func (j *jarEntries) has(name string) bool {
	_, ok := j.files[name]
	return ok
}

func (j *jarEntries) read(name string) ([]byte, error) {
	f, ok := j.files[name]
	if !ok {
		return nil, errors.Errorf("%s has no %s", j.name, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s in %s", name, j.name)
	}
	defer rc.Close()
	data, err := ioutil.ReadAll(rc)
	return data, errors.Wrapf(err, "failed to read %s in %s", name, j.name)
}

type metadataParser struct {
	file  string
	parse func(j *jarEntries) (*check.Record, error)
}

var parsers = []metadataParser{
	{"META-INF/mods.toml", parseModsTOML("META-INF/mods.toml")},
	{"META-INF/neoforge.mods.toml", parseModsTOML("META-INF/neoforge.mods.toml")},
	{"fabric.mod.json", parseFabric},
	{"quilt.mod.json", parseQuilt},
	{"mcmod.info", parseMcmodInfo},
	{"litemod.json", parseLiteMod},
}

// Extract returns the records described by the jar at file: its own record
// first, then one for each bundled jar that could be read. Problems with
// bundled jars are logged to logger, which may be nil, and skipped.
//
// A jar without any known metadata file yields a single record guessed from
// its file name.
func Extract(file string, logger *log.Logger) ([]check.Record, error) {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}

	zr, err := zip.OpenReader(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s as a jar", file)
	}
	defer zr.Close()

	j := newJarEntries(filepath.Base(file), &zr.Reader)
	main, err := parseMain(j)
	if err != nil {
		return nil, err
	}
	if main == nil {
		main = fromFileName(j.name)
	}
	main.File = file

	out := []check.Record{*main}
	for _, name := range nestedJars(j) {
		recs, err := extractNested(j, name)
		if err != nil {
			logger.Printf("warning: skipping bundled jar %s in %s: %s", name, j.name, err)
			continue
		}
		for _, r := range recs {
			r.Nested = true
			r.Parent = main.ID
			r.File = file
			out = append(out, r)
		}
	}
	return out, nil
}

// parseMain returns nil and no error if j has no metadata file.
func parseMain(j *jarEntries) (*check.Record, error) {
	for _, p := range parsers {
		if !j.has(p.file) {
			continue
		}
		r, err := p.parse(j)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s in %s", p.file, j.name)
		}
		return r, nil
	}
	return nil, nil
}

// nestedJars lists bundled jars in the places loaders put them.
func nestedJars(j *jarEntries) []string {
	var out []string
	for _, name := range j.order {
		if !strings.HasSuffix(name, ".jar") {
			continue
		}
		if strings.HasPrefix(name, "META-INF/jarjar/") ||
			strings.HasPrefix(name, "META-INF/jars/") ||
			strings.Contains(name, "/jars/") {
			out = append(out, name)
		}
	}
	return out
}

func extractNested(outer *jarEntries, name string) ([]check.Record, error) {
	data, err := outer.read(name)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "not a valid jar")
	}

	j := newJarEntries(path.Base(name), zr)
	r, err := parseMain(j)
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = fromFileName(j.name)
	}
	return []check.Record{*r}, nil
}

var fileNamePatterns = []*regexp.Regexp{
	// sodium-mc1.20.1-0.5.3
	regexp.MustCompile(`^(.+?)[-_]mc\d+\.\d+(?:\.\d+)?[-_](\d+(?:\.\d+)*(?:[-+].+?)?)$`),
	// jei-forge-15.2.0
	regexp.MustCompile(`^(.+?)[-_](?:forge|neoforge|fabric|quilt)[-_](\d+(?:\.\d+)*(?:[-+].+?)?)$`),
	// create-0.5.1
	regexp.MustCompile(`^(.+?)[-_](\d+(?:\.\d+)*(?:[-+].+?)?)$`),
}

// fromFileName guesses a record from a jar's file name.
func fromFileName(name string) *check.Record {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, re := range fileNamePatterns {
		if m := re.FindStringSubmatch(stem); m != nil {
			return &check.Record{
				ID:      fileNameID(m[1]),
				Name:    m[1],
				Version: m[2],
			}
		}
	}
	return &check.Record{
		ID:      fileNameID(stem),
		Name:    stem,
		Version: UnknownVersion,
	}
}

func fileNameID(s string) string {
	return strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(s))
}

const jarVersionPlaceholder = "${file.jarVersion}"

var jarVersionFromName = regexp.MustCompile(`[-_](\d+(?:\.\d+)*(?:[-+].+?)?)\.jar$`)

// resolvePlaceholder substitutes ${file.jarVersion} with the jar's
// Implementation-Version, or failing that a version found in its file name.
// Values it cannot resolve are returned unchanged.
func resolvePlaceholder(j *jarEntries, value string) string {
	if !strings.Contains(value, jarVersionPlaceholder) {
		return value
	}

	if data, err := j.read("META-INF/MANIFEST.MF"); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.HasPrefix(line, "Implementation-Version:") {
				v := strings.TrimSpace(strings.SplitN(line, ":", 2)[1])
				return strings.Replace(value, jarVersionPlaceholder, v, -1)
			}
		}
	}

	if m := jarVersionFromName.FindStringSubmatch(j.name); m != nil {
		return strings.Replace(value, jarVersionPlaceholder, m[1], -1)
	}
	return value
}
