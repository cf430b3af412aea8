// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"

	"github.com/packwright/packwright/check"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

func constraint(target, rng string, mandatory bool) check.Constraint {
	if strings.TrimSpace(rng) == "" {
		rng = "*"
	}
	return check.Constraint{
		Target:    target,
		Range:     rng,
		Mandatory: mandatory,
		Virtual:   check.IsVirtualTarget(target),
	}
}

func parseModsTOML(file string) func(j *jarEntries) (*check.Record, error) {
	return func(j *jarEntries) (*check.Record, error) {
		data, err := j.read(file)
		if err != nil {
			return nil, err
		}
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return nil, errors.Wrap(err, "invalid TOML")
		}

		mods, _ := tree.Get("mods").([]*toml.Tree)
		if len(mods) == 0 {
			return nil, errors.New("no [[mods]] entry")
		}
		mod := mods[0]

		r := &check.Record{
			ID:     tomlString(mod, "modId", "unknown"),
			Loader: LoaderForge,
		}
		r.Name = tomlString(mod, "displayName", r.ID)
		r.Version = resolvePlaceholder(j, tomlString(mod, "version", "0.0.0"))
		if provides, ok := mod.Get("provides").([]interface{}); ok {
			for _, p := range provides {
				if s, ok := p.(string); ok {
					r.Aliases = append(r.Aliases, s)
				}
			}
		}

		if strings.HasPrefix(path.Base(file), "neoforge.") ||
			strings.Contains(strings.ToLower(tomlString(tree, "loaderVersion", "")), "neoforge") {
			r.Loader = LoaderNeoForge
		}

		deps, _ := tree.GetPath([]string{"dependencies", r.ID}).([]*toml.Tree)
		for _, dep := range deps {
			target := tomlString(dep, "modId", "")
			if target == "" {
				continue
			}
			if strings.EqualFold(target, "neoforge") {
				r.Loader = LoaderNeoForge
			}
			rng := resolvePlaceholder(j, tomlString(dep, "versionRange", "*"))
			r.Dependencies = append(r.Dependencies, constraint(target, rng, modsTOMLMandatory(dep)))
		}
		return r, nil
	}
}

// modsTOMLMandatory reads either the older boolean "mandatory" key or the
// newer "type" key. Absent both, a dependency is mandatory.
func modsTOMLMandatory(dep *toml.Tree) bool {
	if t, ok := dep.Get("type").(string); ok {
		return strings.EqualFold(t, "required")
	}
	if m, ok := dep.Get("mandatory").(bool); ok {
		return m
	}
	return true
}

func tomlString(t *toml.Tree, key, def string) string {
	if s, ok := t.Get(key).(string); ok && s != "" {
		return s
	}
	return def
}

type fabricModJSON struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Version  string     `json:"version"`
	Depends  orderedRaw `json:"depends"`
	Provides []string   `json:"provides"`
}

// orderedRaw is a JSON object whose values are left undecoded and whose keys
// keep their document order.
type orderedRaw struct {
	keys []string
	vals map[string]json.RawMessage
}

func (o *orderedRaw) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("expected an object")
	}

	o.vals = make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if _, dup := o.vals[key]; !dup {
			o.keys = append(o.keys, key)
		}
		o.vals[key] = v
	}
	return nil
}

func parseFabric(j *jarEntries) (*check.Record, error) {
	data, err := j.read("fabric.mod.json")
	if err != nil {
		return nil, err
	}
	var raw fabricModJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}

	r := &check.Record{
		ID:      orDefault(raw.ID, "unknown"),
		Version: resolvePlaceholder(j, orDefault(raw.Version, "0.0.0")),
		Loader:  LoaderFabric,
		Aliases: raw.Provides,
	}
	r.Name = orDefault(raw.Name, r.ID)

	for _, target := range raw.Depends.keys {
		if target == "quilt_loader" {
			r.Loader = LoaderQuilt
		}
		// Only a single range string can be checked; lists of alternatives
		// are accepted as anything.
		rng := "*"
		var s string
		if json.Unmarshal(raw.Depends.vals[target], &s) == nil {
			rng = s
		}
		r.Dependencies = append(r.Dependencies, constraint(target, rng, true))
	}
	return r, nil
}

type quiltModJSON struct {
	Loader struct {
		ID       string `json:"id"`
		Version  string `json:"version"`
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
		Depends  []json.RawMessage `json:"depends"`
		Provides []json.RawMessage `json:"provides"`
	} `json:"quilt_loader"`
}

type quiltDependency struct {
	ID       string          `json:"id"`
	Versions json.RawMessage `json:"versions"`
	Optional bool            `json:"optional"`
}

func parseQuilt(j *jarEntries) (*check.Record, error) {
	data, err := j.read("quilt.mod.json")
	if err != nil {
		return nil, err
	}
	var raw quiltModJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}

	ql := raw.Loader
	r := &check.Record{
		ID:      orDefault(ql.ID, "unknown"),
		Version: resolvePlaceholder(j, orDefault(ql.Version, "0.0.0")),
		Loader:  LoaderQuilt,
	}
	r.Name = orDefault(ql.Metadata.Name, r.ID)

	for _, p := range ql.Provides {
		if d, ok := quiltEntry(p); ok {
			r.Aliases = append(r.Aliases, d.ID)
		}
	}
	for _, dep := range ql.Depends {
		d, ok := quiltEntry(dep)
		if !ok {
			continue
		}
		rng := "*"
		var s string
		if len(d.Versions) > 0 && json.Unmarshal(d.Versions, &s) == nil {
			rng = s
		}
		r.Dependencies = append(r.Dependencies, constraint(d.ID, rng, !d.Optional))
	}
	return r, nil
}

// quiltEntry decodes a depends or provides element, which is either a bare id
// or an object.
func quiltEntry(raw json.RawMessage) (quiltDependency, bool) {
	var id string
	if json.Unmarshal(raw, &id) == nil {
		return quiltDependency{ID: id}, id != ""
	}
	var d quiltDependency
	if json.Unmarshal(raw, &d) != nil || d.ID == "" {
		return quiltDependency{}, false
	}
	return d, true
}

type mcmodInfo struct {
	ModID        string   `json:"modid"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	RequiredMods []string `json:"requiredMods"`
}

func parseMcmodInfo(j *jarEntries) (*check.Record, error) {
	data, err := j.read("mcmod.info")
	if err != nil {
		return nil, err
	}

	// Either a bare list, or the version 2 form wrapping it in modList.
	var list []mcmodInfo
	if err := json.Unmarshal(data, &list); err != nil {
		var v2 struct {
			ModList []mcmodInfo `json:"modList"`
		}
		if err2 := json.Unmarshal(data, &v2); err2 != nil {
			return nil, errors.Wrap(err, "invalid JSON")
		}
		list = v2.ModList
	}
	if len(list) == 0 {
		return nil, errors.New("empty mod list")
	}

	info := list[0]
	r := &check.Record{
		ID:      orDefault(info.ModID, "unknown"),
		Version: resolvePlaceholder(j, orDefault(info.Version, "0.0.0")),
		Loader:  LoaderForge,
	}
	r.Name = orDefault(info.Name, r.ID)
	for _, dep := range info.RequiredMods {
		r.Dependencies = append(r.Dependencies, constraint(dep, "*", true))
	}
	return r, nil
}

type liteModJSON struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"displayName"`
	Version      string   `json:"version"`
	RequiredMods []string `json:"requiredMods"`
}

func parseLiteMod(j *jarEntries) (*check.Record, error) {
	data, err := j.read("litemod.json")
	if err != nil {
		return nil, err
	}
	var raw liteModJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}

	r := &check.Record{
		ID:      orDefault(raw.Name, "unknown"),
		Version: resolvePlaceholder(j, orDefault(raw.Version, "0.0.0")),
		Loader:  LoaderLiteLoader,
	}
	r.Name = orDefault(raw.DisplayName, r.ID)
	for _, dep := range raw.RequiredMods {
		r.Dependencies = append(r.Dependencies, constraint(dep, "*", true))
	}
	return r, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
