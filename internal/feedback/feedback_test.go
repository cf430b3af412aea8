// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package feedback

import (
	"bytes"
	log2 "log"
	"reflect"
	"strings"
	"testing"

	"github.com/packwright/packwright"
)

func mod(project, id, ver string) packwright.LockedMod {
	return packwright.LockedMod{ProjectID: project, VersionID: id, Version: ver}
}

func TestDiffLocks(t *testing.T) {
	old := &packwright.Lock{Mods: []packwright.LockedMod{
		mod("AANobbMI", "sod-052", "0.5.2"),
		mod("gvQqBUqZ", "lith-1", "0.11.2"),
		mod("mOgUt4GM", "mm-7", "7.2.2"),
	}}
	cur := &packwright.Lock{Mods: []packwright.LockedMod{
		mod("AANobbMI", "sod-053", "0.5.3"),
		mod("P7dR8mSH", "fapi-92", "0.92.0"),
		mod("mOgUt4GM", "mm-7", "7.2.2"),
	}}

	got := DiffLocks(old, cur)
	want := []Change{
		{Kind: KindUpdate, ProjectID: "AANobbMI", From: mod("AANobbMI", "sod-052", "0.5.2"), To: mod("AANobbMI", "sod-053", "0.5.3")},
		{Kind: KindAdd, ProjectID: "P7dR8mSH", To: mod("P7dR8mSH", "fapi-92", "0.92.0")},
		{Kind: KindRemove, ProjectID: "gvQqBUqZ", From: mod("gvQqBUqZ", "lith-1", "0.11.2")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected changes:\n\t(GOT): %+v\n\t(WNT): %+v", got, want)
	}

	if n := len(DiffLocks(nil, cur)); n != 3 {
		t.Errorf("with no previous lock everything is added, got %d changes", n)
	}
	if n := len(DiffLocks(cur, cur)); n != 0 {
		t.Errorf("a lock does not differ from itself, got %d changes", n)
	}
}

func TestLogChanges(t *testing.T) {
	cases := []struct {
		changes []Change
		want    string
	}{
		{nil, "Lock is unchanged"},
		{
			[]Change{{Kind: KindAdd, ProjectID: "P7dR8mSH", To: mod("P7dR8mSH", "fapi-92", "0.92.0")}},
			"Adding P7dR8mSH at 0.92.0 (fapi-92)",
		},
		{
			[]Change{{Kind: KindUpdate, ProjectID: "AANobbMI", From: mod("AANobbMI", "sod-052", "0.5.2"), To: mod("AANobbMI", "sod-053", "")}},
			"Updating AANobbMI from 0.5.2 (sod-052) to sod-053",
		},
		{
			[]Change{{Kind: KindRemove, ProjectID: "gvQqBUqZ", From: mod("gvQqBUqZ", "lith-1", "0.11.2")}},
			"Removing gvQqBUqZ at 0.11.2 (lith-1)",
		},
	}

	for _, c := range cases {
		buf := &bytes.Buffer{}
		log := log2.New(buf, "", 0)
		LogChanges(log, c.changes)
		got := strings.TrimSpace(buf.String())
		if c.want != got {
			t.Errorf("Feedbacks are not expected: \n\t(GOT) '%s'\n\t(WNT) '%s'", got, c.want)
		}
	}
}
