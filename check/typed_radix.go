// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"github.com/armon/go-radix"
)

// Typed wrappers around radix trees, so the checker never type asserts.
// Walks visit keys in lexical order, which is what the summaries rely on.
// Not safe for concurrent use; the checker is single-threaded.

type recordTrie struct {
	t *radix.Tree
}

func newRecordTrie() *recordTrie {
	return &recordTrie{t: radix.New()}
}

// Insert adds or replaces the record stored under id.
func (t *recordTrie) Insert(id string, r *Record) {
	t.t.Insert(id, r)
}

// Get looks up the record stored under id.
func (t *recordTrie) Get(id string) (*Record, bool) {
	if r, has := t.t.Get(id); has {
		return r.(*Record), true
	}
	return nil, false
}

// Len returns the number of ids in the trie.
func (t *recordTrie) Len() int {
	return t.t.Len()
}

// A requirement is one mandatory range on a virtual target.
type requirement struct {
	requester string
	rng       string
}

type requirementTrie struct {
	t *radix.Tree
}

func newRequirementTrie() *requirementTrie {
	return &requirementTrie{t: radix.New()}
}

// Append records req against target, after any earlier requirements.
func (t *requirementTrie) Append(target string, req requirement) {
	var reqs []requirement
	if v, has := t.t.Get(target); has {
		reqs = v.([]requirement)
	}
	t.t.Insert(target, append(reqs, req))
}

// Walk calls fn for every target in lexical order.
func (t *requirementTrie) Walk(fn func(target string, reqs []requirement)) {
	t.t.Walk(func(s string, v interface{}) bool {
		fn(s, v.([]requirement))
		return false
	})
}
