// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package version implements the ordered version identifiers and interval
// ranges used to describe mod releases and the constraints placed on them.
//
// Versions are loosely Maven-shaped: a raw string is split on '.' and '-'
// into numeric, qualifier and free-text segments, and compared segment by
// segment. Ranges use bracket notation, e.g. "[1.0,2.0)" or "(,1.5]", and a
// bare version such as "1.0" means "1.0 or newer".
package version

import (
	"regexp"
	"strconv"
	"strings"
)

type segmentKind int

const (
	numericSegment segmentKind = iota
	qualifierSegment
	textSegment
)

// Qualifier ranks. Anything not listed here is a free-text segment.
var qualifierRanks = map[string]int{
	"alpha":     1,
	"a":         1,
	"beta":      2,
	"b":         2,
	"milestone": 3,
	"m":         3,
	"rc":        4,
	"cr":        4,
	"snapshot":  5,
	"final":     6,
	"ga":        6,
}

var segmentSplit = regexp.MustCompile(`[.\-]`)

// zeroSegment pads the shorter of two versions during comparison.
var zeroSegment = segment{kind: numericSegment, num: "0"}

type segment struct {
	kind segmentKind
	// num holds the digits of a numeric segment with leading zeros removed,
	// so arbitrarily long runs still compare as integers.
	num   string
	rank  int
	text  string // token as written
	lower string // lowercased token, for text segments
}

// stringForm is how a segment takes part in a string comparison against a
// text segment.
func (s segment) stringForm() string {
	switch s.kind {
	case numericSegment:
		return s.num
	case qualifierSegment:
		return strconv.Itoa(s.rank)
	default:
		return s.lower
	}
}

// A Version is a parsed version identifier. The zero value is the empty
// version, which orders the same as "0".
//
// Two Versions are Equal only if their raw strings are identical; Compare may
// still report them as order-equal ("1.0" and "1.0.0" are one such pair).
type Version struct {
	raw  string
	segs []segment
}

// Parse splits s into segments. It never fails: unrecognized tokens become
// free-text segments.
func Parse(s string) Version {
	v := Version{raw: s}
	for _, tok := range segmentSplit.Split(s, -1) {
		if tok == "" {
			continue
		}
		v.segs = append(v.segs, parseSegment(tok))
	}
	return v
}

func parseSegment(tok string) segment {
	if isDigits(tok) {
		num := strings.TrimLeft(tok, "0")
		if num == "" {
			num = "0"
		}
		return segment{kind: numericSegment, num: num, text: tok}
	}

	lower := strings.ToLower(tok)
	if rank, ok := qualifierRanks[lower]; ok {
		return segment{kind: qualifierSegment, rank: rank, text: tok}
	}
	return segment{kind: textSegment, text: tok, lower: lower}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// String returns the raw version string.
func (v Version) String() string {
	return v.raw
}

// Equal reports whether v and o were parsed from the same raw string.
func (v Version) Equal(o Version) bool {
	return v.raw == o.raw
}

// Compare returns a negative number, zero or a positive number when v orders
// before, the same as, or after o.
func (v Version) Compare(o Version) int {
	return Compare(v, o)
}

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool {
	return Compare(v, o) < 0
}

// Compare is the three-way ordering of two versions. Missing trailing
// segments count as numeric zero, which makes "1.0-final" order before "1.0".
func Compare(a, b Version) int {
	n := len(a.segs)
	if len(b.segs) > n {
		n = len(b.segs)
	}

	for i := 0; i < n; i++ {
		s1, s2 := zeroSegment, zeroSegment
		if i < len(a.segs) {
			s1 = a.segs[i]
		}
		if i < len(b.segs) {
			s2 = b.segs[i]
		}
		if c := compareSegments(s1, s2); c != 0 {
			return c
		}
	}
	return 0
}

func compareSegments(s1, s2 segment) int {
	switch {
	case s1.kind == textSegment || s2.kind == textSegment:
		return strings.Compare(s1.stringForm(), s2.stringForm())
	case s1.kind == numericSegment && s2.kind == numericSegment:
		return compareDigits(s1.num, s2.num)
	case s1.kind == numericSegment:
		return 1
	case s2.kind == numericSegment:
		return -1
	}

	if s1.rank != s2.rank {
		return s1.rank - s2.rank
	}
	return strings.Compare(s1.text, s2.text)
}

// compareDigits compares two digit strings without leading zeros as integers.
func compareDigits(x, y string) int {
	if len(x) != len(y) {
		if len(x) < len(y) {
			return -1
		}
		return 1
	}
	return strings.Compare(x, y)
}
