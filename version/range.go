// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package version

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// An Interval is a contiguous span of versions. A nil Min is unbounded below
// and a nil Max is unbounded above.
type Interval struct {
	Min          *Version
	MinInclusive bool
	Max          *Version
	MaxInclusive bool
}

// Admits reports whether v lies inside the interval.
func (iv Interval) Admits(v Version) bool {
	if iv.Min != nil {
		c := Compare(v, *iv.Min)
		if c < 0 || (c == 0 && !iv.MinInclusive) {
			return false
		}
	}
	if iv.Max != nil {
		c := Compare(v, *iv.Max)
		if c > 0 || (c == 0 && !iv.MaxInclusive) {
			return false
		}
	}
	return true
}

func (iv Interval) String() string {
	switch {
	case iv.Min == nil && iv.Max == nil:
		return "*"
	case iv.Max == nil:
		return openBracket(iv.MinInclusive) + iv.Min.String() + ",)"
	case iv.Min == nil:
		return "(," + iv.Max.String() + closeBracket(iv.MaxInclusive)
	}
	return openBracket(iv.MinInclusive) + iv.Min.String() + "," + iv.Max.String() + closeBracket(iv.MaxInclusive)
}

func openBracket(inclusive bool) string {
	if inclusive {
		return "["
	}
	return "("
}

func closeBracket(inclusive bool) string {
	if inclusive {
		return "]"
	}
	return ")"
}

// A Range is an ordered list of intervals; a version satisfies the range if
// any interval admits it.
//
// A Range returned by ParseRange always holds at least one interval. Only
// Intersect can produce a Range with no intervals, which means no version
// can satisfy both operands.
type Range struct {
	intervals []Interval
}

// A RangeError reports a constraint string that cannot be interpreted.
type RangeError struct {
	Range  string
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid version range %q: %s", e.Range, e.Reason)
}

// IsRangeError reports whether the cause of err is a *RangeError.
func IsRangeError(err error) bool {
	_, ok := errors.Cause(err).(*RangeError)
	return ok
}

// Any returns a range that admits every version.
func Any() Range {
	return Range{intervals: []Interval{{}}}
}

// ParseRange parses bracket range notation:
//
//	1.0          1.0 or newer
//	[1.0,2.0)    1.0 <= v < 2.0
//	(,1.5]       v <= 1.5
//	[1.2]        1.2 or newer
//	[1,2),[3,)   either interval
//	*            anything
//
// Text without any of "[](),", operators and all, is read as a single
// version and means that version or newer.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Any(), nil
	}

	if !strings.ContainsAny(s, "[](),") {
		return softRange(s)
	}

	groups, err := splitGroups(s)
	if err != nil {
		return Range{}, err
	}
	if len(groups) == 0 {
		return softRange(s)
	}

	r := Range{intervals: make([]Interval, 0, len(groups))}
	for _, g := range groups {
		iv, err := parseGroup(s, g)
		if err != nil {
			return Range{}, err
		}
		r.intervals = append(r.intervals, iv)
	}
	return r, nil
}

// MustParseRange is like ParseRange but panics on error.
func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func softRange(s string) (Range, error) {
	min := Parse(s)
	return Range{intervals: []Interval{{Min: &min, MinInclusive: true}}}, nil
}

// splitGroups returns the bracketed groups of s, brackets included. Commas
// and whitespace between groups are separators.
func splitGroups(s string) ([]string, error) {
	var (
		groups []string
		start  = -1
		stray  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case start >= 0:
			if c == ']' || c == ')' {
				groups = append(groups, s[start:i+1])
				start = -1
			} else if c == '[' || c == '(' {
				return nil, &RangeError{Range: s, Reason: "nested bracket"}
			}
		case c == '[' || c == '(':
			start = i
		case c == ',' || c == ' ' || c == '\t':
		default:
			stray = true
		}
	}

	if start >= 0 {
		return nil, &RangeError{Range: s, Reason: "unterminated interval"}
	}
	if stray && len(groups) > 0 {
		return nil, &RangeError{Range: s, Reason: "text outside of an interval"}
	}
	return groups, nil
}

func parseGroup(full, g string) (Interval, error) {
	iv := Interval{
		MinInclusive: g[0] == '[',
		MaxInclusive: g[len(g)-1] == ']',
	}

	bounds := strings.Split(g[1:len(g)-1], ",")
	if len(bounds) > 2 {
		return Interval{}, &RangeError{Range: full, Reason: "interval " + g + " has more than two bounds"}
	}
	for k := range bounds {
		bounds[k] = strings.TrimSpace(bounds[k])
	}

	if bounds[0] != "" {
		min := Parse(bounds[0])
		iv.Min = &min
	}
	// A lone bound is a minimum only.
	if len(bounds) == 1 {
		return iv, nil
	}
	if bounds[1] != "" {
		max := Parse(bounds[1])
		iv.Max = &max
	}
	return iv, nil
}

// Intervals returns a copy of the range's intervals.
func (r Range) Intervals() []Interval {
	out := make([]Interval, len(r.intervals))
	copy(out, r.intervals)
	return out
}

// IsEmpty reports whether the range has no intervals at all, i.e. it came out
// of an intersection that no version can satisfy.
func (r Range) IsEmpty() bool {
	return len(r.intervals) == 0
}

// Contains reports whether v satisfies the range.
func (r Range) Contains(v Version) bool {
	if len(r.intervals) == 0 {
		return true
	}
	for _, iv := range r.intervals {
		if iv.Admits(v) {
			return true
		}
	}
	return false
}

// Intersect computes the pairwise intersection of the intervals of r and o.
// The result may be empty.
func (r Range) Intersect(o Range) Range {
	var out []Interval
	for _, a := range r.intervals {
		for _, b := range o.intervals {
			if iv, ok := intersectIntervals(a, b); ok {
				out = append(out, iv)
			}
		}
	}
	return Range{intervals: out}
}

func intersectIntervals(a, b Interval) (Interval, bool) {
	var iv Interval

	switch {
	case a.Min == nil:
		iv.Min, iv.MinInclusive = b.Min, b.MinInclusive
	case b.Min == nil:
		iv.Min, iv.MinInclusive = a.Min, a.MinInclusive
	default:
		switch c := Compare(*a.Min, *b.Min); {
		case c > 0:
			iv.Min, iv.MinInclusive = a.Min, a.MinInclusive
		case c < 0:
			iv.Min, iv.MinInclusive = b.Min, b.MinInclusive
		default:
			iv.Min, iv.MinInclusive = a.Min, a.MinInclusive && b.MinInclusive
		}
	}

	switch {
	case a.Max == nil:
		iv.Max, iv.MaxInclusive = b.Max, b.MaxInclusive
	case b.Max == nil:
		iv.Max, iv.MaxInclusive = a.Max, a.MaxInclusive
	default:
		switch c := Compare(*a.Max, *b.Max); {
		case c < 0:
			iv.Max, iv.MaxInclusive = a.Max, a.MaxInclusive
		case c > 0:
			iv.Max, iv.MaxInclusive = b.Max, b.MaxInclusive
		default:
			iv.Max, iv.MaxInclusive = a.Max, a.MaxInclusive && b.MaxInclusive
		}
	}

	if iv.Min != nil && iv.Max != nil {
		c := Compare(*iv.Min, *iv.Max)
		if c > 0 || (c == 0 && !(iv.MinInclusive && iv.MaxInclusive)) {
			return Interval{}, false
		}
	}
	return iv, true
}

// String renders the range in bracket notation. An empty range renders as
// "*", matching the way Contains treats it.
func (r Range) String() string {
	if len(r.intervals) == 0 {
		return "*"
	}
	parts := make([]string, len(r.intervals))
	for k, iv := range r.intervals {
		parts[k] = iv.String()
	}
	return strings.Join(parts, ",")
}
