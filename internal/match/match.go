// Package match filters visited paths against user-typed query tokens.
//
// Every matcher compares a needle against single path components, never
// across a separator. Needles are tried in the order given. Comparison is
// on NFC-normalized text and, with ignoreCase, on Unicode case-folded text.
// A needle containing '*' matches nothing; '*' is not a wildcard.
//
// Matchers are stable filters: the result keeps the haystack's order.
package match

import (
	"errors"
	"strings"

	"github.com/lazypower/waypoint/internal/store"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidQuery describes an empty needle list. Matchers do not return it;
// they return no matches. Callers may use it to report the condition.
var ErrInvalidQuery = errors.New("empty query")

// Func is the common signature of Anywhere, Consecutive and Terminal.
type Func func(needles []string, haystack []store.Entry, ignoreCase bool) []store.Entry

// Anywhere keeps entries whose components contain the needles in order.
// Components may be skipped and a component may hold several needles, but
// each needle must start after the previous one ended.
//
//	Anywhere([foo bar], [/foo/bar/baz /baz/foo/bar /foo/baz]) -> first two
func Anywhere(needles []string, haystack []store.Entry, ignoreCase bool) []store.Entry {
	return filter(needles, haystack, ignoreCase, inOrder)
}

// Consecutive keeps entries where the needles match a contiguous run of
// components, one needle per component, in order. The run may sit anywhere
// in the path; it is not anchored at the final component, so
// Consecutive([foo bar]) keeps /foo/bar/baz as well as /baz/foo/bar.
func Consecutive(needles []string, haystack []store.Entry, ignoreCase bool) []store.Entry {
	return filter(needles, haystack, ignoreCase, consecutive)
}

// Terminal keeps entries whose final component contains the last needle
// and whose earlier components contain the other needles in order.
func Terminal(needles []string, haystack []store.Entry, ignoreCase bool) []store.Entry {
	return filter(needles, haystack, ignoreCase, terminal)
}

func filter(needles []string, haystack []store.Entry, ignoreCase bool, fn func(needles, comps []string) bool) []store.Entry {
	if len(needles) == 0 {
		return nil
	}

	n := newNormalizer(ignoreCase)
	ns := make([]string, len(needles))
	for i, needle := range needles {
		if strings.Contains(needle, "*") {
			return nil
		}
		ns[i] = n.apply(needle)
	}

	var out []store.Entry
	for _, e := range haystack {
		comps := Components(e.Path)
		for i := range comps {
			comps[i] = n.apply(comps[i])
		}
		if fn(ns, comps) {
			out = append(out, e)
		}
	}
	return out
}

type normalizer struct {
	fold cases.Caser
	on   bool
}

func newNormalizer(ignoreCase bool) *normalizer {
	n := &normalizer{on: ignoreCase}
	if ignoreCase {
		n.fold = cases.Fold()
	}
	return n
}

func (n *normalizer) apply(s string) string {
	s = norm.NFC.String(s)
	if n.on {
		s = n.fold.String(s)
	}
	return s
}

// inOrder places each needle at its earliest position at or after the end
// of the previous needle, moving to later components as needed. Earliest
// placement never rules out a match that a later placement would allow.
func inOrder(needles, comps []string) bool {
	c, off := 0, 0
	for _, needle := range needles {
		for {
			if c >= len(comps) {
				return false
			}
			if i := strings.Index(comps[c][off:], needle); i >= 0 {
				off += i + len(needle)
				break
			}
			c, off = c+1, 0
		}
	}
	return true
}

func consecutive(needles, comps []string) bool {
	for start := 0; start+len(needles) <= len(comps); start++ {
		ok := true
		for i, needle := range needles {
			if !strings.Contains(comps[start+i], needle) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func terminal(needles, comps []string) bool {
	if len(comps) == 0 {
		return false
	}
	last := len(comps) - 1
	if !strings.Contains(comps[last], needles[len(needles)-1]) {
		return false
	}
	return inOrder(needles[:len(needles)-1], comps[:last])
}
