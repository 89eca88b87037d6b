package engine

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/lazypower/waypoint/internal/match"
	"github.com/lazypower/waypoint/internal/store"
)

// Strategy is one matcher in the ranking fallback chain.
type Strategy struct {
	Name  string
	Match match.Func
}

// Strategies are tried in order; the first with any match decides the result.
var Strategies = []Strategy{
	{Name: "consecutive", Match: match.Consecutive},
	{Name: "anywhere", Match: match.Anywhere},
	{Name: "terminal", Match: match.Terminal},
}

// Result is a ranked candidate list, lowest weight first.
type Result struct {
	Entries  []store.Entry
	Strategy string // empty when nothing matched
}

// Paths returns the candidate paths in result order.
func (r Result) Paths() []string {
	if len(r.Entries) == 0 {
		return nil
	}
	paths := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		paths[i] = e.Path
	}
	return paths
}

// Best returns the highest-weighted candidate, which is the last one.
func (r Result) Best() (store.Entry, bool) {
	if len(r.Entries) == 0 {
		return store.Entry{}, false
	}
	return r.Entries[len(r.Entries)-1], true
}

// Rank returns the paths matching tokens in ascending weight order, so the
// best guess comes last.
func Rank(tokens []string, st *store.Store, ignoreCase bool) []string {
	return RankEntries(tokens, st, ignoreCase).Paths()
}

// RankEntries orders the store by ascending weight and runs the strategy
// chain over it.
func RankEntries(tokens []string, st *store.Store, ignoreCase bool) Result {
	needles, err := Needles(tokens)
	if err != nil {
		return Result{}
	}

	haystack := SortAscending(st.Entries())
	for _, s := range Strategies {
		if matched := s.Match(needles, haystack, ignoreCase); len(matched) > 0 {
			slog.Debug("ranked", "component", "engine", "strategy", s.Name, "needles", needles, "matches", len(matched))
			return Result{Entries: matched, Strategy: s.Name}
		}
	}
	return Result{}
}

// SortAscending sorts entries in place by weight, lowest first. Equal
// weights order by path so results are deterministic.
func SortAscending(entries []store.Entry) []store.Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight < entries[j].Weight
		}
		return entries[i].Path < entries[j].Path
	})
	return entries
}

// Needles strips trailing separators from tokens and drops tokens left
// empty. It returns match.ErrInvalidQuery when nothing remains.
func Needles(tokens []string) ([]string, error) {
	var out []string
	for _, t := range tokens {
		t = strings.TrimRight(t, `/\`)
		if t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, match.ErrInvalidQuery
	}
	return out, nil
}
