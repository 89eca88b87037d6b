package engine

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lazypower/waypoint/internal/match"
	"github.com/lazypower/waypoint/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	opts := store.DefaultOptions()
	opts.FoldCase = false
	return store.New(opts)
}

func TestRankEndToEnd(t *testing.T) {
	base := t.TempDir()
	foo := filepath.Join(base, "foo")
	foobar := filepath.Join(base, "foobar")
	foobarbar := filepath.Join(base, "foobarbar")

	st := testStore(t)
	for _, tc := range []struct {
		path string
		bump float64
	}{
		{foo, 1}, {foobar, 2}, {foobarbar, 3},
	} {
		st.Add(tc.path)
		st.Increase(tc.path, tc.bump)
	}

	got := Rank([]string{"foo"}, st, false)
	want := []string{foo, foobar, foobarbar}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rank = %q, want %q (ascending weight, best last)", got, want)
	}
}

func TestRankPrefersConsecutive(t *testing.T) {
	st := testStore(t)
	st.Increase("/foo/x/bar", 50)
	st.Increase("/foo/bar", 1)

	r := RankEntries([]string{"foo", "bar"}, st, false)
	if r.Strategy != "consecutive" {
		t.Errorf("Strategy = %q, want consecutive", r.Strategy)
	}
	if got := r.Paths(); !reflect.DeepEqual(got, []string{"/foo/bar"}) {
		t.Errorf("Paths = %q", got)
	}
}

func TestRankFallsBackToAnywhere(t *testing.T) {
	st := testStore(t)
	st.Increase("/foo/x/bar", 50)
	st.Increase("/foo/y/bar", 5)
	st.Increase("/other", 100)

	r := RankEntries([]string{"foo", "bar"}, st, false)
	if r.Strategy != "anywhere" {
		t.Errorf("Strategy = %q, want anywhere", r.Strategy)
	}
	if got := r.Paths(); !reflect.DeepEqual(got, []string{"/foo/y/bar", "/foo/x/bar"}) {
		t.Errorf("Paths = %q", got)
	}
	best, ok := r.Best()
	if !ok || best.Path != "/foo/x/bar" {
		t.Errorf("Best = %v, %v", best, ok)
	}
}

func TestRankNoMatch(t *testing.T) {
	st := testStore(t)
	st.Add("/foo")

	r := RankEntries([]string{"nothing"}, st, false)
	if len(r.Entries) != 0 || r.Strategy != "" {
		t.Errorf("Result = %+v, want empty", r)
	}
	if _, ok := r.Best(); ok {
		t.Error("Best on empty result reported ok")
	}
	if Rank([]string{"nothing"}, st, false) != nil {
		t.Error("Rank should return nil on no match")
	}
}

func TestRankEmptyQuery(t *testing.T) {
	st := testStore(t)
	st.Add("/foo")

	if got := Rank(nil, st, false); got != nil {
		t.Errorf("Rank(nil) = %q", got)
	}
	if got := Rank([]string{"", "/"}, st, false); got != nil {
		t.Errorf("Rank(empty tokens) = %q", got)
	}
}

func TestRankTrailingSeparator(t *testing.T) {
	st := testStore(t)
	st.Add("/src/waypoint")

	if got := Rank([]string{"waypoint/"}, st, false); !reflect.DeepEqual(got, []string{"/src/waypoint"}) {
		t.Errorf("Rank = %q", got)
	}
}

func TestRankIgnoreCase(t *testing.T) {
	st := testStore(t)
	st.Add("/home/me/Projects")

	if got := Rank([]string{"projects"}, st, false); got != nil {
		t.Errorf("case-sensitive Rank = %q", got)
	}
	if got := Rank([]string{"projects"}, st, true); len(got) != 1 {
		t.Errorf("ignore-case Rank = %q", got)
	}
}

func TestSortAscendingTieBreak(t *testing.T) {
	entries := []store.Entry{
		{Path: "/c", Weight: 2},
		{Path: "/b", Weight: 1},
		{Path: "/a", Weight: 2},
	}
	got := SortAscending(entries)
	want := []store.Entry{
		{Path: "/b", Weight: 1},
		{Path: "/a", Weight: 2},
		{Path: "/c", Weight: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortAscending = %v, want %v", got, want)
	}
}

func TestRankDoesNotMutateStore(t *testing.T) {
	st := testStore(t)
	st.Increase("/z", 9)
	st.Increase("/a", 1)

	Rank([]string{"a"}, st, false)
	entries := st.Entries()
	if entries[0].Path != "/z" {
		t.Errorf("store order changed: %v", entries)
	}
}

func TestNeedles(t *testing.T) {
	got, err := Needles([]string{"src/", "", `api\`})
	if err != nil {
		t.Fatalf("Needles: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"src", "api"}) {
		t.Errorf("Needles = %q", got)
	}
	if _, err := Needles([]string{"/", ""}); !errors.Is(err, match.ErrInvalidQuery) {
		t.Errorf("err = %v, want ErrInvalidQuery", err)
	}
}
