package store

import (
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/text/cases"
)

// Options controls weight policy and key comparison for a Store.
type Options struct {
	// InitialWeight is the weight Add gives a new path.
	InitialWeight float64
	// Scale is k in sqrt(w² + (amount·k)²). Values <= 0 mean 1.
	Scale float64
	// FoldCase makes path keys case-insensitive (Unicode case folding).
	FoldCase bool
	// Logger receives warnings about skipped lines and backup recovery.
	Logger *slog.Logger
}

// DefaultOptions returns the default weight policy. The numbers are tuning
// choices, not a format contract. Case folding defaults on where the usual
// filesystem is case-insensitive.
func DefaultOptions() Options {
	return Options{
		InitialWeight: 10,
		Scale:         1,
		FoldCase:      runtime.GOOS == "windows" || runtime.GOOS == "darwin",
	}
}

// Store is the in-memory table of visited paths for one invocation.
// It is not safe for concurrent use.
type Store struct {
	opts    Options
	log     *slog.Logger
	entries []Entry        // insertion order
	index   map[string]int // key -> position in entries

	skipped   []*LineError
	recovered bool
}

// New returns an empty Store.
func New(opts Options) *Store {
	if !finite(opts.Scale) || opts.Scale <= 0 {
		opts.Scale = 1
	}
	if !finite(opts.InitialWeight) || opts.InitialWeight < 0 {
		opts.InitialWeight = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		opts:  opts,
		log:   logger.With("component", "store"),
		index: make(map[string]int),
	}
}

func (s *Store) key(path string) string {
	if s.opts.FoldCase {
		return cases.Fold().String(path)
	}
	return path
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// set writes path with weight, keeping the latest spelling of the path.
// Paths rejected by CheckPath are not stored.
func (s *Store) set(path string, weight float64) Entry {
	if err := CheckPath(path); err != nil {
		s.log.Warn("refusing path", "err", err)
		return Entry{}
	}
	if weight > math.MaxFloat64 {
		weight = math.MaxFloat64
	}
	e := Entry{Path: path, Weight: weight}
	k := s.key(path)
	if i, ok := s.index[k]; ok {
		s.entries[i] = e
		return e
	}
	s.index[k] = len(s.entries)
	s.entries = append(s.entries, e)
	return e
}

// Get returns the entry for path.
func (s *Store) Get(path string) (Entry, bool) {
	i, ok := s.index[s.key(path)]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Total returns the sum of all weights.
func (s *Store) Total() float64 {
	var total float64
	for _, e := range s.entries {
		total += e.Weight
	}
	return total
}

// Entries returns a copy of the entries in insertion order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Skipped returns the corrupt lines ignored while loading.
func (s *Store) Skipped() []*LineError {
	return s.skipped
}

// Recovered reports whether the store was loaded from the backup file.
func (s *Store) Recovered() bool {
	return s.recovered
}

// Add inserts path at the initial weight. An existing path keeps its weight.
// Paths rejected by CheckPath are ignored and yield the zero Entry.
func (s *Store) Add(path string) Entry {
	if e, ok := s.Get(path); ok {
		return s.set(path, e.Weight)
	}
	return s.set(path, s.opts.InitialWeight)
}

// Increase raises the weight of path to sqrt(w² + (amount·k)²), inserting it
// at zero first if absent. Heavier paths gain less per visit. A NaN or
// infinite amount counts as zero.
func (s *Store) Increase(path string, amount float64) Entry {
	if !finite(amount) {
		amount = 0
	}
	e, _ := s.Get(path)
	return s.set(path, math.Hypot(e.Weight, amount*s.opts.Scale))
}

// Decrease lowers the weight of path to sqrt(w² - (amount·k)²), floored at 0.
// It reports false when path is not in the store. A NaN or infinite amount
// counts as zero.
func (s *Store) Decrease(path string, amount float64) (Entry, bool) {
	e, ok := s.Get(path)
	if !ok {
		return Entry{}, false
	}
	if !finite(amount) {
		amount = 0
	}
	d := amount * s.opts.Scale
	sq := e.Weight*e.Weight - d*d
	if sq <= 0 {
		return s.set(path, 0), true
	}
	return s.set(path, math.Sqrt(sq)), true
}

// Decay multiplies every weight by factor when the total weight exceeds
// threshold. It reports whether the weights were scaled.
func (s *Store) Decay(threshold, factor float64) (bool, error) {
	if !(factor > 0 && factor < 1) || !(threshold >= 0) {
		return false, ErrInvalidDecay
	}
	if s.Total() <= threshold {
		return false, nil
	}
	for i := range s.entries {
		s.entries[i].Weight *= factor
	}
	return true, nil
}

// Purge removes every entry whose path satisfies pred and returns the
// removed entries in store order.
func (s *Store) Purge(pred func(path string) bool) []Entry {
	var removed []Entry
	kept := s.entries[:0]
	for _, e := range s.entries {
		if pred(e.Path) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	if len(removed) == 0 {
		return nil
	}
	s.entries = kept
	s.reindex()
	return removed
}

// Remove drops a single path. It reports whether the path was present.
func (s *Store) Remove(path string) bool {
	i, ok := s.index[s.key(path)]
	if !ok {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.reindex()
	return true
}

func (s *Store) reindex() {
	clear(s.index)
	for i, e := range s.entries {
		s.index[s.key(e.Path)] = i
	}
}
