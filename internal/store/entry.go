package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Entry is a visited path and its accumulated frecency weight.
// Entries are plain values: two entries are equal when path and weight are.
type Entry struct {
	Path   string
	Weight float64
}

// String renders the entry in the persisted line format, without the newline.
func (e Entry) String() string {
	return strconv.FormatFloat(e.Weight, 'f', -1, 64) + "\t" + e.Path
}

// parseLine parses "<weight>\t<path>". Lines without a tab fall back to the
// first run of spaces as the separator.
func parseLine(line string) (Entry, error) {
	var weight, path string
	if i := strings.IndexByte(line, '\t'); i >= 0 {
		weight, path = line[:i], line[i+1:]
	} else if i := strings.IndexByte(line, ' '); i >= 0 {
		weight, path = line[:i], strings.TrimLeft(line[i:], " ")
	} else {
		return Entry{}, fmt.Errorf("missing separator")
	}

	w, err := strconv.ParseFloat(strings.TrimSpace(weight), 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid weight %q", weight)
	}
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return Entry{}, fmt.Errorf("weight out of range: %v", w)
	}
	if path == "" {
		return Entry{}, fmt.Errorf("empty path")
	}
	return Entry{Path: path, Weight: w}, nil
}
