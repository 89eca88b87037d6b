package store

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// BackupPath returns the backup file kept next to a data file.
func BackupPath(path string) string {
	return path + ".bak"
}

// LockPath returns the advisory lock file used while persisting.
func LockPath(path string) string {
	return path + ".lock"
}

// Read parses a data file from r. Corrupt lines are skipped and reported
// through Skipped; only read failures are returned.
func Read(r io.Reader, opts Options) (*Store, error) {
	s := New(opts)

	// No line length limit.
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read store: %w: %w", ErrIO, err)
		}
		if raw != "" {
			lineNo++
			s.readLine(lineNo, strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r"))
		}
		if err != nil {
			break
		}
	}
	return s, nil
}

func (s *Store) readLine(lineNo int, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	e, err := parseLine(line)
	if err != nil {
		s.skipped = append(s.skipped, &LineError{Line: lineNo, Text: line, Reason: err.Error()})
		s.log.Warn("skipping corrupt line", "line", lineNo, "reason", err.Error())
		return
	}
	s.set(e.Path, e.Weight)
}

// Load reads the data file at path. A missing file yields an empty store.
// When the file cannot be read, or holds lines but no valid entry, Load
// falls back to the backup file if that has entries.
func Load(path string, opts Options) (*Store, error) {
	s, err := loadFile(path, opts)
	if err == nil && !(s.Len() == 0 && len(s.skipped) > 0) {
		return s, nil
	}

	b, berr := loadFile(BackupPath(path), opts)
	if berr != nil || b.Len() == 0 {
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	b.recovered = true
	b.log.Warn("loaded store from backup", "path", path, "backup", BackupPath(path))
	return b, nil
}

func loadFile(path string, opts Options) (*Store, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(opts), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w: %w", ErrIO, err)
	}
	defer f.Close()
	return Read(f, opts)
}

// WriteTo writes the store in the data file format, in insertion order.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, e := range s.entries {
		m, err := bw.WriteString(e.String() + "\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Persist writes the store to path. The previous content is copied to the
// backup file first, then the new content replaces path atomically, so a
// crash never leaves a truncated data file. An advisory lock keeps two
// writers from interleaving those steps; the later writer still wins.
func (s *Store) Persist(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create data dir: %w: %w", ErrIO, err)
	}

	lock := flock.New(LockPath(path))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w: %w", path, ErrIO, err)
	}
	defer lock.Unlock()

	if err := backup(path); err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("persist %s: %w: %w", path, ErrIO, err)
	}
	return nil
}

// backup copies the current data file to its backup slot. Nothing to copy
// is not an error.
func backup(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s for backup: %w: %w", path, ErrIO, err)
	}
	if err := writeAtomic(BackupPath(path), data); err != nil {
		return fmt.Errorf("backup %s: %w: %w", path, ErrIO, err)
	}
	return nil
}
