package store

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestReadParsesEntries(t *testing.T) {
	data := "10\t/home/user/src\n22.5\t/home/user/Program Files (x86)\n"
	s, err := Read(strings.NewReader(data), DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	e, ok := s.Get("/home/user/Program Files (x86)")
	if !ok {
		t.Fatal("path with spaces not loaded")
	}
	if e.Weight != 22.5 {
		t.Errorf("Weight = %v, want 22.5", e.Weight)
	}
}

func TestReadSkipsCorruptLines(t *testing.T) {
	data := strings.Join([]string{
		"10\t/good/one",
		"",
		"not-a-number\t/bad/weight",
		"no-separator-here",
		"-3\t/negative",
		"NaN\t/nan",
		"5\t",
		"   ",
		"7 /space/separated",
		"12.5\t/good/two\r",
	}, "\n")

	s, err := Read(strings.NewReader(data), DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3 (%v)", s.Len(), s.Entries())
	}
	if _, ok := s.Get("/good/two"); !ok {
		t.Error("CRLF line not loaded")
	}
	if e, ok := s.Get("/space/separated"); !ok || e.Weight != 7 {
		t.Errorf("space separated entry = %v, %v", e, ok)
	}

	skipped := s.Skipped()
	if len(skipped) != 5 {
		t.Fatalf("skipped %d lines, want 5: %v", len(skipped), skipped)
	}
	for _, le := range skipped {
		if !errors.Is(le, ErrCorruptFormat) {
			t.Errorf("%v is not ErrCorruptFormat", le)
		}
	}
	if skipped[0].Line != 3 {
		t.Errorf("first skipped line = %d, want 3", skipped[0].Line)
	}
}

func TestReadDuplicateLastWins(t *testing.T) {
	s, err := Read(strings.NewReader("1\t/a\n2\t/b\n3\t/a\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if e, _ := s.Get("/a"); e.Weight != 3 {
		t.Errorf("Weight = %v, want 3", e.Weight)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.txt"), DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
	if s.Recovered() {
		t.Error("Recovered = true for missing file")
	}
}

func TestLoadPersistLoadIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	writeFile(t, path, "10\t/a\n14.142135623730951\t/b/c\n0.1\t/中/国\n")

	first, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := first.Persist(path); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	second, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	a, b := first.Entries(), second.Entries()
	if len(a) != len(b) {
		t.Fatalf("reloaded %d entries, want %d", len(b), len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("entry %d = %v, want %v", i, b[i], a[i])
		}
	}
}

func TestPersistCreatesDirAndBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "data.txt")

	s := New(DefaultOptions())
	s.Add("/first")
	if err := s.Persist(path); err != nil {
		t.Fatalf("first Persist: %v", err)
	}
	if _, err := os.Stat(BackupPath(path)); !os.IsNotExist(err) {
		t.Errorf("backup exists after first persist: %v", err)
	}

	s.Add("/second")
	if err := s.Persist(path); err != nil {
		t.Fatalf("second Persist: %v", err)
	}

	bak, err := os.ReadFile(BackupPath(path))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(bak) != "10\t/first\n" {
		t.Errorf("backup = %q, want previous generation", bak)
	}
	cur, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read data: %v", err)
	}
	if string(cur) != "10\t/first\n10\t/second\n" {
		t.Errorf("data = %q", cur)
	}
}

func TestPersistFailsWithIOError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, "x")

	s := New(DefaultOptions())
	s.Add("/a")
	err := s.Persist(filepath.Join(blocker, "data.txt"))
	if err == nil {
		t.Fatal("expected error persisting under a regular file")
	}
	if !errors.Is(err, ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
}

func TestLoadRecoversFromBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	writeFile(t, path, "garbage\n\x00\x00\x00\n")
	writeFile(t, BackupPath(path), "10\t/from/backup\n")

	s, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Recovered() {
		t.Error("Recovered = false, want true")
	}
	if _, ok := s.Get("/from/backup"); !ok {
		t.Error("backup entry not loaded")
	}
}

func TestLoadKeepsPartialPrimary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	writeFile(t, path, "10\t/primary\ngarbage\n")
	writeFile(t, BackupPath(path), "10\t/from/backup\n")

	s, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Recovered() {
		t.Error("fell back to backup although primary had valid entries")
	}
	if _, ok := s.Get("/primary"); !ok {
		t.Error("primary entry missing")
	}
	if len(s.Skipped()) != 1 {
		t.Errorf("skipped = %d, want 1", len(s.Skipped()))
	}
}

func TestLoadUnreadablePrimaryUsesBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	// A directory where the data file should be cannot be read as a file.
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, BackupPath(path), "3\t/from/backup\n")

	s, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Recovered() || s.Len() != 1 {
		t.Errorf("Recovered = %v, Len = %d", s.Recovered(), s.Len())
	}
}

func TestLoadUnreadableWithoutBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if _, err := Load(path, DefaultOptions()); !errors.Is(err, ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
}

func TestEntryString(t *testing.T) {
	e := Entry{Path: "/a b/c", Weight: 14.142135623730951}
	if got := e.String(); got != "14.142135623730951\t/a b/c" {
		t.Errorf("String = %q", got)
	}
}

func TestPersistRoundTripWithHostileInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")

	s := New(DefaultOptions())
	s.Add("/keep")
	s.Increase("/inf", math.Inf(1))
	s.Increase("/nan", math.NaN())
	s.Add("/tmp/a\n5\t/etc")
	if err := s.Persist(path); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	got, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Skipped()) != 0 || got.Recovered() {
		t.Errorf("Skipped = %v, Recovered = %v", got.Skipped(), got.Recovered())
	}
	if want := s.Entries(); !reflect.DeepEqual(got.Entries(), want) {
		t.Errorf("reloaded %v, want %v", got.Entries(), want)
	}
	if _, ok := got.Get("/etc"); ok {
		t.Error("phantom /etc entry after reload")
	}
}
