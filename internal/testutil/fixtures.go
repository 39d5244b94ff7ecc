// Package testutil provides utilities for testing.
package testutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// Thread dump fixtures shipped in the repository's testdata directory.
const (
	// FixtureSimple holds one snapshot with a single thread owning <0x1>.
	FixtureSimple = "simple.tdump"

	// FixtureDeadlock holds two snapshots; the first has two workers each
	// owning the monitor the other waits for.
	FixtureDeadlock = "deadlock.tdump"

	// FixtureGarbage holds one snapshot whose first thread has an
	// unrecognized stack line.
	FixtureGarbage = "garbage.tdump"
)

// GetTestDataPath returns the absolute path to a file in the testdata directory.
// It searches for testdata in the caller's directory and parent directories.
func GetTestDataPath(t *testing.T, filename string) string {
	t.Helper()

	_, callerFile, _, ok := runtime.Caller(1)
	if !ok {
		t.Fatal("failed to get caller file path")
	}
	if path, ok := findTestData(filepath.Dir(callerFile), filename); ok {
		return path
	}
	return filepath.Join("testdata", filename)
}

func findTestData(dir, filename string) (string, bool) {
	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, "testdata", filename)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		dir = filepath.Dir(dir)
	}
	return "", false
}

// LoadFixture loads a test fixture file and returns its contents.
func LoadFixture(t *testing.T, filename string) []byte {
	t.Helper()
	_, callerFile, _, _ := runtime.Caller(1)
	path, ok := findTestData(filepath.Dir(callerFile), filename)
	if !ok {
		t.Fatalf("fixture %s not found", filename)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", filename, err)
	}
	return data
}

// LoadFixtureReader loads a test fixture file and returns an io.Reader.
func LoadFixtureReader(t *testing.T, filename string) io.Reader {
	t.Helper()
	_, callerFile, _, _ := runtime.Caller(1)
	path, ok := findTestData(filepath.Dir(callerFile), filename)
	if !ok {
		t.Fatalf("fixture %s not found", filename)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", filename, err)
	}
	return bytes.NewReader(data)
}

// CopyFixture copies a fixture into dir and returns the new path.
func CopyFixture(t *testing.T, filename, dir string) string {
	t.Helper()
	_, callerFile, _, _ := runtime.Caller(1)
	src, ok := findTestData(filepath.Dir(callerFile), filename)
	if !ok {
		t.Fatalf("fixture %s not found", filename)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", filename, err)
	}
	return WriteFile(t, dir, filename, string(data))
}

// WriteFile writes content to a file in the given directory.
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

// ReadFile reads a file and returns its contents.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return string(data)
}
