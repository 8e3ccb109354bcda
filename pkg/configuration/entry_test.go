package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adamczapla/dropclone/pkg/core"
)

func TestSanitizeRequiresSourceAndDestination(t *testing.T) {
	cases := []EntryConfiguration{
		{Destination: "/tmp/dst", Mode: "copy"},
		{Source: "/tmp/src", Mode: "copy"},
	}
	for _, raw := range cases {
		if _, err := raw.sanitize(); err == nil {
			t.Errorf("expected an error for %+v", raw)
		} else if coded, ok := err.(*ConfigError); !ok || coded.Code != ErrMissingRequiredField {
			t.Errorf("expected ErrMissingRequiredField, got %v", err)
		}
	}
}

func TestSanitizeRequiresAbsolutePaths(t *testing.T) {
	raw := EntryConfiguration{Source: "relative/src", Destination: "/tmp/dst", Mode: "copy"}
	_, err := raw.sanitize()
	coded, ok := err.(*ConfigError)
	if !ok || coded.Code != ErrPathNotAbsolute {
		t.Fatalf("expected ErrPathNotAbsolute, got %v", err)
	}
}

func TestSanitizeRejectsInvalidMode(t *testing.T) {
	raw := EntryConfiguration{Source: "/tmp/src", Destination: "/tmp/dst", Mode: "teleport"}
	_, err := raw.sanitize()
	coded, ok := err.(*ConfigError)
	if !ok || coded.Code != ErrInvalidCloneMode {
		t.Fatalf("expected ErrInvalidCloneMode, got %v", err)
	}
}

func TestSanitizeAcceptsModeCaseInsensitively(t *testing.T) {
	raw := EntryConfiguration{Source: "/tmp/src", Destination: "/tmp/dst", Mode: "CoPy"}
	compiled, err := raw.sanitize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if compiled.mode != core.ModeCopy {
		t.Errorf("expected ModeCopy, got %v", compiled.mode)
	}
}

func TestSanitizeRejectsConflictingExcludeInclude(t *testing.T) {
	raw := EntryConfiguration{
		Source: "/tmp/src", Destination: "/tmp/dst", Mode: "copy",
		Exclude: []string{`\.log$`}, Include: []string{`\.txt$`},
	}
	_, err := raw.sanitize()
	coded, ok := err.(*ConfigError)
	if !ok || coded.Code != ErrConflictingFields {
		t.Fatalf("expected ErrConflictingFields, got %v", err)
	}
}

func TestSanitizeRejectsInvalidRegex(t *testing.T) {
	raw := EntryConfiguration{
		Source: "/tmp/src", Destination: "/tmp/dst", Mode: "copy",
		Exclude: []string{`([`},
	}
	_, err := raw.sanitize()
	coded, ok := err.(*ConfigError)
	if !ok || coded.Code != ErrParseError {
		t.Fatalf("expected ErrParseError, got %v", err)
	}
}

func TestCompileFilterExcludesMatchingPaths(t *testing.T) {
	raw := EntryConfiguration{
		Source: "/tmp/src", Destination: "/tmp/dst", Mode: "copy",
		Exclude: []string{`\.log$`},
	}
	compiled, err := raw.sanitize()
	if err != nil {
		t.Fatal(err)
	}
	entry := compiled.Compile()

	if entry.Filter("/tmp/src/a.txt") != true {
		t.Error("expected a.txt to pass the filter")
	}
	if entry.Filter("/tmp/src/a.log") != false {
		t.Error("expected a.log to be excluded")
	}
	if entry.Filter("/other/a.txt") != false {
		t.Error("expected a path outside source to be rejected")
	}
}

func TestCompileFilterIncludeIsAllowList(t *testing.T) {
	raw := EntryConfiguration{
		Source: "/tmp/src", Destination: "/tmp/dst", Mode: "copy",
		Include: []string{`\.txt$`},
	}
	compiled, err := raw.sanitize()
	if err != nil {
		t.Fatal(err)
	}
	entry := compiled.Compile()

	if !entry.Filter("/tmp/src/a.txt") {
		t.Error("expected a.txt to be included")
	}
	if entry.Filter("/tmp/src/a.bin") {
		t.Error("expected a.bin to be excluded by the include allow-list")
	}
}

func TestCompileFilterHonorsIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	ignorePath := filepath.Join(dir, ".dropcloneignore")
	if err := os.WriteFile(ignorePath, []byte("# comment\n*.tmp\nbuild/**\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	raw := EntryConfiguration{
		Source: "/tmp/src", Destination: "/tmp/dst", Mode: "copy",
		IgnoreFile: ignorePath,
	}
	compiled, err := raw.sanitize()
	if err != nil {
		t.Fatal(err)
	}
	entry := compiled.Compile()

	if entry.Filter("/tmp/src/scratch.tmp") {
		t.Error("expected *.tmp to be ignored")
	}
	if entry.Filter("/tmp/src/build/output.txt") {
		t.Error("expected build/** to be ignored")
	}
	if !entry.Filter("/tmp/src/keep.txt") {
		t.Error("expected keep.txt to pass")
	}
}

func TestSanitizeRejectsInvalidIgnoreFilePattern(t *testing.T) {
	dir := t.TempDir()
	ignorePath := filepath.Join(dir, ".dropcloneignore")
	if err := os.WriteFile(ignorePath, []byte("[unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	raw := EntryConfiguration{
		Source: "/tmp/src", Destination: "/tmp/dst", Mode: "copy",
		IgnoreFile: ignorePath,
	}
	_, err := raw.sanitize()
	coded, ok := err.(*ConfigError)
	if !ok || coded.Code != ErrParseError {
		t.Fatalf("expected ErrParseError, got %v", err)
	}
}

func TestHasConflictDetectsAncestorAndDescendant(t *testing.T) {
	root := newPathNode()
	if hasConflict(root, "/data/projects") {
		t.Fatal("first insertion should never conflict")
	}
	if !hasConflict(root, "/data/projects/sub") {
		t.Error("expected a descendant of an existing path to conflict")
	}
}

func TestHasConflictDetectsExactDuplicate(t *testing.T) {
	root := newPathNode()
	hasConflict(root, "/data/projects")
	if !hasConflict(root, "/data/projects") {
		t.Error("expected inserting the same path twice to conflict")
	}
}

func TestHasConflictAllowsDisjointPaths(t *testing.T) {
	root := newPathNode()
	hasConflict(root, "/data/projects")
	if hasConflict(root, "/data/archive") {
		t.Error("expected sibling paths to not conflict")
	}
}

func TestHasConflictAncestorInsertedAfterDescendant(t *testing.T) {
	root := newPathNode()
	hasConflict(root, "/data/projects/sub")
	if !hasConflict(root, "/data/projects") {
		t.Error("expected an ancestor inserted after its descendant to conflict")
	}
}
