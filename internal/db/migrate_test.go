package db

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSourceURL(t *testing.T) {
	got, err := SourceURL("")
	if err != nil {
		t.Fatalf("SourceURL() error = %v", err)
	}
	if !strings.HasPrefix(got, "file://") || !strings.HasSuffix(got, "/"+DefaultMigrationsPath) {
		t.Errorf("SourceURL() = %q", got)
	}

	dir := t.TempDir()
	got, err = SourceURL(dir)
	if err != nil {
		t.Fatalf("SourceURL() error = %v", err)
	}
	if got != "file://"+filepath.ToSlash(dir) {
		t.Errorf("SourceURL(%q) = %q", dir, got)
	}
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	if err := Migrate("", t.TempDir()); err == nil {
		t.Fatalf("expected an error for an empty database url")
	}
}
