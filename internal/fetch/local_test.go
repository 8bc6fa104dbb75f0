package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalFetcher_Fetch(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "sample.fastq")
	content := "@read1\nACGT\n+\nFFFF\n"
	if err := os.WriteFile(src, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	destDir := t.TempDir()
	f := NewLocalFetcher()

	local, err := f.Fetch(context.Background(), src, destDir)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if filepath.Dir(local) != destDir {
		t.Errorf("Fetch() = %q, want file inside %q", local, destDir)
	}
	if filepath.Base(local) != "sample.fastq" {
		t.Errorf("Fetch() basename = %q, want %q", filepath.Base(local), "sample.fastq")
	}

	got, err := os.ReadFile(local)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Errorf("fetched content = %q, want %q", string(got), content)
	}

	// The caller's file is untouched
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source file disturbed: %v", err)
	}
}

func TestLocalFetcher_Fetch_RelativePath(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "sample.fastq")
	if err := os.WriteFile(src, []byte("@r\nA\n+\nF\n"), 0644); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)
	if err := os.Chdir(srcDir); err != nil {
		t.Fatal(err)
	}

	f := NewLocalFetcher()
	local, err := f.Fetch(context.Background(), "sample.fastq", t.TempDir())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if _, err := os.Stat(local); err != nil {
		t.Errorf("fetched file missing: %v", err)
	}
}

func TestLocalFetcher_Fetch_Missing(t *testing.T) {
	f := NewLocalFetcher()

	_, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.fastq"), t.TempDir())
	if err == nil {
		t.Error("Fetch() error = nil, want error for missing file")
	}
}
