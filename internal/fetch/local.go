package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalFetcher links an existing local file into the run directory so
// later staging steps (gunzip) never touch the caller's copy.
type LocalFetcher struct{}

// NewLocalFetcher creates a new local-path fetcher.
func NewLocalFetcher() *LocalFetcher {
	return &LocalFetcher{}
}

// Name returns the fetcher name.
func (f *LocalFetcher) Name() string {
	return "local"
}

// Match returns true for plain filesystem paths (no URI scheme).
func (f *LocalFetcher) Match(location string) bool {
	return !strings.Contains(location, "://")
}

// Fetch symlinks the file into destDir, falling back to a copy when
// symlinking is not possible.
func (f *LocalFetcher) Fetch(ctx context.Context, location, destDir string) (string, error) {
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("input file does not exist: %s", location)
	}

	local := filepath.Join(destDir, filepath.Base(abs))
	if err := os.Symlink(abs, local); err != nil {
		if err := copyFile(abs, local); err != nil {
			return "", err
		}
	}
	return local, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
