package relocate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// LocalSink moves an artifact to a local destination path.
type LocalSink struct{}

// NewLocalSink creates a new local-path sink.
func NewLocalSink() *LocalSink {
	return &LocalSink{}
}

// Name returns the sink name.
func (s *LocalSink) Name() string {
	return "local"
}

// Match returns true for plain filesystem paths (no URI scheme).
func (s *LocalSink) Match(dest string) bool {
	return !strings.Contains(dest, "://")
}

// Place renames the artifact to dest, creating parent directories.
// Falls back to copy+delete across filesystems.
func (s *LocalSink) Place(ctx context.Context, localPath, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	if err := os.Rename(localPath, dest); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return err
		}
		// Cross-device fallback
		if cerr := copyFile(localPath, dest); cerr != nil {
			return fmt.Errorf("copy after cross-device rename: %w", cerr)
		}
		return os.Remove(localPath)
	}
	return nil
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
