package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

const ftpDialTimeout = 30 * time.Second

// FTPFetcher downloads ftp:// files, logging in anonymously unless the
// URL carries credentials.
type FTPFetcher struct{}

// NewFTPFetcher creates a new FTP fetcher.
func NewFTPFetcher() *FTPFetcher {
	return &FTPFetcher{}
}

// Name returns the fetcher name.
func (f *FTPFetcher) Name() string {
	return "ftp"
}

// Match returns true for ftp:// locations.
func (f *FTPFetcher) Match(location string) bool {
	return strings.HasPrefix(location, "ftp://")
}

// Fetch downloads the file into destDir, keeping the remote basename.
func (f *FTPFetcher) Fetch(ctx context.Context, location, destDir string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("malformed FTP URL %s: %w", location, err)
	}
	if u.Path == "" || u.Path == "/" {
		return "", fmt.Errorf("FTP URL has no file path: %s", location)
	}

	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "21")
	}

	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(ftpDialTimeout))
	if err != nil {
		return "", fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return "", fmt.Errorf("login to %s: %w", addr, err)
	}

	resp, err := conn.Retr(strings.TrimPrefix(u.Path, "/"))
	if err != nil {
		return "", fmt.Errorf("retrieve %s: %w", u.Path, err)
	}
	defer resp.Close()

	local := filepath.Join(destDir, path.Base(u.Path))
	out, err := os.Create(local)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp); err != nil {
		out.Close()
		os.Remove(local)
		return "", fmt.Errorf("download %s: %w", location, err)
	}
	return local, out.Close()
}
