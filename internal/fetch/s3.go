package fetch

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Fetcher downloads s3:// objects. The client is built lazily so
// local-only runs never touch AWS credential resolution.
type S3Fetcher struct {
	region     string
	downloader *manager.Downloader
}

// NewS3Fetcher creates a new S3 fetcher. An empty region defers to the
// SDK's own resolution chain.
func NewS3Fetcher(region string) *S3Fetcher {
	return &S3Fetcher{region: region}
}

// Name returns the fetcher name.
func (f *S3Fetcher) Name() string {
	return "s3"
}

// Match returns true for s3:// locations.
func (f *S3Fetcher) Match(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

// Fetch downloads the object into destDir, keeping the object's basename.
func (f *S3Fetcher) Fetch(ctx context.Context, location, destDir string) (string, error) {
	bucket, key, err := SplitURI(location)
	if err != nil {
		return "", err
	}

	dl, err := f.client(ctx)
	if err != nil {
		return "", err
	}

	local := filepath.Join(destDir, path.Base(key))
	out, err := os.Create(local)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := dl.Download(ctx, out, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		os.Remove(local)
		return "", fmt.Errorf("download %s: %w", location, err)
	}
	return local, nil
}

func (f *S3Fetcher) client(ctx context.Context) (*manager.Downloader, error) {
	if f.downloader != nil {
		return f.downloader, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if f.region != "" {
		opts = append(opts, awsconfig.WithRegion(f.region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	f.downloader = manager.NewDownloader(s3.NewFromConfig(cfg))
	return f.downloader, nil
}

// SplitURI splits an s3://bucket/key URI into bucket and key.
func SplitURI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed S3 URI: %s", uri)
	}
	return bucket, key, nil
}
