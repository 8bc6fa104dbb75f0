package relocate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/FredHutch/docker-sortmerna/internal/fetch"
)

// S3Sink uploads an artifact to an s3:// destination with SSE enabled,
// matching the original driver's `aws s3 cp --sse AES256` behavior.
type S3Sink struct {
	region   string
	uploader *manager.Uploader
}

// NewS3Sink creates a new S3 sink. An empty region defers to the SDK's
// own resolution chain.
func NewS3Sink(region string) *S3Sink {
	return &S3Sink{region: region}
}

// Name returns the sink name.
func (s *S3Sink) Name() string {
	return "s3"
}

// Match returns true for s3:// destinations.
func (s *S3Sink) Match(dest string) bool {
	return strings.HasPrefix(dest, "s3://")
}

// Place uploads the artifact to the destination object.
func (s *S3Sink) Place(ctx context.Context, localPath, dest string) error {
	bucket, key, err := fetch.SplitURI(dest)
	if err != nil {
		return err
	}

	up, err := s.client(ctx)
	if err != nil {
		return err
	}

	in, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer in.Close()

	if _, err := up.Upload(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(bucket),
		Key:                  aws.String(key),
		Body:                 in,
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	}); err != nil {
		return fmt.Errorf("upload to %s: %w", dest, err)
	}
	return nil
}

func (s *S3Sink) client(ctx context.Context) (*manager.Uploader, error) {
	if s.uploader != nil {
		return s.uploader, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if s.region != "" {
		opts = append(opts, awsconfig.WithRegion(s.region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	s.uploader = manager.NewUploader(s3.NewFromConfig(cfg))
	return s.uploader, nil
}
