package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source reads a catalog's manifest and predicate files. The reference loader
// collaborator decides whether rules live on disk or in object storage; the
// loader only sees this interface.
type Source interface {
	// Manifest returns the raw rule manifest.
	Manifest(ctx context.Context) ([]byte, error)
	// Predicate returns the predicate body for a query name.
	Predicate(ctx context.Context, queryName string) ([]byte, error)
}

// DirSource reads a catalog from a filesystem directory laid out as
// rules_manifest.csv plus queries/<query_name>.sql.
type DirSource struct {
	dir string
}

// NewDirSource builds a filesystem catalog source.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Manifest(_ context.Context) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return raw, nil
}

func (s *DirSource) Predicate(_ context.Context, queryName string) ([]byte, error) {
	if strings.ContainsAny(queryName, `/\`) {
		return nil, fmt.Errorf("invalid query name %q", queryName)
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, QueryPrefix, queryName+".sql"))
	if err != nil {
		return nil, fmt.Errorf("read predicate %s: %w", queryName, err)
	}
	return raw, nil
}

// S3Source reads a catalog from an S3 bucket under a key prefix, same layout
// as DirSource.
type S3Source struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Source builds an object-storage catalog source using the default AWS
// credential chain.
func NewS3Source(ctx context.Context, bucket, prefix string) (*S3Source, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Source{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (s *S3Source) Manifest(ctx context.Context) ([]byte, error) {
	return s.get(ctx, ManifestName)
}

func (s *S3Source) Predicate(ctx context.Context, queryName string) ([]byte, error) {
	if strings.ContainsAny(queryName, `/\`) {
		return nil, fmt.Errorf("invalid query name %q", queryName)
	}
	return s.get(ctx, path.Join(QueryPrefix, queryName+".sql"))
}

func (s *S3Source) get(ctx context.Context, key string) ([]byte, error) {
	full := path.Join(s.prefix, key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &full})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, full, err)
	}
	defer func() {
		_ = out.Body.Close()
	}()
	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, full, err)
	}
	return raw, nil
}
