package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"
)

// Storage backend names.
const (
	BackendFS     = "fs"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// DefaultDataset is the Lode dataset ID captures are written to.
const DefaultDataset = "monochrome"

// S3Config holds configuration for the S3 storage backend.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket.
	Prefix string
	// Region is the AWS region. Empty uses the default chain.
	Region string
	// Endpoint is a custom endpoint for S3-compatible providers
	// such as MinIO or R2.
	Endpoint string
	// UsePathStyle forces path-style addressing.
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// ParseS3Path parses "bucket/prefix" or "bucket".
func ParseS3Path(path string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(path, "/")
	return bucket, prefix
}

// BackendConfig selects where captures live.
type BackendConfig struct {
	// Backend is "fs", "s3" or "memory". Empty means "fs".
	Backend string
	// Path is the filesystem root for "fs", or "bucket/prefix" for "s3"
	// when S3.Bucket is empty.
	Path string
	S3   S3Config
}

// Factory returns a Lode store factory for cfg and the resolved backend name.
func Factory(ctx context.Context, cfg BackendConfig) (lode.StoreFactory, string, error) {
	switch cfg.Backend {
	case "", BackendFS:
		if cfg.Path == "" {
			return nil, "", errors.New("capture path is required for the fs backend")
		}
		return lode.NewFSFactory(cfg.Path), BackendFS, nil
	case BackendMemory:
		return lode.NewMemoryFactory(), BackendMemory, nil
	case BackendS3:
		s3cfg := cfg.S3
		if s3cfg.Bucket == "" {
			s3cfg.Bucket, s3cfg.Prefix = ParseS3Path(cfg.Path)
		}
		f, err := S3Factory(ctx, s3cfg)
		return f, BackendS3, err
	default:
		return nil, "", fmt.Errorf("unknown capture backend %q (want fs, s3 or memory)", cfg.Backend)
	}
}

// S3Factory creates an S3-backed store factory using the AWS default
// credential chain.
func S3Factory(ctx context.Context, s3cfg S3Config) (lode.StoreFactory, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, config.WithRegion(s3cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, WrapInitError(fmt.Errorf("load AWS config: %w", err), s3cfg.Bucket)
	}

	var s3Opts []func(*s3.Options)
	if s3cfg.Endpoint != "" {
		endpoint := s3cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if s3cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsConfig, s3Opts...)

	return func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{
			Bucket: s3cfg.Bucket,
			Prefix: s3cfg.Prefix,
		})
	}, nil
}

// newDataset opens the capture dataset. Reads and writes share the layout
// and codec.
func newDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	if dataset == "" {
		dataset = DefaultDataset
	}
	ds, err := lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout("day", "session", "kind"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, WrapInitError(err, dataset)
	}
	return ds, nil
}
