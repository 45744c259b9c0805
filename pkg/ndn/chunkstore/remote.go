package chunkstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/buckyos/ndnd/internal/logger"
)

// RemoteTier is the optional remote byte tier for Completed chunks:
// bytes above RemoteThreshold are pushed to it so the local filesystem
// does not have to hold every large chunk forever.
type RemoteTier interface {
	Put(ctx context.Context, chunkID string, r io.Reader, size int64) error
	Get(ctx context.Context, chunkID string) (io.ReadCloser, error)
	GetRange(ctx context.Context, chunkID string, start, end uint64) (io.ReadCloser, error)
	Exists(ctx context.Context, chunkID string) (bool, error)
	Delete(ctx context.Context, chunkID string) error
}

// S3RemoteConfig configures the S3-backed remote tier.
type S3RemoteConfig struct {
	Bucket          string
	KeyPrefix       string
	Region          string
	Endpoint        string // non-empty selects an S3-compatible endpoint (e.g. MinIO)
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3RemoteTier implements RemoteTier against Amazon S3 or an
// S3-compatible endpoint.
type S3RemoteTier struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// NewS3RemoteTier builds an S3RemoteTier from cfg, resolving AWS
// credentials the same way the SDK's default chain does unless static
// keys are supplied.
func NewS3RemoteTier(ctx context.Context, cfg S3RemoteConfig) (*S3RemoteTier, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 remote tier: bucket is required")
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("s3 remote tier: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3RemoteTier{client: client, bucket: cfg.Bucket, keyPrefix: cfg.KeyPrefix}, nil
}

func (t *S3RemoteTier) key(chunkID string) string {
	if t.keyPrefix == "" {
		return chunkID
	}
	return t.keyPrefix + "/" + chunkID
}

func (t *S3RemoteTier) Put(ctx context.Context, chunkID string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	_, err = t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &t.bucket,
		Key:           awsString(t.key(chunkID)),
		Body:          bytes.NewReader(data),
		ContentLength: awsInt64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("s3 remote tier: put %s: %w", chunkID, err)
	}
	logger.Debug("pushed chunk to remote tier", logger.ChunkID(chunkID), logger.Size(uint64(len(data))))
	return nil
}

func (t *S3RemoteTier) Get(ctx context.Context, chunkID string) (io.ReadCloser, error) {
	out, err := t.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &t.bucket, Key: awsString(t.key(chunkID))})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, errNotFoundRemote(chunkID)
		}
		return nil, fmt.Errorf("s3 remote tier: get %s: %w", chunkID, err)
	}
	return out.Body, nil
}

func (t *S3RemoteTier) GetRange(ctx context.Context, chunkID string, start, end uint64) (io.ReadCloser, error) {
	rng := fmt.Sprintf("bytes=%d-%d", start, end-1)
	out, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &t.bucket,
		Key:    awsString(t.key(chunkID)),
		Range:  &rng,
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, errNotFoundRemote(chunkID)
		}
		return nil, fmt.Errorf("s3 remote tier: get range %s: %w", chunkID, err)
	}
	return out.Body, nil
}

func (t *S3RemoteTier) Exists(ctx context.Context, chunkID string) (bool, error) {
	_, err := t.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &t.bucket, Key: awsString(t.key(chunkID))})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("s3 remote tier: head %s: %w", chunkID, err)
	}
	return true, nil
}

func (t *S3RemoteTier) Delete(ctx context.Context, chunkID string) error {
	_, err := t.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &t.bucket, Key: awsString(t.key(chunkID))})
	if err != nil {
		return fmt.Errorf("s3 remote tier: delete %s: %w", chunkID, err)
	}
	return nil
}

func awsString(s string) *string { return &s }
func awsInt64(n int64) *int64    { return &n }

type remoteNotFoundError struct{ chunkID string }

func (e *remoteNotFoundError) Error() string {
	return fmt.Sprintf("chunk %s not found in remote tier", e.chunkID)
}

func errNotFoundRemote(chunkID string) error { return &remoteNotFoundError{chunkID: chunkID} }
