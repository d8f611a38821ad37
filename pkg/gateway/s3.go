package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config holds object storage settings. Endpoint may point at R2 or MinIO.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	UsePathStyle    bool
}

// S3Gateway stores each key as an object. Versions are ETags and conditional
// writes use If-Match / If-None-Match.
type S3Gateway struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Gateway builds a client from static credentials when given, otherwise
// from the default AWS credential chain.
func NewS3Gateway(ctx context.Context, cfg S3Config) (*S3Gateway, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Gateway{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (g *S3Gateway) objectKey(key string) string {
	return g.prefix + key
}

func (g *S3Gateway) IsAvailable(ctx context.Context) (bool, error) {
	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(g.bucket)})
	return err == nil, nil
}

func (g *S3Gateway) GetData(ctx context.Context, key string) ([]byte, error) {
	b, err := g.GetVersioned(ctx, key)
	return b.Data, err
}

func (g *S3Gateway) GetVersioned(ctx context.Context, key string) (Blob, error) {
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(g.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return Blob{}, nil
		}
		return Blob{}, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Blob{}, fmt.Errorf("read object %s: %w", key, err)
	}
	return Blob{Data: data, Version: aws.ToString(out.ETag)}, nil
}

func (g *S3Gateway) SetData(ctx context.Context, key string, data []byte) (Receipt, error) {
	_, err := g.client.PutObject(ctx, g.putInput(key, data))
	if err != nil {
		return Receipt{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return newReceipt(key, data), nil
}

func (g *S3Gateway) SetIfVersion(ctx context.Context, key string, data []byte, version string) (Receipt, error) {
	in := g.putInput(key, data)
	if version == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(version)
	}

	if _, err := g.client.PutObject(ctx, in); err != nil {
		if isPreconditionFailure(err) {
			return Receipt{}, ErrVersionConflict
		}
		return Receipt{}, fmt.Errorf("conditional put %s: %w", key, err)
	}
	return newReceipt(key, data), nil
}

func (g *S3Gateway) putInput(key string, data []byte) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(g.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}
}

func isPreconditionFailure(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		return code == http.StatusPreconditionFailed || code == http.StatusConflict
	}
	return false
}

func (g *S3Gateway) Address(ctx context.Context) (string, error) {
	return "s3://" + g.bucket + "/" + g.prefix, nil
}

func (g *S3Gateway) Backend() string { return BackendS3 }

func (g *S3Gateway) Close() error { return nil }
