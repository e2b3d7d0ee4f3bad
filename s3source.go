package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3API is the subset of *s3.Client used by S3Source.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads byte ranges of an S3 object.
type S3Source struct {
	client S3API
	bucket string
	key    string
}

func NewS3Source(client S3API, bucket, key string) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key}
}

// NewS3Client loads the default AWS configuration. An empty endpoint keeps the AWS default.
func NewS3Client(ctx context.Context, endpoint string, pathStyle bool) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = pathStyle
	}), nil
}

func s3Error(err error) error {
	var notfound *types.NotFound
	var nosuchkey *types.NoSuchKey
	if errors.As(err, &notfound) || errors.As(err, &nosuchkey) {
		return newError(KindNotFound, "", err)
	}
	var apierr smithy.APIError
	if errors.As(err, &apierr) {
		switch apierr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return newError(KindNotFound, "", err)
		}
	}
	return newError(KindTransport, "", err)
}

func (s *S3Source) Size(ctx context.Context) (uint64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return 0, s3Error(err)
	}
	if out.ContentLength == nil || *out.ContentLength < 0 {
		return 0, errorf(KindNotFound, "", "s3://%s/%s: no content length", s.bucket, s.key)
	}
	slog.Debug("head object", "bucket", s.bucket, "key", s.key, "length", *out.ContentLength)
	return uint64(*out.ContentLength), nil
}

func (s *S3Source) ReadRange(ctx context.Context, from, to uint64) ([]byte, error) {
	length, err := rangeLength(from, to)
	if err != nil {
		return nil, err
	}
	spec := fmt.Sprintf("bytes=%d-%d", from, to)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(spec),
	})
	if err != nil {
		return nil, s3Error(err)
	}
	defer out.Body.Close()
	buf := bytes.NewBuffer(make([]byte, 0, min(length, maxInitialBuffer)))
	if _, err = io.Copy(buf, io.LimitReader(out.Body, int64(length)+1)); err != nil {
		return nil, newError(KindTransport, "", err)
	}
	slog.Debug("get object", "bucket", s.bucket, "key", s.key, "range", spec, "length", buf.Len())
	if err = checkRange(buf.Bytes(), from, to); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
