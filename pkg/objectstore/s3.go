package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/brandloom/agentforge/pkg/apperr"
	"github.com/brandloom/agentforge/pkg/capability"
)

// S3Config configures an S3-compatible object store.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // non-empty for S3-compatible services (R2, MinIO)
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3 implements capability.ObjectStorePort over an S3-compatible bucket.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, apperr.New(apperr.KindValidation, "objectstore: s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	loadOptions := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "objectstore: load aws config", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *S3) Put(ctx context.Context, key string, content []byte, mimeType string) (string, error) {
	objKey := s.objectKey(key)
	input := &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &objKey,
		Body:   bytes.NewReader(content),
	}
	if mimeType != "" {
		input.ContentType = aws.String(mimeType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", apperr.Wrap(apperr.KindTransient, "objectstore: s3 put object", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, objKey), nil
}

func (s *S3) Get(ctx context.Context, uri string) ([]byte, string, error) {
	objKey, err := s.keyFromURI(uri)
	if err != nil {
		return nil, "", err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &objKey})
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindTransient, "objectstore: s3 get object", err)
	}
	defer out.Body.Close()
	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "objectstore: read s3 body", err)
	}
	mimeType := ""
	if out.ContentType != nil {
		mimeType = *out.ContentType
	}
	return content, mimeType, nil
}

func (s *S3) Delete(ctx context.Context, uri string) error {
	objKey, err := s.keyFromURI(uri)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &objKey}); err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil
		}
		return apperr.Wrap(apperr.KindTransient, "objectstore: s3 delete object", err)
	}
	return nil
}

func (s *S3) SignedURL(ctx context.Context, uri string, expiry int) (string, error) {
	objKey, err := s.keyFromURI(uri)
	if err != nil {
		return "", err
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &objKey},
		s3.WithPresignExpires(time.Duration(expiry)*time.Second))
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", apperr.Wrap(apperr.KindPermanent, "objectstore: presign url", err)
		}
		return "", apperr.Wrap(apperr.KindTransient, "objectstore: presign url", err)
	}
	return req.URL, nil
}

func (s *S3) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3) keyFromURI(uri string) (string, error) {
	rest := strings.TrimPrefix(uri, "s3://")
	if rest == uri {
		return "", apperr.New(apperr.KindValidation, "objectstore: not an s3:// uri: "+uri)
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		return "", apperr.New(apperr.KindValidation, "objectstore: malformed s3 uri: "+uri)
	}
	return parts[1], nil
}

var _ capability.ObjectStorePort = (*S3)(nil)
