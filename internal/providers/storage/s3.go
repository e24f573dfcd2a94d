package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/platebook/platebook/internal/config"
)

type S3Provider struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	privateBucket string
	publicBucket  string
	endpoint      string
	region        string
}

func NewS3(ctx context.Context, cfg config.StorageConfig) (*S3Provider, error) {
	if cfg.Bucket == "" || cfg.PublicBucket == "" {
		return nil, errors.New("storage bucket names must be set")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3Provider{
		s3Client:      client,
		presignClient: s3.NewPresignClient(client),
		privateBucket: cfg.Bucket,
		publicBucket:  cfg.PublicBucket,
		endpoint:      cfg.Endpoint,
		region:        cfg.Region,
	}, nil
}

func (p *S3Provider) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	if key == "" {
		return errors.New("object key is required")
	}

	_, err := p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.privateBucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	return err
}

func (p *S3Provider) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("object key is required")
	}

	resp, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.privateBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (p *S3Provider) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("object key is required")
	}

	_, err := p.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.privateBucket),
		Key:    aws.String(key),
	})
	return err
}

func (p *S3Provider) PresignGet(ctx context.Context, key string, lifetime time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("object key is required")
	}

	req, err := p.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.privateBucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = lifetime
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (p *S3Provider) PutPublic(ctx context.Context, key string, body []byte, contentType string) error {
	if key == "" {
		return errors.New("object key is required")
	}

	_, err := p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.publicBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	return err
}

func (p *S3Provider) DeletePublic(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("object key is required")
	}

	_, err := p.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.publicBucket),
		Key:    aws.String(key),
	})
	return err
}

// PublicURL builds a virtual-hosted style URL for an object in the public
// bucket. With no custom endpoint it falls back to the AWS regional form.
func (p *S3Provider) PublicURL(key string) string {
	if p.endpoint == "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.publicBucket, p.region, key)
	}

	u, err := url.Parse(p.endpoint)
	if err != nil {
		return ""
	}
	u.Scheme = "https"
	u.Host = fmt.Sprintf("%s.%s", p.publicBucket, u.Host)
	u.Path = "/" + key
	return u.String()
}
