package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/etnz/gemhub"
)

// S3 stores the JSONL ledger as a single object of an S3 bucket, on AWS or on any S3
// compatible service.
type S3 struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3 connects to S3. Credentials and region come from the environment unless opts
// say otherwise. A non empty endpoint selects an S3 compatible service, addressed in
// path style.
func NewS3(ctx context.Context, bucket, key, endpoint string, opts ...func(*config.LoadOptions) error) (*S3, error) {
	if bucket == "" {
		return nil, errors.New("s3 store: bucket is missing")
	}
	if key == "" {
		key = "gemhub.jsonl"
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
		// compatible services rarely support the default checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	return &S3{client: client, bucket: bucket, key: key}, nil
}

func (s *S3) url() string { return "s3://" + s.bucket + "/" + s.key }

// Load downloads and decodes the ledger. A missing object is an empty portfolio.
func (s *S3) Load(ctx context.Context) (*gemhub.Portfolio, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(s.key)})
	var missing *types.NoSuchKey
	if errors.As(err, &missing) {
		return gemhub.NewPortfolio(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.url(), err)
	}
	defer out.Body.Close()
	p, err := gemhub.DecodePortfolio(out.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", s.url(), err)
	}
	return p, nil
}

// Save encodes the whole ledger before uploading it, so that a failed encoding never
// replaces the object.
func (s *S3) Save(ctx context.Context, p *gemhub.Portfolio) error {
	var buf bytes.Buffer
	if err := gemhub.EncodePortfolio(&buf, p); err != nil {
		return fmt.Errorf("cannot encode %s: %w", s.url(), err)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String("application/jsonl"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", s.url(), err)
	}
	return nil
}
