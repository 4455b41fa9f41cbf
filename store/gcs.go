package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/etnz/gemhub"
	"google.golang.org/api/option"
)

// GCS stores the JSONL ledger as a single Cloud Storage object.
type GCS struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCS connects to Cloud Storage. Credentials come from the environment unless opts
// say otherwise.
func NewGCS(ctx context.Context, bucket, object string, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("gcs store: bucket is missing")
	}
	if object == "" {
		object = "gemhub.jsonl"
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, object: object}, nil
}

func (g *GCS) handle() *storage.ObjectHandle { return g.client.Bucket(g.bucket).Object(g.object) }

// Load downloads and decodes the ledger. A missing object is an empty portfolio.
func (g *GCS) Load(ctx context.Context) (*gemhub.Portfolio, error) {
	r, err := g.handle().NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return gemhub.NewPortfolio(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", g.bucket, g.object, err)
	}
	defer r.Close()
	p, err := gemhub.DecodePortfolio(r)
	if err != nil {
		return nil, fmt.Errorf("cannot decode gs://%s/%s: %w", g.bucket, g.object, err)
	}
	return p, nil
}

// Save uploads the encoded ledger. The object is replaced only if the upload completes.
func (g *GCS) Save(ctx context.Context, p *gemhub.Portfolio) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := g.handle().NewWriter(ctx)
	w.ContentType = "application/jsonl"
	if err := gemhub.EncodePortfolio(w, p); err != nil {
		cancel() // aborts the upload
		w.Close()
		return fmt.Errorf("failed to upload gs://%s/%s: %w", g.bucket, g.object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload gs://%s/%s: %w", g.bucket, g.object, err)
	}
	return nil
}

// Close releases the storage client.
func (g *GCS) Close() error { return g.client.Close() }
