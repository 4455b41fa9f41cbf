package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/etnz/gemhub"
)

// File stores the portfolio as a JSONL ledger file.
type File struct {
	Path string
}

// NewFile returns a File store for path.
func NewFile(path string) *File { return &File{Path: path} }

// Load decodes the ledger file. A missing file is an empty portfolio.
func (f *File) Load(ctx context.Context) (*gemhub.Portfolio, error) {
	r, err := os.Open(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return gemhub.NewPortfolio(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger %q: %w", f.Path, err)
	}
	defer r.Close()

	p, err := gemhub.DecodePortfolio(r)
	if err != nil {
		return nil, fmt.Errorf("cannot decode ledger %q: %w", f.Path, err)
	}
	return p, nil
}

// Save writes the ledger to a temporary file next to Path and renames it, so that a
// failed write never truncates the previous ledger.
func (f *File) Save(ctx context.Context, p *gemhub.Portfolio) error {
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return fmt.Errorf("cannot save ledger %q: %w", f.Path, err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if err := gemhub.EncodePortfolio(tmp, p); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot encode ledger %q: %w", f.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot save ledger %q: %w", f.Path, err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("cannot save ledger %q: %w", f.Path, err)
	}
	return nil
}
