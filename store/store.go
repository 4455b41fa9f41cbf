// Package store persists gemhub portfolios.
//
// Every Store saves and loads a whole portfolio: concurrent writers over the same
// storage are not coordinated, the last Save wins.
package store

import (
	"context"
	"fmt"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/config"
	"github.com/rs/zerolog"
)

// Store loads and saves a portfolio.
type Store interface {
	// Load returns the stored portfolio, or an empty one when nothing was stored yet.
	Load(ctx context.Context) (*gemhub.Portfolio, error)
	// Save replaces the stored portfolio with p.
	Save(ctx context.Context, p *gemhub.Portfolio) error
}

// Closer is implemented by stores holding resources.
type Closer interface {
	Close() error
}

// Open returns the Store selected by cfg, wrapped in a Notifier.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Notifier, error) {
	var s Store
	switch cfg.Store {
	case config.StoreFile:
		s = NewFile(cfg.LedgerFile)
	case config.StoreSQLite:
		db, err := OpenSQLite(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		s = db
	case config.StoreGCS:
		g, err := NewGCS(ctx, cfg.GCSBucket, cfg.GCSObject)
		if err != nil {
			return nil, err
		}
		s = g
	case config.StoreS3:
		b, err := NewS3(ctx, cfg.S3Bucket, cfg.S3Key, cfg.S3Endpoint)
		if err != nil {
			return nil, err
		}
		s = b
	case config.StoreMemory:
		s = NewMemory(nil)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
	log.Debug().Str("store", cfg.Store).Msg("store opened")
	return NewNotifier(s, log), nil
}

// Close closes s if it holds resources.
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}
