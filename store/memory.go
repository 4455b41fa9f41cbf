package store

import (
	"context"
	"sync"

	"github.com/etnz/gemhub"
)

// Memory keeps the portfolio in process. It stores and returns copies.
type Memory struct {
	mu sync.Mutex
	p  *gemhub.Portfolio
}

// NewMemory returns a Memory store holding a copy of p, or nothing if p is nil.
func NewMemory(p *gemhub.Portfolio) *Memory {
	m := &Memory{}
	if p != nil {
		m.p = p.Clone()
	}
	return m
}

func (m *Memory) Load(ctx context.Context) (*gemhub.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.p == nil {
		return gemhub.NewPortfolio(), nil
	}
	return m.p.Clone(), nil
}

func (m *Memory) Save(ctx context.Context, p *gemhub.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.p = p.Clone()
	return nil
}
