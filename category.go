package gemhub

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is the asset class of a holding.
//
// Everything that depends on the asset class (native currency, default sector,
// simulated volatility) is carried as data by the category itself.
type Category int

const (
	// NoCategory is the zero value, it means "not specified".
	NoCategory Category = iota
	// Crypto is a cryptocurrency quoted in USD.
	Crypto
	// FII is a Brazilian real-estate investment fund (Fundo de Investimento Imobiliário) quoted in BRL.
	FII
)

type categoryInfo struct {
	code       string
	name       string
	currency   string
	sector     string
	volatility float64 // amplitude of a simulated price tick, as a ratio
}

var categories = map[Category]categoryInfo{
	Crypto: {code: "CRYPTO", name: "Crypto", currency: "USD", sector: "Ouro Digital", volatility: 0.005},
	FII:    {code: "FII", name: "FIIs", currency: "BRL", sector: "Imobiliário", volatility: 0.001},
}

// Categories returns all the known categories, in display order.
func Categories() []Category { return []Category{Crypto, FII} }

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	_, ok := categories[c]
	return ok
}

// Code returns the persisted code ("CRYPTO", "FII").
func (c Category) Code() string { return categories[c].code }

// Name returns a human friendly name.
func (c Category) Name() string { return categories[c].name }

// Currency returns the native currency assets of this category are quoted in.
func (c Category) Currency() string { return categories[c].currency }

// DefaultSector returns the sector given to new assets of this category.
func (c Category) DefaultSector() string { return categories[c].sector }

// Volatility returns the amplitude of a simulated price tick, as a ratio.
func (c Category) Volatility() float64 { return categories[c].volatility }

func (c Category) String() string {
	if !c.IsValid() {
		return ""
	}
	return c.Code()
}

// ParseCategory parses a category code, case insensitive.
func ParseCategory(s string) (Category, error) {
	for c, info := range categories {
		if strings.EqualFold(s, info.code) || strings.EqualFold(s, info.name) {
			return c, nil
		}
	}
	return NoCategory, fmt.Errorf("unknown category %q, want one of CRYPTO, FII", s)
}

// InferCategory guesses the category of a ticker from the B3 naming convention:
// fund shares end with "11" (MXRF11, HGLG11), anything else is taken as a crypto symbol.
//
// It is ambiguous for unknown symbols (many B3 units also end with 11), callers should
// prefer an explicit category.
func InferCategory(ticker string) Category {
	if strings.HasSuffix(strings.TrimSpace(ticker), "11") {
		return FII
	}
	return Crypto
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*c = NoCategory
		return nil
	}
	v, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
