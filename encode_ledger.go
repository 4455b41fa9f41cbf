package gemhub

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// CmdProfile identifies the line holding the portfolio owner settings.
const CmdProfile CommandType = "profile"

type profileCmd struct {
	Name              string      `json:"name"`
	PreferredCurrency string      `json:"currency"`
	RiskProfile       RiskProfile `json:"risk"`
	Strict            bool        `json:"strict"`
}

type declareCmd struct {
	Ticker   string   `json:"ticker"`
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Sector   string   `json:"sector"`
	Target   Percent  `json:"target"`
}

type quoteCmd struct {
	Ticker       string          `json:"ticker"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	Change       Percent         `json:"change"`
	ProvDividend decimal.Decimal `json:"provDividend"`
	DY           Percent         `json:"dy"`
	PVP          decimal.Decimal `json:"pvp"`
	Vacancy      Percent         `json:"vacancy"`
}

// DecodePortfolio reads a portfolio from a stream of JSONL lines, one command per line.
//
// Transactions are appended to their asset in reading order. An asset referenced before
// being declared is created with an inferred category. Positions are recomputed once
// everything is read; historical oversells are clamped even in strict mode.
func DecodePortfolio(r io.Reader) (*Portfolio, error) {
	p := NewPortfolio()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	asset := func(ticker string) (*Asset, error) {
		if a := p.Asset(ticker); a != nil {
			return a, nil
		}
		return p.Declare(ticker, NoCategory, "")
	}

	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		var identifier struct {
			Command CommandType `json:"command"`
			Ticker  string      `json:"ticker"`
		}
		if err := json.Unmarshal(b, &identifier); err != nil {
			return nil, fmt.Errorf("line %d: could not identify command: %w", line, err)
		}

		switch identifier.Command {
		case CmdProfile:
			var c profileCmd
			if err := json.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			risk, err := ParseRiskProfile(string(c.RiskProfile))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			p.Name, p.RiskProfile, p.Strict = c.Name, risk, c.Strict
			if c.PreferredCurrency != "" {
				p.PreferredCurrency = c.PreferredCurrency
			}

		case CmdDeclare:
			var c declareCmd
			if err := json.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			a, err := p.Declare(c.Ticker, c.Category, c.Sector)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if c.ID != "" {
				a.ID = c.ID
			}
			a.Target = c.Target

		case CmdBuy, CmdSell, CmdDividend:
			var tx Transaction
			if err := json.Unmarshal(b, &tx); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			a, err := asset(identifier.Ticker)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if tx, err = tx.Validate(); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if tx, err = tx.inCurrency(a.Currency()); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			a.transactions = append(a.transactions, tx)

		case CmdQuote:
			var c quoteCmd
			if err := json.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			a, err := asset(c.Ticker)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if c.Currency != "" && c.Currency != a.Currency() {
				return nil, fmt.Errorf("line %d: %s is quoted in %s, not %s", line, a.Ticker, a.Currency(), c.Currency)
			}
			a.CurrentPrice = M(c.Price, a.Currency())
			a.DailyChange = c.Change
			a.ProvDividend = M(c.ProvDividend, a.Currency())
			a.DY, a.PVP, a.Vacancy = c.DY, c.PVP, c.Vacancy

		default:
			return nil, fmt.Errorf("line %d: unknown command %q", line, identifier.Command)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}

	for _, a := range p.assets {
		if err := a.setTransactions(a.transactions, false); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// EncodePortfolio writes p as JSONL: the profile, then for each asset its declaration,
// its transactions in recording order and its last quote.
func EncodePortfolio(w io.Writer, p *Portfolio) error {
	bw := bufio.NewWriter(w)

	var pw jsonObjectWriter
	pw.Append("command", CmdProfile)
	pw.Optional("name", p.Name)
	pw.Optional("currency", p.PreferredCurrency)
	pw.Optional("risk", p.RiskProfile)
	pw.Optional("strict", p.Strict)
	if err := writeLine(bw, &pw); err != nil {
		return err
	}

	for _, a := range p.assets {
		var dw jsonObjectWriter
		dw.Append("command", CmdDeclare)
		dw.Append("ticker", a.Ticker)
		dw.Optional("id", a.ID)
		dw.Append("category", a.Category)
		dw.Optional("sector", a.Sector)
		dw.Optional("target", a.Target)
		if err := writeLine(bw, &dw); err != nil {
			return err
		}

		for _, tx := range a.transactions {
			if err := EncodeTransaction(bw, a.Ticker, tx); err != nil {
				return err
			}
		}

		var qw jsonObjectWriter
		qw.Append("command", CmdQuote)
		qw.Append("ticker", a.Ticker)
		qw.Append("price", a.CurrentPrice.Decimal())
		qw.Append("currency", a.Currency())
		qw.Optional("change", a.DailyChange)
		qw.Optional("provDividend", nonZero(a.ProvDividend.Decimal()))
		qw.Optional("dy", a.DY)
		qw.Optional("pvp", nonZero(a.PVP))
		qw.Optional("vacancy", a.Vacancy)
		if err := writeLine(bw, &qw); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeTransaction writes a single transaction of ticker as one JSONL line.
func EncodeTransaction(w io.Writer, ticker string, tx Transaction) error {
	var tw jsonObjectWriter
	tx.appendTo(&tw, ticker)
	return writeLine(w, &tw)
}

func writeLine(w io.Writer, ow *jsonObjectWriter) error {
	b, err := ow.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal line: %w", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}
	return nil
}
