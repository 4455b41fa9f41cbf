package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/date"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLite stores the portfolio in a SQLite database.
//
// Save writes a full snapshot inside a single database transaction: readers never see
// half of a portfolio.
type SQLite struct {
	db  *sql.DB
	log zerolog.Logger
}

// OpenSQLite opens the database at path and applies pending migrations.
// Use ":memory:" for a throw away database.
func OpenSQLite(ctx context.Context, path string, log zerolog.Logger) (*SQLite, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	// a single connection avoids SQLITE_BUSY and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := runMigrations(db, log); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("path", path).Msg("database ready")
	return &SQLite{db: db, log: log}, nil
}

func runMigrations(db *sql.DB, log zerolog.Logger) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite migration driver: %w", err)
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not read migrations: %w", err)
	}
	// m is not closed: closing it would close db.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration instance creation failed: %w", err)
	}
	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		log.Debug().Msg("no new database migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to apply migrations: %w", err)
	default:
		log.Info().Msg("database migrations applied")
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// Load reads the portfolio back. An empty database is an empty portfolio.
func (s *SQLite) Load(ctx context.Context) (*gemhub.Portfolio, error) {
	p := gemhub.NewPortfolio()

	var risk string
	err := s.db.QueryRowContext(ctx, `SELECT name, currency, risk, strict FROM profile WHERE id = 1`).
		Scan(&p.Name, &p.PreferredCurrency, &risk, &p.Strict)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to read profile: %w", err)
	default:
		if p.RiskProfile, err = gemhub.ParseRiskProfile(risk); err != nil {
			return nil, err
		}
	}

	txs, err := s.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker, category, sector, target, price, daily_change, prov_dividend, dy, pvp, vacancy
		FROM assets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to read assets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id, ticker, category, sector string
			price, prov, pvp             string
			target, change, dy, vacancy  float64
		)
		if err := rows.Scan(&id, &ticker, &category, &sector, &target, &price, &change, &prov, &dy, &pvp, &vacancy); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		c, err := gemhub.ParseCategory(category)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", ticker, err)
		}
		a, err := p.Restore(id, ticker, c, sector, txs[id])
		if err != nil {
			return nil, err
		}
		var dp, dprov, dpvp decimal.Decimal
		for _, f := range []struct {
			s string
			d *decimal.Decimal
		}{{price, &dp}, {prov, &dprov}, {pvp, &dpvp}} {
			if *f.d, err = decimal.NewFromString(f.s); err != nil {
				return nil, fmt.Errorf("asset %s: %w", ticker, err)
			}
		}
		a.CurrentPrice = gemhub.M(dp, a.Currency())
		a.ProvDividend = gemhub.M(dprov, a.Currency())
		a.PVP = dpvp
		a.Target = gemhub.Percent(target)
		a.DailyChange = gemhub.Percent(change)
		a.DY = gemhub.Percent(dy)
		a.Vacancy = gemhub.Percent(vacancy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assets: %w", err)
	}
	return p, nil
}

// loadTransactions returns the transactions by asset id, in recording order.
func (s *SQLite) loadTransactions(ctx context.Context) (map[string][]gemhub.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, asset_id, type, date, quantity, price, fees, source, memo
		FROM transactions ORDER BY asset_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	defer rows.Close()

	txs := make(map[string][]gemhub.Transaction)
	for rows.Next() {
		var (
			tx                                       gemhub.Transaction
			assetID, typ, day, qty, price, fees, src string
		)
		if err := rows.Scan(&tx.ID, &assetID, &typ, &day, &qty, &price, &fees, &src, &tx.Memo); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Date, err = date.Parse(day); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		dq, err := decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("transaction %s quantity: %w", tx.ID, err)
		}
		dp, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("transaction %s price: %w", tx.ID, err)
		}
		df, err := decimal.NewFromString(fees)
		if err != nil {
			return nil, fmt.Errorf("transaction %s fees: %w", tx.ID, err)
		}
		tx.Type = gemhub.CommandType(typ)
		tx.Source = gemhub.Source(src)
		tx.Quantity = gemhub.Q(dq)
		// currencies are restored from the asset.
		tx.Price = gemhub.M(dp, "")
		tx.Fees = gemhub.M(df, "")
		txs[assetID] = append(txs[assetID], tx)
	}
	return txs, rows.Err()
}

// Save replaces the stored portfolio with p.
func (s *SQLite) Save(ctx context.Context, p *gemhub.Portfolio) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, stmt := range []string{`DELETE FROM transactions`, `DELETE FROM assets`, `DELETE FROM profile`} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear portfolio: %w", err)
		}
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO profile (id, name, currency, risk, strict) VALUES (1, ?, ?, ?, ?)`,
		p.Name, p.PreferredCurrency, string(p.RiskProfile), p.Strict); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	insertAsset, err := tx.PrepareContext(ctx, `
		INSERT INTO assets (id, position, ticker, category, sector, target, price, daily_change, prov_dividend, dy, pvp, vacancy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare asset insert: %w", err)
	}
	defer insertAsset.Close()
	insertTx, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (id, asset_id, seq, type, date, quantity, price, fees, source, memo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer insertTx.Close()

	position := 0
	for a := range p.Assets() {
		if _, err = insertAsset.ExecContext(ctx, a.ID, position, a.Ticker, a.Category.Code(), a.Sector, float64(a.Target),
			a.CurrentPrice.Decimal().String(), float64(a.DailyChange), a.ProvDividend.Decimal().String(),
			float64(a.DY), a.PVP.String(), float64(a.Vacancy)); err != nil {
			return fmt.Errorf("failed to save asset %s: %w", a.Ticker, err)
		}
		position++
		for seq, t := range a.Transactions() {
			if _, err = insertTx.ExecContext(ctx, t.ID, a.ID, seq, string(t.Type), t.Date.String(),
				t.Quantity.Decimal().String(), t.Price.Decimal().String(), t.Fees.Decimal().String(),
				string(t.Source), t.Memo); err != nil {
				return fmt.Errorf("failed to save %s transaction %s: %w", a.Ticker, t.ID, err)
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit portfolio: %w", err)
	}
	s.log.Debug().Int("assets", position).Msg("portfolio saved to database")
	return nil
}
