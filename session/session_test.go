package session

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/date"
	"github.com/etnz/gemhub/market"
	"github.com/etnz/gemhub/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDiskFull = errors.New("disk full")

// flaky fails every Save while broken is set.
type flaky struct {
	store.Store
	broken bool
}

func (f *flaky) Save(ctx context.Context, p *gemhub.Portfolio) error {
	if f.broken {
		return errDiskFull
	}
	return f.Store.Save(ctx, p)
}

func newSession(t *testing.T, s store.Store, opts Options) *Session {
	t.Helper()
	sess, err := New(context.Background(), s, market.NewSim(7), market.NewFixed(decimal.RequireFromString("5.45")), opts, zerolog.Nop())
	require.NoError(t, err)
	return sess
}

func buy(qty, price float64, cur string) gemhub.Transaction {
	return gemhub.NewBuy(date.New(2025, 1, 10), gemhub.Q(qty), gemhub.M(price, cur), gemhub.M(0, cur))
}

func TestSession_RecordPersists(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)
	sess := newSession(t, mem, Options{})

	tx, err := sess.Record(ctx, "btc", gemhub.Crypto, buy(0.1, 40000, "USD"))
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)

	stored, err := mem.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored.Asset("BTC"))
	assert.True(t, stored.Asset("BTC").Quantity().Equal(gemhub.Q(0.1)))

	_, err = sess.Remove(ctx, "BTC", tx.ID)
	require.NoError(t, err)
	assert.True(t, sess.Snapshot().Asset("BTC").Quantity().IsZero())

	_, err = sess.Remove(ctx, "BTC", tx.ID)
	assert.ErrorIs(t, err, gemhub.ErrNotFound)
}

func TestSession_FailedSaveLeavesPortfolioUnchanged(t *testing.T) {
	ctx := context.Background()
	f := &flaky{Store: store.NewMemory(nil)}
	sess := newSession(t, f, Options{})
	_, err := sess.Record(ctx, "BTC", gemhub.Crypto, buy(0.1, 40000, "USD"))
	require.NoError(t, err)

	f.broken = true
	_, err = sess.Record(ctx, "BTC", gemhub.Crypto, buy(1, 40000, "USD"))
	assert.ErrorIs(t, err, errDiskFull)
	assert.True(t, sess.Snapshot().Asset("BTC").Quantity().Equal(gemhub.Q(0.1)))
}

func TestSession_InvalidTransaction(t *testing.T) {
	sess := newSession(t, store.NewMemory(nil), Options{})
	_, err := sess.Record(context.Background(), "BTC", gemhub.Crypto, buy(0, 40000, "USD"))
	assert.ErrorIs(t, err, gemhub.ErrInvalidTransaction)
	assert.Equal(t, 0, sess.Snapshot().Len())
}

func TestSession_Strict(t *testing.T) {
	ctx := context.Background()
	sess := newSession(t, store.NewMemory(nil), Options{Strict: true})
	_, err := sess.Record(ctx, "ETH", gemhub.Crypto, buy(1, 2000, "USD"))
	require.NoError(t, err)
	sell := gemhub.NewSell(date.New(2025, 2, 1), gemhub.Q(2), gemhub.M(2500, "USD"), gemhub.Money{})
	_, err = sess.Record(ctx, "ETH", gemhub.Crypto, sell)
	assert.ErrorIs(t, err, gemhub.ErrOversell)
}

func TestSession_RecordIn(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)
	sess := newSession(t, mem, Options{Strict: true})

	sell := gemhub.NewSell(date.New(2025, 2, 1), gemhub.Q(1), gemhub.M(150, "USD"), gemhub.Money{})
	_, err := sess.RecordIn(ctx, "SOL", gemhub.Crypto, "Layer 1", sell)
	assert.ErrorIs(t, err, gemhub.ErrOversell)
	assert.Nil(t, sess.Snapshot().Asset("SOL"))
	stored, err := mem.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored.Asset("SOL"))

	_, err = sess.RecordIn(ctx, "SOL", gemhub.Crypto, "Layer 1", buy(3, 150, "USD"))
	require.NoError(t, err)
	require.NotNil(t, sess.Snapshot().Asset("SOL"))
	assert.Equal(t, "Layer 1", sess.Snapshot().Asset("SOL").Sector)
}

func TestSession_LogsInferredCategory(t *testing.T) {
	var buf bytes.Buffer
	sess, err := New(context.Background(), store.NewMemory(nil), nil, market.NewFixed(decimal.RequireFromString("5.45")), Options{}, zerolog.New(&buf))
	require.NoError(t, err)
	_, err = sess.Record(context.Background(), "MXRF11", gemhub.NoCategory, buy(10, 10, "BRL"))
	require.NoError(t, err)
	assert.Equal(t, gemhub.FII, sess.Snapshot().Asset("MXRF11").Category)
	assert.Contains(t, buf.String(), "category inferred from ticker")
	assert.Contains(t, buf.String(), `"ticker":"MXRF11"`)
}

func TestSession_Refresh(t *testing.T) {
	ctx := context.Background()
	demo := gemhub.DemoPortfolio(date.New(2025, 6, 1))
	n := store.NewNotifier(store.NewMemory(demo), zerolog.Nop())
	sess := newSession(t, n, Options{})

	saved := 0
	defer sess.Subscribe(func(*gemhub.Portfolio) { saved++ })()

	before := sess.Snapshot().Asset("BTC").CurrentPrice
	res, err := sess.Refresh(ctx, market.Simulated)
	require.NoError(t, err)
	assert.False(t, res.PartialFailure)
	assert.Len(t, res.Quotes, demo.Len())
	assert.False(t, sess.Snapshot().Asset("BTC").CurrentPrice.Equal(before))
	assert.Equal(t, 1, saved)
}

func TestSession_RefreshWithoutFeed(t *testing.T) {
	sess, err := New(context.Background(), store.NewMemory(nil), nil, nil, Options{}, zerolog.Nop())
	require.NoError(t, err)
	_, err = sess.Refresh(context.Background(), market.Simulated)
	assert.Error(t, err)
	_, err = sess.Rates(context.Background())
	assert.ErrorIs(t, err, gemhub.ErrMissingRate)
}

func TestSession_Rebalance(t *testing.T) {
	ctx := context.Background()
	sess := newSession(t, store.NewMemory(nil), Options{ReportingCurrency: "brl"})
	assert.Equal(t, "BRL", sess.Currency())

	// 1000 BRL of crypto (at 5 BRL per USD) and 9000 BRL of FIIs.
	sess.fx = market.NewFixed(decimal.NewFromInt(5))
	_, err := sess.Record(ctx, "BTC", gemhub.Crypto, buy(1, 200, "USD"))
	require.NoError(t, err)
	_, err = sess.Record(ctx, "HGLG11", gemhub.FII, buy(90, 100, "BRL"))
	require.NoError(t, err)

	r, err := sess.Rebalance(ctx, gemhub.Crypto, decimal.RequireFromString("0.3"), decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.Equal(t, "3500", r.A.Allocation.Decimal().String())
	assert.Equal(t, "1500", r.B.Allocation.Decimal().String())
	assert.Equal(t, "700", r.NativeA.Decimal().String())

	v, p, err := sess.Valuate(ctx, gemhub.ByCategory)
	require.NoError(t, err)
	assert.Equal(t, "10000", v.Total.Decimal().String())
	assert.Equal(t, 2, p.Len())
}

func TestSession_Replace(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)
	sess := newSession(t, mem, Options{Strict: true})
	require.NoError(t, sess.Replace(ctx, gemhub.DemoPortfolio(date.New(2025, 6, 1))))
	assert.Equal(t, 6, sess.Snapshot().Len())
	assert.True(t, sess.Snapshot().Strict)

	stored, err := mem.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Len())
}
