package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/date"
	"github.com/etnz/gemhub/market"
	"github.com/etnz/gemhub/session"
	"github.com/etnz/gemhub/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// newTestServer serves BTC worth 20000 BRL and MXRF11 worth 10000 BRL, at 5 BRL per USD.
func newTestServer(t *testing.T) (*httptest.Server, *session.Session) {
	t.Helper()
	ctx := context.Background()
	sess, err := session.New(ctx, store.NewMemory(nil), market.NewSim(1), market.NewFixed(decimal.NewFromInt(5)), session.Options{}, zerolog.Nop())
	require.NoError(t, err)

	day := date.New(2025, 1, 10)
	_, err = sess.Record(ctx, "BTC", gemhub.Crypto, gemhub.NewBuy(day, gemhub.Q(0.1), gemhub.M(40000, "USD"), gemhub.M(0, "USD")))
	require.NoError(t, err)
	_, err = sess.Record(ctx, "MXRF11", gemhub.FII, gemhub.NewBuy(day, gemhub.Q(1000), gemhub.M(10, "BRL"), gemhub.M(0, "BRL")))
	require.NoError(t, err)

	srv := httptest.NewServer(New(sess, Config{DevMode: true, Log: zerolog.Nop()}).Handler())
	t.Cleanup(srv.Close)
	return srv, sess
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 2, body["assets"])
	assert.NotEmpty(t, body["uptime"])
}

func TestPortfolio(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/portfolio")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var p portfolioView
	decode(t, resp, &p)
	require.Len(t, p.Assets, 2)
	assert.Equal(t, "BTC", p.Assets[0].Ticker)
	assert.Equal(t, gemhub.Crypto, p.Assets[0].Category)
	assert.Equal(t, "USD", p.Assets[0].Currency)
	assert.True(t, p.Assets[0].MarketValue.Equal(decimal.NewFromInt(4000)))
	assert.Len(t, p.Assets[1].Transactions, 1)
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/stats?groupBy=category")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var st statsView
	decode(t, resp, &st)
	assert.Equal(t, "BRL", st.Currency)
	assert.True(t, st.Total.Equal(decimal.NewFromInt(30000)), "total = %s", st.Total)
	assert.Len(t, st.Groups, 2)

	resp, err = http.Get(srv.URL + "/api/stats?groupBy=color")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecordAndRemove(t *testing.T) {
	srv, sess := newTestServer(t)

	body := `{"category":"crypto","command":"buy","date":"2025-02-01","quantity":2,"price":150,"fees":1,"currency":"USD","memo":"<script>alert(1)</script>dip <b>buy</b>"}`
	resp, err := http.Post(srv.URL+"/api/assets/sol/transactions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var tx gemhub.Transaction
	decode(t, resp, &tx)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "dip buy", tx.Memo)
	require.NotNil(t, sess.Snapshot().Asset("SOL"))
	assert.True(t, sess.Snapshot().Asset("SOL").Quantity().Equal(gemhub.Q(2)))

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/assets/SOL/transactions/"+tx.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, sess.Snapshot().Asset("SOL").Quantity().IsZero())
}

func TestRecord_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		ticker string
		body   string
		want   int
	}{
		{"malformed", "BTC", `{"command":`, http.StatusBadRequest},
		{"unknown command", "BTC", `{"command":"quote","quantity":1,"price":1}`, http.StatusBadRequest},
		{"negative quantity", "BTC", `{"command":"buy","quantity":-1,"price":1}`, http.StatusBadRequest},
		{"wrong category", "BTC", `{"category":"fii","command":"buy","quantity":1,"price":1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/assets/"+tt.ticker+"/transactions", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)

			var body map[string]string
			decode(t, resp, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRemove_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/api/assets/DOGE/transactions/x", "/api/assets/BTC/transactions/x"} {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestRebalance(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/rebalance?target=0.5&contribution=10000")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var r rebalanceView
	decode(t, resp, &r)
	assert.Equal(t, gemhub.Crypto, r.Category)
	assert.True(t, r.A.Allocation.IsZero(), "crypto allocation = %s", r.A.Allocation)
	assert.True(t, r.B.Allocation.Equal(decimal.NewFromInt(10000)), "other allocation = %s", r.B.Allocation)
	assert.Equal(t, "USD", r.NativeACur)

	for _, q := range []string{"target=1.5&contribution=100", "target=0.3&contribution=-1", "target=x&contribution=1", "target=0.3&contribution=1&category=gold"} {
		resp, err := http.Get(srv.URL + "/api/rebalance?" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestExport(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/export.csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, gemhub.CSVHeader, rows[0])
	assert.Equal(t, "BTC", rows[1][1])
	assert.Equal(t, "20000.00", rows[1][7])
}

func TestRefresh(t *testing.T) {
	srv, sess := newTestServer(t)
	before := sess.Snapshot().Asset("BTC").CurrentPrice

	resp, err := http.Post(srv.URL+"/api/refresh?mode=simulated", "", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var r refreshView
	decode(t, resp, &r)
	assert.Equal(t, "simulated", r.Mode)
	assert.Equal(t, 2, r.Quotes)
	assert.False(t, r.PartialFailure)
	assert.False(t, sess.Snapshot().Asset("BTC").CurrentPrice.Equal(before))

	resp, err = http.Post(srv.URL+"/api/refresh?mode=weekly", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStream(t *testing.T) {
	srv, sess := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/stream", nil)
	require.NoError(t, err)
	defer c.CloseNow()

	var p portfolioView
	require.NoError(t, wsjson.Read(ctx, c, &p))
	assert.Len(t, p.Assets, 2)

	_, err = sess.Record(ctx, "HGLG11", gemhub.FII, gemhub.NewBuy(date.New(2025, 2, 1), gemhub.Q(10), gemhub.M(160, "BRL"), gemhub.M(0, "BRL")))
	require.NoError(t, err)

	require.NoError(t, wsjson.Read(ctx, c, &p))
	require.Len(t, p.Assets, 3)
	assert.Equal(t, "HGLG11", p.Assets[2].Ticker)

	c.Close(websocket.StatusNormalClosure, "")
}
