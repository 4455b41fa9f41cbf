package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaily(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rate":5.45}`))
	}))
	defer srv.Close()
	client := Daily(t.TempDir(), zerolog.Nop())

	for range 2 {
		var got struct{ Rate float64 }
		require.NoError(t, jwget(context.Background(), client, srv.URL+"/rate", &got))
		assert.Equal(t, 5.45, got.Rate)
	}
	assert.EqualValues(t, 1, hits.Load(), "the second call is served from the cache")

	// failures are not cached.
	for range 2 {
		var got struct{}
		assert.Error(t, jwget(context.Background(), client, srv.URL+"/missing", &got))
	}
	assert.EqualValues(t, 3, hits.Load())
}
