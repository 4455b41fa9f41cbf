package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/market"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shopspring/decimal"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "healthy",
		"service": "gemhub",
		"assets":  s.sess.Snapshot().Len(),
		"uptime":  time.Since(s.start).Round(time.Second).String(),
	}
	// memory statistics are instant, unlike CPU ones.
	if m, err := mem.VirtualMemory(); err == nil {
		body["memoryPercent"] = m.UsedPercent
	} else {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, newPortfolioView(s.sess.Snapshot()))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	by, err := gemhub.ParseGroupBy(r.URL.Query().Get("groupBy"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, _, err := s.sess.Valuate(r.Context(), by)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStatsView(v))
}

// memoPolicy strips every HTML tag from memos, they end up in rendered markdown.
var memoPolicy = bluemonday.StrictPolicy()

// handleRecord records a transaction. The body is a transaction with an optional
// "category" field, used when the ticker is new.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Category gemhub.Category `json:"category"`
	}
	var tx gemhub.Transaction
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if err := json.Unmarshal(body, &tx); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	tx.Memo = memoPolicy.Sanitize(tx.Memo)
	if !tx.Type.IsTransaction() {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown command %q, want buy, sell or dividend", tx.Type))
		return
	}

	stored, err := s.sess.Record(r.Context(), chi.URLParam(r, "ticker"), req.Category, tx)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	removed, err := s.sess.Remove(r.Context(), chi.URLParam(r, "ticker"), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, removed)
}

func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c := gemhub.Crypto
	if v := q.Get("category"); v != "" {
		var err error
		if c, err = gemhub.ParseCategory(v); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	target, err := decimal.NewFromString(q.Get("target"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "target must be a number in [0,1]")
		return
	}
	contribution, err := decimal.NewFromString(q.Get("contribution"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "contribution must be a number")
		return
	}
	reb, err := s.sess.Rebalance(r.Context(), c, target, contribution)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newRebalanceView(reb))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rates, err := s.sess.Rates(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="gemhub.csv"`)
	if err := gemhub.ExportCSV(w, s.sess.Snapshot(), rates); err != nil {
		// headers are gone already.
		s.log.Error().Err(err).Msg("Failed to export CSV")
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	mode := s.cfg.Mode
	if v := r.URL.Query().Get("mode"); v != "" {
		var err error
		if mode, err = market.ParseMode(v); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	res, err := s.sess.Refresh(r.Context(), mode)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, refreshView{Mode: string(mode), Quotes: len(res.Quotes), PartialFailure: res.PartialFailure})
}

// handleStream pushes the portfolio on connection, then after every saved change.
// Only the latest snapshot is kept for slow clients.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer c.CloseNow()

	updates := make(chan *gemhub.Portfolio, 1)
	unsubscribe := s.sess.Subscribe(func(p *gemhub.Portfolio) {
		for {
			select {
			case updates <- p:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	// the client never sends anything, CloseRead handles its close frame.
	ctx := c.CloseRead(r.Context())

	p := s.sess.Snapshot()
	for {
		if err := s.push(ctx, c, p); err != nil {
			s.log.Debug().Err(err).Msg("stream closed")
			return
		}
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case p = <-updates:
		}
	}
}

func (s *Server) push(ctx context.Context, c *websocket.Conn, p *gemhub.Portfolio) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return wsjson.Write(ctx, c, newPortfolioView(p))
}

// fail maps domain errors to HTTP status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gemhub.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, gemhub.ErrInvalidTransaction), errors.Is(err, gemhub.ErrOversell), errors.Is(err, gemhub.ErrInvalidTarget):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gemhub.ErrMissingRate):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
