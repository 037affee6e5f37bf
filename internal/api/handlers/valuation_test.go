package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/pkg/logger"
)

type stubResults struct {
	latest *contracts.ValuationResult
	list   []*contracts.ValuationResult
	err    error
}

func (s *stubResults) Save(ctx context.Context, result *contracts.ValuationResult) error {
	return nil
}

func (s *stubResults) Latest(ctx context.Context, ticker string) (*contracts.ValuationResult, error) {
	return s.latest, s.err
}

func (s *stubResults) ListSince(ctx context.Context, since time.Time) ([]*contracts.ValuationResult, error) {
	return s.list, s.err
}

func TestGetLatest(t *testing.T) {
	stored := &contracts.ValuationResult{
		RunID:   "run-1",
		Ticker:  "TEST",
		Blended: 42.5,
	}
	h := NewValuationHandler(nil, &stubResults{latest: stored}, logger.NewNop())

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/valuations/TEST", nil),
		map[string]string{"ticker": "TEST"})
	rec := httptest.NewRecorder()

	h.GetLatest(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got contracts.ValuationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 42.5, got.Blended)
}

func TestGetLatestNotFound(t *testing.T) {
	h := NewValuationHandler(nil, &stubResults{}, logger.NewNop())

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/valuations/NONE", nil),
		map[string]string{"ticker": "NONE"})
	rec := httptest.NewRecorder()

	h.GetLatest(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSinceBadTimestamp(t *testing.T) {
	h := NewValuationHandler(nil, &stubResults{}, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/valuations?since=yesterday", nil)
	rec := httptest.NewRecorder()

	h.ListSince(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSince(t *testing.T) {
	h := NewValuationHandler(nil, &stubResults{
		list: []*contracts.ValuationResult{{RunID: "a"}, {RunID: "b"}},
	}, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/valuations?since=2026-08-01T00:00:00Z", nil)
	rec := httptest.NewRecorder()

	h.ListSince(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}
