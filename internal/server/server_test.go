package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordduel/internal/database/dbtest"
	"github.com/example/wordduel/internal/metrics"
	"github.com/example/wordduel/internal/observability"
)

func TestHealthAndMetrics(t *testing.T) {
	db := dbtest.New(t)
	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)
	metrics.DuelJoinConflictsTotal.Inc()

	s := New(":0", db, reg, observability.Discard())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "duel_join_conflicts_total")
}

func TestHealthReportsClosedDatabase(t *testing.T) {
	db := dbtest.New(t)
	s := New(":0", db, prometheus.NewRegistry(), observability.Discard())
	require.NoError(t, db.Close())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
