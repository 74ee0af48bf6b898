package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/logger"
	"carrental/internal/metrics"
)

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, rec.Body.String())
}

func TestRequestLogging(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	var seenID string
	r := mux.NewRouter()
	r.Use(RequestLogging(logger.Discard(), m))
	r.HandleFunc("/reservations/{id}", func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reservations/abc", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Len(t, seenID, 32)

	families, err := reg.Gather()
	require.NoError(t, err)
	var observed uint64
	for _, mf := range families {
		if mf.GetName() != "carrental_request_duration_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "route" {
					assert.Equal(t, "/reservations/{id}", label.GetValue())
				}
			}
			observed += metric.GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(1), observed)
}

func TestRequestLogging_PanicKeepsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf, Format: logger.JSON})

	r := mux.NewRouter()
	r.Use(RequestLogging(log, metrics.NewNoop()), Recovery(log))
	r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := map[string]map[string]any{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		entries[entry["msg"].(string)] = entry
	}

	panicked, ok := entries["Panic recovered"]
	require.True(t, ok)
	completed, ok := entries["HTTP request completed"]
	require.True(t, ok)

	assert.Len(t, panicked["request_id"], 32)
	assert.Equal(t, completed["request_id"], panicked["request_id"])
	assert.EqualValues(t, http.StatusInternalServerError, completed["status"])
}

func TestExecutionBudget(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := ExecutionBudget(50 * time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
		<-r.Context().Done()
		assert.True(t, errors.Is(r.Context().Err(), context.DeadlineExceeded))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, ok)
	assert.False(t, deadline.IsZero())
}

func TestMaxRequestSize(t *testing.T) {
	var readErr error
	h := MaxRequestSize(8)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("far more than eight bytes")))

	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)
}
