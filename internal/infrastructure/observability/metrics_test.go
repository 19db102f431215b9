package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestCollector(t *testing.T) {
	t.Run("Should use independent registries", func(t *testing.T) {
		a := NewCollector("wellness")
		b := NewCollector("wellness")

		a.RecordCacheHit()

		assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheHits))
		assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheHits))
	})

	t.Run("Should count generated recommendations by type", func(t *testing.T) {
		c := NewCollector("wellness")

		c.RecordGeneration([]string{"breathing", "meditation", "breathing"}, time.Millisecond)

		assert.Equal(t, 2.0, testutil.ToFloat64(c.RecommendationsGenerated.WithLabelValues("breathing")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.RecommendationsGenerated.WithLabelValues("meditation")))
	})

	t.Run("Should label signal fetch status", func(t *testing.T) {
		c := NewCollector("wellness")

		c.RecordSignalFetch("sessions", nil)
		c.RecordSignalFetch("sessions", errors.New("boom"))

		assert.Equal(t, 1.0, testutil.ToFloat64(c.SignalFetches.WithLabelValues("sessions", "ok")))
		assert.Equal(t, 1.0, testutil.ToFloat64(c.SignalFetches.WithLabelValues("sessions", "error")))
	})

	t.Run("Should tolerate a nil collector", func(t *testing.T) {
		var c *Collector
		assert.NotPanics(t, func() {
			c.RecordCacheHit()
			c.RecordCacheMiss("expired")
			c.RecordPersonalization("fallback", "timeout")
			c.SetBreakerState(2)
		})
	})
}

func TestMetricsMiddleware(t *testing.T) {
	c := NewCollector("wellness")
	r := chi.NewRouter()
	r.Use(MetricsMiddleware(c))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/items/{id}", "418")))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level, env string
		want       zapcore.Level
	}{
		{"debug", "production", zapcore.DebugLevel},
		{"WARN", "development", zapcore.WarnLevel},
		{"", "production", zapcore.InfoLevel},
		{"bogus", "development", zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.level, tt.env))
		})
	}
}
