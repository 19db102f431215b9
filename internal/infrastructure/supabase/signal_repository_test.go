package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"wellness-backend/internal/infrastructure/observability"
	apperrors "wellness-backend/pkg/errors"
)

// fakePostgREST serves canned rows per table and records the query strings it saw.
type fakePostgREST struct {
	mu      sync.Mutex
	rows    map[string]interface{}
	failing map[string]int
	queries map[string]string
}

func newFakePostgREST() *fakePostgREST {
	return &fakePostgREST{
		rows:    make(map[string]interface{}),
		failing: make(map[string]int),
		queries: make(map[string]string),
	}
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")

	f.mu.Lock()
	f.queries[table] = r.URL.RawQuery
	status, failing := f.failing[table]
	rows, ok := f.rows[table]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failing {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"code":"PGRST000","message":"backend unavailable"}`))
		return
	}
	if !ok {
		rows = []interface{}{}
	}
	_ = json.NewEncoder(w).Encode(rows)
}

func (f *fakePostgREST) query(table string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[table]
}

func newTestRepository(t *testing.T, fake *fakePostgREST, metrics *observability.Collector) *SignalRepository {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{URL: server.URL, ServiceRoleKey: "service-role"})
	require.NoError(t, err)
	return NewSignalRepository(client, zaptest.NewLogger(t), metrics)
}

func TestSignalRepository_FetchSignals(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)

	t.Run("Should map every table into signals", func(t *testing.T) {
		fake := newFakePostgREST()
		fake.rows[TablePreferences] = []map[string]interface{}{{
			"meditation_goals":      []string{"stress_reduction"},
			"meditation_experience": "beginner",
			"work_days":             []string{"monday", "wednesday"},
			"timezone":              "Europe/Berlin",
		}}
		fake.rows[TableBiometrics] = []map[string]interface{}{
			{"recorded_at": now, "hrv": 25, "stress_score": 70, "source": "watch"},
			{"recorded_at": now.Add(-time.Hour), "heart_rate": 72, "source": "watch"},
		}
		fake.rows[TableSessions] = []map[string]interface{}{
			{"id": "s-2", "session_type": "focus", "completed_at": now.Add(-time.Hour), "duration_minutes": 10, "focus_score": 55},
			{"id": "s-1", "session_type": "breathing", "completed_at": now.Add(-2 * time.Hour), "duration_minutes": 5},
		}
		fake.rows[TableSocialActivity] = []map[string]interface{}{{"created_at": now.Add(-72 * time.Hour)}}

		repo := newTestRepository(t, fake, nil)

		signals, err := repo.FetchSignals(ctx, "user-1")
		require.NoError(t, err)

		assert.Equal(t, "user-1", signals.UserID)
		require.NotNil(t, signals.Preferences)
		assert.Equal(t, "beginner", signals.Preferences.MeditationExperience)
		assert.True(t, signals.Preferences.IsWorkDay(time.Wednesday))
		assert.Equal(t, "Europe/Berlin", signals.Preferences.Timezone)

		require.Len(t, signals.Biometrics, 2)
		assert.Nil(t, signals.Biometrics[0].HRV)
		assert.Equal(t, 25.0, *signals.Biometrics[1].HRV, "latest reading comes last")

		require.Len(t, signals.Sessions, 2)
		assert.Equal(t, "s-1", signals.Sessions[0].ID)
		assert.Equal(t, 55.0, *signals.Sessions[1].FocusScore)

		require.NotNil(t, signals.LastSocialActivity)
		assert.True(t, now.Add(-72*time.Hour).Equal(*signals.LastSocialActivity))
	})

	t.Run("Should filter by user and bound the windows", func(t *testing.T) {
		fake := newFakePostgREST()
		repo := newTestRepository(t, fake, nil)

		_, err := repo.FetchSignals(ctx, "user-42")
		require.NoError(t, err)

		biometrics := fake.query(TableBiometrics)
		assert.Contains(t, biometrics, "user_id=eq.user-42")
		assert.Contains(t, biometrics, "limit=10")
		assert.Contains(t, biometrics, "order=recorded_at.desc")

		sessions := fake.query(TableSessions)
		assert.Contains(t, sessions, "limit=20")
		assert.Contains(t, sessions, "order=completed_at.desc")
	})

	t.Run("Should leave absent signals empty", func(t *testing.T) {
		repo := newTestRepository(t, newFakePostgREST(), nil)

		signals, err := repo.FetchSignals(ctx, "new-user")
		require.NoError(t, err)

		assert.Nil(t, signals.Preferences)
		assert.Empty(t, signals.Biometrics)
		assert.Empty(t, signals.Sessions)
		assert.Nil(t, signals.LastSocialActivity)
	})

	t.Run("Should report backend failures as unavailable", func(t *testing.T) {
		fake := newFakePostgREST()
		fake.failing[TableSessions] = http.StatusServiceUnavailable
		metrics := observability.NewCollector("test")
		repo := newTestRepository(t, fake, metrics)

		_, err := repo.FetchSignals(ctx, "user-1")

		require.Error(t, err)
		assert.True(t, apperrors.IsUnavailable(err))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SignalFetches.WithLabelValues(TableSessions, "error")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SignalFetches.WithLabelValues(TablePreferences, "ok")))
	})

	t.Run("Should reject an empty user id", func(t *testing.T) {
		repo := newTestRepository(t, newFakePostgREST(), nil)

		_, err := repo.FetchSignals(ctx, "")

		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("Should stop between queries once cancelled", func(t *testing.T) {
		fake := newFakePostgREST()
		repo := newTestRepository(t, fake, nil)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := repo.FetchSignals(cancelled, "user-1")

		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, fake.query(TablePreferences))
	})
}

func TestSignalRepository_CountSessionsSince(t *testing.T) {
	fake := newFakePostgREST()
	fake.rows[TableSessions] = []map[string]string{{"id": "a"}, {"id": "b"}}
	repo := newTestRepository(t, fake, nil)

	n, err := repo.CountSessionsSince(context.Background(), "user-1", time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, fake.query(TableSessions), "completed_at=gte.2025-03-05T00")
}
