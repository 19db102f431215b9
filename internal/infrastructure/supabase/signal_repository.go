package supabase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"wellness-backend/internal/domain/wellness"
	"wellness-backend/internal/infrastructure/observability"
	apperrors "wellness-backend/pkg/errors"
)

// Table names in the public schema.
const (
	TablePreferences    = "user_preferences"
	TableBiometrics     = "biometric_readings"
	TableSessions       = "meditation_sessions"
	TableSocialActivity = "social_activity"
)

type preferencesRow struct {
	MeditationGoals      []string `json:"meditation_goals"`
	MeditationExperience string   `json:"meditation_experience"`
	WorkDays             []string `json:"work_days"`
	Timezone             string   `json:"timezone"`
}

type biometricRow struct {
	RecordedAt  time.Time `json:"recorded_at"`
	HeartRate   *float64  `json:"heart_rate"`
	HRV         *float64  `json:"hrv"`
	StressScore *float64  `json:"stress_score"`
	Source      string    `json:"source"`
}

type sessionRow struct {
	ID              string    `json:"id"`
	SessionType     string    `json:"session_type"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationMinutes int       `json:"duration_minutes"`
	FocusScore      *float64  `json:"focus_score"`
	MoodBefore      *float64  `json:"mood_before"`
	MoodAfter       *float64  `json:"mood_after"`
}

type socialRow struct {
	CreatedAt time.Time `json:"created_at"`
}

// SignalRepository loads everything the recommendation engine needs for one
// user. Absent rows are not errors; they come back as nil or empty fields.
type SignalRepository struct {
	client  *supabase.Client
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewSignalRepository creates a repository over a service-role client.
func NewSignalRepository(client *supabase.Client, logger *zap.Logger, metrics *observability.Collector) *SignalRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignalRepository{client: client, logger: logger, metrics: metrics}
}

// FetchSignals reads preferences, the biometric and session windows, and the
// latest social activity. Lists come back oldest first.
func (r *SignalRepository) FetchSignals(ctx context.Context, userID string) (*wellness.Signals, error) {
	if userID == "" {
		return nil, apperrors.NewValidation("user id is required")
	}

	signals := &wellness.Signals{UserID: userID}

	prefs, err := r.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	signals.Preferences = prefs

	if signals.Biometrics, err = r.biometrics(ctx, userID); err != nil {
		return nil, err
	}
	if signals.Sessions, err = r.sessions(ctx, userID); err != nil {
		return nil, err
	}
	if signals.LastSocialActivity, err = r.lastSocialActivity(ctx, userID); err != nil {
		return nil, err
	}

	r.logger.Debug("Fetched user signals",
		zap.String("user_id", userID),
		zap.Bool("has_preferences", prefs != nil),
		zap.Int("biometrics", len(signals.Biometrics)),
		zap.Int("sessions", len(signals.Sessions)),
	)
	return signals, nil
}

func (r *SignalRepository) preferences(ctx context.Context, userID string) (*wellness.Preferences, error) {
	var rows []preferencesRow
	err := r.query(ctx, TablePreferences, &rows, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("meditation_goals,meditation_experience,work_days,timezone", "", false).
			Eq("user_id", userID).
			Limit(1, "")
	})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &wellness.Preferences{
		MeditationGoals:      rows[0].MeditationGoals,
		MeditationExperience: rows[0].MeditationExperience,
		WorkDays:             rows[0].WorkDays,
		Timezone:             rows[0].Timezone,
	}, nil
}

func (r *SignalRepository) biometrics(ctx context.Context, userID string) ([]wellness.BiometricReading, error) {
	var rows []biometricRow
	err := r.query(ctx, TableBiometrics, &rows, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("recorded_at,heart_rate,hrv,stress_score,source", "", false).
			Eq("user_id", userID).
			Order("recorded_at", &postgrest.OrderOpts{Ascending: false}).
			Limit(wellness.BiometricWindow, "")
	})
	if err != nil {
		return nil, err
	}

	readings := make([]wellness.BiometricReading, len(rows))
	for i, row := range rows {
		readings[i] = wellness.BiometricReading{
			Timestamp:   row.RecordedAt,
			HeartRate:   row.HeartRate,
			HRV:         row.HRV,
			StressScore: row.StressScore,
			Source:      row.Source,
		}
	}
	slices.Reverse(readings)
	return readings, nil
}

func (r *SignalRepository) sessions(ctx context.Context, userID string) ([]wellness.SessionRecord, error) {
	var rows []sessionRow
	err := r.query(ctx, TableSessions, &rows, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("id,session_type,completed_at,duration_minutes,focus_score,mood_before,mood_after", "", false).
			Eq("user_id", userID).
			Order("completed_at", &postgrest.OrderOpts{Ascending: false}).
			Limit(wellness.SessionWindow, "")
	})
	if err != nil {
		return nil, err
	}

	sessions := make([]wellness.SessionRecord, len(rows))
	for i, row := range rows {
		sessions[i] = wellness.SessionRecord{
			ID:              row.ID,
			SessionType:     row.SessionType,
			CompletedAt:     row.CompletedAt,
			DurationMinutes: row.DurationMinutes,
			FocusScore:      row.FocusScore,
			MoodBefore:      row.MoodBefore,
			MoodAfter:       row.MoodAfter,
		}
	}
	slices.Reverse(sessions)
	return sessions, nil
}

func (r *SignalRepository) lastSocialActivity(ctx context.Context, userID string) (*time.Time, error) {
	var rows []socialRow
	err := r.query(ctx, TableSocialActivity, &rows, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("created_at", "", false).
			Eq("user_id", userID).
			Order("created_at", &postgrest.OrderOpts{Ascending: false}).
			Limit(1, "")
	})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	at := rows[0].CreatedAt
	return &at, nil
}

// CountSessionsSince returns how many sessions the user completed at or after since.
func (r *SignalRepository) CountSessionsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	err := r.query(ctx, TableSessions, &rows, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("id", "", false).
			Eq("user_id", userID).
			Gte("completed_at", since.UTC().Format(time.RFC3339))
	})
	return len(rows), err
}

// query runs one PostgREST request. The client has no context support, so
// cancellation is only honoured between requests.
func (r *SignalRepository) query(
	ctx context.Context,
	table string,
	dest interface{},
	build func(*postgrest.QueryBuilder) *postgrest.FilterBuilder,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	_, err := build(r.client.From(table)).ExecuteTo(dest)
	r.metrics.RecordSignalFetch(table, err)

	if err != nil {
		r.logger.Error("Signal query failed",
			zap.String("table", table),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return apperrors.NewUnavailable(fmt.Sprintf("read %s", table), err)
	}
	return nil
}
