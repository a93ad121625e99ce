package strava

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anagoge/liftlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAccountNotFound = errors.New("strava account not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// SaveAccount inserts or refreshes the user's Strava link. One row per
// user.
func (r *Repo) SaveAccount(ctx context.Context, account Account) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stravaRepo.saveAccount")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := r.db.Exec(ctx,
		`INSERT INTO strava_account (user_id, access_token, refresh_token, expires_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO UPDATE SET
				access_token = EXCLUDED.access_token,
				refresh_token = EXCLUDED.refresh_token,
				expires_at = EXCLUDED.expires_at`,
		account.UserID, account.AccessToken, account.RefreshToken, account.ExpiresAt,
	); err != nil {
		return fmt.Errorf("save strava account: %w", err)
	}

	return nil
}

func (r *Repo) GetAccount(ctx context.Context, userID int) (_ *Account, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stravaRepo.getAccount")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var account Account
	if err := r.db.
		QueryRow(ctx,
			`SELECT id, user_id, access_token, refresh_token, expires_at
				FROM strava_account WHERE user_id = $1`,
			userID,
		).
		Scan(&account.ID, &account.UserID, &account.AccessToken,
			&account.RefreshToken, &account.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return &account, nil
}

func (r *Repo) DeleteAccount(ctx context.Context, userID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stravaRepo.deleteAccount")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM strava_account WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete strava account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// SaveWorkout stores an imported activity, skipping it silently when
// its Strava id was imported before. Reports whether a row was added.
func (r *Repo) SaveWorkout(ctx context.Context, workout ImportedWorkout) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stravaRepo.saveWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx,
		`INSERT INTO strava_workout (user_id, strava_id, name, type, start_date,
				distance, moving_time, average_speed, total_elevation_gain)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (strava_id) DO NOTHING`,
		workout.UserID, workout.StravaID, workout.Name, workout.Type,
		workout.StartDate, workout.Distance, workout.MovingTime,
		workout.AverageSpeed, workout.TotalElevationGain,
	)
	if err != nil {
		return false, fmt.Errorf("save strava workout: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *Repo) ListWorkouts(ctx context.Context, userID int) (_ []ImportedWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stravaRepo.listWorkouts")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, strava_id, name, type, start_date,
				distance, moving_time, average_speed, total_elevation_gain
			FROM strava_workout
			WHERE user_id = $1
			ORDER BY start_date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list strava workouts: %w", err)
	}
	defer rows.Close()

	var workouts []ImportedWorkout
	for rows.Next() {
		var w ImportedWorkout
		if err := rows.Scan(&w.ID, &w.UserID, &w.StravaID, &w.Name, &w.Type,
			&w.StartDate, &w.Distance, &w.MovingTime, &w.AverageSpeed,
			&w.TotalElevationGain); err != nil {
			return nil, fmt.Errorf("scan strava workout row: %w", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("strava workout rows: %w", err)
	}

	return workouts, nil
}

// LastStartDate returns the start of the user's most recently started
// imported activity, or nil when nothing was imported yet.
func (r *Repo) LastStartDate(ctx context.Context, userID int) (_ *time.Time, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stravaRepo.lastStartDate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var last *time.Time
	if err := r.db.
		QueryRow(ctx,
			`SELECT MAX(start_date) FROM strava_workout WHERE user_id = $1`, userID,
		).
		Scan(&last); err != nil {
		return nil, fmt.Errorf("get last strava start date: %w", err)
	}

	return last, nil
}
