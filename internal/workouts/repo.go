package workouts

import (
	"context"
	"errors"
	"fmt"

	"github.com/anagoge/liftlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrWorkoutNotFound = errors.New("workout not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Add stores the workout together with all of its sets in one transaction.
func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsRepo.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := tx.
		QueryRow(ctx,
			`INSERT INTO workout (user_id, workout_date) VALUES ($1, $2) RETURNING id`,
			workout.UserID, workout.Date,
		).
		Scan(&workout.ID); err != nil {
		return nil, fmt.Errorf("insert workout: %w", err)
	}

	for i := range workout.Sets {
		if err := insertSet(ctx, tx, workout.ID, &workout.Sets[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &workout, nil
}

// Update replaces the workout date and the full set list. Previous sets
// are removed and the provided ones inserted, all in one transaction.
func (r *Repo) Update(ctx context.Context, workout Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsRepo.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx,
		`UPDATE workout SET workout_date = $1 WHERE id = $2`,
		workout.Date, workout.ID,
	)
	if err != nil {
		return fmt.Errorf("update workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM workout_set WHERE workout_id = $1`, workout.ID); err != nil {
		return fmt.Errorf("delete previous sets: %w", err)
	}

	for i := range workout.Sets {
		if err := insertSet(ctx, tx, workout.ID, &workout.Sets[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsRepo.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM workout_set WHERE workout_id = $1`, id); err != nil {
		return fmt.Errorf("delete sets: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM workout WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsRepo.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var workout Workout
	if err := r.db.
		QueryRow(ctx,
			`SELECT id, user_id, workout_date FROM workout WHERE id = $1`,
			id,
		).
		Scan(&workout.ID, &workout.UserID, &workout.Date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	workout.Sets, err = r.setsFor(ctx, workout.ID)
	if err != nil {
		return nil, err
	}

	return &workout, nil
}

// ListByUser returns the user's workouts, most recent first, sets included.
func (r *Repo) ListByUser(ctx context.Context, userID int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsRepo.listByUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, workout_date
			FROM workout
			WHERE user_id = $1
			ORDER BY workout_date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		var workout Workout
		if err := rows.Scan(&workout.ID, &workout.UserID, &workout.Date); err != nil {
			return nil, fmt.Errorf("scan workout row: %w", err)
		}
		workouts = append(workouts, workout)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workout rows: %w", err)
	}

	for i := range workouts {
		workouts[i].Sets, err = r.setsFor(ctx, workouts[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return workouts, nil
}

func (r *Repo) setsFor(ctx context.Context, workoutID int) ([]Set, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, workout_id, exercise_id, weight, reps
			FROM workout_set
			WHERE workout_id = $1
			ORDER BY id`,
		workoutID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer rows.Close()

	var sets []Set
	for rows.Next() {
		var set Set
		if err := rows.Scan(&set.ID, &set.WorkoutID, &set.ExerciseID, &set.Weight, &set.Reps); err != nil {
			return nil, fmt.Errorf("scan set row: %w", err)
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("set rows: %w", err)
	}

	return sets, nil
}

func insertSet(ctx context.Context, tx pgx.Tx, workoutID int, set *Set) error {
	set.WorkoutID = workoutID
	if err := tx.
		QueryRow(ctx,
			`INSERT INTO workout_set (workout_id, exercise_id, weight, reps)
				VALUES ($1, $2, $3, $4) RETURNING id`,
			set.WorkoutID, set.ExerciseID, set.Weight, set.Reps,
		).
		Scan(&set.ID); err != nil {
		return fmt.Errorf("insert set: %w", err)
	}
	return nil
}
