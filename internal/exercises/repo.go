package exercises

import (
	"context"
	"errors"
	"fmt"

	"github.com/anagoge/liftlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrExerciseExists   = errors.New("exercise already exists")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Seed inserts the default catalog entries that are not present yet.
// Safe to run on every startup.
func (r *Repo) Seed(ctx context.Context, catalog []Exercise) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.seed")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	for _, exercise := range catalog {
		_, err = r.db.Exec(
			ctx,
			`INSERT INTO exercise (name, muscle_group)
				VALUES ($1, $2)
				ON CONFLICT (name) DO NOTHING;`,
			exercise.Name, exercise.MuscleGroup,
		)
		if err != nil {
			return fmt.Errorf("seed exercise [%s]: %w", exercise.Name, err)
		}
	}

	return nil
}

// Add inserts a new catalog entry. Names colliding case-insensitively
// with an existing entry are rejected with ErrExerciseExists.
func (r *Repo) Add(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var exists bool
	err = r.db.QueryRow(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM exercise WHERE LOWER(name) = LOWER($1));`,
		exercise.Name,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check existing exercise: %w", err)
	}
	if exists {
		return nil, ErrExerciseExists
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO exercise (name, muscle_group)
			VALUES ($1, $2)
		RETURNING id;`,
		exercise.Name, exercise.MuscleGroup,
	).Scan(&exercise.ID)
	if err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}

	span.SetAttributes(attribute.Int("exercise.id", exercise.ID))

	return &exercise, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var exercise Exercise
	err = r.db.QueryRow(
		ctx,
		`SELECT id, name, muscle_group FROM exercise WHERE id = $1;`,
		id,
	).Scan(&exercise.ID, &exercise.Name, &exercise.MuscleGroup)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan exercise: %w", err)
	}

	return &exercise, nil
}

func (r *Repo) List(ctx context.Context) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, muscle_group FROM exercise ORDER BY name;`,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	exercises := make([]Exercise, 0)
	for rows.Next() {
		var exercise Exercise
		if err := rows.Scan(&exercise.ID, &exercise.Name, &exercise.MuscleGroup); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		exercises = append(exercises, exercise)
	}

	return exercises, nil
}

// MuscleGroups returns the distinct muscle group tags present in the catalog.
func (r *Repo) MuscleGroups(ctx context.Context) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.muscleGroups")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT DISTINCT muscle_group FROM exercise ORDER BY muscle_group;`,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	muscleGroups := make([]string, 0)
	for rows.Next() {
		var muscleGroup string
		if err := rows.Scan(&muscleGroup); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		muscleGroups = append(muscleGroups, muscleGroup)
	}

	return muscleGroups, nil
}
