package weekly

import (
	"context"
	"errors"
	"fmt"

	"github.com/anagoge/liftlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrWeekNotFound = errors.New("weekly workout not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const weekColumns = `id, week_start_date,
	sunday_template_id, monday_template_id, tuesday_template_id,
	wednesday_template_id, thursday_template_id, friday_template_id,
	saturday_template_id`

// Add stores a new week record. Storage permits multiple records for
// the same start date; readers disambiguate by recency.
func (r *Repo) Add(ctx context.Context, week WeeklyWorkout) (_ *WeeklyWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "weeklyRepo.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := r.db.
		QueryRow(ctx,
			`INSERT INTO weekly_workout (week_start_date,
				sunday_template_id, monday_template_id, tuesday_template_id,
				wednesday_template_id, thursday_template_id, friday_template_id,
				saturday_template_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			week.WeekStartDate,
			week.DayTemplates[0], week.DayTemplates[1], week.DayTemplates[2],
			week.DayTemplates[3], week.DayTemplates[4], week.DayTemplates[5],
			week.DayTemplates[6],
		).
		Scan(&week.ID); err != nil {
		return nil, fmt.Errorf("insert weekly workout: %w", err)
	}

	return &week, nil
}

func (r *Repo) Update(ctx context.Context, week WeeklyWorkout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "weeklyRepo.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx,
		`UPDATE weekly_workout SET week_start_date = $1,
			sunday_template_id = $2, monday_template_id = $3,
			tuesday_template_id = $4, wednesday_template_id = $5,
			thursday_template_id = $6, friday_template_id = $7,
			saturday_template_id = $8
			WHERE id = $9`,
		week.WeekStartDate,
		week.DayTemplates[0], week.DayTemplates[1], week.DayTemplates[2],
		week.DayTemplates[3], week.DayTemplates[4], week.DayTemplates[5],
		week.DayTemplates[6],
		week.ID,
	)
	if err != nil {
		return fmt.Errorf("update weekly workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWeekNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "weeklyRepo.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM weekly_workout WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete weekly workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWeekNotFound
	}

	return nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *WeeklyWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "weeklyRepo.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	row := r.db.QueryRow(ctx,
		`SELECT `+weekColumns+` FROM weekly_workout WHERE id = $1`, id,
	)
	return scanWeek(row)
}

// Latest returns the most recent week record: latest start date first,
// ties broken by the highest id (the most recently created record).
func (r *Repo) Latest(ctx context.Context) (_ *WeeklyWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "weeklyRepo.latest")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	row := r.db.QueryRow(ctx,
		`SELECT `+weekColumns+` FROM weekly_workout
			ORDER BY week_start_date DESC, id DESC LIMIT 1`,
	)
	return scanWeek(row)
}

func (r *Repo) List(ctx context.Context) (_ []WeeklyWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "weeklyRepo.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT `+weekColumns+` FROM weekly_workout
			ORDER BY week_start_date DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list weekly workouts: %w", err)
	}
	defer rows.Close()

	var weeks []WeeklyWorkout
	for rows.Next() {
		week, err := scanWeek(rows)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, *week)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("weekly workout rows: %w", err)
	}

	return weeks, nil
}

func scanWeek(row pgx.Row) (*WeeklyWorkout, error) {
	var week WeeklyWorkout
	if err := row.Scan(
		&week.ID, &week.WeekStartDate,
		&week.DayTemplates[0], &week.DayTemplates[1], &week.DayTemplates[2],
		&week.DayTemplates[3], &week.DayTemplates[4], &week.DayTemplates[5],
		&week.DayTemplates[6],
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWeekNotFound
		}
		return nil, fmt.Errorf("scan weekly workout row: %w", err)
	}
	return &week, nil
}
