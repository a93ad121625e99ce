package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/anagoge/liftlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTemplateNotFound = errors.New("template not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Add stores the template and all of its entries in one transaction.
func (r *Repo) Add(ctx context.Context, template Template) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "templatesRepo.add")
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
			`INSERT INTO workout_template (name, owner_id) VALUES ($1, $2) RETURNING id`,
			template.Name, template.OwnerID,
		).
		Scan(&template.ID); err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}

	for i := range template.Exercises {
		if err := insertEntry(ctx, tx, template.ID, &template.Exercises[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &template, nil
}

// Update renames the template and replaces its full entry list in one
// transaction. The previous entries are removed, not merged.
func (r *Repo) Update(ctx context.Context, template Template) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "templatesRepo.update")
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
		`UPDATE workout_template SET name = $1 WHERE id = $2`,
		template.Name, template.ID,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM workout_template_exercise WHERE template_id = $1`, template.ID,
	); err != nil {
		return fmt.Errorf("delete previous entries: %w", err)
	}

	for i := range template.Exercises {
		if err := insertEntry(ctx, tx, template.ID, &template.Exercises[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "templatesRepo.delete")
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

	if _, err := tx.Exec(ctx,
		`DELETE FROM workout_template_exercise WHERE template_id = $1`, id,
	); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM workout_template WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "templatesRepo.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var template Template
	if err := r.db.
		QueryRow(ctx,
			`SELECT id, name, owner_id FROM workout_template WHERE id = $1`, id,
		).
		Scan(&template.ID, &template.Name, &template.OwnerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	template.Exercises, err = r.entriesFor(ctx, template.ID)
	if err != nil {
		return nil, err
	}

	return &template, nil
}

func (r *Repo) List(ctx context.Context) (_ []Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "templatesRepo.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, name, owner_id FROM workout_template ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var template Template
		if err := rows.Scan(&template.ID, &template.Name, &template.OwnerID); err != nil {
			return nil, fmt.Errorf("scan template row: %w", err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("template rows: %w", err)
	}

	return templates, nil
}

// GetView resolves the template's owner and exercise names at read time.
func (r *Repo) GetView(ctx context.Context, id int) (_ *TemplateView, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "templatesRepo.getView")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var view TemplateView
	if err := r.db.
		QueryRow(ctx,
			`SELECT wt.id, wt.name, wt.owner_id, au.username
				FROM workout_template wt
				JOIN app_user au ON au.id = wt.owner_id
				WHERE wt.id = $1`,
			id,
		).
		Scan(&view.ID, &view.Name, &view.CreatedByID, &view.CreatedByName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT e.name, wte.sets, wte.reps
			FROM workout_template_exercise wte
			JOIN exercise e ON e.id = wte.exercise_id
			WHERE wte.template_id = $1
			ORDER BY wte.id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list view entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry TemplateViewExercise
		if err := rows.Scan(&entry.Name, &entry.Sets, &entry.Reps); err != nil {
			return nil, fmt.Errorf("scan view entry row: %w", err)
		}
		view.Exercises = append(view.Exercises, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("view entry rows: %w", err)
	}

	return &view, nil
}

func (r *Repo) entriesFor(ctx context.Context, templateID int) ([]TemplateExercise, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, template_id, exercise_id, sets, reps
			FROM workout_template_exercise
			WHERE template_id = $1
			ORDER BY id`,
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []TemplateExercise
	for rows.Next() {
		var entry TemplateExercise
		if err := rows.Scan(&entry.ID, &entry.TemplateID, &entry.ExerciseID, &entry.Sets, &entry.Reps); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("entry rows: %w", err)
	}

	return entries, nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, templateID int, entry *TemplateExercise) error {
	entry.TemplateID = templateID
	if err := tx.
		QueryRow(ctx,
			`INSERT INTO workout_template_exercise (template_id, exercise_id, sets, reps)
				VALUES ($1, $2, $3, $4) RETURNING id`,
			entry.TemplateID, entry.ExerciseID, entry.Sets, entry.Reps,
		).
		Scan(&entry.ID); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}
