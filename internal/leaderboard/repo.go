package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/anagoge/liftlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Compute sums weight*reps per user over the sets matching the muscle
// group and window filters, highest total first. Users with no
// matching sets do not appear.
func (r *Repo) Compute(ctx context.Context, muscleGroup string, since *time.Time) (_ []Row, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "leaderboardRepo.compute")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT au.username, SUM(ws.weight * ws.reps) AS total_volume
			FROM workout_set ws
			JOIN workout w ON w.id = ws.workout_id
			JOIN app_user au ON au.id = w.user_id
			JOIN exercise e ON e.id = ws.exercise_id
			WHERE
				($1::text = '' OR e.muscle_group = $1) AND
				($2::date IS NULL OR w.workout_date >= $2)
			GROUP BY au.id, au.username
			ORDER BY total_volume DESC`,
		muscleGroup, since,
	)
	if err != nil {
		return nil, fmt.Errorf("compute leaderboard: %w", err)
	}
	defer rows.Close()

	var leaderboard []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.Username, &row.TotalVolume); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		leaderboard = append(leaderboard, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard rows: %w", err)
	}

	return leaderboard, nil
}
