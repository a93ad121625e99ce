package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anagoge/liftlog/internal/telemetry/tracing"
	"github.com/anagoge/liftlog/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.ProfilePicture == "" {
		user.ProfilePicture = DefaultProfilePicture
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO app_user
				(username, email, password_hash, is_admin, profile_picture, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id;`,
		user.Username, user.Email, user.PasswordHash, user.IsAdmin, user.ProfilePicture, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))

	return &user, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	return r.scanOne(r.db.QueryRow(
		ctx,
		`SELECT id, username, COALESCE(email, ''), password_hash, is_admin, profile_picture, created_at
			FROM app_user WHERE id = $1;`,
		id,
	))
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByUsername")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("username", username))

	return r.scanOne(r.db.QueryRow(
		ctx,
		`SELECT id, username, COALESCE(email, ''), password_hash, is_admin, profile_picture, created_at
			FROM app_user WHERE username = $1;`,
		username,
	))
}

// IsAdmin reports whether the user exists and carries the admin flag.
func (r *Repo) IsAdmin(ctx context.Context, id int) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.isAdmin")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var isAdmin bool
	err = r.db.QueryRow(ctx, `SELECT is_admin FROM app_user WHERE id = $1;`, id).Scan(&isAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, fmt.Errorf("query is_admin: %w", err)
	}
	return isAdmin, nil
}

func (r *Repo) UpdateProfilePicture(ctx context.Context, id int, pictureKey string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.updateProfilePicture")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE app_user SET profile_picture = $1 WHERE id = $2;`,
		pictureKey, id,
	)
	if err != nil {
		return fmt.Errorf("update profile picture: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repo) scanOne(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsAdmin, &user.ProfilePicture, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
