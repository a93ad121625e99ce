package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/anagoge/liftlog/internal/config"
	"github.com/anagoge/liftlog/internal/db"
	"github.com/anagoge/liftlog/internal/exercises"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS app_user (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT,
		password_hash TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		profile_picture TEXT NOT NULL DEFAULT 'placeholderAvatar.jpg',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS exercise (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		muscle_group TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS workout (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES app_user (id),
		workout_date DATE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS workout_set (
		id SERIAL PRIMARY KEY,
		workout_id INTEGER NOT NULL REFERENCES workout (id) ON DELETE CASCADE,
		exercise_id INTEGER NOT NULL REFERENCES exercise (id),
		weight DOUBLE PRECISION NOT NULL,
		reps INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS workout_template (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id INTEGER NOT NULL REFERENCES app_user (id)
	)`,
	`CREATE TABLE IF NOT EXISTS workout_template_exercise (
		id SERIAL PRIMARY KEY,
		template_id INTEGER NOT NULL REFERENCES workout_template (id) ON DELETE CASCADE,
		exercise_id INTEGER NOT NULL REFERENCES exercise (id),
		sets INTEGER NOT NULL,
		reps INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS weekly_workout (
		id SERIAL PRIMARY KEY,
		week_start_date DATE NOT NULL,
		sunday_template_id INTEGER REFERENCES workout_template (id) ON DELETE SET NULL,
		monday_template_id INTEGER REFERENCES workout_template (id) ON DELETE SET NULL,
		tuesday_template_id INTEGER REFERENCES workout_template (id) ON DELETE SET NULL,
		wednesday_template_id INTEGER REFERENCES workout_template (id) ON DELETE SET NULL,
		thursday_template_id INTEGER REFERENCES workout_template (id) ON DELETE SET NULL,
		friday_template_id INTEGER REFERENCES workout_template (id) ON DELETE SET NULL,
		saturday_template_id INTEGER REFERENCES workout_template (id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS strava_account (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL UNIQUE REFERENCES app_user (id),
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS strava_workout (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES app_user (id),
		strava_id BIGINT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		distance DOUBLE PRECISION NOT NULL,
		moving_time INTEGER NOT NULL,
		average_speed DOUBLE PRECISION NOT NULL,
		total_elevation_gain DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_workout_user_date ON workout (user_id, workout_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_workout_set_workout ON workout_set (workout_id)`,
	`CREATE INDEX IF NOT EXISTS idx_weekly_workout_start ON weekly_workout (week_start_date DESC, id DESC)`,
}

// creates the database schema and seeds the exercise catalog
func main() {
	fmt.Println("starting db setup ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: cfg.PostgresHost,
		DBPort: cfg.PostgresPort,
		DBName: cfg.PostgresDBName,
	})
	if err != nil {
		fmt.Printf("new db pool: %s\n", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	for _, stmt := range schemaStatements {
		if _, err := dbPool.Exec(ctx, stmt); err != nil {
			fmt.Printf("db setup failed: %s\n", err)
			os.Exit(1)
		}
	}

	if err := exercises.NewRepo(dbPool).Seed(ctx, exercises.DefaultCatalog); err != nil {
		fmt.Printf("seed exercise catalog failed: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("\ndb setup completed")
}
