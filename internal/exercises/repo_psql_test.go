package exercises

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/anagoge/liftlog/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a live database:
//
//	LIFTLOG_TEST_DB_HOST=localhost go test ./internal/exercises/...
func TestRepo_BasicCRUD(t *testing.T) {
	dbHost := os.Getenv("LIFTLOG_TEST_DB_HOST")
	if dbHost == "" {
		t.Skip("LIFTLOG_TEST_DB_HOST not set")
	}

	ctx := context.Background()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: dbHost,
		DBPort: "5432",
		DBName: "liftlog_testing",
	})
	require.NoError(t, err)
	defer dbPool.Close()

	repo := NewRepo(dbPool)

	require.NoError(t, repo.Seed(ctx, DefaultCatalog))
	// seeding twice must not duplicate entries
	require.NoError(t, repo.Seed(ctx, DefaultCatalog))

	seeded, err := repo.List(ctx)
	require.NoError(t, err)
	originalLen := len(seeded)
	require.GreaterOrEqual(t, originalLen, len(DefaultCatalog))

	name := fmt.Sprintf("Test Press %d", time.Now().UnixNano())
	added, err := repo.Add(ctx, Exercise{Name: name, MuscleGroup: "Chest"})
	require.NoError(t, err)
	require.NotNil(t, added)
	defer func() {
		_, err := dbPool.Exec(ctx, `DELETE FROM exercise WHERE id = $1;`, added.ID)
		if err != nil {
			fmt.Println(err)
		}
	}()
	assert.Equal(t, name, added.Name)

	_, err = repo.Add(ctx, Exercise{Name: name, MuscleGroup: "Chest"})
	assert.True(t, errors.Is(err, ErrExerciseExists))

	retrieved, err := repo.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, name, retrieved.Name)
	assert.Equal(t, "Chest", retrieved.MuscleGroup)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, originalLen+1)

	muscleGroups, err := repo.MuscleGroups(ctx)
	require.NoError(t, err)
	assert.Contains(t, muscleGroups, "Chest")
}
