package templates

import (
	"context"
	"testing"

	"github.com/anagoge/liftlog/internal/exercises"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *repoMock) {
	t.Helper()
	exercisesRepo := exercises.NewRepoMock()
	require.NoError(t, exercisesRepo.Seed(context.Background(), exercises.DefaultCatalog))
	repo := NewRepoMock()
	return NewService(repo, exercisesRepo), repo
}

func TestService_Create(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	template, err := service.Create(ctx, 1, "Push Day", []TemplateExercise{
		{ExerciseID: 1, Sets: 3, Reps: 8},
		{ExerciseID: 2, Sets: 4, Reps: 6},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, template.OwnerID)
	require.Len(t, template.Exercises, 2)
	assert.Equal(t, template.ID, template.Exercises[0].TemplateID)

	stored, err := repo.Get(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, "Push Day", stored.Name)
}

func TestService_Create_Invalid(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, 1, "  ", nil)
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = service.Create(ctx, 1, "Push Day", []TemplateExercise{
		{ExerciseID: 1, Sets: 0, Reps: 8},
	})
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = service.Create(ctx, 1, "Push Day", []TemplateExercise{
		{ExerciseID: 999, Sets: 3, Reps: 8},
	})
	assert.ErrorIs(t, err, ErrUnknownExercise)
}

func TestService_Update_NotOwner(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	template, err := service.Create(ctx, 1, "Push Day", []TemplateExercise{
		{ExerciseID: 1, Sets: 3, Reps: 8},
	})
	require.NoError(t, err)

	err = service.Update(ctx, template.ID, 2, "Stolen", []TemplateExercise{
		{ExerciseID: 2, Sets: 1, Reps: 1},
	})
	assert.ErrorIs(t, err, ErrNotTemplateOwner)

	unchanged, err := repo.Get(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, "Push Day", unchanged.Name)
	require.Len(t, unchanged.Exercises, 1)
	assert.Equal(t, 1, unchanged.Exercises[0].ExerciseID)
}

func TestService_Update_FullReplace(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	template, err := service.Create(ctx, 1, "Push Day", []TemplateExercise{
		{ExerciseID: 1, Sets: 3, Reps: 8},
		{ExerciseID: 2, Sets: 4, Reps: 6},
	})
	require.NoError(t, err)

	err = service.Update(ctx, template.ID, 1, "Pull Day", []TemplateExercise{
		{ExerciseID: 3, Sets: 5, Reps: 5},
	})
	require.NoError(t, err)

	updated, err := repo.Get(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pull Day", updated.Name)
	require.Len(t, updated.Exercises, 1)
	assert.Equal(t, 3, updated.Exercises[0].ExerciseID)
}

func TestService_Delete(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	first, err := service.Create(ctx, 1, "Push Day", []TemplateExercise{
		{ExerciseID: 1, Sets: 3, Reps: 8},
	})
	require.NoError(t, err)
	second, err := service.Create(ctx, 1, "Pull Day", []TemplateExercise{
		{ExerciseID: 3, Sets: 5, Reps: 5},
	})
	require.NoError(t, err)

	require.ErrorIs(t, service.Delete(ctx, first.ID, 2), ErrNotTemplateOwner)
	require.NoError(t, service.Delete(ctx, first.ID, 1))

	_, err = repo.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	remaining, err := repo.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Len(t, remaining.Exercises, 1)
}

func TestService_View(t *testing.T) {
	exercisesRepo := exercises.NewRepoMock()
	require.NoError(t, exercisesRepo.Seed(context.Background(), exercises.DefaultCatalog))
	repo := NewRepoMock()
	repo.SetOwnerName(1, "ana")
	service := NewService(repo, exercisesRepo)
	ctx := context.Background()

	benchPress, err := exercisesRepo.Get(ctx, 1)
	require.NoError(t, err)
	repo.SetExerciseName(benchPress.ID, benchPress.Name)

	template, err := service.Create(ctx, 1, "Push Day", []TemplateExercise{
		{ExerciseID: benchPress.ID, Sets: 3, Reps: 8},
	})
	require.NoError(t, err)

	view, err := service.View(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, "Push Day", view.Name)
	assert.Equal(t, "ana", view.CreatedByName)
	assert.Equal(t, 1, view.CreatedByID)
	require.Len(t, view.Exercises, 1)
	assert.Equal(t, benchPress.Name, view.Exercises[0].Name)
	assert.Equal(t, 3, view.Exercises[0].Sets)
	assert.Equal(t, 8, view.Exercises[0].Reps)
}
