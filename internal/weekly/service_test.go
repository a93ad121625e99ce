package weekly

import (
	"context"
	"testing"
	"time"

	"github.com/anagoge/liftlog/internal/exercises"
	"github.com/anagoge/liftlog/internal/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminCheckerMock struct {
	admins map[int]bool
}

func (m *adminCheckerMock) IsAdmin(_ context.Context, userID int) (bool, error) {
	return m.admins[userID], nil
}

func newTestService(t *testing.T) (*Service, *repoMock, *templates.Service) {
	t.Helper()
	repo := NewRepoMock()
	templatesRepo := templates.NewRepoMock()
	templatesRepo.SetOwnerName(1, "coach")
	templatesService := templates.NewService(templatesRepo, exerciseGetterStub{})
	service := NewService(repo, templatesRepo, &adminCheckerMock{admins: map[int]bool{1: true}})
	return service, repo, templatesService
}

type exerciseGetterStub struct{}

func (exerciseGetterStub) Get(_ context.Context, id int) (*exercises.Exercise, error) {
	return &exercises.Exercise{ID: id, Name: "Bench Press", MuscleGroup: "Chest"}, nil
}

func TestService_CreateWeek_NormalizesStartDate(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	wednesday := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	week, err := service.CreateWeek(ctx, 1, wednesday, [7]*int{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), week.WeekStartDate)

	stored, err := repo.Get(ctx, week.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, stored.WeekStartDate.Weekday())
}

func TestService_CreateWeek_NotAdmin(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.CreateWeek(context.Background(), 2, time.Now(), [7]*int{})
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestService_ResolveTodaysTemplate(t *testing.T) {
	service, _, templatesService := newTestService(t)
	ctx := context.Background()

	templateA, err := templatesService.Create(ctx, 1, "Template A", []templates.TemplateExercise{
		{ExerciseID: 1, Sets: 3, Reps: 8},
	})
	require.NoError(t, err)

	// Sunday slot holds template A, every other slot is a rest day
	sunday := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err = service.CreateWeek(ctx, 1, sunday, [7]*int{0: &templateA.ID})
	require.NoError(t, err)

	view, err := service.ResolveTodaysTemplate(ctx, sunday.Add(10*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, "Template A", view.Name)

	monday := sunday.AddDate(0, 0, 1)
	view, err = service.ResolveTodaysTemplate(ctx, monday)
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestService_ResolveTodaysTemplate_NoWeeks(t *testing.T) {
	service, _, _ := newTestService(t)

	view, err := service.ResolveTodaysTemplate(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestService_ResolveTodaysTemplate_PicksLatestWeek(t *testing.T) {
	service, _, templatesService := newTestService(t)
	ctx := context.Background()

	older, err := templatesService.Create(ctx, 1, "Older Plan", []templates.TemplateExercise{
		{ExerciseID: 1, Sets: 3, Reps: 8},
	})
	require.NoError(t, err)
	newer, err := templatesService.Create(ctx, 1, "Newer Plan", []templates.TemplateExercise{
		{ExerciseID: 1, Sets: 5, Reps: 5},
	})
	require.NoError(t, err)

	sunday := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err = service.CreateWeek(ctx, 1, sunday, [7]*int{0: &older.ID})
	require.NoError(t, err)
	// second record for the same week wins by recency
	_, err = service.CreateWeek(ctx, 1, sunday, [7]*int{0: &newer.ID})
	require.NoError(t, err)

	view, err := service.ResolveTodaysTemplate(ctx, sunday)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, "Newer Plan", view.Name)
}

func TestService_ResolveTodaysTemplate_DeletedTemplate(t *testing.T) {
	service, _, templatesService := newTestService(t)
	ctx := context.Background()

	template, err := templatesService.Create(ctx, 1, "Doomed Plan", []templates.TemplateExercise{
		{ExerciseID: 1, Sets: 3, Reps: 8},
	})
	require.NoError(t, err)

	sunday := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err = service.CreateWeek(ctx, 1, sunday, [7]*int{0: &template.ID})
	require.NoError(t, err)

	require.NoError(t, templatesService.Delete(ctx, template.ID, 1))

	view, err := service.ResolveTodaysTemplate(ctx, sunday)
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestService_UpdateDeleteWeek(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	sunday := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	week, err := service.CreateWeek(ctx, 1, sunday, [7]*int{})
	require.NoError(t, err)

	nextWednesday := sunday.AddDate(0, 0, 10)
	require.NoError(t, service.UpdateWeek(ctx, 1, week.ID, nextWednesday, [7]*int{}))

	updated, err := repo.Get(ctx, week.ID)
	require.NoError(t, err)
	assert.Equal(t, sunday.AddDate(0, 0, 7), updated.WeekStartDate)

	require.ErrorIs(t, service.UpdateWeek(ctx, 1, 999, sunday, [7]*int{}), ErrWeekNotFound)
	require.ErrorIs(t, service.DeleteWeek(ctx, 2, week.ID), ErrNotAdmin)
	require.NoError(t, service.DeleteWeek(ctx, 1, week.ID))
	require.ErrorIs(t, service.DeleteWeek(ctx, 1, week.ID), ErrWeekNotFound)
}
