package workouts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anagoge/liftlog/internal/auth"
	"github.com/anagoge/liftlog/internal/telemetry/metrics"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addTestWorkout(t *testing.T, repo *repoMock, userID int) *Workout {
	t.Helper()
	workout, err := repo.Add(context.Background(), Workout{
		UserID: userID,
		Sets: []Set{
			{ExerciseID: 1, Weight: gofakeit.Float64Range(20, 200), Reps: gofakeit.Number(1, 12)},
			{ExerciseID: 1, Weight: gofakeit.Float64Range(20, 200), Reps: gofakeit.Number(1, 12)},
		},
	})
	require.NoError(t, err)
	return workout
}

func TestHandler_Add(t *testing.T) {
	repo := NewRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())

	req := workoutRequest{
		Date: "2024-03-11",
		Sets: []setRequest{
			{ExerciseID: 1, Weight: 100, Reps: 5},
		},
	}
	reqBytes, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest("POST", "/workouts", bytes.NewReader(reqBytes))
	httpReq = httpReq.WithContext(auth.ContextWithUserID(httpReq.Context(), 1))
	rr := httptest.NewRecorder()
	handler.HandleAdd(rr, httpReq)

	require.Equal(t, http.StatusCreated, rr.Code)
	var added Workout
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, 1, added.UserID)
	require.Len(t, added.Sets, 1)
	assert.Equal(t, added.ID, added.Sets[0].WorkoutID)
}

func TestHandler_Add_InvalidSet(t *testing.T) {
	handler := NewHandler(NewRepoMock(), metrics.NewTestManager())

	req := workoutRequest{
		Date: "2024-03-11",
		Sets: []setRequest{{ExerciseID: 1, Weight: 100, Reps: 0}},
	}
	reqBytes, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest("POST", "/workouts", bytes.NewReader(reqBytes))
	httpReq = httpReq.WithContext(auth.ContextWithUserID(httpReq.Context(), 1))
	rr := httptest.NewRecorder()
	handler.HandleAdd(rr, httpReq)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Update_NotOwner(t *testing.T) {
	repo := NewRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())
	workout := addTestWorkout(t, repo, 1)

	req := workoutRequest{Date: "2024-03-12"}
	reqBytes, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest("PUT", fmt.Sprintf("/workouts/%d", workout.ID), bytes.NewReader(reqBytes))
	httpReq = mux.SetURLVars(httpReq, map[string]string{"id": fmt.Sprintf("%d", workout.ID)})
	httpReq = httpReq.WithContext(auth.ContextWithUserID(httpReq.Context(), 2))
	rr := httptest.NewRecorder()
	handler.HandleUpdate(rr, httpReq)

	assert.Equal(t, http.StatusForbidden, rr.Code)

	unchanged, err := repo.Get(context.Background(), workout.ID)
	require.NoError(t, err)
	assert.Len(t, unchanged.Sets, 2)
}

func TestHandler_Update_FullReplace(t *testing.T) {
	repo := NewRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())
	workout := addTestWorkout(t, repo, 1)

	req := workoutRequest{
		Date: "2024-03-12",
		Sets: []setRequest{{ExerciseID: 2, Weight: 60, Reps: 12}},
	}
	reqBytes, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest("PUT", fmt.Sprintf("/workouts/%d", workout.ID), bytes.NewReader(reqBytes))
	httpReq = mux.SetURLVars(httpReq, map[string]string{"id": fmt.Sprintf("%d", workout.ID)})
	httpReq = httpReq.WithContext(auth.ContextWithUserID(httpReq.Context(), 1))
	rr := httptest.NewRecorder()
	handler.HandleUpdate(rr, httpReq)

	require.Equal(t, http.StatusOK, rr.Code)

	updated, err := repo.Get(context.Background(), workout.ID)
	require.NoError(t, err)
	require.Len(t, updated.Sets, 1)
	assert.Equal(t, 2, updated.Sets[0].ExerciseID)
	assert.Equal(t, 12, updated.Sets[0].Reps)
}

func TestHandler_Delete(t *testing.T) {
	repo := NewRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())
	workout := addTestWorkout(t, repo, 1)

	httpReq := httptest.NewRequest("DELETE", fmt.Sprintf("/workouts/%d", workout.ID), nil)
	httpReq = mux.SetURLVars(httpReq, map[string]string{"id": fmt.Sprintf("%d", workout.ID)})
	httpReq = httpReq.WithContext(auth.ContextWithUserID(httpReq.Context(), 1))
	rr := httptest.NewRecorder()
	handler.HandleDelete(rr, httpReq)

	require.Equal(t, http.StatusOK, rr.Code)

	_, err := repo.Get(context.Background(), workout.ID)
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
}

func TestHandler_List(t *testing.T) {
	repo := NewRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())
	addTestWorkout(t, repo, 1)
	addTestWorkout(t, repo, 1)
	addTestWorkout(t, repo, 2)

	httpReq := httptest.NewRequest("GET", "/workouts", nil)
	httpReq = httpReq.WithContext(auth.ContextWithUserID(httpReq.Context(), 1))
	rr := httptest.NewRecorder()
	handler.HandleList(rr, httpReq)

	require.Equal(t, http.StatusOK, rr.Code)
	var workouts []Workout
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &workouts))
	assert.Len(t, workouts, 2)
}
