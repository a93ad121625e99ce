package exercises

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anagoge/liftlog/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminCheckerMock struct {
	admins map[int]bool
}

func (m *adminCheckerMock) IsAdmin(_ context.Context, userID int) (bool, error) {
	return m.admins[userID], nil
}

func TestHandler_List(t *testing.T) {
	repo := NewRepoMock()
	require.NoError(t, repo.Seed(context.Background(), DefaultCatalog))
	handler := NewHandler(repo, &adminCheckerMock{})

	req := httptest.NewRequest("GET", "/exercises", nil)
	rr := httptest.NewRecorder()
	handler.HandleList(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var exercises []Exercise
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &exercises))
	assert.Len(t, exercises, len(DefaultCatalog))
}

func TestHandler_Add(t *testing.T) {
	repo := NewRepoMock()
	require.NoError(t, repo.Seed(context.Background(), DefaultCatalog))
	handler := NewHandler(repo, &adminCheckerMock{admins: map[int]bool{1: true}})

	newExercise := Exercise{Name: "Hip Thrust", MuscleGroup: "Legs"}
	reqBytes, err := json.Marshal(newExercise)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/exercises", bytes.NewReader(reqBytes))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.ContextWithUserID(req.Context(), 1))
	rr := httptest.NewRecorder()
	handler.HandleAdd(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var added Exercise
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Greater(t, added.ID, 0)
	assert.Equal(t, "Hip Thrust", added.Name)
}

func TestHandler_Add_Duplicate(t *testing.T) {
	repo := NewRepoMock()
	require.NoError(t, repo.Seed(context.Background(), DefaultCatalog))
	handler := NewHandler(repo, &adminCheckerMock{admins: map[int]bool{1: true}})

	// differs from the seeded "Bench Press" only by case
	duplicate := Exercise{Name: "bench press", MuscleGroup: "Chest"}
	reqBytes, err := json.Marshal(duplicate)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/exercises", bytes.NewReader(reqBytes))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.ContextWithUserID(req.Context(), 1))
	rr := httptest.NewRecorder()
	handler.HandleAdd(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandler_Add_NotAdmin(t *testing.T) {
	repo := NewRepoMock()
	handler := NewHandler(repo, &adminCheckerMock{admins: map[int]bool{}})

	reqBytes, err := json.Marshal(Exercise{Name: "Hip Thrust", MuscleGroup: "Legs"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/exercises", bytes.NewReader(reqBytes))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.ContextWithUserID(req.Context(), 2))
	rr := httptest.NewRecorder()
	handler.HandleAdd(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandler_Add_Unauthorized(t *testing.T) {
	handler := NewHandler(NewRepoMock(), &adminCheckerMock{})

	req := httptest.NewRequest("POST", "/exercises", nil)
	rr := httptest.NewRecorder()
	handler.HandleAdd(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
