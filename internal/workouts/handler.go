package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/anagoge/liftlog/internal/auth"
	"github.com/anagoge/liftlog/internal/telemetry/metrics"
	"github.com/anagoge/liftlog/internal/telemetry/tracing"
	"github.com/anagoge/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type workoutsRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	Update(ctx context.Context, workout Workout) error
	Delete(ctx context.Context, id int) error
	Get(ctx context.Context, id int) (*Workout, error)
	ListByUser(ctx context.Context, userID int) ([]Workout, error)
}

type Handler struct {
	repo    workoutsRepo
	metrics *metrics.Manager
}

func NewHandler(repo workoutsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

type setRequest struct {
	ExerciseID int     `json:"exerciseId"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
}

type workoutRequest struct {
	Date string       `json:"date"`
	Sets []setRequest `json:"sets"`
}

func (req *workoutRequest) toWorkout() (*Workout, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("parse workout date: %w", err)
	}

	workout := Workout{Date: date}
	for _, s := range req.Sets {
		if s.ExerciseID <= 0 || s.Reps < 1 || s.Weight < 0 {
			return nil, errors.New("invalid set")
		}
		workout.Sets = append(workout.Sets, Set{
			ExerciseID: s.ExerciseID,
			Weight:     s.Weight,
			Reps:       s.Reps,
		})
	}

	return &workout, nil
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("add workout, unmarshal json params: %s", err)
		http.Error(w, "add workout failed", http.StatusBadRequest)
		return
	}

	workout, err := req.toWorkout()
	if err != nil {
		http.Error(w, "error, invalid workout", http.StatusBadRequest)
		return
	}
	workout.UserID = userID

	addedWorkout, err := handler.repo.Add(ctx, *workout)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "error, unknown exercise", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to add workout for user %d: %s", userID, err)
		http.Error(w, "error, failed to add workout", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterWorkoutsAdded.Inc()

	workoutJson, err := json.Marshal(addedWorkout)
	if err != nil {
		log.Errorf("failed to marshal added workout: %s", err)
		http.Error(w, "error, failed to add workout", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	workoutID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, workout id invalid", http.StatusBadRequest)
		return
	}

	existing, err := handler.repo.Get(ctx, workoutID)
	if errors.Is(err, ErrWorkoutNotFound) {
		http.Error(w, "error, workout not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("update workout %d, get: %s", workoutID, err)
		http.Error(w, "error, failed to update workout", http.StatusInternalServerError)
		return
	}
	if existing.UserID != userID {
		http.Error(w, "no can do", http.StatusForbidden)
		return
	}

	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("update workout, unmarshal json params: %s", err)
		http.Error(w, "update workout failed", http.StatusBadRequest)
		return
	}

	workout, err := req.toWorkout()
	if err != nil {
		http.Error(w, "error, invalid workout", http.StatusBadRequest)
		return
	}
	workout.ID = workoutID
	workout.UserID = userID

	if err := handler.repo.Update(ctx, *workout); err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			http.Error(w, "error, unknown exercise", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to update workout %d: %s", workoutID, err)
		http.Error(w, "error, failed to update workout", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "updated")
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	workoutID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, workout id invalid", http.StatusBadRequest)
		return
	}

	existing, err := handler.repo.Get(ctx, workoutID)
	if errors.Is(err, ErrWorkoutNotFound) {
		http.Error(w, "error, workout not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("delete workout %d, get: %s", workoutID, err)
		http.Error(w, "error, failed to delete workout", http.StatusInternalServerError)
		return
	}
	if existing.UserID != userID {
		http.Error(w, "no can do", http.StatusForbidden)
		return
	}

	if err := handler.repo.Delete(ctx, workoutID); err != nil {
		log.Errorf("failed to delete workout %d: %s", workoutID, err)
		http.Error(w, "error, failed to delete workout", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", workoutID))
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	workoutID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, workout id invalid", http.StatusBadRequest)
		return
	}

	workout, err := handler.repo.Get(ctx, workoutID)
	if errors.Is(err, ErrWorkoutNotFound) {
		http.Error(w, "error, workout not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get workout %d: %s", workoutID, err)
		http.Error(w, "error, failed to get workout", http.StatusInternalServerError)
		return
	}
	if workout.UserID != userID {
		http.Error(w, "no can do", http.StatusForbidden)
		return
	}

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("failed to marshal workout %d: %s", workoutID, err)
		http.Error(w, "error, failed to get workout", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutJson)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	workouts, err := handler.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Errorf("list workouts for user %d: %s", userID, err)
		http.Error(w, "error, failed to list workouts", http.StatusInternalServerError)
		return
	}
	if workouts == nil {
		workouts = []Workout{}
	}

	workoutsJson, err := json.Marshal(workouts)
	if err != nil {
		log.Errorf("failed to marshal workouts: %s", err)
		http.Error(w, "error, failed to list workouts", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutsJson)
}
