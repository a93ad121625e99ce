package strava

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anagoge/liftlog/internal/auth"
	"github.com/anagoge/liftlog/internal/telemetry/tracing"
	"github.com/anagoge/liftlog/pkg"

	log "github.com/sirupsen/logrus"
)

type stravaService interface {
	AuthURL(userID int) (string, error)
	CompleteAuthorization(ctx context.Context, state, code string) (int, error)
	Sync(ctx context.Context, userID int) (int, error)
	Disconnect(ctx context.Context, userID int) error
	ListWorkouts(ctx context.Context, userID int) ([]ImportedWorkout, error)
	IsConnected(ctx context.Context, userID int) (bool, error)
}

type Handler struct {
	service stravaService
}

func NewHandler(service stravaService) *Handler {
	return &Handler{service: service}
}

// HandleConnect redirects the user to the Strava authorization page.
func (handler *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.strava.connect")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	authURL, err := handler.service.AuthURL(userID)
	if err != nil {
		log.Errorf("strava connect for user %d: %s", userID, err)
		http.Error(w, "error, strava connect failed", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback finishes the OAuth flow. Strava calls it without a
// session, the pending state identifies the user.
func (handler *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.strava.callback")
	defer span.End()

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		http.Error(w, "error, state or code missing", http.StatusBadRequest)
		return
	}

	userID, err := handler.service.CompleteAuthorization(ctx, state, code)
	if errors.Is(err, ErrInvalidState) {
		http.Error(w, "error, unknown state", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("strava callback: %s", err)
		http.Error(w, "error, strava connect failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("strava connected for user %d", userID)
	pkg.WriteTextResponseOK(w, "strava connected")
}

func (handler *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.strava.sync")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	imported, err := handler.service.Sync(ctx, userID)
	if errors.Is(err, ErrNotConnected) {
		http.Error(w, "error, strava not connected", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("strava sync for user %d: %s", userID, err)
		http.Error(w, "error, strava sync failed", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(struct {
		Imported int `json:"imported"`
	}{Imported: imported})
	if err != nil {
		log.Errorf("failed to marshal strava sync result: %s", err)
		http.Error(w, "error, strava sync failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.strava.disconnect")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := handler.service.Disconnect(ctx, userID); err != nil {
		if errors.Is(err, ErrNotConnected) {
			http.Error(w, "error, strava not connected", http.StatusBadRequest)
			return
		}
		log.Errorf("strava disconnect for user %d: %s", userID, err)
		http.Error(w, "error, strava disconnect failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "strava disconnected")
}

func (handler *Handler) HandleListWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.strava.listWorkouts")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	workouts, err := handler.service.ListWorkouts(ctx, userID)
	if err != nil {
		log.Errorf("list strava workouts for user %d: %s", userID, err)
		http.Error(w, "error, failed to list strava workouts", http.StatusInternalServerError)
		return
	}
	if workouts == nil {
		workouts = []ImportedWorkout{}
	}

	workoutsJson, err := json.Marshal(workouts)
	if err != nil {
		log.Errorf("failed to marshal strava workouts: %s", err)
		http.Error(w, "error, failed to list strava workouts", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, workoutsJson)
}

func (handler *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.strava.status")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	connected, err := handler.service.IsConnected(ctx, userID)
	if err != nil {
		log.Errorf("strava status for user %d: %s", userID, err)
		http.Error(w, "error, failed to get strava status", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(struct {
		Connected bool `json:"connected"`
	}{Connected: connected})
	if err != nil {
		log.Errorf("failed to marshal strava status: %s", err)
		http.Error(w, "error, failed to get strava status", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
