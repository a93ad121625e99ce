package weekly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/anagoge/liftlog/internal/auth"
	"github.com/anagoge/liftlog/internal/telemetry/tracing"
	"github.com/anagoge/liftlog/internal/templates"
	"github.com/anagoge/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type weeklyService interface {
	CreateWeek(ctx context.Context, requesterID int, rawStartDate time.Time, dayTemplates [7]*int) (*WeeklyWorkout, error)
	UpdateWeek(ctx context.Context, requesterID, weekID int, rawStartDate time.Time, dayTemplates [7]*int) error
	DeleteWeek(ctx context.Context, requesterID, weekID int) error
	GetWeek(ctx context.Context, weekID int) (*WeeklyWorkout, error)
	ListWeeks(ctx context.Context) ([]WeeklyWorkout, error)
	ResolveTodaysTemplate(ctx context.Context, asOf time.Time) (*templates.TemplateView, error)
}

type Handler struct {
	service weeklyService
	// now is swapped out in tests
	now func() time.Time
}

func NewHandler(service weeklyService) *Handler {
	return &Handler{
		service: service,
		now:     time.Now,
	}
}

type weekRequest struct {
	StartDate string `json:"startDate"`
	Sunday    *int   `json:"sunday"`
	Monday    *int   `json:"monday"`
	Tuesday   *int   `json:"tuesday"`
	Wednesday *int   `json:"wednesday"`
	Thursday  *int   `json:"thursday"`
	Friday    *int   `json:"friday"`
	Saturday  *int   `json:"saturday"`
}

func (req *weekRequest) dayTemplates() [7]*int {
	return [7]*int{
		req.Sunday, req.Monday, req.Tuesday, req.Wednesday,
		req.Thursday, req.Friday, req.Saturday,
	}
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weekly.create")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req weekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("create week, unmarshal json params: %s", err)
		http.Error(w, "create week failed", http.StatusBadRequest)
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		http.Error(w, "error, start date invalid", http.StatusBadRequest)
		return
	}

	week, err := handler.service.CreateWeek(ctx, userID, startDate, req.dayTemplates())
	if err != nil {
		handler.writeServiceError(w, err, "create week")
		return
	}

	weekJson, err := json.Marshal(week)
	if err != nil {
		log.Errorf("failed to marshal created week: %s", err)
		http.Error(w, "error, failed to create week", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, weekJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weekly.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	weekID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, week id invalid", http.StatusBadRequest)
		return
	}

	var req weekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("update week, unmarshal json params: %s", err)
		http.Error(w, "update week failed", http.StatusBadRequest)
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		http.Error(w, "error, start date invalid", http.StatusBadRequest)
		return
	}

	if err := handler.service.UpdateWeek(ctx, userID, weekID, startDate, req.dayTemplates()); err != nil {
		handler.writeServiceError(w, err, fmt.Sprintf("update week %d", weekID))
		return
	}

	pkg.WriteTextResponseOK(w, "updated")
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weekly.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	weekID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, week id invalid", http.StatusBadRequest)
		return
	}

	if err := handler.service.DeleteWeek(ctx, userID, weekID); err != nil {
		handler.writeServiceError(w, err, fmt.Sprintf("delete week %d", weekID))
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", weekID))
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weekly.get")
	defer span.End()

	weekID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, week id invalid", http.StatusBadRequest)
		return
	}

	week, err := handler.service.GetWeek(ctx, weekID)
	if errors.Is(err, ErrWeekNotFound) {
		http.Error(w, "error, week not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get week %d: %s", weekID, err)
		http.Error(w, "error, failed to get week", http.StatusInternalServerError)
		return
	}

	weekJson, err := json.Marshal(week)
	if err != nil {
		log.Errorf("failed to marshal week %d: %s", weekID, err)
		http.Error(w, "error, failed to get week", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, weekJson)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weekly.list")
	defer span.End()

	weeks, err := handler.service.ListWeeks(ctx)
	if err != nil {
		log.Errorf("failed to list weeks: %s", err)
		http.Error(w, "error, failed to list weeks", http.StatusInternalServerError)
		return
	}
	if weeks == nil {
		weeks = []WeeklyWorkout{}
	}

	weeksJson, err := json.Marshal(weeks)
	if err != nil {
		log.Errorf("failed to marshal weeks: %s", err)
		http.Error(w, "error, failed to list weeks", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, weeksJson)
}

// HandleToday resolves the suggested workout for the current day of
// week. The template field is null when there is no suggestion.
func (handler *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weekly.today")
	defer span.End()

	view, err := handler.service.ResolveTodaysTemplate(ctx, handler.now())
	if err != nil {
		log.Errorf("failed to resolve today's template: %s", err)
		http.Error(w, "error, failed to resolve today's workout", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(struct {
		Template *templates.TemplateView `json:"template"`
	}{Template: view})
	if err != nil {
		log.Errorf("failed to marshal today's template: %s", err)
		http.Error(w, "error, failed to resolve today's workout", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) writeServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, ErrNotAdmin):
		http.Error(w, "no can do", http.StatusForbidden)
	case errors.Is(err, ErrWeekNotFound):
		http.Error(w, "error, week not found", http.StatusNotFound)
	case pkg.IsForeignKeyViolationError(err):
		http.Error(w, "error, unknown template", http.StatusBadRequest)
	default:
		log.Errorf("%s: %s", action, err)
		http.Error(w, "error, week operation failed", http.StatusInternalServerError)
	}
}
