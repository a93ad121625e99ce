package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/anagoge/liftlog/internal/auth"
	"github.com/anagoge/liftlog/internal/telemetry/tracing"
	"github.com/anagoge/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type templatesService interface {
	Create(ctx context.Context, ownerID int, name string, entries []TemplateExercise) (*Template, error)
	Update(ctx context.Context, templateID, requesterID int, name string, entries []TemplateExercise) error
	Delete(ctx context.Context, templateID, requesterID int) error
	View(ctx context.Context, templateID int) (*TemplateView, error)
	List(ctx context.Context) ([]Template, error)
}

type Handler struct {
	service templatesService
}

func NewHandler(service templatesService) *Handler {
	return &Handler{service: service}
}

type entryRequest struct {
	ExerciseID int `json:"exerciseId"`
	Sets       int `json:"sets"`
	Reps       int `json:"reps"`
}

type templateRequest struct {
	Name      string         `json:"name"`
	Exercises []entryRequest `json:"exercises"`
}

func (req *templateRequest) entries() []TemplateExercise {
	var entries []TemplateExercise
	for _, e := range req.Exercises {
		entries = append(entries, TemplateExercise{
			ExerciseID: e.ExerciseID,
			Sets:       e.Sets,
			Reps:       e.Reps,
		})
	}
	return entries
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.create")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("create template, unmarshal json params: %s", err)
		http.Error(w, "create template failed", http.StatusBadRequest)
		return
	}

	template, err := handler.service.Create(ctx, userID, req.Name, req.entries())
	if err != nil {
		handler.writeServiceError(w, err, "create template")
		return
	}

	templateJson, err := json.Marshal(template)
	if err != nil {
		log.Errorf("failed to marshal created template: %s", err)
		http.Error(w, "error, failed to create template", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, templateJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	templateID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, template id invalid", http.StatusBadRequest)
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("update template, unmarshal json params: %s", err)
		http.Error(w, "update template failed", http.StatusBadRequest)
		return
	}

	if err := handler.service.Update(ctx, templateID, userID, req.Name, req.entries()); err != nil {
		handler.writeServiceError(w, err, fmt.Sprintf("update template %d", templateID))
		return
	}

	pkg.WriteTextResponseOK(w, "updated")
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	templateID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, template id invalid", http.StatusBadRequest)
		return
	}

	if err := handler.service.Delete(ctx, templateID, userID); err != nil {
		handler.writeServiceError(w, err, fmt.Sprintf("delete template %d", templateID))
		return
	}

	pkg.WriteTextResponseOK(w, fmt.Sprintf("deleted:%d", templateID))
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.list")
	defer span.End()

	templates, err := handler.service.List(ctx)
	if err != nil {
		log.Errorf("failed to list templates: %s", err)
		http.Error(w, "error, failed to list templates", http.StatusInternalServerError)
		return
	}
	if templates == nil {
		templates = []Template{}
	}

	templatesJson, err := json.Marshal(templates)
	if err != nil {
		log.Errorf("failed to marshal templates: %s", err)
		http.Error(w, "error, failed to list templates", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, templatesJson)
}

// HandleGetView serves the denormalized template JSON, used both for
// the template detail page and the load-into-form endpoint.
func (handler *Handler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.getView")
	defer span.End()

	templateID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, template id invalid", http.StatusBadRequest)
		return
	}

	view, err := handler.service.View(ctx, templateID)
	if errors.Is(err, ErrTemplateNotFound) {
		http.Error(w, "error, template not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to get template view %d: %s", templateID, err)
		http.Error(w, "error, failed to get template", http.StatusInternalServerError)
		return
	}

	viewJson, err := json.Marshal(view)
	if err != nil {
		log.Errorf("failed to marshal template view %d: %s", templateID, err)
		http.Error(w, "error, failed to get template", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, viewJson)
}

func (handler *Handler) writeServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, ErrTemplateNotFound):
		http.Error(w, "error, template not found", http.StatusNotFound)
	case errors.Is(err, ErrNotTemplateOwner):
		http.Error(w, "no can do", http.StatusForbidden)
	case errors.Is(err, ErrInvalidTemplate), errors.Is(err, ErrUnknownExercise):
		http.Error(w, "error, invalid template", http.StatusBadRequest)
	default:
		log.Errorf("%s: %s", action, err)
		http.Error(w, "error, template operation failed", http.StatusInternalServerError)
	}
}
