package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/anagoge/liftlog/internal/telemetry/tracing"
	"github.com/anagoge/liftlog/pkg"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

// computed leaderboards are cached briefly, they are read far more
// often than workouts are logged
const cacheExpireSeconds = 60

type leaderboardRepo interface {
	Compute(ctx context.Context, muscleGroup string, since *time.Time) ([]Row, error)
}

type muscleGroupsLister interface {
	MuscleGroups(ctx context.Context) ([]string, error)
}

type Handler struct {
	repo         leaderboardRepo
	muscleGroups muscleGroupsLister
	cache        *freecache.Cache
	// now is swapped out in tests
	now func() time.Time
}

func NewHandler(repo leaderboardRepo, muscleGroups muscleGroupsLister, cache *freecache.Cache) *Handler {
	return &Handler{
		repo:         repo,
		muscleGroups: muscleGroups,
		cache:        cache,
		now:          time.Now,
	}
}

type leaderboardResponse struct {
	Rows         []Row      `json:"rows"`
	MuscleGroups []string   `json:"muscleGroups"`
	TimePeriod   TimePeriod `json:"timePeriod"`
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.leaderboard.get")
	defer span.End()

	muscleGroup := r.URL.Query().Get("muscle_group")
	timePeriod, err := ParseTimePeriod(r.URL.Query().Get("time_period"))
	if err != nil {
		http.Error(w, "error, time period invalid", http.StatusBadRequest)
		return
	}

	cacheKey := []byte(fmt.Sprintf("leaderboard||%s||%s", muscleGroup, timePeriod))
	if cached, err := handler.cache.Get(cacheKey); err == nil {
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	rows, err := handler.repo.Compute(ctx, muscleGroup, timePeriod.WindowStart(handler.now()))
	if err != nil {
		log.Errorf("failed to compute leaderboard [%s, %s]: %s", muscleGroup, timePeriod, err)
		http.Error(w, "error, failed to compute leaderboard", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []Row{}
	}

	muscleGroups, err := handler.muscleGroups.MuscleGroups(ctx)
	if err != nil {
		log.Errorf("failed to list muscle groups: %s", err)
		http.Error(w, "error, failed to compute leaderboard", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(leaderboardResponse{
		Rows:         rows,
		MuscleGroups: muscleGroups,
		TimePeriod:   timePeriod,
	})
	if err != nil {
		log.Errorf("failed to marshal leaderboard: %s", err)
		http.Error(w, "error, failed to compute leaderboard", http.StatusInternalServerError)
		return
	}

	if err := handler.cache.Set(cacheKey, respJson, cacheExpireSeconds); err != nil {
		log.Warnf("failed to cache leaderboard [%s, %s]: %s", muscleGroup, timePeriod, err)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
