package weekly

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anagoge/liftlog/internal/telemetry/tracing"
	"github.com/anagoge/liftlog/internal/templates"

	log "github.com/sirupsen/logrus"
)

var ErrNotAdmin = errors.New("not an admin")

type weeklyRepo interface {
	Add(ctx context.Context, week WeeklyWorkout) (*WeeklyWorkout, error)
	Update(ctx context.Context, week WeeklyWorkout) error
	Delete(ctx context.Context, id int) error
	Get(ctx context.Context, id int) (*WeeklyWorkout, error)
	Latest(ctx context.Context) (*WeeklyWorkout, error)
	List(ctx context.Context) ([]WeeklyWorkout, error)
}

type templateViewer interface {
	GetView(ctx context.Context, id int) (*templates.TemplateView, error)
}

type adminChecker interface {
	IsAdmin(ctx context.Context, userID int) (bool, error)
}

// Service maintains the per-week day-to-template assignments and
// resolves the suggested workout for a given instant. Mutations are
// admin only.
type Service struct {
	repo          weeklyRepo
	templatesRepo templateViewer
	admins        adminChecker
}

func NewService(repo weeklyRepo, templatesRepo templateViewer, admins adminChecker) *Service {
	return &Service{
		repo:          repo,
		templatesRepo: templatesRepo,
		admins:        admins,
	}
}

func (s *Service) CreateWeek(ctx context.Context, requesterID int, rawStartDate time.Time, dayTemplates [7]*int) (_ *WeeklyWorkout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "weeklyService.createWeek")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.requireAdmin(ctx, requesterID); err != nil {
		return nil, err
	}

	return s.repo.Add(ctx, WeeklyWorkout{
		WeekStartDate: NormalizeWeekStart(rawStartDate),
		DayTemplates:  dayTemplates,
	})
}

func (s *Service) UpdateWeek(ctx context.Context, requesterID, weekID int, rawStartDate time.Time, dayTemplates [7]*int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "weeklyService.updateWeek")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.requireAdmin(ctx, requesterID); err != nil {
		return err
	}

	return s.repo.Update(ctx, WeeklyWorkout{
		ID:            weekID,
		WeekStartDate: NormalizeWeekStart(rawStartDate),
		DayTemplates:  dayTemplates,
	})
}

func (s *Service) DeleteWeek(ctx context.Context, requesterID, weekID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "weeklyService.deleteWeek")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.requireAdmin(ctx, requesterID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, weekID)
}

func (s *Service) GetWeek(ctx context.Context, weekID int) (*WeeklyWorkout, error) {
	return s.repo.Get(ctx, weekID)
}

func (s *Service) ListWeeks(ctx context.Context) ([]WeeklyWorkout, error) {
	return s.repo.List(ctx)
}

// ResolveTodaysTemplate returns the denormalized template assigned to
// asOf's day of week in the most recent week record, or nil when there
// is no week record, the slot is unset, or the assigned template has
// been deleted since.
func (s *Service) ResolveTodaysTemplate(ctx context.Context, asOf time.Time) (_ *templates.TemplateView, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "weeklyService.resolveTodaysTemplate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	week, err := s.repo.Latest(ctx)
	if errors.Is(err, ErrWeekNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest week: %w", err)
	}

	templateID := week.DayTemplates[asOf.Weekday()]
	if templateID == nil {
		return nil, nil
	}

	view, err := s.templatesRepo.GetView(ctx, *templateID)
	if errors.Is(err, templates.ErrTemplateNotFound) {
		// the assigned template was deleted, treat the slot as unset
		log.Warnf("week %d, day %s: template %d no longer exists", week.ID, asOf.Weekday(), *templateID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template view %d: %w", *templateID, err)
	}

	return view, nil
}

func (s *Service) requireAdmin(ctx context.Context, userID int) error {
	isAdmin, err := s.admins.IsAdmin(ctx, userID)
	if err != nil {
		return fmt.Errorf("admin check for user %d: %w", userID, err)
	}
	if !isAdmin {
		return ErrNotAdmin
	}
	return nil
}
