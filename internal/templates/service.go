package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anagoge/liftlog/internal/exercises"
	"github.com/anagoge/liftlog/internal/telemetry/tracing"
)

var (
	ErrNotTemplateOwner = errors.New("not the template owner")
	ErrInvalidTemplate  = errors.New("invalid template")
	ErrUnknownExercise  = errors.New("unknown exercise")
)

type templatesRepo interface {
	Add(ctx context.Context, template Template) (*Template, error)
	Update(ctx context.Context, template Template) error
	Delete(ctx context.Context, id int) error
	Get(ctx context.Context, id int) (*Template, error)
	List(ctx context.Context) ([]Template, error)
	GetView(ctx context.Context, id int) (*TemplateView, error)
}

type exerciseGetter interface {
	Get(ctx context.Context, id int) (*exercises.Exercise, error)
}

// Service enforces template ownership and entry validity on top of the
// repo. Mutations go through here, reads may too.
type Service struct {
	repo          templatesRepo
	exercisesRepo exerciseGetter
}

func NewService(repo templatesRepo, exercisesRepo exerciseGetter) *Service {
	return &Service{
		repo:          repo,
		exercisesRepo: exercisesRepo,
	}
}

func (s *Service) Create(ctx context.Context, ownerID int, name string, entries []TemplateExercise) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "templatesService.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	name = strings.TrimSpace(name)
	if err := s.validate(ctx, name, entries); err != nil {
		return nil, err
	}

	return s.repo.Add(ctx, Template{
		Name:      name,
		OwnerID:   ownerID,
		Exercises: entries,
	})
}

// Update replaces the template name and full entry list. Only the owner
// may update; the previous entries stay untouched on a failed check.
func (s *Service) Update(ctx context.Context, templateID, requesterID int, name string, entries []TemplateExercise) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "templatesService.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	existing, err := s.repo.Get(ctx, templateID)
	if err != nil {
		return err
	}
	if existing.OwnerID != requesterID {
		return ErrNotTemplateOwner
	}

	name = strings.TrimSpace(name)
	if err := s.validate(ctx, name, entries); err != nil {
		return err
	}

	return s.repo.Update(ctx, Template{
		ID:        templateID,
		Name:      name,
		OwnerID:   existing.OwnerID,
		Exercises: entries,
	})
}

func (s *Service) Delete(ctx context.Context, templateID, requesterID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "templatesService.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	existing, err := s.repo.Get(ctx, templateID)
	if err != nil {
		return err
	}
	if existing.OwnerID != requesterID {
		return ErrNotTemplateOwner
	}

	return s.repo.Delete(ctx, templateID)
}

func (s *Service) View(ctx context.Context, templateID int) (*TemplateView, error) {
	return s.repo.GetView(ctx, templateID)
}

func (s *Service) List(ctx context.Context) ([]Template, error) {
	return s.repo.List(ctx)
}

func (s *Service) validate(ctx context.Context, name string, entries []TemplateExercise) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTemplate)
	}
	for _, entry := range entries {
		if entry.Sets < 1 || entry.Reps < 1 {
			return fmt.Errorf("%w: sets and reps must be at least 1", ErrInvalidTemplate)
		}
		if _, err := s.exercisesRepo.Get(ctx, entry.ExerciseID); err != nil {
			if errors.Is(err, exercises.ErrExerciseNotFound) {
				return fmt.Errorf("%w: exercise %d", ErrUnknownExercise, entry.ExerciseID)
			}
			return fmt.Errorf("check exercise %d: %w", entry.ExerciseID, err)
		}
	}
	return nil
}
