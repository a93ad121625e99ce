package strava

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anagoge/liftlog/internal/telemetry/metrics"
	"github.com/anagoge/liftlog/internal/telemetry/tracing"
	"github.com/anagoge/liftlog/pkg"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var (
	ErrNotConnected = errors.New("user has no strava account connected")
	ErrInvalidState = errors.New("unknown oauth state")
)

// refresh the access token when it expires within this margin
const tokenExpiryMargin = time.Minute

type stravaClient interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	ListActivities(ctx context.Context, accessToken string, after time.Time) ([]Activity, error)
	Deauthorize(ctx context.Context, accessToken string) error
}

type stravaRepo interface {
	SaveAccount(ctx context.Context, account Account) error
	GetAccount(ctx context.Context, userID int) (*Account, error)
	DeleteAccount(ctx context.Context, userID int) error
	SaveWorkout(ctx context.Context, workout ImportedWorkout) (bool, error)
	ListWorkouts(ctx context.Context, userID int) ([]ImportedWorkout, error)
	LastStartDate(ctx context.Context, userID int) (*time.Time, error)
}

// Service drives the OAuth flow and the activity import. The pending
// authorization states live in memory only: a restart just means the
// user has to click connect again.
type Service struct {
	client  stravaClient
	repo    stravaRepo
	metrics *metrics.Manager

	statesMutex sync.Mutex
	// oauth state -> user id waiting for the callback
	states map[string]int

	// now is swapped out in tests
	now func() time.Time
}

func NewService(client stravaClient, repo stravaRepo, metricsManager *metrics.Manager) *Service {
	return &Service{
		client:  client,
		repo:    repo,
		metrics: metricsManager,
		states:  make(map[string]int),
		now:     time.Now,
	}
}

// AuthURL starts the OAuth flow for the user and returns the Strava
// authorization page to redirect them to.
func (s *Service) AuthURL(userID int) (string, error) {
	state, err := pkg.GenerateRandomString(20)
	if err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}

	s.statesMutex.Lock()
	s.states[state] = userID
	s.statesMutex.Unlock()

	return s.client.AuthCodeURL(state), nil
}

// CompleteAuthorization handles the OAuth callback: trades the code
// for tokens and links the account to the user who started the flow.
func (s *Service) CompleteAuthorization(ctx context.Context, state, code string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stravaService.completeAuthorization")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.statesMutex.Lock()
	userID, ok := s.states[state]
	delete(s.states, state)
	s.statesMutex.Unlock()
	if !ok {
		return 0, ErrInvalidState
	}

	token, err := s.client.Exchange(ctx, code)
	if err != nil {
		return 0, err
	}

	if err := s.repo.SaveAccount(ctx, Account{
		UserID:       userID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}); err != nil {
		return 0, err
	}

	log.Debugf("strava account connected for user %d", userID)
	return userID, nil
}

// Sync imports the user's activities started since the last imported
// one. Safe to call repeatedly, already imported activities are
// skipped by their Strava id.
func (s *Service) Sync(ctx context.Context, userID int) (imported int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stravaService.sync")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	account, err := s.repo.GetAccount(ctx, userID)
	if errors.Is(err, ErrAccountNotFound) {
		return 0, ErrNotConnected
	}
	if err != nil {
		return 0, err
	}

	if account.ExpiresAt.Before(s.now().Add(tokenExpiryMargin)) {
		token, err := s.client.RefreshToken(ctx, account.RefreshToken)
		if err != nil {
			return 0, fmt.Errorf("refresh access token: %w", err)
		}
		account.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			account.RefreshToken = token.RefreshToken
		}
		account.ExpiresAt = token.Expiry
		if err := s.repo.SaveAccount(ctx, *account); err != nil {
			return 0, err
		}
	}

	var after time.Time
	if lastStart, err := s.repo.LastStartDate(ctx, userID); err != nil {
		return 0, err
	} else if lastStart != nil {
		after = *lastStart
	}

	activities, err := s.client.ListActivities(ctx, account.AccessToken, after)
	if err != nil {
		return 0, err
	}

	for _, activity := range activities {
		added, err := s.repo.SaveWorkout(ctx, activity.toImportedWorkout(userID))
		if err != nil {
			return imported, err
		}
		if added {
			imported++
		}
	}

	if imported > 0 {
		s.metrics.CounterStravaImports.Add(float64(imported))
	}
	log.Debugf("strava sync for user %d: %d activities, %d imported", userID, len(activities), imported)

	return imported, nil
}

// Disconnect revokes the token on the Strava side and removes the
// account link. Imported workouts stay.
func (s *Service) Disconnect(ctx context.Context, userID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stravaService.disconnect")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	account, err := s.repo.GetAccount(ctx, userID)
	if errors.Is(err, ErrAccountNotFound) {
		return ErrNotConnected
	}
	if err != nil {
		return err
	}

	// the local link is removed even when the remote revoke fails
	if err := s.client.Deauthorize(ctx, account.AccessToken); err != nil {
		log.Warnf("strava deauthorize for user %d: %s", userID, err)
	}

	return s.repo.DeleteAccount(ctx, userID)
}

func (s *Service) ListWorkouts(ctx context.Context, userID int) ([]ImportedWorkout, error) {
	return s.repo.ListWorkouts(ctx, userID)
}

func (s *Service) IsConnected(ctx context.Context, userID int) (bool, error) {
	_, err := s.repo.GetAccount(ctx, userID)
	if errors.Is(err, ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
