package strava

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/anagoge/liftlog/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStrava struct {
	server        *httptest.Server
	tokenRequests int
	activities    string
}

func newFakeStrava(t *testing.T) *fakeStrava {
	t.Helper()
	fake := &fakeStrava{
		activities: `[
			{"id": 1001, "name": "Morning Run", "type": "Run",
				"start_date": "2024-03-11T07:00:00Z", "distance": 5000,
				"moving_time": 1500, "average_speed": 3.33, "total_elevation_gain": 40},
			{"id": 1002, "name": "Evening Ride", "type": "Ride",
				"start_date": "2024-03-12T18:00:00Z", "distance": 20000,
				"moving_time": 3600, "average_speed": 5.55, "total_elevation_gain": 120}
		]`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		fake.tokenRequests++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "fresh-access-token",
			"refresh_token": "fresh-refresh-token",
			"expires_in": 21600,
			"token_type": "Bearer"
		}`))
	})
	mux.HandleFunc("/api/v3/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fake.activities))
	})
	mux.HandleFunc("/oauth/deauthorize", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

func newTestService(t *testing.T, fake *fakeStrava) (*Service, *repoMock) {
	t.Helper()
	client := NewClient(NewClientParams{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost/strava/callback",
		HTTPClient:   fake.server.Client(),
		BaseURL:      fake.server.URL,
	})
	repo := NewRepoMock()
	return NewService(client, repo, metrics.NewTestManager()), repo
}

func stateFromAuthURL(t *testing.T, authURL string) string {
	t.Helper()
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestService_ConnectAndSync(t *testing.T) {
	fake := newFakeStrava(t)
	service, repo := newTestService(t, fake)
	ctx := context.Background()

	authURL, err := service.AuthURL(42)
	require.NoError(t, err)
	assert.Contains(t, authURL, "/oauth/authorize")

	userID, err := service.CompleteAuthorization(ctx, stateFromAuthURL(t, authURL), "test-code")
	require.NoError(t, err)
	assert.Equal(t, 42, userID)

	account, err := repo.GetAccount(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access-token", account.AccessToken)
	assert.Equal(t, "fresh-refresh-token", account.RefreshToken)

	imported, err := service.Sync(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	workouts, err := repo.ListWorkouts(ctx, 42)
	require.NoError(t, err)
	require.Len(t, workouts, 2)
	assert.Equal(t, "Evening Ride", workouts[0].Name)
	assert.Equal(t, int64(1002), workouts[0].StravaID)
}

func TestService_Sync_Idempotent(t *testing.T) {
	fake := newFakeStrava(t)
	service, repo := newTestService(t, fake)
	ctx := context.Background()

	authURL, err := service.AuthURL(42)
	require.NoError(t, err)
	_, err = service.CompleteAuthorization(ctx, stateFromAuthURL(t, authURL), "test-code")
	require.NoError(t, err)

	imported, err := service.Sync(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, 2, imported)

	// same activities come back again, nothing new is stored
	imported, err = service.Sync(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 0, imported)

	workouts, err := repo.ListWorkouts(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, workouts, 2)
}

func TestService_Sync_RefreshesExpiredToken(t *testing.T) {
	fake := newFakeStrava(t)
	service, repo := newTestService(t, fake)
	ctx := context.Background()

	require.NoError(t, repo.SaveAccount(ctx, Account{
		UserID:       42,
		AccessToken:  "stale-access-token",
		RefreshToken: "old-refresh-token",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}))

	_, err := service.Sync(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.tokenRequests)

	account, err := repo.GetAccount(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access-token", account.AccessToken)
}

func TestService_Sync_NotConnected(t *testing.T) {
	fake := newFakeStrava(t)
	service, _ := newTestService(t, fake)

	_, err := service.Sync(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestService_CompleteAuthorization_UnknownState(t *testing.T) {
	fake := newFakeStrava(t)
	service, _ := newTestService(t, fake)

	_, err := service.CompleteAuthorization(context.Background(), "bogus-state", "test-code")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestService_Disconnect(t *testing.T) {
	fake := newFakeStrava(t)
	service, repo := newTestService(t, fake)
	ctx := context.Background()

	require.NoError(t, repo.SaveAccount(ctx, Account{
		UserID:      42,
		AccessToken: "fresh-access-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	require.NoError(t, service.Disconnect(ctx, 42))

	_, err := repo.GetAccount(ctx, 42)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	connected, err := service.IsConnected(ctx, 42)
	require.NoError(t, err)
	assert.False(t, connected)
}
