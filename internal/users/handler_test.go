package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anagoge/liftlog/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionServiceMock struct {
	loggedIn map[string]int
}

func newSessionServiceMock() *sessionServiceMock {
	return &sessionServiceMock{loggedIn: map[string]int{}}
}

func (s *sessionServiceMock) Login(_ context.Context, userID int) (string, error) {
	token := "token-for-user"
	s.loggedIn[token] = userID
	return token, nil
}

func (s *sessionServiceMock) Logout(_ context.Context, token string) error {
	if _, ok := s.loggedIn[token]; !ok {
		return auth.ErrNoSession
	}
	delete(s.loggedIn, token)
	return nil
}

type avatarStoreMock struct {
	saved   map[string]bool
	deleted []string
}

func newAvatarStoreMock() *avatarStoreMock {
	return &avatarStoreMock{saved: map[string]bool{}}
}

func (a *avatarStoreMock) Save(_ context.Context, userID int, filename string, content io.Reader) (string, error) {
	if _, err := io.ReadAll(content); err != nil {
		return "", err
	}
	key := filename
	a.saved[key] = true
	return key, nil
}

func (a *avatarStoreMock) Delete(_ context.Context, key string) error {
	if !a.saved[key] {
		return errors.New("avatar not found")
	}
	delete(a.saved, key)
	a.deleted = append(a.deleted, key)
	return nil
}

func (a *avatarStoreMock) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if !a.saved[key] {
		return nil, errors.New("avatar not found")
	}
	return io.NopCloser(strings.NewReader("image-bytes")), nil
}

func TestHandler_RegisterLoginProfile(t *testing.T) {
	repo := NewRepoMock()
	sessions := newSessionServiceMock()
	h := NewHandler(repo, sessions, newAvatarStoreMock())

	registerBody, err := json.Marshal(map[string]string{
		"username": "ana",
		"password": "deadlift4ever",
		"email":    "ana@liftlog.fit",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/a/register", bytes.NewReader(registerBody))
	req.Header.Set("Content-Type", "application/json")
	h.HandleRegister(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var registered User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	assert.Equal(t, "ana", registered.Username)
	assert.Equal(t, DefaultProfilePicture, registered.ProfilePicture)
	assert.Empty(t, registered.PasswordHash, "password hash must never be serialized")

	// duplicate username is rejected
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/a/register", bytes.NewReader(registerBody))
	req.Header.Set("Content-Type", "application/json")
	h.HandleRegister(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	loginBody, err := json.Marshal(map[string]string{
		"username": "ana",
		"password": "deadlift4ever",
	})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/a/login", bytes.NewReader(loginBody))
	req.Header.Set("Content-Type", "application/json")
	h.HandleLogin(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	assert.NotEmpty(t, loginResp.Token)
	assert.Equal(t, registered.ID, sessions.loggedIn[loginResp.Token])

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/profile", nil)
	req = req.WithContext(auth.ContextWithUserID(req.Context(), registered.ID))
	h.HandleGetProfile(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "ana", profile.Username)
}

func TestHandler_Login_WrongCredentials(t *testing.T) {
	repo := NewRepoMock()
	h := NewHandler(repo, newSessionServiceMock(), newAvatarStoreMock())

	registerBody, err := json.Marshal(map[string]string{
		"username": "marko",
		"password": "benchpress",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/a/register", bytes.NewReader(registerBody))
	req.Header.Set("Content-Type", "application/json")
	h.HandleRegister(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, body := range []map[string]string{
		{"username": "marko", "password": "wrong"},
		{"username": "nobody", "password": "benchpress"},
	} {
		loginBody, err := json.Marshal(body)
		require.NoError(t, err)

		rec = httptest.NewRecorder()
		req = httptest.NewRequest("POST", "/a/login", bytes.NewReader(loginBody))
		req.Header.Set("Content-Type", "application/json")
		h.HandleLogin(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestHandler_Register_MissingFields(t *testing.T) {
	h := NewHandler(NewRepoMock(), newSessionServiceMock(), newAvatarStoreMock())

	for _, body := range []map[string]string{
		{"password": "nousername"},
		{"username": "nopassword"},
	} {
		bodyJson, err := json.Marshal(body)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/a/register", bytes.NewReader(bodyJson))
		req.Header.Set("Content-Type", "application/json")
		h.HandleRegister(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}
