package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/anagoge/liftlog/pkg"

	"github.com/go-redis/redis/v8"
)

var ErrNoSession = errors.New("no session")

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "liftlog-session||"
)

// Service keeps login sessions in redis: a random token maps to the
// logged-in user id, expiring after the configured TTL.
type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(ttl time.Duration, redisClient *redis.Client) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (s *Service) Login(ctx context.Context, userID int) (string, error) {
	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Set(ctx, sessionKey, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	sessionKey := sessionKeyPrefix + token
	removed, err := s.redisClient.Del(ctx, sessionKey).Result()
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	if removed == 0 {
		return ErrNoSession
	}
	return nil
}

// UserID resolves a session token to the user id it was created for.
// Returns ErrNoSession for unknown or expired tokens.
func (s *Service) UserID(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, ErrNoSession
	}

	sessionKey := sessionKeyPrefix + token
	val, err := s.redisClient.Get(ctx, sessionKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, fmt.Errorf("get session: %w", err)
	}

	userID, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse session user id: %w", err)
	}

	return userID, nil
}
