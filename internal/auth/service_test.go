package auth

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_LoginLogout(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	service := NewService(DefaultTTL, redisClient)
	service.RandStringFunc = func(_ int) (string, error) {
		return "test-token", nil
	}

	ctx := context.Background()

	redisMock.ExpectSet("liftlog-session||test-token", 42, DefaultTTL).SetVal("OK")
	token, err := service.Login(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "test-token", token)

	redisMock.ExpectGet("liftlog-session||test-token").SetVal("42")
	userID, err := service.UserID(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)

	redisMock.ExpectDel("liftlog-session||test-token").SetVal(1)
	require.NoError(t, service.Logout(ctx, token))

	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestService_UserID_NoSession(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	service := NewService(time.Minute, redisClient)

	ctx := context.Background()

	_, err := service.UserID(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)

	redisMock.ExpectGet("liftlog-session||unknown-token").RedisNil()
	_, err = service.UserID(ctx, "unknown-token")
	assert.ErrorIs(t, err, ErrNoSession)

	redisMock.ExpectDel("liftlog-session||unknown-token").SetVal(0)
	err = service.Logout(ctx, "unknown-token")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, redisMock.ExpectationsWereMet())
}
