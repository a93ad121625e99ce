package auth

import "context"

var _ Checker = (*Service)(nil)

type Checker interface {
	UserID(ctx context.Context, token string) (int, error)
}
