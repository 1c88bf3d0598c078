package auth

import (
	"context"
	"time"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Session is what a signed-in request carries around.
type Session struct {
	Token     string    `json:"token"`
	TokenID   string    `json:"-"`
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns nil when the request is anonymous.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
