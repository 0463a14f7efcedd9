package auth

import (
	"context"
	"time"
)

// Admin is the only kind of principal the service knows about.
type Admin struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type adminCtxKey struct{}

// NewContext returns a copy of ctx carrying the authenticated admin.
func NewContext(ctx context.Context, admin *Admin) context.Context {
	return context.WithValue(ctx, adminCtxKey{}, admin)
}

// AdminFromContext returns the admin put there by the session middleware.
func AdminFromContext(ctx context.Context) (*Admin, bool) {
	admin, ok := ctx.Value(adminCtxKey{}).(*Admin)
	return admin, ok && admin != nil
}
