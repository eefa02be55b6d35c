package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ContextKeyUserID  contextKey = "user_id"
	ContextKeyBrandID contextKey = "brand_id"
)

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return v, ok
}

func BrandIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyBrandID).(string)
	return v, ok
}
