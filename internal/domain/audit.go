package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AuditEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	BrandID   string
	Action    string // "brand.create", "brand.rename", "brand.switch", ...
	Details   map[string]any
	CreatedAt time.Time
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListByBrand(ctx context.Context, userID uuid.UUID, brandID string, limit, offset int) ([]*AuditEntry, error)
}
