package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/brandhub/internal/domain"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: marshal details: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, user_id, brand_id, action, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.UserID, entry.BrandID, entry.Action, details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}

	return nil
}

func (r *AuditRepo) ListByBrand(ctx context.Context, userID uuid.UUID, brandID string, limit, offset int) ([]*domain.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, brand_id, action, details, created_at
		 FROM audit_log WHERE user_id = $1 AND brand_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		userID, brandID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByBrand: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var details []byte

		err = rows.Scan(&e.ID, &e.UserID, &e.BrandID, &e.Action, &details, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("auditRepo.ListByBrand: scan: %w", err)
		}
		if err = json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("auditRepo.ListByBrand: unmarshal details: %w", err)
		}

		entries = append(entries, &e)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByBrand: rows: %w", err)
	}

	return entries, nil
}
