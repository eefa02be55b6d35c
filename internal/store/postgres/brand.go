package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/brandhub/internal/domain"
	"github.com/gosuda/brandhub/internal/secrets"
)

// BrandRepo is the brand directory's authoritative store. Every statement is
// scoped by owner_id, the SQL rendering of users/{userId}/brands/{brandId}.
// Credential secrets are encrypted at rest with the injected vault.
type BrandRepo struct {
	pool  *pgxpool.Pool
	vault *secrets.Vault
}

func NewBrandRepo(pool *pgxpool.Pool, vault *secrets.Vault) *BrandRepo {
	return &BrandRepo{pool: pool, vault: vault}
}

// Create writes the brand row and its owner member row as one logical unit.
// The two writes are intentionally not transactional: a member write failing
// after the brand write succeeded leaves the brand ownerless, which is logged
// as a latent inconsistency and not retried.
func (r *BrandRepo) Create(ctx context.Context, b *domain.Brand) error {
	wooSecret, shopToken, err := r.encryptCredentials(b.WooCommerceSecret, b.ShopifyToken)
	if err != nil {
		return fmt.Errorf("brandRepo.Create: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO brands (id, owner_id, name, created_at,
		                     woocommerce_url, woocommerce_key, woocommerce_secret,
		                     shopify_domain, shopify_token, analytics_property)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.OwnerID, b.Name, b.CreatedAt,
		b.WooCommerceURL, b.WooCommerceKey, wooSecret,
		b.ShopifyDomain, shopToken, b.AnalyticsProperty,
	)
	if err != nil {
		return fmt.Errorf("brandRepo.Create: %w", err)
	}

	for i, m := range b.Members {
		_, err = r.pool.Exec(ctx,
			`INSERT INTO brand_members (owner_id, brand_id, position, email, role, joined_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			b.OwnerID, b.ID, i, m.Email, m.Role, m.JoinedAt,
		)
		if err != nil {
			log.Warn().Err(err).
				Str("brand_id", b.ID).
				Str("email", m.Email).
				Msg("brandRepo.Create: member write failed after brand write; brand left without member record")
			return fmt.Errorf("brandRepo.Create: member: %w", err)
		}
	}

	return nil
}

func (r *BrandRepo) GetByID(ctx context.Context, userID uuid.UUID, id string) (*domain.Brand, error) {
	var b domain.Brand
	var wooSecret, shopToken string

	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, created_at,
		        woocommerce_url, woocommerce_key, woocommerce_secret,
		        shopify_domain, shopify_token, analytics_property
		 FROM brands WHERE owner_id = $1 AND id = $2`,
		userID, id,
	).Scan(&b.ID, &b.OwnerID, &b.Name, &b.CreatedAt,
		&b.WooCommerceURL, &b.WooCommerceKey, &wooSecret,
		&b.ShopifyDomain, &shopToken, &b.AnalyticsProperty)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("brandRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("brandRepo.GetByID: %w", err)
	}

	if b.WooCommerceSecret, b.ShopifyToken, err = r.decryptCredentials(wooSecret, shopToken); err != nil {
		return nil, fmt.Errorf("brandRepo.GetByID: %w", err)
	}

	if b.Members, err = r.membersOf(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("brandRepo.GetByID: %w", err)
	}

	return &b, nil
}

func (r *BrandRepo) Rename(ctx context.Context, userID uuid.UUID, id, name string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE brands SET name = $1 WHERE owner_id = $2 AND id = $3`,
		name, userID, id,
	)
	if err != nil {
		return fmt.Errorf("brandRepo.Rename: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("brandRepo.Rename: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BrandRepo) UpdateCredentials(ctx context.Context, userID uuid.UUID, id string, creds domain.Credentials) error {
	wooSecret, shopToken, err := r.encryptCredentials(creds.WooCommerceSecret, creds.ShopifyToken)
	if err != nil {
		return fmt.Errorf("brandRepo.UpdateCredentials: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE brands SET woocommerce_url = $1, woocommerce_key = $2, woocommerce_secret = $3,
		                   shopify_domain = $4, shopify_token = $5, analytics_property = $6
		 WHERE owner_id = $7 AND id = $8`,
		creds.WooCommerceURL, creds.WooCommerceKey, wooSecret,
		creds.ShopifyDomain, shopToken, creds.AnalyticsProperty,
		userID, id,
	)
	if err != nil {
		return fmt.Errorf("brandRepo.UpdateCredentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("brandRepo.UpdateCredentials: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BrandRepo) AddMember(ctx context.Context, userID uuid.UUID, id string, m domain.Member) error {
	var position int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM brand_members WHERE owner_id = $1 AND brand_id = $2`,
		userID, id,
	).Scan(&position)
	if err != nil {
		return fmt.Errorf("brandRepo.AddMember: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO brand_members (owner_id, brand_id, position, email, role, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, id, position, m.Email, m.Role, m.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("brandRepo.AddMember: %w", err)
	}

	return nil
}

func (r *BrandRepo) RemoveMember(ctx context.Context, userID uuid.UUID, id, email string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM brand_members
		 WHERE owner_id = $1 AND brand_id = $2 AND lower(email) = lower($3) AND role <> 'owner'`,
		userID, id, email,
	)
	if err != nil {
		return fmt.Errorf("brandRepo.RemoveMember: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("brandRepo.RemoveMember: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BrandRepo) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM brands WHERE owner_id = $1 AND id = $2`,
		userID, id,
	)
	if err != nil {
		return fmt.Errorf("brandRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("brandRepo.Delete: %w", domain.ErrNotFound)
	}

	// Member rows cascade via FK; nothing else to clean up here.
	return nil
}

func (r *BrandRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Brand, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_id, name, created_at,
		        woocommerce_url, woocommerce_key, woocommerce_secret,
		        shopify_domain, shopify_token, analytics_property
		 FROM brands WHERE owner_id = $1 ORDER BY created_at
		 LIMIT 500`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("brandRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	var brands []*domain.Brand
	byID := make(map[string]*domain.Brand)
	for rows.Next() {
		var b domain.Brand
		var wooSecret, shopToken string

		err = rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.CreatedAt,
			&b.WooCommerceURL, &b.WooCommerceKey, &wooSecret,
			&b.ShopifyDomain, &shopToken, &b.AnalyticsProperty)
		if err != nil {
			return nil, fmt.Errorf("brandRepo.ListByUser: scan: %w", err)
		}

		if b.WooCommerceSecret, b.ShopifyToken, err = r.decryptCredentials(wooSecret, shopToken); err != nil {
			return nil, fmt.Errorf("brandRepo.ListByUser: %w", err)
		}

		brands = append(brands, &b)
		byID[b.ID] = &b
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("brandRepo.ListByUser: rows: %w", err)
	}

	memberRows, err := r.pool.Query(ctx,
		`SELECT brand_id, email, role, joined_at
		 FROM brand_members WHERE owner_id = $1
		 ORDER BY brand_id, position`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("brandRepo.ListByUser: members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var brandID string
		var m domain.Member

		err = memberRows.Scan(&brandID, &m.Email, &m.Role, &m.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("brandRepo.ListByUser: members scan: %w", err)
		}

		if b, ok := byID[brandID]; ok {
			b.Members = append(b.Members, m)
		}
	}
	err = memberRows.Err()
	if err != nil {
		return nil, fmt.Errorf("brandRepo.ListByUser: members rows: %w", err)
	}

	return brands, nil
}

func (r *BrandRepo) membersOf(ctx context.Context, userID uuid.UUID, brandID string) ([]domain.Member, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT email, role, joined_at
		 FROM brand_members WHERE owner_id = $1 AND brand_id = $2
		 ORDER BY position`,
		userID, brandID,
	)
	if err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member

		err = rows.Scan(&m.Email, &m.Role, &m.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("members scan: %w", err)
		}

		members = append(members, m)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("members rows: %w", err)
	}

	return members, nil
}

func (r *BrandRepo) encryptCredentials(wooSecret, shopToken string) (string, string, error) {
	var err error
	if wooSecret != "" {
		if wooSecret, err = r.vault.Encrypt(wooSecret); err != nil {
			return "", "", fmt.Errorf("encrypt woocommerce secret: %w", err)
		}
	}
	if shopToken != "" {
		if shopToken, err = r.vault.Encrypt(shopToken); err != nil {
			return "", "", fmt.Errorf("encrypt shopify token: %w", err)
		}
	}
	return wooSecret, shopToken, nil
}

func (r *BrandRepo) decryptCredentials(wooSecret, shopToken string) (string, string, error) {
	var err error
	if wooSecret != "" {
		if wooSecret, err = r.vault.Decrypt(wooSecret); err != nil {
			return "", "", fmt.Errorf("decrypt woocommerce secret: %w", err)
		}
	}
	if shopToken != "" {
		if shopToken, err = r.vault.Decrypt(shopToken); err != nil {
			return "", "", fmt.Errorf("decrypt shopify token: %w", err)
		}
	}
	return wooSecret, shopToken, nil
}
