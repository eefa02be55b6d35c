package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/brandhub/internal/domain"
	"github.com/gosuda/brandhub/internal/secrets"
)

type Store struct {
	pool   *pgxpool.Pool
	brands *BrandRepo
	users  *UserRepo
	audit  *AuditRepo
}

func New(ctx context.Context, dsn string, maxConns int32, vault *secrets.Vault) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:   pool,
		brands: NewBrandRepo(pool, vault),
		users:  NewUserRepo(pool),
		audit:  NewAuditRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Brands() domain.BrandRepository { return s.brands }
func (s *Store) Users() domain.UserRepository   { return s.users }
func (s *Store) Audit() domain.AuditRepository  { return s.audit }
