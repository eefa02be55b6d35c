package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/brandhub/internal/brand"
	"github.com/gosuda/brandhub/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Brands() domain.BrandRepository
	Users() domain.UserRepository
	Audit() domain.AuditRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (user *domain.User, accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// SessionManager abstracts brand session lifecycle for handler testing.
// *brand.Manager satisfies this interface.
type SessionManager interface {
	SignIn(ctx context.Context, userID uuid.UUID) (*brand.Session, error)
	Session(userID uuid.UUID) (*brand.Session, bool)
	SignOut(ctx context.Context, userID uuid.UUID)
}

// StatusProvider abstracts the integration status cache for handler testing.
// *integration.StatusCache satisfies this interface.
type StatusProvider interface {
	GetStatus(ctx context.Context, userID uuid.UUID, brandID string) (domain.IntegrationStatus, error)
}
