package domain

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBrandName is the placeholder name applied when a brand is created
// without an explicit name.
const DefaultBrandName = "New Brand"

// MaxMembers caps a brand at one owner plus four additional members.
const MaxMembers = 5

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleEditor MemberRole = "editor"
)

// Member is one entry in a brand's ordered membership list. The owner always
// occupies index 0 and never appears a second time.
type Member struct {
	Email    string     `json:"email"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// Brand is the unit of data isolation: one business entity under a user's
// account. All brand-scoped resources live under users/{ownerID}/brands/{id}.
type Brand struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	Members   []Member  `json:"members"`

	// Integration credentials. Opaque to the session layer; only their
	// presence is inspected when deriving integration status.
	WooCommerceURL    string `json:"woocommerce_url,omitempty"`
	WooCommerceKey    string `json:"-"`
	WooCommerceSecret string `json:"-"`
	ShopifyDomain     string `json:"shopify_domain,omitempty"`
	ShopifyToken      string `json:"-"`
	AnalyticsProperty string `json:"analytics_property,omitempty"`
}

// Credentials carries a full replacement set of integration credential fields.
type Credentials struct {
	WooCommerceURL    string
	WooCommerceKey    string
	WooCommerceSecret string
	ShopifyDomain     string
	ShopifyToken      string
	AnalyticsProperty string
}

// NewBrandID generates a collision-resistant brand identifier: base-36
// millisecond timestamp plus a random suffix. IDs are never reused.
func NewBrandID() string {
	suffix := make([]byte, 6)
	_, _ = rand.Read(suffix)
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + hex.EncodeToString(suffix)
}

// Credentials returns the brand's current integration credential set.
func (b *Brand) Credentials() Credentials {
	return Credentials{
		WooCommerceURL:    b.WooCommerceURL,
		WooCommerceKey:    b.WooCommerceKey,
		WooCommerceSecret: b.WooCommerceSecret,
		ShopifyDomain:     b.ShopifyDomain,
		ShopifyToken:      b.ShopifyToken,
		AnalyticsProperty: b.AnalyticsProperty,
	}
}

// HasWooCommerceCredentials reports whether WooCommerce credentials are present.
func (b *Brand) HasWooCommerceCredentials() bool {
	return b.WooCommerceURL != "" && b.WooCommerceKey != "" && b.WooCommerceSecret != ""
}

// HasShopifyCredentials reports whether Shopify credentials are present.
func (b *Brand) HasShopifyCredentials() bool {
	return b.ShopifyDomain != "" && b.ShopifyToken != ""
}

// AddMember validates and appends a member. Validation happens before any
// write: the 5-member cap and duplicate emails are rejected here so callers
// never touch the store with an invalid list.
func (b *Brand) AddMember(m Member) error {
	if len(b.Members) >= MaxMembers {
		return ErrMemberLimit
	}
	if m.Role == RoleOwner {
		// The owner is implicit at index 0 and never duplicated.
		return ErrDuplicateMember
	}
	for _, existing := range b.Members {
		if strings.EqualFold(existing.Email, m.Email) {
			return ErrDuplicateMember
		}
	}
	b.Members = append(b.Members, m)
	return nil
}

// RemoveMember drops the member with the given email. The owner entry at
// index 0 cannot be removed.
func (b *Brand) RemoveMember(email string) error {
	for i, m := range b.Members {
		if strings.EqualFold(m.Email, email) {
			if m.Role == RoleOwner {
				return ErrForbidden
			}
			b.Members = append(b.Members[:i], b.Members[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// BrandRepository is the Brand Directory's point read/write surface. Every
// query is scoped by the owning user id; a read or write without that scope
// breaks isolation and is a correctness bug.
type BrandRepository interface {
	// Create writes the brand document and its owner member record as one
	// logical unit. A member write failing after the brand write succeeded is
	// logged, not rolled back.
	Create(ctx context.Context, b *Brand) error
	GetByID(ctx context.Context, userID uuid.UUID, id string) (*Brand, error)
	Rename(ctx context.Context, userID uuid.UUID, id, name string) error
	UpdateCredentials(ctx context.Context, userID uuid.UUID, id string, creds Credentials) error
	AddMember(ctx context.Context, userID uuid.UUID, id string, m Member) error
	RemoveMember(ctx context.Context, userID uuid.UUID, id, email string) error
	Delete(ctx context.Context, userID uuid.UUID, id string) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Brand, error)
}
