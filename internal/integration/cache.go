package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/brandhub/internal/domain"
)

const cacheMaxEntries = 4096

// StatusCache is the per-brand TTL cache of integration verdicts. A cached
// entry is valid for exactly the configured TTL from LastChecked; past that
// it is recomputed, never served. Writes to a key are last-write-wins; each
// refresh recomputes the full entry from scratch.
type StatusCache struct {
	cache  *ristretto.Cache[string, domain.IntegrationStatus]
	brands domain.BrandRepository
	prober Prober
	badges *Badges
	ttl    time.Duration
	now    func() time.Time
}

func NewStatusCache(brands domain.BrandRepository, prober Prober, badges *Badges, ttl time.Duration) (*StatusCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, domain.IntegrationStatus]{
		NumCounters: cacheMaxEntries * 10,
		MaxCost:     cacheMaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("integration.NewStatusCache: %w", err)
	}

	return &StatusCache{
		cache:  cache,
		brands: brands,
		prober: prober,
		badges: badges,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func statusKey(userID uuid.UUID, brandID string) string {
	return userID.String() + ":" + brandID
}

// GetStatus serves the cached verdict when fresh, otherwise recomputes it:
// one point read of the brand, then at most one probe per platform whose
// credentials are present. A failed point read or probe returns an error and
// leaves any existing entry untouched.
func (c *StatusCache) GetStatus(ctx context.Context, userID uuid.UUID, brandID string) (domain.IntegrationStatus, error) {
	key := statusKey(userID, brandID)

	if cached, ok := c.cache.Get(key); ok && c.now().Sub(cached.LastChecked) < c.ttl {
		return cached, nil
	}

	b, err := c.brands.GetByID(ctx, userID, brandID)
	if err != nil {
		return domain.IntegrationStatus{}, fmt.Errorf("integration.StatusCache.GetStatus: %w", err)
	}

	status := domain.IntegrationStatus{LastChecked: c.now()}

	if b.HasWooCommerceCredentials() {
		connected, probeErr := c.prober.Check(ctx, domain.PlatformWooCommerce, b.Credentials())
		if probeErr != nil {
			return domain.IntegrationStatus{}, fmt.Errorf("integration.StatusCache.GetStatus: woocommerce: %w", probeErr)
		}
		status.WooCommerce.Connected = connected
	}

	if b.HasShopifyCredentials() {
		connected, probeErr := c.prober.Check(ctx, domain.PlatformShopify, b.Credentials())
		if probeErr != nil {
			return domain.IntegrationStatus{}, fmt.Errorf("integration.StatusCache.GetStatus: shopify: %w", probeErr)
		}
		status.Shopify.Connected = connected
	}

	c.cache.SetWithTTL(key, status, 1, c.ttl)
	// Ristretto writes are buffered; wait so the entry is visible to the
	// next call before returning.
	c.cache.Wait()

	c.badges.Set(brandID, status.Primary())

	return status, nil
}

// RefreshOrServe is the resolver-facing trigger: compute or serve the active
// brand's status, logging rather than propagating failures.
func (c *StatusCache) RefreshOrServe(ctx context.Context, userID uuid.UUID, brandID string) {
	if _, err := c.GetStatus(ctx, userID, brandID); err != nil {
		log.Warn().Err(err).
			Str("brand_id", brandID).
			Msg("integration status refresh failed")
	}
}

// Drop clears the user's cached entries and badges on session teardown.
func (c *StatusCache) Drop(userID uuid.UUID, brandIDs []string) {
	for _, id := range brandIDs {
		c.cache.Del(statusKey(userID, id))
		c.badges.Drop(id)
	}
}

func (c *StatusCache) Close() {
	c.cache.Close()
}
