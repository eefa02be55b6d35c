package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/brandhub/internal/domain"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type countingProber struct {
	mu       sync.Mutex
	calls    map[domain.Platform]int
	verdicts map[domain.Platform]bool
	err      error
}

func newCountingProber() *countingProber {
	return &countingProber{
		calls:    make(map[domain.Platform]int),
		verdicts: map[domain.Platform]bool{domain.PlatformWooCommerce: true, domain.PlatformShopify: true},
	}
}

func (p *countingProber) Check(_ context.Context, platform domain.Platform, _ domain.Credentials) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[platform]++
	if p.err != nil {
		return false, p.err
	}
	return p.verdicts[platform], nil
}

func (p *countingProber) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

type pointReadRepo struct {
	domain.BrandRepository

	mu    sync.Mutex
	brand *domain.Brand
	err   error
	reads int
}

func (r *pointReadRepo) GetByID(context.Context, uuid.UUID, string) (*domain.Brand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	return r.brand, nil
}

func wooBrand(id string) *domain.Brand {
	return &domain.Brand{
		ID:                id,
		Name:              "Woo Shop",
		WooCommerceURL:    "https://shop.example.com",
		WooCommerceKey:    "ck_x",
		WooCommerceSecret: "cs_x",
	}
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestCache(t *testing.T, repo domain.BrandRepository, prober Prober) (*StatusCache, *Badges, *fakeClock) {
	t.Helper()

	badges := NewBadges()
	cache, err := NewStatusCache(repo, prober, badges, time.Hour)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	clock := &fakeClock{t: time.Now()}
	cache.now = clock.now

	return cache, badges, clock
}

// ---------------------------------------------------------------------------
// TTL behaviour
// ---------------------------------------------------------------------------

func TestStatusCache_TTL(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("fresh entry served without collaborator calls", func(t *testing.T) {
		t.Parallel()

		repo := &pointReadRepo{brand: wooBrand("brandX")}
		prober := newCountingProber()
		cache, _, clock := newTestCache(t, repo, prober)
		ctx := context.Background()

		// t=0: cache empty, one probe call.
		first, err := cache.GetStatus(ctx, userID, "brandX")
		require.NoError(t, err)
		assert.True(t, first.WooCommerce.Connected)
		assert.Equal(t, 1, prober.total())
		assert.Equal(t, 1, repo.reads)

		// t=30m: cache hit, zero probe calls and zero point reads.
		clock.advance(30 * time.Minute)
		second, err := cache.GetStatus(ctx, userID, "brandX")
		require.NoError(t, err)
		assert.Equal(t, first.LastChecked, second.LastChecked)
		assert.Equal(t, 1, prober.total())
		assert.Equal(t, 1, repo.reads)

		// t=61m: stale, recomputed.
		clock.advance(31 * time.Minute)
		third, err := cache.GetStatus(ctx, userID, "brandX")
		require.NoError(t, err)
		assert.NotEqual(t, first.LastChecked, third.LastChecked)
		assert.Equal(t, 2, prober.total())
		assert.Equal(t, 2, repo.reads)
	})

	t.Run("no credentials means no probe calls", func(t *testing.T) {
		t.Parallel()

		repo := &pointReadRepo{brand: &domain.Brand{ID: "bare"}}
		prober := newCountingProber()
		cache, _, _ := newTestCache(t, repo, prober)

		status, err := cache.GetStatus(context.Background(), userID, "bare")
		require.NoError(t, err)
		assert.False(t, status.WooCommerce.Connected)
		assert.False(t, status.Shopify.Connected)
		assert.Zero(t, prober.total())
	})

	t.Run("one probe per credentialed platform", func(t *testing.T) {
		t.Parallel()

		b := wooBrand("both")
		b.ShopifyDomain = "both.myshopify.com"
		b.ShopifyToken = "shpat_x"
		repo := &pointReadRepo{brand: b}
		prober := newCountingProber()
		cache, _, _ := newTestCache(t, repo, prober)

		_, err := cache.GetStatus(context.Background(), userID, "both")
		require.NoError(t, err)
		assert.Equal(t, 1, prober.calls[domain.PlatformWooCommerce])
		assert.Equal(t, 1, prober.calls[domain.PlatformShopify])
	})
}

// ---------------------------------------------------------------------------
// Failure handling
// ---------------------------------------------------------------------------

func TestStatusCache_Failures(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("point read failure surfaces error and leaves stale entry untouched", func(t *testing.T) {
		t.Parallel()

		repo := &pointReadRepo{brand: wooBrand("brandX")}
		prober := newCountingProber()
		cache, _, clock := newTestCache(t, repo, prober)
		ctx := context.Background()

		first, err := cache.GetStatus(ctx, userID, "brandX")
		require.NoError(t, err)

		clock.advance(2 * time.Hour)
		repo.mu.Lock()
		repo.err = domain.ErrNotFound
		repo.mu.Unlock()

		_, err = cache.GetStatus(ctx, userID, "brandX")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		// The old entry was not overwritten: winding the clock back inside
		// the original TTL window serves the original verdict.
		clock.advance(-90 * time.Minute)
		served, err := cache.GetStatus(ctx, userID, "brandX")
		require.NoError(t, err)
		assert.Equal(t, first.LastChecked, served.LastChecked)
	})

	t.Run("probe failure surfaces error without storing a broken entry", func(t *testing.T) {
		t.Parallel()

		repo := &pointReadRepo{brand: wooBrand("brandY")}
		prober := newCountingProber()
		prober.err = errors.New("probe timeout")
		cache, badges, _ := newTestCache(t, repo, prober)

		_, err := cache.GetStatus(context.Background(), userID, "brandY")
		require.Error(t, err)
		assert.Equal(t, domain.PlatformNone, badges.Current("brandY"))

		// Recovery: once the probe works, a fresh entry is computed.
		prober.mu.Lock()
		prober.err = nil
		prober.mu.Unlock()

		status, err := cache.GetStatus(context.Background(), userID, "brandY")
		require.NoError(t, err)
		assert.True(t, status.WooCommerce.Connected)
	})
}

// ---------------------------------------------------------------------------
// Badge projection
// ---------------------------------------------------------------------------

func TestStatusCache_BadgePush(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("woocommerce wins badge priority", func(t *testing.T) {
		t.Parallel()

		b := wooBrand("badge1")
		b.ShopifyDomain = "badge1.myshopify.com"
		b.ShopifyToken = "shpat_x"
		repo := &pointReadRepo{brand: b}
		cache, badges, _ := newTestCache(t, repo, newCountingProber())

		var notified []domain.Platform
		badges.OnChange(func(_ string, p domain.Platform) {
			notified = append(notified, p)
		})

		_, err := cache.GetStatus(context.Background(), userID, "badge1")
		require.NoError(t, err)

		assert.Equal(t, domain.PlatformWooCommerce, badges.Current("badge1"))
		assert.Equal(t, []domain.Platform{domain.PlatformWooCommerce}, notified)
	})

	t.Run("drop clears entries and badges", func(t *testing.T) {
		t.Parallel()

		repo := &pointReadRepo{brand: wooBrand("badge2")}
		prober := newCountingProber()
		cache, badges, _ := newTestCache(t, repo, prober)

		_, err := cache.GetStatus(context.Background(), userID, "badge2")
		require.NoError(t, err)
		require.Equal(t, domain.PlatformWooCommerce, badges.Current("badge2"))

		cache.Drop(userID, []string{"badge2"})
		assert.Equal(t, domain.PlatformNone, badges.Current("badge2"))

		// Next read recomputes.
		_, err = cache.GetStatus(context.Background(), userID, "badge2")
		require.NoError(t, err)
		assert.Equal(t, 2, prober.total())
	})
}
