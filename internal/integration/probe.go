// Package integration derives and caches per-brand commerce platform
// connection status.
package integration

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gosuda/brandhub/internal/domain"
)

// Prober checks whether a platform connection is live. Implementations are
// invoked at most once per platform per cache refresh.
type Prober interface {
	Check(ctx context.Context, platform domain.Platform, creds domain.Credentials) (bool, error)
}

// HTTPProber verifies platform connections by hitting each store's own
// status endpoint with the brand's credentials.
type HTTPProber struct {
	client      *http.Client
	wooPath     string
	shopifyPath string
}

func NewHTTPProber(wooPath, shopifyPath string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		client:      &http.Client{Timeout: timeout},
		wooPath:     wooPath,
		shopifyPath: shopifyPath,
	}
}

// Check performs a single GET against the brand's store. A non-2xx response
// means not connected; transport failures are returned as errors, never
// retried.
func (p *HTTPProber) Check(ctx context.Context, platform domain.Platform, creds domain.Credentials) (bool, error) {
	var req *http.Request
	var err error

	switch platform {
	case domain.PlatformWooCommerce:
		url := strings.TrimSuffix(creds.WooCommerceURL, "/") + p.wooPath
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, fmt.Errorf("integration.HTTPProber.Check: %w", err)
		}
		req.SetBasicAuth(creds.WooCommerceKey, creds.WooCommerceSecret)

	case domain.PlatformShopify:
		url := "https://" + creds.ShopifyDomain + p.shopifyPath
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, fmt.Errorf("integration.HTTPProber.Check: %w", err)
		}
		req.Header.Set("X-Shopify-Access-Token", creds.ShopifyToken)

	default:
		return false, fmt.Errorf("integration.HTTPProber.Check: unknown platform %q", platform)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("integration.HTTPProber.Check: %w", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}
