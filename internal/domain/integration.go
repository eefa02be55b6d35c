package domain

import "time"

// Platform identifies a third-party commerce platform.
type Platform string

const (
	PlatformWooCommerce Platform = "woocommerce"
	PlatformShopify     Platform = "shopify"
	PlatformNone        Platform = ""
)

// PlatformStatus is one platform's connection verdict.
type PlatformStatus struct {
	Connected bool `json:"connected"`
}

// IntegrationStatus is the cached per-brand connection verdict set.
// An entry is valid for the cache TTL from LastChecked and is recomputed,
// never served, past that.
type IntegrationStatus struct {
	WooCommerce PlatformStatus `json:"woocommerce"`
	Shopify     PlatformStatus `json:"shopify"`
	LastChecked time.Time      `json:"last_checked"`
}

// Primary returns the primarily-connected platform, first match in fixed
// priority order: WooCommerce, then Shopify, else none. Display courtesy
// only; carries no isolation guarantees.
func (s IntegrationStatus) Primary() Platform {
	switch {
	case s.WooCommerce.Connected:
		return PlatformWooCommerce
	case s.Shopify.Connected:
		return PlatformShopify
	default:
		return PlatformNone
	}
}
