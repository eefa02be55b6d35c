package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/brandhub/internal/domain"
	"github.com/gosuda/brandhub/internal/server/middleware"
)

type IntegrationStatusInput struct{}

type IntegrationStatusOutput struct {
	Body struct {
		BrandID     string          `json:"brand_id"`
		WooCommerce bool            `json:"woocommerce_connected"`
		Shopify     bool            `json:"shopify_connected"`
		Badge       domain.Platform `json:"badge"`
		LastChecked time.Time       `json:"last_checked"`
	}
}

// RegisterIntegrationRoutes serves the active brand's integration status.
// The routes expect the active-brand middleware to have run, so the brand id
// is taken from the request context rather than the path.
func RegisterIntegrationRoutes(api huma.API, status StatusProvider) {
	huma.Register(api, huma.Operation{
		OperationID: "get-integration-status",
		Method:      http.MethodGet,
		Path:        "/integrations/status",
		Summary:     "Get the active brand's integration status",
		Tags:        []string{"Integrations"},
	}, func(ctx context.Context, _ *IntegrationStatusInput) (*IntegrationStatusOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		brandID, ok := middleware.BrandIDFromContext(ctx)
		if !ok {
			return nil, huma.Error409Conflict("no active brand")
		}

		st, err := status.GetStatus(ctx, userID, brandID)
		if err != nil {
			return nil, huma.Error502BadGateway("integration status unavailable", err)
		}

		out := &IntegrationStatusOutput{}
		out.Body.BrandID = brandID
		out.Body.WooCommerce = st.WooCommerce.Connected
		out.Body.Shopify = st.Shopify.Connected
		out.Body.Badge = st.Primary()
		out.Body.LastChecked = st.LastChecked
		return out, nil
	})
}
