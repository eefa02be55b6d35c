package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/brandhub/internal/brand"
	"github.com/gosuda/brandhub/internal/domain"
	"github.com/gosuda/brandhub/internal/server/middleware"
)

// sessionFor returns the signed-in user's brand session, starting one if the
// server restarted since login. SignIn is idempotent so this is cheap on the
// hot path.
func sessionFor(ctx context.Context, sessions SessionManager) (*brand.Session, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing user context")
	}

	sess, err := sessions.SignIn(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to start brand session", err)
	}
	return sess, nil
}

type BrandStateInput struct{}

type BrandStateOutput struct {
	Body brand.State
}

type CreateBrandInput struct {
	Body struct {
		Name string `json:"name,omitempty" maxLength:"255" doc:"Brand name; empty uses the default placeholder"`
	}
}

type CreateBrandOutput struct {
	Body *domain.Brand
}

type RenameBrandInput struct {
	ID   string `path:"id" doc:"Brand ID"`
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"255" doc:"New brand name"`
	}
}

type RenameBrandOutput struct {
	Body *domain.Brand
}

type ActivateBrandInput struct {
	ID string `path:"id" doc:"Brand ID"`
}

type ActivateBrandOutput struct {
	Body brand.State
}

type DeleteBrandInput struct {
	ID string `path:"id" doc:"Brand ID"`
}

type AddMemberInput struct {
	ID   string `path:"id" doc:"Brand ID"`
	Body struct {
		Email string `json:"email" minLength:"3" maxLength:"255" doc:"Member email"`
		Role  string `json:"role,omitempty" enum:"owner,editor" doc:"Member role"`
	}
}

type AddMemberOutput struct {
	Body *domain.Brand
}

type RemoveMemberInput struct {
	ID    string `path:"id" doc:"Brand ID"`
	Email string `path:"email" doc:"Member email"`
}

type UpdateCredentialsInput struct {
	ID   string `path:"id" doc:"Brand ID"`
	Body struct {
		WooCommerceURL    string `json:"woocommerce_url,omitempty" doc:"WooCommerce store URL"`
		WooCommerceKey    string `json:"woocommerce_key,omitempty" doc:"WooCommerce consumer key"`
		WooCommerceSecret string `json:"woocommerce_secret,omitempty" doc:"WooCommerce consumer secret"` //nolint:gosec // G117: credential DTO
		ShopifyDomain     string `json:"shopify_domain,omitempty" doc:"Shopify shop domain"`
		ShopifyToken      string `json:"shopify_token,omitempty" doc:"Shopify admin API token"` //nolint:gosec // G117: credential DTO
	}
}

type ListAuditInput struct {
	ID     string `path:"id" doc:"Brand ID"`
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Max entries"`
	Offset int    `query:"offset" default:"0" minimum:"0" doc:"Entries to skip"`
}

type ListAuditOutput struct {
	Body []*domain.AuditEntry
}

func RegisterBrandRoutes(api huma.API, store DataStore, sessions SessionManager) {
	huma.Register(api, huma.Operation{
		OperationID: "get-brand-state",
		Method:      http.MethodGet,
		Path:        "/brands",
		Summary:     "Get the brand list and active brand",
		Tags:        []string{"Brands"},
	}, func(ctx context.Context, _ *BrandStateInput) (*BrandStateOutput, error) {
		sess, err := sessionFor(ctx, sessions)
		if err != nil {
			return nil, err
		}

		return &BrandStateOutput{Body: sess.State()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-brand",
		Method:      http.MethodPost,
		Path:        "/brands",
		Summary:     "Create a new brand",
		Tags:        []string{"Brands"},
	}, func(ctx context.Context, input *CreateBrandInput) (*CreateBrandOutput, error) {
		sess, err := sessionFor(ctx, sessions)
		if err != nil {
			return nil, err
		}

		b, err := sess.Create(ctx, input.Body.Name)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to create brand", err)
		}

		return &CreateBrandOutput{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rename-brand",
		Method:      http.MethodPatch,
		Path:        "/brands/{id}",
		Summary:     "Rename a brand",
		Tags:        []string{"Brands"},
	}, func(ctx context.Context, input *RenameBrandInput) (*RenameBrandOutput, error) {
		sess, err := sessionFor(ctx, sessions)
		if err != nil {
			return nil, err
		}

		if err := sess.Rename(ctx, input.ID, input.Body.Name); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("brand not found")
			}
			return nil, huma.Error500InternalServerError("failed to rename brand", err)
		}

		userID, _ := middleware.UserIDFromContext(ctx)
		b, err := store.Brands().GetByID(ctx, userID, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load renamed brand", err)
		}

		return &RenameBrandOutput{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "activate-brand",
		Method:      http.MethodPost,
		Path:        "/brands/{id}/activate",
		Summary:     "Switch the active brand",
		Tags:        []string{"Brands"},
	}, func(ctx context.Context, input *ActivateBrandInput) (*ActivateBrandOutput, error) {
		sess, err := sessionFor(ctx, sessions)
		if err != nil {
			return nil, err
		}

		if err := sess.Switch(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("brand not found")
			}
			return nil, huma.Error500InternalServerError("failed to switch brand", err)
		}

		return &ActivateBrandOutput{Body: sess.State()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-brand",
		Method:      http.MethodDelete,
		Path:        "/brands/{id}",
		Summary:     "Delete a brand",
		Tags:        []string{"Brands"},
	}, func(ctx context.Context, input *DeleteBrandInput) (*struct{}, error) {
		sess, err := sessionFor(ctx, sessions)
		if err != nil {
			return nil, err
		}

		if err := sess.Delete(ctx, input.ID); err != nil {
			switch {
			case errors.Is(err, domain.ErrBrandActive):
				return nil, huma.Error409Conflict("cannot delete the active brand")
			case errors.Is(err, domain.ErrLastBrand):
				return nil, huma.Error409Conflict("cannot delete the last brand")
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("brand not found")
			default:
				return nil, huma.Error500InternalServerError("failed to delete brand", err)
			}
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-brand-member",
		Method:      http.MethodPost,
		Path:        "/brands/{id}/members",
		Summary:     "Add a member to a brand",
		Tags:        []string{"Brands"},
	}, func(ctx context.Context, input *AddMemberInput) (*AddMemberOutput, error) {
		sess, err := sessionFor(ctx, sessions)
		if err != nil {
			return nil, err
		}

		role := domain.MemberRole(input.Body.Role)
		if role == "" {
			role = domain.RoleEditor
		}

		if err := sess.AddMember(ctx, input.ID, domain.Member{Email: input.Body.Email, Role: role}); err != nil {
			switch {
			case errors.Is(err, domain.ErrMemberLimit):
				return nil, huma.Error409Conflict("brand member limit reached")
			case errors.Is(err, domain.ErrDuplicateMember):
				return nil, huma.Error409Conflict("member already exists")
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("brand not found")
			default:
				return nil, huma.Error500InternalServerError("failed to add member", err)
			}
		}

		userID, _ := middleware.UserIDFromContext(ctx)
		b, err := store.Brands().GetByID(ctx, userID, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load brand", err)
		}

		return &AddMemberOutput{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-brand-member",
		Method:      http.MethodDelete,
		Path:        "/brands/{id}/members/{email}",
		Summary:     "Remove a member from a brand",
		Tags:        []string{"Brands"},
	}, func(ctx context.Context, input *RemoveMemberInput) (*struct{}, error) {
		sess, err := sessionFor(ctx, sessions)
		if err != nil {
			return nil, err
		}

		if err := sess.RemoveMember(ctx, input.ID, input.Email); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("brand or member not found")
			}
			return nil, huma.Error500InternalServerError("failed to remove member", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-brand-credentials",
		Method:      http.MethodPut,
		Path:        "/brands/{id}/credentials",
		Summary:     "Replace a brand's integration credentials",
		Tags:        []string{"Brands"},
	}, func(ctx context.Context, input *UpdateCredentialsInput) (*struct{}, error) {
		sess, err := sessionFor(ctx, sessions)
		if err != nil {
			return nil, err
		}

		creds := domain.Credentials{
			WooCommerceURL:    input.Body.WooCommerceURL,
			WooCommerceKey:    input.Body.WooCommerceKey,
			WooCommerceSecret: input.Body.WooCommerceSecret,
			ShopifyDomain:     input.Body.ShopifyDomain,
			ShopifyToken:      input.Body.ShopifyToken,
		}

		if err := sess.UpdateCredentials(ctx, input.ID, creds); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("brand not found")
			}
			return nil, huma.Error500InternalServerError("failed to update credentials", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-brand-audit",
		Method:      http.MethodGet,
		Path:        "/brands/{id}/audit",
		Summary:     "List a brand's audit log",
		Tags:        []string{"Brands"},
	}, func(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing user context")
		}

		entries, err := store.Audit().ListByBrand(ctx, userID, input.ID, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries", err)
		}

		return &ListAuditOutput{Body: entries}, nil
	})
}
