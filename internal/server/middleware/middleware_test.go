package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/brandhub/internal/auth"
	"github.com/gosuda/brandhub/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// contextHandler captures context values set by middleware so tests can
// assert that the correct user and brand were injected.
type contextHandler struct {
	userID  uuid.UUID
	brandID string
	called  bool
}

func (h *contextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.userID, _ = middleware.UserIDFromContext(r.Context())
	h.brandID, _ = middleware.BrandIDFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

// setUser injects a user ID into the request context.
func setUser(r *http.Request, userID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ContextKeyUserID, userID)
	return r.WithContext(ctx)
}

// staticBrandSource returns a fixed active brand for any user.
type staticBrandSource struct {
	brandID string
	ok      bool
}

func (s *staticBrandSource) ActiveBrand(uuid.UUID) (string, bool) {
	return s.brandID, s.ok
}

// ===========================================================================
// 1. Context helpers
// ===========================================================================

func TestUserIDFromContext(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		want := uuid.New()
		ctx := context.WithValue(context.Background(), middleware.ContextKeyUserID, want)

		got, ok := middleware.UserIDFromContext(ctx)

		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		got, ok := middleware.UserIDFromContext(context.Background())

		assert.False(t, ok)
		assert.Equal(t, uuid.Nil, got)
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()

		ctx := context.WithValue(context.Background(), middleware.ContextKeyUserID, "not-a-uuid")

		_, ok := middleware.UserIDFromContext(ctx)

		assert.False(t, ok)
	})
}

func TestBrandIDFromContext(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		ctx := context.WithValue(context.Background(), middleware.ContextKeyBrandID, "b1")

		got, ok := middleware.BrandIDFromContext(ctx)

		require.True(t, ok)
		assert.Equal(t, "b1", got)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		_, ok := middleware.BrandIDFromContext(context.Background())

		assert.False(t, ok)
	})
}

// ===========================================================================
// 2. Auth middleware
// ===========================================================================

func TestAuth(t *testing.T) {
	t.Parallel()

	const secret = "middleware-test-secret"

	t.Run("valid access token injects user id", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		token, err := auth.IssueAccessToken(secret, userID, 5*time.Minute)
		require.NoError(t, err)

		h := &contextHandler{}
		handler := middleware.Auth(secret)(h)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		require.True(t, h.called)
		assert.Equal(t, userID, h.userID)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		handler := middleware.Auth(secret)(h)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, h.called)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		handler := middleware.Auth(secret)(h)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer not-a-jwt")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, h.called)
	})

	t.Run("token signed with other secret rejected", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueAccessToken("other-secret", uuid.New(), 5*time.Minute)
		require.NoError(t, err)

		h := &contextHandler{}
		handler := middleware.Auth(secret)(h)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, h.called)
	})

	t.Run("refresh token rejected on regular endpoints", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueRefreshToken(secret, uuid.New(), 5*time.Minute)
		require.NoError(t, err)

		h := &contextHandler{}
		handler := middleware.Auth(secret)(h)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, h.called)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueAccessToken(secret, uuid.New(), -1*time.Second)
		require.NoError(t, err)

		h := &contextHandler{}
		handler := middleware.Auth(secret)(h)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, h.called)
	})
}

// ===========================================================================
// 3. RequireActiveBrand middleware
// ===========================================================================

func TestRequireActiveBrand(t *testing.T) {
	t.Parallel()

	t.Run("active brand injected into context", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		handler := middleware.RequireActiveBrand(&staticBrandSource{brandID: "b1", ok: true})(h)

		r := setUser(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New())
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		require.True(t, h.called)
		assert.Equal(t, "b1", h.brandID)
	})

	t.Run("no active brand rejected with conflict", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		handler := middleware.RequireActiveBrand(&staticBrandSource{ok: false})(h)

		r := setUser(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New())
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.False(t, h.called)
	})

	t.Run("missing user context rejected", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		handler := middleware.RequireActiveBrand(&staticBrandSource{brandID: "b1", ok: true})(h)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, h.called)
	})
}

// ===========================================================================
// 4. Rate limiting
// ===========================================================================

func TestRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("per-user limit enforced", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		handler := middleware.RateLimit(t.Context(), 1, 2)(h)

		userID := uuid.New()

		codes := make([]int, 0, 3)
		for range 3 {
			r := setUser(httptest.NewRequest(http.MethodGet, "/", nil), userID)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			codes = append(codes, w.Code)
		}

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("users are limited independently", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		handler := middleware.RateLimit(t.Context(), 1, 1)(h)

		// Exhaust the first user's burst.
		r := setUser(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New())
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)

		// A different user still gets through.
		r = setUser(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New())
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no user context skips limiting", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		handler := middleware.RateLimit(t.Context(), 1, 1)(h)

		for range 5 {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestRateLimitByIP(t *testing.T) {
	t.Parallel()

	h := &contextHandler{}
	handler := middleware.RateLimitByIP(t.Context(), 1, 1)(h)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
