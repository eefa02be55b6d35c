package v1_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/brandhub/internal/brand"
	"github.com/gosuda/brandhub/internal/directory"
	"github.com/gosuda/brandhub/internal/domain"
	"github.com/gosuda/brandhub/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject user/brand into context for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyUserID, userID)
}

func brandCtx(userID uuid.UUID, brandID string) context.Context {
	return context.WithValue(userCtx(userID), middleware.ContextKeyBrandID, brandID)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	brands domain.BrandRepository
	users  domain.UserRepository
	audit  domain.AuditRepository
}

func (m *mockDataStore) Brands() domain.BrandRepository { return m.brands }
func (m *mockDataStore) Users() domain.UserRepository   { return m.users }
func (m *mockDataStore) Audit() domain.AuditRepository  { return m.audit }

// ---------------------------------------------------------------------------
// Mock BrandRepository
// ---------------------------------------------------------------------------

type mockBrandRepo struct {
	createFunc       func(ctx context.Context, b *domain.Brand) error
	getByIDFunc      func(ctx context.Context, userID uuid.UUID, id string) (*domain.Brand, error)
	renameFunc       func(ctx context.Context, userID uuid.UUID, id, name string) error
	updateCredsFunc  func(ctx context.Context, userID uuid.UUID, id string, creds domain.Credentials) error
	addMemberFunc    func(ctx context.Context, userID uuid.UUID, id string, m domain.Member) error
	removeMemberFunc func(ctx context.Context, userID uuid.UUID, id, email string) error
	deleteFunc       func(ctx context.Context, userID uuid.UUID, id string) error
	listByUserFunc   func(ctx context.Context, userID uuid.UUID) ([]*domain.Brand, error)
}

func (m *mockBrandRepo) Create(ctx context.Context, b *domain.Brand) error {
	return m.createFunc(ctx, b)
}

func (m *mockBrandRepo) GetByID(ctx context.Context, userID uuid.UUID, id string) (*domain.Brand, error) {
	return m.getByIDFunc(ctx, userID, id)
}

func (m *mockBrandRepo) Rename(ctx context.Context, userID uuid.UUID, id, name string) error {
	return m.renameFunc(ctx, userID, id, name)
}

func (m *mockBrandRepo) UpdateCredentials(ctx context.Context, userID uuid.UUID, id string, creds domain.Credentials) error {
	return m.updateCredsFunc(ctx, userID, id, creds)
}

func (m *mockBrandRepo) AddMember(ctx context.Context, userID uuid.UUID, id string, mem domain.Member) error {
	return m.addMemberFunc(ctx, userID, id, mem)
}

func (m *mockBrandRepo) RemoveMember(ctx context.Context, userID uuid.UUID, id, email string) error {
	return m.removeMemberFunc(ctx, userID, id, email)
}

func (m *mockBrandRepo) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	return m.deleteFunc(ctx, userID, id)
}

func (m *mockBrandRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Brand, error) {
	return m.listByUserFunc(ctx, userID)
}

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc     func(ctx context.Context, u *domain.User) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	updateFunc     func(ctx context.Context, u *domain.User) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.createFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.updateFunc(ctx, u)
}

// ---------------------------------------------------------------------------
// Mock AuditRepository
// ---------------------------------------------------------------------------

type mockAuditRepo struct {
	recordFunc      func(ctx context.Context, entry *domain.AuditEntry) error
	listByBrandFunc func(ctx context.Context, userID uuid.UUID, brandID string, limit, offset int) ([]*domain.AuditEntry, error)
}

func (m *mockAuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if m.recordFunc == nil {
		return nil
	}
	return m.recordFunc(ctx, entry)
}

func (m *mockAuditRepo) ListByBrand(ctx context.Context, userID uuid.UUID, brandID string, limit, offset int) ([]*domain.AuditEntry, error) {
	return m.listByBrandFunc(ctx, userID, brandID, limit, offset)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc func(ctx context.Context, email, password, name string) (*domain.User, error)
	loginFunc    func(ctx context.Context, email, password string) (*domain.User, string, string, error)
	refreshFunc  func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	return m.registerFunc(ctx, email, password, name)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*domain.User, string, string, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshFunc(ctx, refreshToken)
}

// ---------------------------------------------------------------------------
// Session manager harness: a real brand.Manager over in-memory collaborators
// ---------------------------------------------------------------------------

type memPrefs struct {
	mu     sync.Mutex
	values map[uuid.UUID]string
}

func (p *memPrefs) ActiveBrand(_ context.Context, userID uuid.UUID) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[userID], nil
}

func (p *memPrefs) SetActiveBrand(_ context.Context, userID uuid.UUID, brandID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[userID] = brandID
	return nil
}

func (p *memPrefs) ClearActiveBrand(_ context.Context, userID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, userID)
	return nil
}

type noopStatus struct{}

func (noopStatus) RefreshOrServe(context.Context, uuid.UUID, string) {}
func (noopStatus) Drop(uuid.UUID, []string)                          {}

// memDir re-reads the repo list synchronously on every change notification,
// so handler tests see mutations reflected in session state without racing a
// background subscription.
type memDir struct {
	repo domain.BrandRepository

	mu   sync.Mutex
	subs map[uuid.UUID][]chan directory.Snapshot
}

func newMemDir(repo domain.BrandRepository) *memDir {
	return &memDir{repo: repo, subs: make(map[uuid.UUID][]chan directory.Snapshot)}
}

func (d *memDir) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan directory.Snapshot, func(), error) {
	ch := make(chan directory.Snapshot, 16)

	d.mu.Lock()
	d.subs[userID] = append(d.subs[userID], ch)
	d.mu.Unlock()

	brands, err := d.repo.ListByUser(ctx, userID)
	ch <- directory.Snapshot{Brands: brands, Err: err}

	return ch, func() {}, nil
}

func (d *memDir) NotifyChanged(ctx context.Context, userID uuid.UUID) error {
	brands, err := d.repo.ListByUser(ctx, userID)

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ch := range d.subs[userID] {
		select {
		case ch <- directory.Snapshot{Brands: brands, Err: err}:
		default:
		}
	}
	return nil
}

// newTestSessions builds a real session manager over the given brand repo.
func newTestSessions(t *testing.T, repo domain.BrandRepository, user *domain.User) *brand.Manager {
	t.Helper()

	users := &mockUserRepo{
		getByIDFunc: func(context.Context, uuid.UUID) (*domain.User, error) { return user, nil },
	}

	mgr := brand.NewManager(repo, users, newMemDir(repo), &memPrefs{values: make(map[uuid.UUID]string)}, noopStatus{}, nil)
	t.Cleanup(func() { mgr.Close(context.Background()) })

	return mgr
}

// signedIn starts a session and waits until the first snapshot resolved.
func signedIn(t *testing.T, mgr *brand.Manager, userID uuid.UUID) *brand.Session {
	t.Helper()

	sess, err := mgr.SignIn(context.Background(), userID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return !sess.State().Loading
	}, 2*time.Second, 5*time.Millisecond, "initial snapshot never resolved")

	return sess
}
