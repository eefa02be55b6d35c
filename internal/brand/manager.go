package brand

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/brandhub/internal/domain"
)

// Manager owns one Session per signed-in user: creation on sign-in, lookup
// for request handling, teardown on sign-out.
type Manager struct {
	repo   domain.BrandRepository
	users  domain.UserRepository
	dir    Subscriber
	prefs  PreferenceStore
	status StatusRefresher
	audit  domain.AuditRepository

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewManager(repo domain.BrandRepository, users domain.UserRepository, dir Subscriber, prefs PreferenceStore, status StatusRefresher, audit domain.AuditRepository) *Manager {
	return &Manager{
		repo:     repo,
		users:    users,
		dir:      dir,
		prefs:    prefs,
		status:   status,
		audit:    audit,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// SignIn materializes the user's session, subscribing to the directory.
// Idempotent: an existing live session is returned unchanged, so it is safe
// to call on every authenticated request.
func (m *Manager) SignIn(ctx context.Context, userID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("brand.Manager.SignIn: %w", err)
	}

	sessCtx, cancel := context.WithCancel(context.Background())

	snaps, stopSub, err := m.dir.Subscribe(sessCtx, userID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("brand.Manager.SignIn: subscribe: %w", err)
	}

	s := &Session{
		userID:     userID,
		ownerEmail: user.Email,
		repo:       m.repo,
		dir:        m.dir,
		prefs:      m.prefs,
		status:     m.status,
		audit:      m.audit,
		loading:    true,
		watchers:   make(map[int]chan Event),
		done:       make(chan struct{}),
		stop: func() {
			cancel()
			stopSub()
		},
	}

	m.mu.Lock()
	if existing, ok := m.sessions[userID]; ok {
		// Lost the race to another sign-in; keep the first session.
		m.mu.Unlock()
		s.stop()
		return existing, nil
	}
	m.sessions[userID] = s
	m.mu.Unlock()

	go s.run(sessCtx, snaps)

	return s, nil
}

// Session returns the user's live session, if any.
func (m *Manager) Session(userID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// ActiveBrand returns the user's resolved active brand id, if the user has a
// live session with one.
func (m *Manager) ActiveBrand(userID uuid.UUID) (string, bool) {
	s, ok := m.Session(userID)
	if !ok {
		return "", false
	}
	id := s.State().ActiveID
	return id, id != ""
}

// SignOut tears the user's session down: the subscription is cancelled, all
// in-memory state and cached status cleared, the preference entry removed.
// Signing out an absent session is a no-op.
func (m *Manager) SignOut(ctx context.Context, userID uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.teardown(ctx)
	}
}

// Close tears down every live session.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.teardown(ctx)
	}
}
