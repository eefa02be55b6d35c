// Package brand owns the active-brand resolution and synchronization layer:
// the authoritative in-memory list of a user's brands, the currently active
// brand, and the rules that keep both valid while the directory, the
// preference store and direct point reads update independently.
package brand

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/brandhub/internal/directory"
	"github.com/gosuda/brandhub/internal/domain"
)

// PreferenceStore remembers the user's last active brand id across sessions.
// *redis.PrefStore satisfies this interface.
type PreferenceStore interface {
	ActiveBrand(ctx context.Context, userID uuid.UUID) (string, error)
	SetActiveBrand(ctx context.Context, userID uuid.UUID, brandID string) error
	ClearActiveBrand(ctx context.Context, userID uuid.UUID) error
}

// StatusRefresher is the integration status cache's resolver-facing surface.
// *integration.StatusCache satisfies this interface.
type StatusRefresher interface {
	RefreshOrServe(ctx context.Context, userID uuid.UUID, brandID string)
	Drop(userID uuid.UUID, brandIDs []string)
}

// Subscriber is the brand directory's stream surface. *directory.Directory
// satisfies this interface.
type Subscriber interface {
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan directory.Snapshot, func(), error)
	NotifyChanged(ctx context.Context, userID uuid.UUID) error
}

// State is one consistent view of a session, safe to hand to collaborators.
type State struct {
	Brands   []*domain.Brand `json:"brands"`
	ActiveID string          `json:"active_id"`
	Active   *domain.Brand   `json:"active"`
	Loading  bool            `json:"loading"`
	Error    string          `json:"error,omitempty"`
}

type EventType string

const (
	EventSnapshot      EventType = "snapshot"
	EventActiveChanged EventType = "active_changed"
)

// Event is one push to downstream watchers.
type Event struct {
	Type  EventType `json:"type"`
	State State     `json:"state"`
}

// Session is one user's live brand session. All mutation operations hang off
// it; the directory subscription feeds it in the background.
type Session struct {
	userID     uuid.UUID
	ownerEmail string
	repo       domain.BrandRepository
	dir        Subscriber
	prefs      PreferenceStore
	status     StatusRefresher
	audit      domain.AuditRepository // nil disables audit recording

	mu       sync.Mutex
	brands   []*domain.Brand
	activeID string
	active   *domain.Brand
	loading  bool
	err      error
	hooks    []func(activeID string)
	watchers map[int]chan Event
	nextID   int

	stop func()
	done chan struct{}
}

// State returns a copy of the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{
		Brands:   slices.Clone(s.brands),
		ActiveID: s.activeID,
		Active:   s.active,
		Loading:  s.loading,
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}

// OnActiveChange registers a hook invoked with the new active brand id after
// every resolution or switch that changes it. This is the push interface
// sibling collaborators use instead of polling.
func (s *Session) OnActiveChange(fn func(activeID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Watch returns a stream of session events and a cancel function. Slow
// watchers lose events rather than blocking the session.
func (s *Session) Watch() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan Event, 16)
	s.watchers[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(ch)
		}
	}

	return ch, cancel
}

// run consumes the directory stream until the session is torn down.
// Resolution is fully idempotent; redundant emissions are safe.
func (s *Session) run(ctx context.Context, snaps <-chan directory.Snapshot) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if snap.Err != nil {
				// Transient directory failure: flag it, keep the last
				// good snapshot and active id untouched.
				s.mu.Lock()
				s.err = snap.Err
				s.loading = false
				s.mu.Unlock()
				s.emit(EventSnapshot)
				continue
			}
			s.applySnapshot(ctx, snap.Brands)
		}
	}
}

// applySnapshot installs a new full brand list and re-runs active-brand
// resolution: a stored preference that exists in the list wins, otherwise the
// first brand as delivered (the directory does not guarantee an order; the
// arbitrary default is accepted, not hidden), otherwise no active brand.
func (s *Session) applySnapshot(ctx context.Context, brands []*domain.Brand) {
	pref, prefErr := s.prefs.ActiveBrand(ctx, s.userID)
	if prefErr != nil {
		log.Warn().Err(prefErr).Str("user_id", s.userID.String()).Msg("preference read failed; falling back to first brand")
		pref = ""
	}

	s.mu.Lock()
	s.brands = brands
	s.loading = false
	s.err = nil

	var nextID string
	switch {
	case pref != "" && findBrand(brands, pref) != nil:
		nextID = pref
	case len(brands) > 0:
		nextID = brands[0].ID
	}

	changed := nextID != s.activeID
	s.activeID = nextID
	s.active = findBrand(brands, nextID)
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()

	if changed && nextID != "" {
		// A failed read means the stored choice is unknown; leave it alone
		// rather than overwriting it with the fallback.
		if prefErr == nil {
			if err := s.prefs.SetActiveBrand(ctx, s.userID, nextID); err != nil {
				log.Warn().Err(err).Str("brand_id", nextID).Msg("persisting active brand preference failed")
			}
		}
		go s.status.RefreshOrServe(context.WithoutCancel(ctx), s.userID, nextID)
	}

	s.emit(EventSnapshot)
	if changed {
		for _, fn := range hooks {
			fn(nextID)
		}
		s.emit(EventActiveChanged)
	}
}

// setActive installs a directly confirmed brand as active, persists the
// preference and fans out downstream effects. Used by Switch, never by
// snapshot resolution.
func (s *Session) setActive(ctx context.Context, b *domain.Brand) error {
	s.mu.Lock()
	s.activeID = b.ID
	s.active = b
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()

	if err := s.prefs.SetActiveBrand(ctx, s.userID, b.ID); err != nil {
		return err
	}

	go s.status.RefreshOrServe(context.WithoutCancel(ctx), s.userID, b.ID)

	for _, fn := range hooks {
		fn(b.ID)
	}
	s.emit(EventActiveChanged)

	return nil
}

func (s *Session) emit(typ EventType) {
	s.mu.Lock()
	ev := Event{Type: typ, State: s.stateLocked()}
	chans := make([]chan Event, 0, len(s.watchers))
	for _, ch := range s.watchers {
		chans = append(chans, ch)
	}
	s.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- ev:
		default:
		}
	}
}

// teardown cancels the subscription, clears all session state, removes the
// preference entry and drops the user's cached integration status.
func (s *Session) teardown(ctx context.Context) {
	s.stop()
	<-s.done

	s.mu.Lock()
	brandIDs := make([]string, 0, len(s.brands))
	for _, b := range s.brands {
		brandIDs = append(brandIDs, b.ID)
	}
	s.brands = nil
	s.activeID = ""
	s.active = nil
	s.err = nil
	s.loading = false
	s.hooks = nil
	watchers := s.watchers
	s.watchers = make(map[int]chan Event)
	s.mu.Unlock()

	for _, ch := range watchers {
		close(ch)
	}

	s.status.Drop(s.userID, brandIDs)

	if err := s.prefs.ClearActiveBrand(ctx, s.userID); err != nil {
		log.Warn().Err(err).Str("user_id", s.userID.String()).Msg("clearing active brand preference failed")
	}
}

func findBrand(brands []*domain.Brand, id string) *domain.Brand {
	if id == "" {
		return nil
	}
	for _, b := range brands {
		if b.ID == id {
			return b
		}
	}
	return nil
}
