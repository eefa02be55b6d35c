package brand

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/brandhub/internal/domain"
)

// Create writes a new brand and its owner member record, then stores the new
// id as the preferred active brand before the subscription has necessarily
// delivered it; when the next snapshot lands, preference resolution adopts
// the brand automatically. Create never sets the active id itself; callers
// that need it active immediately follow up with Switch, which bridges the
// window via a direct read.
func (s *Session) Create(ctx context.Context, name string) (*domain.Brand, error) {
	if name == "" {
		name = domain.DefaultBrandName
	}

	now := time.Now()
	b := &domain.Brand{
		ID:        domain.NewBrandID(),
		Name:      name,
		OwnerID:   s.userID,
		CreatedAt: now,
		Members: []domain.Member{
			{Email: s.ownerEmail, Role: domain.RoleOwner, JoinedAt: now},
		},
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("brand.Session.Create: %w", err)
	}

	if err := s.prefs.SetActiveBrand(ctx, s.userID, b.ID); err != nil {
		// Resolution falls back to the first-brand rule; the brand itself
		// is fine.
		log.Warn().Err(err).Str("brand_id", b.ID).Msg("preference write after create failed")
	}

	s.notifyDirectory(ctx)
	s.recordAudit(ctx, b.ID, "brand.create", map[string]any{"name": name})

	return b, nil
}

// Rename updates the display name in place. The name is not part of the
// integration status, so no cache invalidation happens.
func (s *Session) Rename(ctx context.Context, id, name string) error {
	if err := s.repo.Rename(ctx, s.userID, id, name); err != nil {
		return fmt.Errorf("brand.Session.Rename: %w", err)
	}

	s.notifyDirectory(ctx)
	s.recordAudit(ctx, id, "brand.rename", map[string]any{"name": name})

	return nil
}

// Switch makes the given brand active. Tier 1 consults the in-memory
// snapshot; tier 2 falls back to a direct point read for a brand that was
// just created and has not reached the subscribed list yet. The optimistic
// tier-2 state reconciles on the next snapshot emission. An id absent from
// both leaves the session untouched.
func (s *Session) Switch(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.activeID == id {
		// Already active: no preference write, no cache touch.
		s.mu.Unlock()
		return nil
	}
	b := findBrand(s.brands, id)
	s.mu.Unlock()

	if b == nil {
		var err error
		b, err = s.repo.GetByID(ctx, s.userID, id)
		if err != nil {
			return fmt.Errorf("brand.Session.Switch: %w", err)
		}
	}

	if err := s.setActive(ctx, b); err != nil {
		return fmt.Errorf("brand.Session.Switch: %w", err)
	}

	s.recordAudit(ctx, id, "brand.switch", nil)

	return nil
}

// Delete removes a brand document. The active brand and the last remaining
// brand are refused; the subscription removes the brand from the snapshot
// and re-runs resolution.
func (s *Session) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.activeID == id {
		s.mu.Unlock()
		return fmt.Errorf("brand.Session.Delete: %w", domain.ErrBrandActive)
	}
	if len(s.brands) <= 1 {
		s.mu.Unlock()
		return fmt.Errorf("brand.Session.Delete: %w", domain.ErrLastBrand)
	}
	s.mu.Unlock()

	if err := s.repo.Delete(ctx, s.userID, id); err != nil {
		return fmt.Errorf("brand.Session.Delete: %w", err)
	}

	s.notifyDirectory(ctx)
	s.recordAudit(ctx, id, "brand.delete", nil)

	return nil
}

// AddMember validates the membership change against the in-memory brand
// before any write reaches the directory.
func (s *Session) AddMember(ctx context.Context, id string, m domain.Member) error {
	b, err := s.repo.GetByID(ctx, s.userID, id)
	if err != nil {
		return fmt.Errorf("brand.Session.AddMember: %w", err)
	}

	if err = b.AddMember(m); err != nil {
		return fmt.Errorf("brand.Session.AddMember: %w", err)
	}

	if err = s.repo.AddMember(ctx, s.userID, id, m); err != nil {
		return fmt.Errorf("brand.Session.AddMember: %w", err)
	}

	s.notifyDirectory(ctx)
	s.recordAudit(ctx, id, "brand.member_add", map[string]any{"email": m.Email, "role": string(m.Role)})

	return nil
}

func (s *Session) RemoveMember(ctx context.Context, id, email string) error {
	b, err := s.repo.GetByID(ctx, s.userID, id)
	if err != nil {
		return fmt.Errorf("brand.Session.RemoveMember: %w", err)
	}

	if err = b.RemoveMember(email); err != nil {
		return fmt.Errorf("brand.Session.RemoveMember: %w", err)
	}

	if err = s.repo.RemoveMember(ctx, s.userID, id, email); err != nil {
		return fmt.Errorf("brand.Session.RemoveMember: %w", err)
	}

	s.notifyDirectory(ctx)
	s.recordAudit(ctx, id, "brand.member_remove", map[string]any{"email": email})

	return nil
}

// UpdateCredentials replaces a brand's integration credentials and drops the
// cached status so the next read probes with the new values.
func (s *Session) UpdateCredentials(ctx context.Context, id string, creds domain.Credentials) error {
	if err := s.repo.UpdateCredentials(ctx, s.userID, id, creds); err != nil {
		return fmt.Errorf("brand.Session.UpdateCredentials: %w", err)
	}

	s.status.Drop(s.userID, []string{id})
	s.notifyDirectory(ctx)
	s.recordAudit(ctx, id, "brand.credentials_update", nil)

	return nil
}

// notifyDirectory pushes a change marker so every subscriber (this session
// included) re-reads the list. Mutations rely on the resulting snapshot, not
// their own return value, to update in-memory state.
func (s *Session) notifyDirectory(ctx context.Context) {
	if err := s.dir.NotifyChanged(ctx, s.userID); err != nil {
		log.Warn().Err(err).Str("user_id", s.userID.String()).Msg("directory change notification failed")
	}
}

func (s *Session) recordAudit(ctx context.Context, brandID, action string, details map[string]any) {
	if s.audit == nil {
		return
	}

	entry := &domain.AuditEntry{
		ID:        uuid.New(),
		UserID:    s.userID,
		BrandID:   brandID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}
