package integration

import (
	"sync"

	"github.com/gosuda/brandhub/internal/domain"
)

// Badges is the process-wide "currently displayed connection badge" state:
// per brand, the primarily connected platform. It is a courtesy projection
// for display collaborators and carries no isolation guarantees.
type Badges struct {
	mu      sync.RWMutex
	current map[string]domain.Platform
	hooks   []func(brandID string, platform domain.Platform)
}

func NewBadges() *Badges {
	return &Badges{current: make(map[string]domain.Platform)}
}

// OnChange registers a hook invoked whenever a brand's badge changes.
// Registration is not concurrency-safe with Set; register during wiring.
func (b *Badges) OnChange(fn func(brandID string, platform domain.Platform)) {
	b.hooks = append(b.hooks, fn)
}

// Set records the brand's primary platform and notifies hooks on change.
func (b *Badges) Set(brandID string, platform domain.Platform) {
	b.mu.Lock()
	prev, seen := b.current[brandID]
	b.current[brandID] = platform
	b.mu.Unlock()

	if seen && prev == platform {
		return
	}
	for _, fn := range b.hooks {
		fn(brandID, platform)
	}
}

// Current returns the brand's badge, PlatformNone when unknown.
func (b *Badges) Current(brandID string) domain.Platform {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current[brandID]
}

// Drop forgets a brand's badge without notifying hooks.
func (b *Badges) Drop(brandID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.current, brandID)
}
