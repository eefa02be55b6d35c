// Package directory exposes the brand directory as a cancellable stream of
// full snapshots. The backing store only signals "something changed", so every
// emission re-reads the complete list, so consumers never see diffs.
package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/brandhub/internal/domain"
	redisstore "github.com/gosuda/brandhub/internal/store/redis"
)

// Snapshot is one full-list emission. Err is set on a failed re-read; the
// stream stays open and the previous good snapshot remains valid.
type Snapshot struct {
	Brands []*domain.Brand
	Err    error
}

// Feed carries change notifications between directory writers and
// subscribers. *redis.PubSub satisfies this interface.
type Feed interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

type Directory struct {
	brands domain.BrandRepository
	feed   Feed
}

func New(brands domain.BrandRepository, feed Feed) *Directory {
	return &Directory{brands: brands, feed: feed}
}

// Brands exposes point reads and writes on the underlying repository.
func (d *Directory) Brands() domain.BrandRepository {
	return d.brands
}

// NotifyChanged signals every subscriber of the user's brand list to re-read.
// Mutation callers invoke this after each directory write; the payload is an
// opaque marker, not a diff.
func (d *Directory) NotifyChanged(ctx context.Context, userID uuid.UUID) error {
	return d.feed.Publish(ctx, redisstore.BrandsChannel(userID), []byte("changed"))
}

// Subscribe emits one initial full snapshot and a fresh one after every
// change notification. The returned stop function cancels the subscription;
// the snapshot channel closes afterwards.
func (d *Directory) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan Snapshot, func(), error) {
	subCtx, cancel := context.WithCancel(ctx)

	notes, cleanup, err := d.feed.Subscribe(subCtx, redisstore.BrandsChannel(userID))
	if err != nil {
		cancel()
		return nil, nil, err
	}

	out := make(chan Snapshot, 16)

	go func() {
		defer close(out)

		d.emit(subCtx, userID, out)

		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-notes:
				if !ok {
					return
				}
				d.emit(subCtx, userID, out)
			}
		}
	}()

	stop := func() {
		cancel()
		cleanup()
	}

	return out, stop, nil
}

func (d *Directory) emit(ctx context.Context, userID uuid.UUID, out chan<- Snapshot) {
	brands, err := d.brands.ListByUser(ctx, userID)

	snap := Snapshot{Brands: brands, Err: err}
	select {
	case out <- snap:
	case <-ctx.Done():
	}
}
