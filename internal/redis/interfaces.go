package redis

import (
	"context"
	"time"

	"carpool/internal/domain"
	"carpool/internal/geo"
)

// PlaceStoreInterface defines the interface for geocoded place storage.
type PlaceStoreInterface interface {
	SavePlace(ctx context.Context, key string, p geo.Point) error
	GetPlace(ctx context.Context, key string) (*geo.Point, error)
}

// UnknownPlaceCache defines the interface for remembering failed lookups.
type UnknownPlaceCache interface {
	MarkUnknownPlace(ctx context.Context, key string, ttl time.Duration) error
	IsUnknownPlace(ctx context.Context, key string) (bool, error)
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireJobLock(ctx context.Context, job string, ttl time.Duration) (bool, error)
	ReleaseJobLock(ctx context.Context, job string) error
}

// NotificationPublisherInterface defines the interface for live notification delivery.
type NotificationPublisherInterface interface {
	Publish(ctx context.Context, n *domain.Notification) error
}

// Ensure concrete types implement interfaces.
var (
	_ PlaceStoreInterface            = (*PlaceStore)(nil)
	_ UnknownPlaceCache              = (*CacheStore)(nil)
	_ LockStoreInterface             = (*LockStore)(nil)
	_ NotificationPublisherInterface = (*NotificationPublisher)(nil)
)
