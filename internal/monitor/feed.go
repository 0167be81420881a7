package monitor

import (
	"context"
	"time"

	"GuardChat/internal/cache"
)

// FeedKey identifies one independently polled telemetry signal.
type FeedKey string

const (
	FeedHealth       FeedKey = "health"
	FeedStats        FeedKey = "stats"
	FeedDistribution FeedKey = "distribution"
	FeedTimeseries   FeedKey = "timeseries"
	FeedAttackTypes  FeedKey = "attack-types"
	FeedLive         FeedKey = "live"
	FeedTenants      FeedKey = "tenants"
)

// FeedStatus is a feed's state-machine position.
type FeedStatus string

const (
	StatusLoading FeedStatus = "loading"
	StatusReady   FeedStatus = "ready"
	StatusError   FeedStatus = "error"
)

// Polling cadences per feed.
const (
	healthInterval  = 10 * time.Second
	statsInterval   = 5 * time.Second
	liveInterval    = 2 * time.Second
	tenantsInterval = 30 * time.Second
)

// feed is one signal's state machine. A feed that has succeeded once
// keeps serving its last payload through any number of failed polls; the
// error flag lets the view show a degraded indicator without blanking.
type feed struct {
	key      FeedKey
	interval time.Duration
	fetch    func(ctx context.Context, tenant string) (any, error)
	kick     chan struct{}

	status FeedStatus
	err    error
	last   cache.Snapshot[any]
}

// FeedState is a read-only snapshot of one feed for the view.
type FeedState struct {
	Key         FeedKey
	Status      FeedStatus
	Err         error
	Data        any
	LastSuccess time.Time
	Interval    time.Duration
}
