// Package monitor runs the telemetry polling that feeds the monitoring
// view: independently scheduled reads of the gateway's stats endpoints,
// scoped by a tenant filter, with per-feed failure isolation.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"GuardChat/internal/gateway"
)

// Source is the slice of the gateway client the poller reads from.
type Source interface {
	Health(ctx context.Context) (*gateway.HealthResponse, error)
	Stats(ctx context.Context, tenant string) (*gateway.StatsSnapshot, error)
	Distribution(ctx context.Context, tenant string) (map[string]int, error)
	Timeseries(ctx context.Context, tenant string) ([]gateway.TimeseriesPoint, error)
	AttackTypes(ctx context.Context, tenant string) (map[string]int, error)
	Live(ctx context.Context, tenant string) ([]gateway.LiveRow, error)
	Tenants(ctx context.Context) ([]string, error)
}

// Poller schedules every feed on its own cadence. Feeds are mutually
// independent: one failing or slow feed never delays another. Results of
// requests issued under a previous tenant scope are discarded on arrival
// (epoch check) rather than folded into the new scope's view.
type Poller struct {
	mu sync.Mutex

	src    Source
	logger *slog.Logger
	ring   *Ring

	tenant string
	epoch  uint64

	feeds   map[FeedKey]*feed
	updates chan FeedKey

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// liveWindowCapacity is the fixed size of the live ticker's ring buffer,
// matching the row count the gateway returns for /stats/live.
const liveWindowCapacity = 20

// NewPoller creates a poller scoped to the given tenant filter.
func NewPoller(src Source, logger *slog.Logger, tenant string) *Poller {
	p := &Poller{
		src:     src,
		logger:  logger,
		ring:    NewRing(liveWindowCapacity),
		tenant:  tenant,
		feeds:   map[FeedKey]*feed{},
		updates: make(chan FeedKey, 32),
	}

	add := func(key FeedKey, interval time.Duration, fetch func(ctx context.Context, tenant string) (any, error)) {
		p.feeds[key] = &feed{
			key:      key,
			interval: interval,
			fetch:    fetch,
			kick:     make(chan struct{}, 1),
			status:   StatusLoading,
		}
	}

	add(FeedHealth, healthInterval, func(ctx context.Context, _ string) (any, error) {
		return src.Health(ctx)
	})
	add(FeedStats, statsInterval, func(ctx context.Context, tenant string) (any, error) {
		return src.Stats(ctx, tenant)
	})
	add(FeedDistribution, statsInterval, func(ctx context.Context, tenant string) (any, error) {
		return src.Distribution(ctx, tenant)
	})
	add(FeedTimeseries, statsInterval, func(ctx context.Context, tenant string) (any, error) {
		return src.Timeseries(ctx, tenant)
	})
	add(FeedAttackTypes, statsInterval, func(ctx context.Context, tenant string) (any, error) {
		return src.AttackTypes(ctx, tenant)
	})
	add(FeedLive, liveInterval, func(ctx context.Context, tenant string) (any, error) {
		return src.Live(ctx, tenant)
	})
	add(FeedTenants, tenantsInterval, func(ctx context.Context, _ string) (any, error) {
		return src.Tenants(ctx)
	})

	return p
}

// Start launches one scheduler goroutine per feed. Each feed polls once
// immediately and then on its own interval.
func (p *Poller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	for _, f := range p.feeds {
		p.wg.Add(1)
		go p.run(ctx, f)
	}
}

// Stop cancels every feed's timer and in-flight request and waits for
// the scheduler goroutines to exit.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Updates delivers a feed key whenever that feed's state changes. The
// channel is buffered and never blocks polling; a slow consumer only
// loses redundant wake-ups.
func (p *Poller) Updates() <-chan FeedKey {
	return p.updates
}

// Ring exposes the live ticker's ring buffer.
func (p *Poller) Ring() *Ring {
	return p.ring
}

// Tenant returns the current tenant filter.
func (p *Poller) Tenant() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tenant
}

// SetTenant changes the tenant filter. Every feed re-issues immediately
// rather than waiting for its next tick, and any in-flight request issued
// under the old scope is discarded when it resolves.
func (p *Poller) SetTenant(tenant string) {
	p.mu.Lock()
	if tenant == p.tenant {
		p.mu.Unlock()
		return
	}
	p.tenant = tenant
	p.epoch++
	for _, f := range p.feeds {
		f.status = StatusLoading
		f.err = nil
	}
	p.mu.Unlock()

	p.ring.Replace(nil)
	for _, f := range p.feeds {
		select {
		case f.kick <- struct{}{}:
		default:
		}
	}
}

func (p *Poller) run(ctx context.Context, f *feed) {
	defer p.wg.Done()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	p.poll(ctx, f)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, f)
		case <-f.kick:
			p.poll(ctx, f)
		}
		// A tick that fired while the last request was outstanding is
		// skipped, not replayed.
		select {
		case <-ticker.C:
		default:
		}
	}
}

func (p *Poller) poll(ctx context.Context, f *feed) {
	p.mu.Lock()
	tenant := p.tenant
	epoch := p.epoch
	p.mu.Unlock()

	data, err := f.fetch(ctx, tenant)

	p.mu.Lock()
	defer p.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if epoch != p.epoch {
		p.logger.Debug("discarding stale poll result", "feed", string(f.key), "tenant", tenant)
		return
	}

	if err != nil {
		f.status = StatusError
		f.err = err
		p.logger.Warn("feed poll failed", "feed", string(f.key), "error", err)
	} else {
		f.status = StatusReady
		f.err = nil
		f.last.Set(data)
		if f.key == FeedLive {
			if rows, ok := data.([]gateway.LiveRow); ok {
				p.ring.Replace(rows)
			}
		}
	}

	select {
	case p.updates <- f.key:
	default:
	}
}

// Feed returns a snapshot of one feed's state. A feed in error retains
// the payload of its last successful poll.
func (p *Poller) Feed(key FeedKey) FeedState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feedStateLocked(key)
}

func (p *Poller) feedStateLocked(key FeedKey) FeedState {
	f, ok := p.feeds[key]
	if !ok {
		return FeedState{Key: key}
	}
	data, _ := f.last.Get()
	return FeedState{
		Key:         f.key,
		Status:      f.status,
		Err:         f.err,
		Data:        data,
		LastSuccess: f.last.At(),
		Interval:    f.interval,
	}
}

// Snapshot is a typed view over all feeds for the monitoring surface.
type Snapshot struct {
	Tenant       string
	Health       *gateway.HealthResponse
	Stats        *gateway.StatsSnapshot
	Distribution map[string]int
	Timeseries   []gateway.TimeseriesPoint
	AttackTypes  map[string]int
	Live         []gateway.LiveRow
	Tenants      []string
	Feeds        map[FeedKey]FeedState
	Reachable    bool
}

// Snapshot assembles the current state of every feed.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		Tenant:    p.tenant,
		Feeds:     make(map[FeedKey]FeedState, len(p.feeds)),
		Reachable: p.reachableLocked(),
	}
	for key := range p.feeds {
		s.Feeds[key] = p.feedStateLocked(key)
	}

	if v, ok := s.Feeds[FeedHealth].Data.(*gateway.HealthResponse); ok {
		s.Health = v
	}
	if v, ok := s.Feeds[FeedStats].Data.(*gateway.StatsSnapshot); ok {
		s.Stats = v
	}
	if v, ok := s.Feeds[FeedDistribution].Data.(map[string]int); ok {
		s.Distribution = v
	}
	if v, ok := s.Feeds[FeedTimeseries].Data.([]gateway.TimeseriesPoint); ok {
		s.Timeseries = v
	}
	if v, ok := s.Feeds[FeedAttackTypes].Data.(map[string]int); ok {
		s.AttackTypes = v
	}
	if v, ok := s.Feeds[FeedLive].Data.([]gateway.LiveRow); ok {
		s.Live = v
	}
	if v, ok := s.Feeds[FeedTenants].Data.([]string); ok {
		s.Tenants = v
	}
	return s
}

// Reachable reports the aggregate backend status: unreachable only when
// the health feed or the primary stats feed is failing and has never
// delivered data.
func (p *Poller) Reachable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reachableLocked()
}

func (p *Poller) reachableLocked() bool {
	for _, key := range []FeedKey{FeedHealth, FeedStats} {
		f := p.feeds[key]
		if _, everReady := f.last.Get(); f.status == StatusError && !everReady {
			return false
		}
	}
	return true
}
