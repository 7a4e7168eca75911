package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"greenhouse-server/internal/modules/telemetry/client"
	"greenhouse-server/internal/modules/telemetry/repository"
	"greenhouse-server/internal/modules/telemetry/types"
)

// Fetcher gets the current payload from the remote telemetry endpoint.
type Fetcher interface {
	Fetch(ctx context.Context) (client.Payload, error)
}

// Announcer publishes fresh snapshots for consumers that do not poll the
// HTTP API. Only healthy online refreshes are announced.
type Announcer interface {
	Announce(snapshot types.CacheSnapshot) error
}

// State is the dashboard-facing sync state. Loading is true only until the
// first refresh resolves. Selected holds the sensor id focused by the detail
// view, re-resolved against Readings on every update.
type State struct {
	Readings   []types.Reading
	History    []types.HistoryEntry
	Offline    bool
	Loading    bool
	Selected   string
	CapturedAt time.Time
}

// SelectedReading resolves the selection against the readings by identifier.
// Returns nil when nothing is selected or the sensor is gone.
func (st State) SelectedReading() *types.Reading {
	if st.Selected == "" {
		return nil
	}
	for i := range st.Readings {
		if st.Readings[i].Sensor == st.Selected {
			r := st.Readings[i]
			return &r
		}
	}
	return nil
}

// Synchronizer owns the poll loop and the sync state. It is the only writer;
// readers take copies via Snapshot. Refreshes run on a single goroutine, so
// a slow fetch delays the next tick instead of racing it.
type Synchronizer struct {
	fetcher   Fetcher
	cache     repository.CacheRepository
	announcer Announcer
	interval  time.Duration
	logger    *slog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup

	mu    sync.RWMutex
	state State
}

func NewSynchronizer(fetcher Fetcher, cache repository.CacheRepository, announcer Announcer, interval time.Duration, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Synchronizer{
		fetcher:   fetcher,
		cache:     cache,
		announcer: announcer,
		interval:  interval,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		state:     State{Loading: true},
	}
}

// Start runs one refresh immediately, then refreshes on the configured
// interval until Stop is called.
func (s *Synchronizer) Start() {
	s.Refresh(s.ctx)
	s.waitGroup.Add(1)
	go func() {
		defer s.waitGroup.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.Refresh(s.ctx)
			}
		}
	}()
}

// Stop cancels the poll loop and waits for it to exit. A fetch in flight at
// that point has its result discarded rather than applied.
func (s *Synchronizer) Stop() {
	s.cancel()
	s.waitGroup.Wait()
}

// Refresh polls the endpoint once and applies the result. Fetch and decode
// failures are recovered by falling back to the durable cache; nothing is
// propagated to the caller.
func (s *Synchronizer) Refresh(ctx context.Context) {
	payload, err := s.fetcher.Fetch(ctx)
	if ctx.Err() != nil {
		// Torn down while the request was in flight.
		return
	}
	if err != nil {
		s.logger.Warn("telemetry fetch failed", "error", err)
		s.applyFallback()
		return
	}

	readings := CleanReadings(payload.Readings)

	if payload.Archival {
		// Soft-offline: display the data but leave the cache alone.
		s.logger.Info("telemetry served from archival path", "readings", len(readings))
		s.apply(readings, payload.History, true, time.Time{})
		return
	}

	capturedAt := time.Now().UTC()
	s.apply(readings, payload.History, false, capturedAt)

	snapshot := types.CacheSnapshot{Data: readings, History: payload.History, CapturedAt: capturedAt}
	if err := s.cache.Save(snapshot); err != nil {
		s.logger.Error("cache write failed", "error", err)
	}
	if s.announcer != nil {
		if err := s.announcer.Announce(snapshot); err != nil {
			s.logger.Warn("snapshot announce failed", "error", err)
		}
	}
}

func (s *Synchronizer) apply(readings []types.Reading, history []types.HistoryEntry, offline bool, capturedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Readings = readings
	s.state.History = history
	s.state.Offline = offline
	s.state.Loading = false
	if !capturedAt.IsZero() {
		s.state.CapturedAt = capturedAt
	}
	s.reresolveSelectionLocked()
}

func (s *Synchronizer) applyFallback() {
	snapshot, err := s.cache.Load()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Offline = true
	s.state.Loading = false
	if err != nil {
		if !errors.Is(err, repository.ErrNoSnapshot) {
			s.logger.Error("cache read failed", "error", err)
		}
		// Nothing to fall back to; state keeps whatever it had.
		return
	}
	s.state.Readings = snapshot.Data
	s.state.History = snapshot.History
	s.state.CapturedAt = snapshot.CapturedAt
	s.reresolveSelectionLocked()
}

// reresolveSelectionLocked clears the selection when the focused sensor no
// longer exists in the current readings. Caller holds s.mu.
func (s *Synchronizer) reresolveSelectionLocked() {
	if s.state.Selected == "" {
		return
	}
	for _, r := range s.state.Readings {
		if r.Sensor == s.state.Selected {
			return
		}
	}
	s.logger.Debug("selected sensor vanished, clearing selection", "sensor", s.state.Selected)
	s.state.Selected = ""
}

// Snapshot returns a copy of the current state. The reading and history
// slices are cloned; readers must not mutate the history data maps.
func (s *Synchronizer) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.state
	out.Readings = slices.Clone(s.state.Readings)
	out.History = slices.Clone(s.state.History)
	return out
}

// Select focuses the detail view on the given sensor id. Returns false when
// the sensor is not present in the current readings.
func (s *Synchronizer) Select(sensor string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.state.Readings {
		if r.Sensor == sensor {
			s.state.Selected = sensor
			return true
		}
	}
	return false
}

// ClearSelection unfocuses the detail view.
func (s *Synchronizer) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Selected = ""
}

// SeriesFor derives the chart series for one sensor from the current
// history. Recomputed on every call, never cached.
func (s *Synchronizer) SeriesFor(sensor string) []types.SeriesPoint {
	s.mu.RLock()
	history := s.state.History
	s.mu.RUnlock()
	return Series(sensor, history)
}
