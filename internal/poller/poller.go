// Package poller runs the background analysis loop over every pool that
// appears on any user's watchlist.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dex-scalp-assistant/config"
	"dex-scalp-assistant/internal/analyzer"
	"dex-scalp-assistant/internal/database"
	"dex-scalp-assistant/internal/events"
)

// PoolAnalyzer runs a single pool analysis
type PoolAnalyzer interface {
	AnalyzePool(ctx context.Context, network, pool, timeframe string, force bool) (*analyzer.Analysis, error)
}

// WatchlistSource lists the pools to poll
type WatchlistSource interface {
	GetAllWatchedPools(ctx context.Context) ([]*database.WatchlistEntry, error)
}

// Poller periodically re-analyzes all watched pools with a worker pool
type Poller struct {
	analyzer  PoolAnalyzer
	watchlist WatchlistSource
	bus       *events.EventBus
	cfg       config.PollerConfig
	timeframe string
	logger    zerolog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// NewPoller creates a new poller
func NewPoller(poolAnalyzer PoolAnalyzer, watchlist WatchlistSource, bus *events.EventBus,
	cfg config.PollerConfig, timeframe string, logger zerolog.Logger) *Poller {
	return &Poller{
		analyzer:  poolAnalyzer,
		watchlist: watchlist,
		bus:       bus,
		cfg:       cfg,
		timeframe: timeframe,
		logger:    logger.With().Str("component", "poller").Logger(),
		stopChan:  make(chan struct{}),
	}
}

// Start begins the background poll loop
func (p *Poller) Start() {
	if !p.cfg.Enabled {
		p.logger.Info().Msg("Poller is disabled")
		return
	}

	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.runLoop()
	p.logger.Info().Dur("interval", p.cfg.Interval).Msg("Poller started")
}

// Stop halts the poll loop and waits for in-flight work
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()

	close(p.stopChan)
	p.wg.Wait()
	p.logger.Info().Msg("Poller stopped")
}

func (p *Poller) runLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Run immediately
	p.poll()

	for {
		select {
		case <-ticker.C:
			p.poll()
		case <-p.stopChan:
			return
		}
	}
}

// Poll executes a single poll cycle (public for manual triggering)
func (p *Poller) Poll() {
	p.poll()
}

func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	cycleID := uuid.NewString()

	pools, err := p.watchlist.GetAllWatchedPools(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to load watched pools")
		p.bus.PublishError("poller", "failed to load watched pools", err)
		return
	}
	if len(pools) == 0 {
		return
	}

	p.logger.Debug().Str("cycle_id", cycleID).Int("pools", len(pools)).Msg("Poll cycle starting")

	poolChan := make(chan *database.WatchlistEntry, len(pools))
	var analyzed, failed int64
	var counts sync.Mutex
	var wg sync.WaitGroup

	workers := p.cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range poolChan {
				_, err := p.analyzer.AnalyzePool(ctx, entry.Network, entry.PoolAddress, p.timeframe, true)
				counts.Lock()
				if err != nil {
					failed++
				} else {
					analyzed++
				}
				counts.Unlock()
				if err != nil {
					p.logger.Warn().Err(err).
						Str("network", entry.Network).
						Str("pool", entry.PoolAddress).
						Msg("Pool analysis failed")
				}
			}
		}()
	}

	for _, entry := range pools {
		select {
		case poolChan <- entry:
		case <-ctx.Done():
		}
	}
	close(poolChan)
	wg.Wait()

	duration := time.Since(start)
	p.logger.Info().
		Str("cycle_id", cycleID).
		Int64("analyzed", analyzed).
		Int64("failed", failed).
		Dur("duration", duration).
		Msg("Poll cycle completed")
	p.bus.PublishPollCycle(cycleID, int(analyzed), int(failed), duration)
}
