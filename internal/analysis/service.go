// Package analysis coordinates candle fetching, the analyzer, caching,
// snapshot persistence and event publication for a single pool.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dex-scalp-assistant/internal/analyzer"
	"dex-scalp-assistant/internal/cache"
	"dex-scalp-assistant/internal/database"
	"dex-scalp-assistant/internal/events"
)

// CandleSource provides OHLCV candles for a pool
type CandleSource interface {
	GetOHLCV(ctx context.Context, network, pool, timeframe string, limit int) ([]analyzer.Candle, error)
}

// SnapshotStore persists analysis snapshots
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *database.AnalysisSnapshot) error
	GetSnapshots(ctx context.Context, network, poolAddress string, limit int) ([]*database.AnalysisSnapshot, error)
	PruneSnapshots(ctx context.Context, network, poolAddress string, keep int) (int64, error)
}

// Service runs analyses and fans results out to the cache, the snapshot
// store and the event bus.
type Service struct {
	source      CandleSource
	store       SnapshotStore
	cache       *cache.AnalysisCache
	bus         *events.EventBus
	logger      zerolog.Logger
	candleLimit int
	cacheTTL    time.Duration
	retention   int

	mu          sync.Mutex
	lastSignals map[string]analyzer.EntrySignal
}

// NewService creates a new analysis service
func NewService(source CandleSource, store SnapshotStore, analysisCache *cache.AnalysisCache,
	bus *events.EventBus, candleLimit int, cacheTTL time.Duration, retention int, logger zerolog.Logger) *Service {
	return &Service{
		source:      source,
		store:       store,
		cache:       analysisCache,
		bus:         bus,
		logger:      logger.With().Str("component", "analysis").Logger(),
		candleLimit: candleLimit,
		cacheTTL:    cacheTTL,
		retention:   retention,
		lastSignals: make(map[string]analyzer.EntrySignal),
	}
}

// AnalyzePool analyzes a pool, serving from cache unless force is set.
// Fresh results are cached, persisted and published on the event bus.
func (s *Service) AnalyzePool(ctx context.Context, network, pool, timeframe string, force bool) (*analyzer.Analysis, error) {
	key := cache.Key(network, pool, timeframe)

	if !force {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("pool", pool).Msg("Cache read failed")
		}
	}

	candles, err := s.source.GetOHLCV(ctx, network, pool, timeframe, s.candleLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching candles for %s/%s: %w", network, pool, err)
	}

	analysis, err := analyzer.Analyze(candles)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s/%s: %w", network, pool, err)
	}

	if err := s.cache.Set(ctx, key, analysis, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("pool", pool).Msg("Cache write failed")
	}

	if err := s.persist(ctx, network, pool, analysis); err != nil {
		// Persistence failure should not hide a good analysis
		s.logger.Error().Err(err).Str("pool", pool).Msg("Failed to persist snapshot")
	}

	s.publish(network, pool, analysis)

	return analysis, nil
}

// History returns recent persisted snapshots for a pool, newest first
func (s *Service) History(ctx context.Context, network, pool string, limit int) ([]*database.AnalysisSnapshot, error) {
	return s.store.GetSnapshots(ctx, network, pool, limit)
}

func (s *Service) persist(ctx context.Context, network, pool string, analysis *analyzer.Analysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshaling analysis: %w", err)
	}

	snap := &database.AnalysisSnapshot{
		Network:            network,
		PoolAddress:        pool,
		CurrentPrice:       analysis.CurrentPrice,
		PriceChangePercent: analysis.PriceChangePercent,
		Volatility:         analysis.Volatility,
		Trend:              string(analysis.Trend),
		MomentumScore:      analysis.Momentum.Score,
		ScalpingScore:      analysis.ScalpingScore,
		Verdict:            string(analysis.Verdict),
		EntrySignal:        string(analysis.EntrySignal),
		Analysis:           payload,
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return err
	}

	if s.retention > 0 {
		if pruned, err := s.store.PruneSnapshots(ctx, network, pool, s.retention); err != nil {
			s.logger.Warn().Err(err).Str("pool", pool).Msg("Snapshot pruning failed")
		} else if pruned > 0 {
			s.logger.Debug().Int64("pruned", pruned).Str("pool", pool).Msg("Pruned old snapshots")
		}
	}
	return nil
}

func (s *Service) publish(network, pool string, analysis *analyzer.Analysis) {
	s.bus.PublishAnalysisUpdate(network, pool, analysis.ScalpingScore,
		string(analysis.Verdict), string(analysis.EntrySignal))

	signalKey := network + ":" + pool
	s.mu.Lock()
	previous, seen := s.lastSignals[signalKey]
	s.lastSignals[signalKey] = analysis.EntrySignal
	s.mu.Unlock()

	if seen && previous != analysis.EntrySignal {
		s.logger.Info().
			Str("pool", pool).
			Str("previous", string(previous)).
			Str("current", string(analysis.EntrySignal)).
			Msg("Entry signal changed")
		s.bus.PublishSignalChange(network, pool, string(previous), string(analysis.EntrySignal))
	}
}
