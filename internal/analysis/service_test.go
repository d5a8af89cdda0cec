package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"dex-scalp-assistant/config"
	"dex-scalp-assistant/internal/analyzer"
	"dex-scalp-assistant/internal/cache"
	"dex-scalp-assistant/internal/database"
	"dex-scalp-assistant/internal/events"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   int
	candles []analyzer.Candle
	err     error
}

func (f *fakeSource) GetOHLCV(_ context.Context, _, _, _ string, _ int) ([]analyzer.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.candles, f.err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStore struct {
	mu    sync.Mutex
	snaps []*database.AnalysisSnapshot
}

func (f *fakeStore) SaveSnapshot(_ context.Context, snap *database.AnalysisSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap.ID = int64(len(f.snaps) + 1)
	snap.CreatedAt = time.Now()
	f.snaps = append(f.snaps, snap)
	return nil
}

func (f *fakeStore) GetSnapshots(_ context.Context, _, _ string, limit int) ([]*database.AnalysisSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*database.AnalysisSnapshot
	for i := len(f.snaps) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.snaps[i])
	}
	return out, nil
}

func (f *fakeStore) PruneSnapshots(_ context.Context, _, _ string, _ int) (int64, error) {
	return 0, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snaps)
}

func testCandles(closes []float64) []analyzer.Candle {
	candles := make([]analyzer.Candle, len(closes))
	for i, c := range closes {
		candles[i] = analyzer.Candle{
			Open: c, High: c * 1.02, Low: c * 0.98, Close: c,
			Volume: 5000, Timestamp: int64(i * 60),
		}
	}
	return candles
}

func risingCloses() []float64 {
	return []float64{100, 103, 101, 106, 104, 109, 107, 112, 110, 115, 113, 118, 116, 119, 117, 120}
}

func newTestService(source CandleSource, store SnapshotStore, bus *events.EventBus) *Service {
	c := cache.NewAnalysisCache(config.RedisConfig{Enabled: false}, zerolog.Nop())
	return NewService(source, store, c, bus, 100, time.Minute, 500, zerolog.Nop())
}

func TestAnalyzePoolPersistsAndCaches(t *testing.T) {
	source := &fakeSource{candles: testCandles(risingCloses())}
	store := &fakeStore{}
	s := newTestService(source, store, events.NewEventBus())
	ctx := context.Background()

	analysis, err := s.AnalyzePool(ctx, "solana", "pool1", "minute", false)
	if err != nil {
		t.Fatalf("AnalyzePool: %v", err)
	}
	if analysis.CurrentPrice != 120 {
		t.Errorf("CurrentPrice = %f", analysis.CurrentPrice)
	}
	if store.count() != 1 {
		t.Errorf("snapshots = %d, want 1", store.count())
	}

	// Second call is served from cache
	again, err := s.AnalyzePool(ctx, "solana", "pool1", "minute", false)
	if err != nil {
		t.Fatalf("cached AnalyzePool: %v", err)
	}
	if source.callCount() != 1 {
		t.Errorf("source calls = %d, want 1 (cache hit)", source.callCount())
	}
	if again.ScalpingScore != analysis.ScalpingScore {
		t.Errorf("cached score %f != original %f", again.ScalpingScore, analysis.ScalpingScore)
	}

	// Force bypasses the cache
	if _, err := s.AnalyzePool(ctx, "solana", "pool1", "minute", true); err != nil {
		t.Fatalf("forced AnalyzePool: %v", err)
	}
	if source.callCount() != 2 {
		t.Errorf("source calls = %d, want 2 after force", source.callCount())
	}
	if store.count() != 2 {
		t.Errorf("snapshots = %d, want 2 after force", store.count())
	}
}

func TestAnalyzePoolSnapshotFields(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(&fakeSource{candles: testCandles(risingCloses())}, store, events.NewEventBus())

	analysis, err := s.AnalyzePool(context.Background(), "solana", "pool1", "minute", false)
	if err != nil {
		t.Fatalf("AnalyzePool: %v", err)
	}

	snap := store.snaps[0]
	if snap.Network != "solana" || snap.PoolAddress != "pool1" {
		t.Errorf("snapshot key = %s/%s", snap.Network, snap.PoolAddress)
	}
	if snap.ScalpingScore != analysis.ScalpingScore || snap.EntrySignal != string(analysis.EntrySignal) {
		t.Errorf("snapshot = %+v", snap)
	}

	var stored analyzer.Analysis
	if err := json.Unmarshal(snap.Analysis, &stored); err != nil {
		t.Fatalf("snapshot payload: %v", err)
	}
	if stored.CurrentPrice != analysis.CurrentPrice {
		t.Errorf("stored analysis price %f != %f", stored.CurrentPrice, analysis.CurrentPrice)
	}
}

func TestAnalyzePoolSourceError(t *testing.T) {
	wantErr := errors.New("upstream down")
	s := newTestService(&fakeSource{err: wantErr}, &fakeStore{}, events.NewEventBus())

	_, err := s.AnalyzePool(context.Background(), "solana", "pool1", "minute", false)
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped upstream error", err)
	}
}

func TestAnalyzePoolInsufficientCandles(t *testing.T) {
	s := newTestService(&fakeSource{candles: testCandles([]float64{1, 2, 3})}, &fakeStore{}, events.NewEventBus())

	_, err := s.AnalyzePool(context.Background(), "solana", "pool1", "minute", false)
	if !errors.Is(err, analyzer.ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestAnalyzePoolPublishesEvents(t *testing.T) {
	bus := events.NewEventBus()
	updates := make(chan events.Event, 4)
	bus.Subscribe(events.EventAnalysisUpdate, func(e events.Event) { updates <- e })

	s := newTestService(&fakeSource{candles: testCandles(risingCloses())}, &fakeStore{}, bus)
	if _, err := s.AnalyzePool(context.Background(), "solana", "pool1", "minute", false); err != nil {
		t.Fatalf("AnalyzePool: %v", err)
	}

	select {
	case e := <-updates:
		if e.Data["pool"] != "pool1" {
			t.Errorf("event data = %v", e.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("no analysis update event published")
	}
}
