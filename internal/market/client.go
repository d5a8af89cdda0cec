package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"dex-scalp-assistant/config"
	"dex-scalp-assistant/internal/analyzer"
	"dex-scalp-assistant/internal/circuit"
)

var (
	// ErrPoolNotFound indicates the network/pool pair is unknown upstream
	ErrPoolNotFound = errors.New("pool not found")
	// ErrRateLimited indicates the upstream rejected the request after retries
	ErrRateLimited = errors.New("rate limited by data source")
	// ErrSourceUnavailable indicates the circuit breaker is open
	ErrSourceUnavailable = errors.New("data source temporarily unavailable")
)

// Client fetches OHLCV data from a GeckoTerminal-compatible API.
// Requests are paced with a local rate limiter and retried with
// exponential backoff on 429 and 5xx responses.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuit.Breaker
	maxRetries int
	logger     zerolog.Logger
}

func NewClient(cfg config.MarketConfig, logger zerolog.Logger) *Client {
	c := &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breaker:    circuit.NewBreaker(circuit.DefaultBreakerConfig()),
		maxRetries: cfg.MaxRetries,
		logger:     logger.With().Str("component", "market").Logger(),
	}

	c.breaker.OnTrip(func(reason string) {
		c.logger.Warn().Str("reason", reason).Msg("Data source circuit breaker tripped")
	})
	c.breaker.OnReset(func() {
		c.logger.Info().Msg("Data source circuit breaker reset")
	})

	return c
}

// SetAPIKey replaces the API key, used when the key is resolved from Vault
// after construction.
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

// ohlcvResponse mirrors the GeckoTerminal OHLCV payload. Each list entry is
// [timestamp, open, high, low, close, volume].
type ohlcvResponse struct {
	Data struct {
		Attributes struct {
			OHLCVList [][]float64 `json:"ohlcv_list"`
		} `json:"attributes"`
	} `json:"data"`
}

// GetOHLCV fetches up to limit candles for a pool. Candles are returned in
// upstream order (newest first); callers that need chronological order sort
// them.
func (c *Client) GetOHLCV(ctx context.Context, network, pool, timeframe string, limit int) ([]analyzer.Candle, error) {
	if ok, reason := c.breaker.Allow(); !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, reason)
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/networks/%s/pools/%s/ohlcv/%s?%s",
		c.baseURL, url.PathEscape(network), url.PathEscape(pool), url.PathEscape(timeframe), params.Encode())

	var candles []analyzer.Candle
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		body, err := c.get(ctx, endpoint)
		if err != nil {
			return err
		}

		var parsed ohlcvResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("error parsing ohlcv response: %w", err))
		}

		candles = make([]analyzer.Candle, 0, len(parsed.Data.Attributes.OHLCVList))
		for _, row := range parsed.Data.Attributes.OHLCVList {
			if len(row) < 6 {
				continue
			}
			candles = append(candles, analyzer.Candle{
				Timestamp: int64(row[0]),
				Open:      row[1],
				High:      row[2],
				Low:       row[3],
				Close:     row[4],
				Volume:    row[5],
			})
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		// A 404 means the source answered, only count real outages
		if errors.Is(err, ErrPoolNotFound) {
			c.breaker.RecordSuccess()
		} else {
			c.breaker.RecordFailure(err)
		}
		return nil, err
	}
	c.breaker.RecordSuccess()

	c.logger.Debug().
		Str("network", network).
		Str("pool", pool).
		Str("timeframe", timeframe).
		Int("candles", len(candles)).
		Msg("Fetched OHLCV data")

	return candles, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(ErrPoolNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn().Msg("Rate limited by data source, backing off")
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, string(body))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	default:
		return nil, backoff.Permanent(fmt.Errorf("API error %d: %s", resp.StatusCode, string(body)))
	}
}
