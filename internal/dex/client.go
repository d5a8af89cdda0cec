package dex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"dex-scalp-assistant/config"
)

// ErrNoRoute indicates the aggregator found no swap route for the pair
var ErrNoRoute = errors.New("no swap route available")

// Quote is a swap quote from the aggregator
type Quote struct {
	InputMint            string      `json:"inputMint"`
	InAmount             string      `json:"inAmount"`
	OutputMint           string      `json:"outputMint"`
	OutAmount            string      `json:"outAmount"`
	OtherAmountThreshold string      `json:"otherAmountThreshold"`
	PriceImpactPct       string      `json:"priceImpactPct"`
	SlippageBps          int         `json:"slippageBps"`
	RoutePlan            []RouteStep `json:"routePlan"`
}

// RouteStep is a single hop in the swap route
type RouteStep struct {
	Percent  int `json:"percent"`
	SwapInfo struct {
		Label      string `json:"label"`
		AmmKey     string `json:"ammKey"`
		InputMint  string `json:"inputMint"`
		OutputMint string `json:"outputMint"`
	} `json:"swapInfo"`
}

// Client fetches swap quotes from a Jupiter-compatible aggregator
type Client struct {
	quoteURL    string
	slippageBps int
	httpClient  *http.Client
	logger      zerolog.Logger
}

func NewClient(cfg config.DexConfig, logger zerolog.Logger) *Client {
	return &Client{
		quoteURL:    cfg.QuoteURL,
		slippageBps: cfg.SlippageBps,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger.With().Str("component", "dex").Logger(),
	}
}

// GetQuote fetches a swap quote. amount is in the input mint's smallest unit.
func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64) (*Quote, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", strconv.FormatUint(amount, 10))
	params.Set("slippageBps", strconv.Itoa(c.slippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.quoteURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching quote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote API error %d: %s", resp.StatusCode, string(body))
	}

	var quote Quote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("error parsing quote: %w", err)
	}

	c.logger.Debug().
		Str("input", inputMint).
		Str("output", outputMint).
		Str("out_amount", quote.OutAmount).
		Msg("Fetched swap quote")

	return &quote, nil
}
