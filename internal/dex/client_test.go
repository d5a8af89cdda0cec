package dex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"dex-scalp-assistant/config"
)

func testClient(quoteURL string) *Client {
	return NewClient(config.DexConfig{
		QuoteURL:    quoteURL,
		Timeout:     5 * time.Second,
		SlippageBps: 100,
	}, zerolog.Nop())
}

func TestGetQuote(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{
			"inputMint": "So11111111111111111111111111111111111111112",
			"inAmount": "1000000000",
			"outputMint": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			"outAmount": "142350000",
			"priceImpactPct": "0.0012",
			"slippageBps": 100,
			"routePlan": [{"percent": 100, "swapInfo": {"label": "Raydium"}}]
		}`))
	}))
	defer server.Close()

	quote, err := testClient(server.URL).GetQuote(context.Background(),
		"So11111111111111111111111111111111111111112",
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", 1000000000)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}

	if got := gotQuery["amount"]; len(got) != 1 || got[0] != "1000000000" {
		t.Errorf("amount query = %v", got)
	}
	if got := gotQuery["slippageBps"]; len(got) != 1 || got[0] != "100" {
		t.Errorf("slippageBps query = %v", got)
	}
	if quote.OutAmount != "142350000" {
		t.Errorf("OutAmount = %s", quote.OutAmount)
	}
	if len(quote.RoutePlan) != 1 || quote.RoutePlan[0].SwapInfo.Label != "Raydium" {
		t.Errorf("RoutePlan = %+v", quote.RoutePlan)
	}
}

func TestGetQuoteNoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "No routes found"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetQuote(context.Background(), "a", "b", 1)
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("err = %v, want ErrNoRoute", err)
	}
}
