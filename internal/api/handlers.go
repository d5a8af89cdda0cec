package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dex-scalp-assistant/internal/analyzer"
	"dex-scalp-assistant/internal/database"
	"dex-scalp-assistant/internal/dex"
	"dex-scalp-assistant/internal/market"
)

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	health := gin.H{"status": "ok"}
	if s.repo != nil {
		if err := s.repo.HealthCheck(c.Request.Context()); err != nil {
			health["status"] = "degraded"
			health["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
		health["database"] = "ok"
	}
	c.JSON(http.StatusOK, health)
}

// ============================================================================
// ANALYSIS HANDLERS
// ============================================================================

// handleAnalyzeCandles analyzes caller-supplied candle data directly
func (s *Server) handleAnalyzeCandles(c *gin.Context) {
	var req struct {
		Candles []analyzer.Candle `json:"candles" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := analyzer.Analyze(req.Candles)
	if err != nil {
		if errors.Is(err, analyzer.ErrInsufficientData) || errors.Is(err, analyzer.ErrDegenerateInput) {
			errorResponse(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, "analysis failed")
		return
	}

	successResponse(c, result)
}

// handleAnalyzePool fetches candles for a pool and returns the analysis
func (s *Server) handleAnalyzePool(c *gin.Context) {
	network := c.Param("network")
	pool := c.Param("pool")

	timeframe := c.Query("timeframe")
	if timeframe == "" {
		timeframe = s.marketCfg.DefaultTimeframe
	}
	force := c.Query("force") == "true"

	result, err := s.analysis.AnalyzePool(c.Request.Context(), network, pool, timeframe, force)
	if err != nil {
		switch {
		case errors.Is(err, market.ErrPoolNotFound):
			errorResponse(c, http.StatusNotFound, "pool not found")
		case errors.Is(err, market.ErrRateLimited):
			errorResponse(c, http.StatusServiceUnavailable, "market data source is rate limiting, try again shortly")
		case errors.Is(err, analyzer.ErrInsufficientData):
			errorResponse(c, http.StatusUnprocessableEntity, "not enough candle data for this pool")
		case errors.Is(err, analyzer.ErrDegenerateInput):
			errorResponse(c, http.StatusUnprocessableEntity, "pool returned unusable candle data")
		default:
			s.logger.Error().Err(err).Str("network", network).Str("pool", pool).Msg("Pool analysis failed")
			errorResponse(c, http.StatusInternalServerError, "analysis failed")
		}
		return
	}

	successResponse(c, result)
}

// handleGetSnapshots returns persisted analysis history for a pool
func (s *Server) handleGetSnapshots(c *gin.Context) {
	network := c.Param("network")
	pool := c.Param("pool")

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	snapshots, err := s.analysis.History(c.Request.Context(), network, pool, limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to fetch snapshots")
		return
	}

	successResponse(c, snapshots)
}

// ============================================================================
// WATCHLIST HANDLERS
// ============================================================================

// handleGetWatchlist returns the user's watched pools
func (s *Server) handleGetWatchlist(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	entries, err := s.repo.GetWatchlist(c.Request.Context(), userID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to fetch watchlist")
		return
	}

	successResponse(c, entries)
}

// handleAddToWatchlist adds a pool to the user's watchlist
func (s *Server) handleAddToWatchlist(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Network     string `json:"network" binding:"required"`
		PoolAddress string `json:"pool_address" binding:"required"`
		TokenSymbol string `json:"token_symbol"`
		Notes       string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	entry := &database.WatchlistEntry{
		UserID:      userID,
		Network:     req.Network,
		PoolAddress: req.PoolAddress,
		TokenSymbol: req.TokenSymbol,
		Notes:       req.Notes,
	}
	if err := s.repo.AddToWatchlist(c.Request.Context(), entry); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to add to watchlist")
		return
	}

	s.eventBus.PublishWatchlistChange(req.Network, req.PoolAddress, "added")
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": entry})
}

// handleRemoveFromWatchlist removes a watchlist entry
func (s *Server) handleRemoveFromWatchlist(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid watchlist entry id")
		return
	}

	if err := s.repo.RemoveFromWatchlist(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "watchlist entry not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to remove from watchlist")
		return
	}

	successResponse(c, gin.H{"removed": id})
}

// ============================================================================
// TRADING PLAN HANDLERS
// ============================================================================

// handleGetPlans returns the user's trading plans, optionally filtered by status
func (s *Server) handleGetPlans(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	status := database.PlanStatus(c.Query("status"))
	plans, err := s.repo.GetPlans(c.Request.Context(), userID, status)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to fetch plans")
		return
	}

	successResponse(c, plans)
}

// handleCreatePlan records a new trading plan
func (s *Server) handleCreatePlan(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Network     string  `json:"network" binding:"required"`
		PoolAddress string  `json:"pool_address" binding:"required"`
		TokenSymbol string  `json:"token_symbol"`
		EntryPrice  float64 `json:"entry_price" binding:"required,gt=0"`
		StopLoss    float64 `json:"stop_loss" binding:"required,gt=0"`
		TakeProfit  float64 `json:"take_profit" binding:"required,gt=0"`
		EntrySignal string  `json:"entry_signal"`
		Score       float64 `json:"score"`
		Notes       string  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.StopLoss >= req.EntryPrice {
		errorResponse(c, http.StatusBadRequest, "stop loss must be below entry price")
		return
	}
	if req.TakeProfit <= req.EntryPrice {
		errorResponse(c, http.StatusBadRequest, "take profit must be above entry price")
		return
	}

	plan := &database.TradingPlan{
		UserID:      userID,
		Network:     req.Network,
		PoolAddress: req.PoolAddress,
		TokenSymbol: req.TokenSymbol,
		EntryPrice:  req.EntryPrice,
		StopLoss:    req.StopLoss,
		TakeProfit:  req.TakeProfit,
		EntrySignal: req.EntrySignal,
		Score:       req.Score,
		Notes:       req.Notes,
		Status:      database.PlanPlanned,
	}
	if err := s.repo.CreatePlan(c.Request.Context(), plan); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to create plan")
		return
	}

	s.eventBus.PublishPlanUpdate(plan.UserID.String(), plan.ID, string(plan.Status))
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": plan})
}

// handleGetPlan returns a single trading plan
func (s *Server) handleGetPlan(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid plan id")
		return
	}

	plan, err := s.repo.GetPlanByID(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "plan not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to fetch plan")
		return
	}

	successResponse(c, plan)
}

// handleUpdatePlanStatus moves a plan through its lifecycle
func (s *Server) handleUpdatePlanStatus(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid plan id")
		return
	}

	var req struct {
		Status database.PlanStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	plan, err := s.repo.UpdatePlanStatus(c.Request.Context(), userID, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			errorResponse(c, http.StatusNotFound, "plan not found")
		case errors.Is(err, database.ErrInvalidTransition):
			errorResponse(c, http.StatusConflict, "invalid plan status transition")
		default:
			errorResponse(c, http.StatusInternalServerError, "failed to update plan")
		}
		return
	}

	s.eventBus.PublishPlanUpdate(plan.UserID.String(), plan.ID, string(plan.Status))
	successResponse(c, plan)
}

// handleDeletePlan deletes a trading plan
func (s *Server) handleDeletePlan(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid plan id")
		return
	}

	if err := s.repo.DeletePlan(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "plan not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to delete plan")
		return
	}

	successResponse(c, gin.H{"deleted": id})
}

// ============================================================================
// QUOTE HANDLER
// ============================================================================

// handleGetQuote returns a swap quote from the DEX aggregator
func (s *Server) handleGetQuote(c *gin.Context) {
	if s.dexClient == nil {
		errorResponse(c, http.StatusNotImplemented, "swap quotes are not enabled")
		return
	}

	inputMint := c.Query("input_mint")
	outputMint := c.Query("output_mint")
	if inputMint == "" || outputMint == "" {
		errorResponse(c, http.StatusBadRequest, "input_mint and output_mint are required")
		return
	}

	amount, err := strconv.ParseUint(c.Query("amount"), 10, 64)
	if err != nil || amount == 0 {
		errorResponse(c, http.StatusBadRequest, "amount must be a positive integer in base units")
		return
	}

	quote, err := s.dexClient.GetQuote(c.Request.Context(), inputMint, outputMint, amount)
	if err != nil {
		if errors.Is(err, dex.ErrNoRoute) {
			errorResponse(c, http.StatusNotFound, "no swap route available for this pair")
			return
		}
		s.logger.Error().Err(err).Msg("Quote request failed")
		errorResponse(c, http.StatusBadGateway, "failed to fetch quote")
		return
	}

	successResponse(c, quote)
}
