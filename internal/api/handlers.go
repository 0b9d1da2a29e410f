package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"trade-advisor/internal/advisor"
	"trade-advisor/internal/capital"
	"trade-advisor/internal/signal"
)

// handleAnalyze runs the full analysis pipeline on the posted bar history.
// Results are cached briefly so repeated requests for the same history do
// not recompute the pipeline.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req advisor.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cacheKey := analysisCacheKey(req)
	if s.cache != nil {
		var cached advisor.Result
		if err := s.cache.GetJSON(c.Request.Context(), cacheKey, &cached); err == nil {
			successResponse(c, cached)
			return
		}
	}

	res := s.advisor.Analyze(c.Request.Context(), req)

	if s.cache != nil {
		// Best effort; a cache failure never fails the request.
		_ = s.cache.SetJSON(c.Request.Context(), cacheKey, res, s.cache.TTL())
	}

	s.publishAnalysisEvents(res)

	successResponse(c, res)
}

// handleClassifyRegime classifies the market regime without scoring a signal.
func (s *Server) handleClassifyRegime(c *gin.Context) {
	var req advisor.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	successResponse(c, s.advisor.ClassifyRegime(req.Bars))
}

// portfolioRiskRequest aggregates exposure across already-sized plans.
type portfolioRiskRequest struct {
	Capital float64                `json:"capital"`
	Plans   []capital.PositionPlan `json:"plans"`
}

func (s *Server) handlePortfolioRisk(c *gin.Context) {
	var req portfolioRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	summary := s.advisor.PortfolioRisk(req.Plans, req.Capital)
	if summary.CeilingExceeded {
		s.eventBus.PublishPortfolioWarning(summary.TotalRiskPercent, summary.RiskCeiling)
	}

	successResponse(c, summary)
}

// signalOutcomeRequest marks how a recommendation played out.
type signalOutcomeRequest struct {
	Accurate  *bool   `json:"accurate" binding:"required"`
	ExitPrice float64 `json:"exit_price"`
}

func (s *Server) handleSignalOutcome(c *gin.Context) {
	id := c.Param("id")

	var req signalOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.advisor.MarkOutcome(c.Request.Context(), id, *req.Accurate, req.ExitPrice); err != nil {
		if strings.Contains(err.Error(), "not found") {
			errorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to record outcome: "+err.Error())
		return
	}

	s.eventBus.PublishOutcomeRecorded(id, *req.Accurate, req.ExitPrice)

	successResponse(c, gin.H{"id": id, "accurate": *req.Accurate})
}

func (s *Server) handleGetRecentSignals(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "signal history storage is not configured")
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.repo.GetRecentRecords(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load signal records: "+err.Error())
		return
	}

	successResponse(c, records)
}

func (s *Server) handleGetSignal(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "signal history storage is not configured")
		return
	}

	rec, err := s.repo.GetRecordByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			errorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to load signal record: "+err.Error())
		return
	}

	successResponse(c, rec)
}

func (s *Server) handleGetAccuracy(c *gin.Context) {
	if s.repo == nil {
		errorResponse(c, http.StatusServiceUnavailable, "signal history storage is not configured")
		return
	}

	metrics, err := s.repo.GetAccuracyMetrics(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to compute accuracy metrics: "+err.Error())
		return
	}

	successResponse(c, metrics)
}

// publishAnalysisEvents pushes pipeline outcomes onto the event bus, which
// in turn reach WebSocket subscribers.
func (s *Server) publishAnalysisEvents(res advisor.Result) {
	if res.Signal.Type != signal.Neutral {
		s.eventBus.PublishSignal(
			res.RecordID,
			string(res.Signal.Type),
			string(res.Regime.Type),
			res.Validation.AdjustedConfidence,
			res.Signal.EntryPrice,
		)
	}

	if res.TrendChange.Changed {
		s.eventBus.PublishTrendChange(res.TrendChange.Direction, res.TrendChange.Reason)
	}
}

// analysisCacheKey derives a stable key from the request payload.
func analysisCacheKey(req advisor.Request) string {
	data, err := json.Marshal(req)
	if err != nil {
		return "analysis:invalid"
	}
	sum := sha256.Sum256(data)
	return "analysis:" + hex.EncodeToString(sum[:])
}
