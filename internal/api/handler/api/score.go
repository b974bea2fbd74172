// internal/api/handler/api/score.go
package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/newthinker/kachi/internal/api/response"
	"github.com/newthinker/kachi/internal/collector"
	"github.com/newthinker/kachi/internal/core"
	"github.com/newthinker/kachi/internal/recommend"
	"github.com/newthinker/kachi/internal/storage/views"
)

// Scorer scores supplied or fetched histories.
type Scorer interface {
	Score(in recommend.ScoreInput) core.ScoreResult
	ScoreSymbol(ctx context.Context, apiKey, symbol string, mode core.Mode) (core.ScoreResult, error)
}

// ViewRecorder counts symbol views.
type ViewRecorder interface {
	Record(ctx context.Context, symbol string) (views.Metric, error)
}

type scoreRequest struct {
	recommend.ScoreInput
	Symbol string `json:"symbol,omitempty"`
	APIKey string `json:"apiKey,omitempty"`
}

// ScoreHandler handles score requests.
type ScoreHandler struct {
	scorer Scorer
	views  ViewRecorder
	logger *zap.Logger
}

// NewScoreHandler creates a new score handler. views may be nil.
func NewScoreHandler(scorer Scorer, views ViewRecorder, logger *zap.Logger) *ScoreHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreHandler{scorer: scorer, views: views, logger: logger}
}

// Post handles POST /score. The body carries dailies and monthlies; a body
// with only a symbol scores the symbol's fetched history instead.
func (h *ScoreHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	symbol := ""
	if req.Symbol != "" {
		s, err := collector.NormalizeSymbol(req.Symbol)
		if err != nil {
			response.Fail(w, err)
			return
		}
		symbol = s
	}

	var result core.ScoreResult
	switch {
	case req.Daily == nil && req.Monthly == nil && symbol != "":
		scored, err := h.scorer.ScoreSymbol(r.Context(), req.APIKey, symbol, core.ParseMode(string(req.Mode)))
		if err != nil {
			response.Fail(w, upstream(err))
			return
		}
		result = scored
	case req.Daily == nil || req.Monthly == nil:
		response.Fail(w, response.Invalid(errors.New("dailies and monthlies are required")))
		return
	default:
		result = h.scorer.Score(req.ScoreInput)
	}

	if symbol != "" && h.views != nil {
		if _, err := h.views.Record(r.Context(), symbol); err != nil {
			h.logger.Warn("record view failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	response.JSON(w, http.StatusOK, result)
}
