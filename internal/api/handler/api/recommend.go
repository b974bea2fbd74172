// internal/api/handler/api/recommend.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/newthinker/kachi/internal/api/response"
	"github.com/newthinker/kachi/internal/core"
	"github.com/newthinker/kachi/internal/recommend"
)

// Recommender builds recommendations.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error)
}

// RecommendHandler handles recommendation requests.
type RecommendHandler struct {
	svc Recommender
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(svc Recommender) *RecommendHandler {
	return &RecommendHandler{svc: svc}
}

// Get handles GET /recommend?apiKey&symbols&limit&mode.
func (h *RecommendHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := recommend.Request{
		APIKey: q.Get("apiKey"),
		Mode:   core.Mode(q.Get("mode")),
	}
	for _, v := range q["symbols"] {
		req.Symbols = append(req.Symbols, strings.Split(v, ",")...)
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			response.Fail(w, response.Invalid(fmt.Errorf("limit must be an integer: %q", raw)))
			return
		}
		req.Limit = limit
	}

	result, err := h.svc.Recommend(r.Context(), req)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}
