// internal/api/handler/api/search.go
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/newthinker/kachi/internal/api/response"
	"github.com/newthinker/kachi/internal/collector"
)

// Searcher looks up symbols by keyword.
type Searcher interface {
	Search(ctx context.Context, apiKey, keywords string) ([]collector.SearchMatch, error)
}

// SearchHandler handles symbol search requests.
type SearchHandler struct {
	searcher Searcher
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// Search handles GET /search?keywords=<query>&apiKey. q is accepted as an alias of keywords.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keywords := strings.TrimSpace(q.Get("keywords"))
	if keywords == "" {
		keywords = strings.TrimSpace(q.Get("q"))
	}
	if keywords == "" {
		response.Fail(w, response.Invalid(errors.New("keywords is required")))
		return
	}

	matches, err := h.searcher.Search(r.Context(), q.Get("apiKey"), keywords)
	if err != nil {
		response.Fail(w, upstream(err))
		return
	}
	if matches == nil {
		matches = []collector.SearchMatch{}
	}
	response.JSON(w, http.StatusOK, matches)
}
