// internal/api/handler/api/handler_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/kachi/internal/advice"
	"github.com/newthinker/kachi/internal/api/response"
	"github.com/newthinker/kachi/internal/collector"
	"github.com/newthinker/kachi/internal/core"
	"github.com/newthinker/kachi/internal/recommend"
	"github.com/newthinker/kachi/internal/storage/views"
)

type fakeRecommender struct {
	got    recommend.Request
	result *recommend.Result
	err    error
}

func (f *fakeRecommender) Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error) {
	f.got = req
	return f.result, f.err
}

type fakeScorer struct {
	scored  recommend.ScoreInput
	fetched string
	apiKey  string
	err     error
}

func (f *fakeScorer) Score(in recommend.ScoreInput) core.ScoreResult {
	f.scored = in
	return core.ScoreResult{Decision: core.DecisionNeutral, Confidence: 0.3, Horizon: core.ParseMode(string(in.Mode))}
}

func (f *fakeScorer) ScoreSymbol(ctx context.Context, apiKey, symbol string, mode core.Mode) (core.ScoreResult, error) {
	f.fetched = symbol
	f.apiKey = apiKey
	if f.err != nil {
		return core.ScoreResult{}, f.err
	}
	return core.ScoreResult{Decision: core.DecisionBuy, Confidence: 0.8, Horizon: mode}, nil
}

type fakeNarrator struct {
	got    advice.Request
	apiKey string
	err    error
}

func (f *fakeNarrator) Narrate(ctx context.Context, req advice.Request, apiKey string) (*advice.Payload, error) {
	f.got = req
	f.apiKey = apiKey
	if f.err != nil {
		return nil, f.err
	}
	return advice.Fallback(req), nil
}

type fakeSearcher struct {
	keywords string
	matches  []collector.SearchMatch
	err      error
}

func (f *fakeSearcher) Search(ctx context.Context, apiKey, keywords string) ([]collector.SearchMatch, error) {
	f.keywords = keywords
	return f.matches, f.err
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp response.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return resp.Error.Code
}

func TestRecommendHandler_Get(t *testing.T) {
	rec := &fakeRecommender{result: &recommend.Result{RunID: "run-1", Skipped: []string{}}}
	handler := NewRecommendHandler(rec)

	req := httptest.NewRequest("GET", "/recommend?apiKey=k&symbols=aapl,msft&symbols=voo&limit=3&mode=swing", nil)
	w := httptest.NewRecorder()
	handler.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if rec.got.APIKey != "k" || rec.got.Limit != 3 || rec.got.Mode != core.ModeSwing {
		t.Errorf("unexpected request %+v", rec.got)
	}
	if len(rec.got.Symbols) != 3 {
		t.Errorf("expected 3 symbols, got %v", rec.got.Symbols)
	}

	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["runId"] != "run-1" {
		t.Errorf("expected runId run-1, got %v", body["runId"])
	}
}

func TestRecommendHandler_InvalidLimit(t *testing.T) {
	handler := NewRecommendHandler(&fakeRecommender{})

	req := httptest.NewRequest("GET", "/recommend?limit=ten", nil)
	w := httptest.NewRecorder()
	handler.Get(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRecommendHandler_UniverseFailure(t *testing.T) {
	rec := &fakeRecommender{err: core.WrapError(core.ErrUniverseFetch, errors.New("down"))}
	handler := NewRecommendHandler(rec)

	req := httptest.NewRequest("GET", "/recommend", nil)
	w := httptest.NewRecorder()
	handler.Get(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
	if code := errorCode(t, w); code != "UNIVERSE_FETCH_FAILED" {
		t.Errorf("expected UNIVERSE_FETCH_FAILED, got %s", code)
	}
}

func TestScoreHandler_Series(t *testing.T) {
	scorer := &fakeScorer{}
	store := views.NewMemoryStore()
	handler := NewScoreHandler(scorer, store, nil)

	body := bytes.NewBufferString(`{
		"symbol": "aapl",
		"dailies": [{"date": "2025-06-27", "adjustedClose": 10}],
		"monthlies": [],
		"mode": "swing",
		"timeframeMonths": 6,
		"priceScale": "log"
	}`)
	req := httptest.NewRequest("POST", "/score", body)
	w := httptest.NewRecorder()
	handler.Post(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(scorer.scored.Daily) != 1 || scorer.scored.TimeframeMonths != 6 {
		t.Errorf("unexpected score input %+v", scorer.scored)
	}
	if scorer.fetched != "" {
		t.Errorf("expected no fetch, got %s", scorer.fetched)
	}

	m, err := store.Get(context.Background(), "AAPL")
	if err != nil || m.Views != 1 {
		t.Errorf("expected one AAPL view, got %v, %v", m, err)
	}

	var result core.ScoreResult
	json.Unmarshal(w.Body.Bytes(), &result)
	if result.Horizon != core.ModeSwing {
		t.Errorf("expected swing horizon, got %s", result.Horizon)
	}
}

func TestScoreHandler_SymbolOnlyFetches(t *testing.T) {
	scorer := &fakeScorer{}
	handler := NewScoreHandler(scorer, nil, nil)

	req := httptest.NewRequest("POST", "/score", bytes.NewBufferString(`{"symbol":" msft ","apiKey":"k"}`))
	w := httptest.NewRecorder()
	handler.Post(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if scorer.fetched != "MSFT" || scorer.apiKey != "k" {
		t.Errorf("expected MSFT fetched with key k, got %s %s", scorer.fetched, scorer.apiKey)
	}
}

func TestScoreHandler_FetchFailure(t *testing.T) {
	scorer := &fakeScorer{err: errors.New("connection reset")}
	handler := NewScoreHandler(scorer, nil, nil)

	req := httptest.NewRequest("POST", "/score", bytes.NewBufferString(`{"symbol":"MSFT"}`))
	w := httptest.NewRecorder()
	handler.Post(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
	if code := errorCode(t, w); code != "FETCH_FAILED" {
		t.Errorf("expected FETCH_FAILED, got %s", code)
	}
}

func TestScoreHandler_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{invalid json}`},
		{"missing series", `{"mode":"long"}`},
		{"missing monthlies", `{"dailies":[]}`},
		{"invalid symbol", `{"symbol":"not a symbol","dailies":[],"monthlies":[]}`},
		{"bad date", `{"dailies":[{"date":"yesterday"}],"monthlies":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewScoreHandler(&fakeScorer{}, nil, nil)
			req := httptest.NewRequest("POST", "/score", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.Post(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if code := errorCode(t, w); code != "INVALID_REQUEST" {
				t.Errorf("expected INVALID_REQUEST, got %s", code)
			}
		})
	}
}

func TestAdviceHandler_Post(t *testing.T) {
	narrator := &fakeNarrator{}
	handler := NewAdviceHandler(narrator)

	body := bytes.NewBufferString(`{
		"decision": "BUY",
		"reasons": ["trend up"],
		"counters": [],
		"nextSteps": ["compare with the index"],
		"openAIApiKey": "sk-user"
	}`)
	req := httptest.NewRequest("POST", "/advice", body)
	w := httptest.NewRecorder()
	handler.Post(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if narrator.apiKey != "sk-user" {
		t.Errorf("expected the caller key, got %q", narrator.apiKey)
	}
	if narrator.got.Decision != core.DecisionBuy || len(narrator.got.Reasons) != 1 {
		t.Errorf("unexpected request %+v", narrator.got)
	}

	var payload advice.Payload
	json.Unmarshal(w.Body.Bytes(), &payload)
	if payload.Headline == "" || len(payload.Rationale) != 3 || payload.Disclaimer == "" {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestAdviceHandler_InvalidPayload(t *testing.T) {
	handler := NewAdviceHandler(&fakeNarrator{})

	for _, body := range []string{`{"decision":"BUY"}`, `{"reasons":[],"counters":[]}`, `[]`} {
		req := httptest.NewRequest("POST", "/advice", bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		handler.Post(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestAdviceHandler_LLMFailure(t *testing.T) {
	handler := NewAdviceHandler(&fakeNarrator{err: core.WrapError(core.ErrLLMFailed, errors.New("quota"))})

	req := httptest.NewRequest("POST", "/advice", bytes.NewBufferString(`{"decision":"SELL","reasons":[],"counters":[]}`))
	w := httptest.NewRecorder()
	handler.Post(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestSearchHandler_Search(t *testing.T) {
	searcher := &fakeSearcher{matches: []collector.SearchMatch{{Symbol: "VOO", Name: "Vanguard S&P 500 ETF"}}}
	handler := NewSearchHandler(searcher)

	req := httptest.NewRequest("GET", "/search?q=vanguard", nil)
	w := httptest.NewRecorder()
	handler.Search(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if searcher.keywords != "vanguard" {
		t.Errorf("expected keywords vanguard, got %s", searcher.keywords)
	}
	var matches []collector.SearchMatch
	json.Unmarshal(w.Body.Bytes(), &matches)
	if len(matches) != 1 || matches[0].Symbol != "VOO" {
		t.Errorf("unexpected matches %v", matches)
	}
}

func TestSearchHandler_EmptyResultIsArray(t *testing.T) {
	handler := NewSearchHandler(&fakeSearcher{})

	req := httptest.NewRequest("GET", "/search?keywords=zzzz", nil)
	w := httptest.NewRecorder()
	handler.Search(w, req)

	if got := bytes.TrimSpace(w.Body.Bytes()); string(got) != "[]" {
		t.Errorf("expected [], got %s", got)
	}
}

func TestSearchHandler_MissingKeywords(t *testing.T) {
	handler := NewSearchHandler(&fakeSearcher{})

	req := httptest.NewRequest("GET", "/search", nil)
	w := httptest.NewRecorder()
	handler.Search(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSearchHandler_RateLimited(t *testing.T) {
	handler := NewSearchHandler(&fakeSearcher{err: core.WrapError(core.ErrRateLimited, nil)})

	req := httptest.NewRequest("GET", "/search?keywords=apple", nil)
	w := httptest.NewRecorder()
	handler.Search(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
}
