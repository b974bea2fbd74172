// internal/api/handler/api/advice.go
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/newthinker/kachi/internal/advice"
	"github.com/newthinker/kachi/internal/api/response"
)

// Narrator explains a decision.
type Narrator interface {
	Narrate(ctx context.Context, req advice.Request, apiKey string) (*advice.Payload, error)
}

type adviceRequest struct {
	advice.Request
	APIKey       string `json:"apiKey,omitempty"`
	OpenAIAPIKey string `json:"openAIApiKey,omitempty"`
}

// AdviceHandler handles advice requests.
type AdviceHandler struct {
	narrator Narrator
}

// NewAdviceHandler creates a new advice handler.
func NewAdviceHandler(narrator Narrator) *AdviceHandler {
	return &AdviceHandler{narrator: narrator}
}

// Post handles POST /advice.
func (h *AdviceHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req adviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}
	if req.Decision == "" || req.Reasons == nil || req.Counters == nil {
		response.Fail(w, response.Invalid(errors.New("decision, reasons and counters are required")))
		return
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = req.OpenAIAPIKey
	}

	payload, err := h.narrator.Narrate(r.Context(), req.Request, apiKey)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, payload)
}
