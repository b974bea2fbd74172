// internal/api/handler/api/request.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/newthinker/kachi/internal/api/response"
	"github.com/newthinker/kachi/internal/core"
)

// maxBodyBytes bounds request bodies; a full daily history is a few MB at most.
const maxBodyBytes = 16 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return response.Invalid(fmt.Errorf("decoding body: %w", err))
	}
	return nil
}

// upstream marks errors without a code as market-data failures.
func upstream(err error) error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return err
	}
	return core.WrapError(core.ErrFetchFailed, err)
}
