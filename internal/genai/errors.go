package genai

import (
	"fmt"
	"strings"

	"github.com/prylatief/latiefads/internal/domain"
)

// quotaMarkers are substrings that indicate upstream quota or rate-limit
// exhaustion. The upstream error contract is message text only, so this stays
// a string heuristic; keep it isolated here so it can be swapped for a
// structured code if the API ever grows one.
var quotaMarkers = []string{
	"quota",
	"resource_exhausted",
	"resource has been exhausted",
	"rate limit",
	"too many requests",
	"status 429",
}

// ClassifyGenerationError maps quota-exhaustion failures to
// domain.ErrQuotaExhausted with user-actionable wording; every other error is
// returned unchanged so its message surfaces verbatim.
func ClassifyGenerationError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: wait a few minutes or reduce the batch size (%v)", domain.ErrQuotaExhausted, err)
		}
	}
	return err
}
