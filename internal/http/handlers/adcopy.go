package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prylatief/latiefads/internal/domain"
	"github.com/prylatief/latiefads/internal/middleware"
)

type adCopyRequest struct {
	Description string `json:"description"`
	Language    string `json:"language"`
}

// AdCopyGenerate asks the text model for headline/subheadline/CTA copy. On
// failure the response carries only an error, never a partial field set, so
// callers keep whatever copy they already have.
func (a *App) AdCopyGenerate(w http.ResponseWriter, r *http.Request) {
	var req adCopyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "description is required")
		return
	}

	lang := req.Language
	if lang == "" {
		lang = middleware.LocaleFromContext(r.Context())
	}

	copy, err := a.Copy.GenerateAdCopy(r.Context(), req.Description, domain.ParseLanguage(lang))
	if err != nil {
		a.Logger.Warn().Err(err).Msg("handlers: ad copy generation failed")
		a.error(w, http.StatusBadGateway, "generation_failed", err.Error())
		return
	}
	a.json(w, http.StatusOK, copy)
}
