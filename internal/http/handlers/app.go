package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prylatief/latiefads/internal/batch"
	"github.com/prylatief/latiefads/internal/domain"
	"github.com/prylatief/latiefads/internal/infra"
	"github.com/prylatief/latiefads/internal/store"
)

// CopyGenerator is the ad-copy capability consumed by the handlers.
type CopyGenerator interface {
	GenerateAdCopy(ctx context.Context, description string, lang domain.Language) (domain.AdCopy, error)
}

// App bundles the dependencies shared by all handlers.
type App struct {
	Logger infra.Logger
	Config *infra.Config
	Store  *store.Store
	Runner *batch.Runner
	Copy   CopyGenerator
}

func NewApp(cfg *infra.Config, logger infra.Logger, st *store.Store, runner *batch.Runner, copy CopyGenerator) *App {
	return &App{
		Logger: logger,
		Config: cfg,
		Store:  st,
		Runner: runner,
		Copy:   copy,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error":   code,
		"message": message,
	})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
