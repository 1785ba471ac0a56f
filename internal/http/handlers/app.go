package handlers

import (
	"encoding/json"
	"net/http"

	"botserver/internal/domain"
	"botserver/internal/infra"
	"botserver/internal/service/jobs"
)

// App bundles the dependencies shared by the intake handlers.
type App struct {
	Jobs   *jobs.Service
	Flags  domain.FeatureFlagRepository
	Logger infra.Logger
}

func NewApp(jobs *jobs.Service, flags domain.FeatureFlagRepository, logger infra.Logger) *App {
	return &App{Jobs: jobs, Flags: flags, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]string{"error": slug, "message": message})
}
