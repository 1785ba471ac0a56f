package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"botserver/internal/http/handlers"
	mw "botserver/internal/middleware"
)

func NewRouter(app *handlers.App, rateLimitPerMin int, staticDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/videos", func(r chi.Router) {
		r.With(mw.RateLimit(rateLimitPerMin, time.Minute)).Post("/", app.VideoJobCreate)
		r.Get("/{job_id}", app.VideoJobStatus)
	})

	// Mirrored artifacts live on local disk; Telegram fetches delivered
	// links from here unless an external host serves the storage path.
	if staticDir != "" {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
		r.Get("/static/*", fileServer.ServeHTTP)
	}

	return r
}
