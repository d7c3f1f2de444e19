package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"editlab/internal/http/handlers"
	"editlab/internal/infra"
	"editlab/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, lookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.I18N(cfg.DefaultLocale, lookup),
		middleware.Logger(app.Log),
		middleware.CORS(cfg.AllowedOrigins),
	)

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Get("/v1/metrics", app.Dashboard)

	r.Route("/v1/edits", func(r chi.Router) {
		// Submissions are the expensive path; only they are rate limited.
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).Post("/", app.SubmitEdit)
		r.Get("/{sessionID}", app.GetEdit)
		r.Get("/{sessionID}/image", app.DownloadEdit)
		r.Get("/{sessionID}/export", app.ExportEdit)
	})

	return r
}
