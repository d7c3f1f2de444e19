package handlers

import (
	"encoding/json"
	"net/http"

	"editlab/internal/domain"
	"editlab/internal/i18n"
	"editlab/internal/infra"
	"editlab/internal/metrics"
	"editlab/internal/middleware"
	"editlab/internal/session"
)

// App aggregates the dependencies shared by all HTTP handlers.
type App struct {
	Log      infra.Logger
	Cfg      *infra.Config
	Sessions *session.Store
	Metrics  *metrics.Registry
}

func NewApp(log infra.Logger, cfg *infra.Config, sessions *session.Store, reg *metrics.Registry) *App {
	return &App{Log: log, Cfg: cfg, Sessions: sessions, Metrics: reg}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, slug, msg string) {
	a.json(w, code, map[string]errorBody{"error": {Code: slug, Message: msg}})
}

// editError renders an edit pipeline error with a localized message. The
// error kind becomes the machine-readable code so clients can branch on it
// without parsing translated copy.
func (a *App) editError(w http.ResponseWriter, r *http.Request, code int, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	slug := string(domain.KindOf(err))
	if slug == "" {
		slug = "internal"
	}
	a.error(w, code, slug, i18n.ErrorMessage(locale, err))
}
