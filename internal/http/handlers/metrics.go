package handlers

import "net/http"

// Dashboard reports edit counters and the number of live sessions. It is a
// plain JSON endpoint meant for quick inspection, not a scrape target.
func (a *App) Dashboard(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"edits":           a.Metrics.Snapshot(),
		"active_sessions": a.Sessions.Len(),
	})
}
