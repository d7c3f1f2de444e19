package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"editlab/internal/domain"
	"editlab/internal/editor"
	"editlab/internal/i18n"
	"editlab/internal/imgutil"
	"editlab/internal/middleware"
	"editlab/pkg/zip"
)

// maxBodyBytes caps the submit payload. Source images arrive base64-encoded
// inside the JSON body, so the cap is well above the largest image we accept.
const maxBodyBytes = 20 << 20

type editRequest struct {
	SessionID    string `json:"session_id"`
	Mode         string `json:"mode"`
	Prompt       string `json:"prompt"`
	ImageDataURL string `json:"image_data_url"`
	AutoRatio    bool   `json:"auto_ratio"`
	AspectRatio  string `json:"aspect_ratio"`
}

type editAccepted struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

type editSnapshot struct {
	SessionID    string     `json:"session_id"`
	State        string     `json:"state"`
	Error        *errorBody `json:"error,omitempty"`
	HasResult    bool       `json:"has_result"`
	ImageDataURL string     `json:"image_data_url,omitempty"`
	DownloadURL  string     `json:"download_url,omitempty"`
	ExportURL    string     `json:"export_url,omitempty"`
}

// SubmitEdit accepts an edit, starts it in the background, and returns 202
// with the session to poll. A session runs one edit at a time; submitting
// while one is in flight yields 409.
func (a *App) SubmitEdit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var body editRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	mode, err := domain.ParseMode(body.Mode)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	req := domain.EditRequest{Mode: mode, Prompt: body.Prompt}
	if body.ImageDataURL != "" {
		raw, _, err := imgutil.DecodeDataURL(body.ImageDataURL)
		if err != nil {
			a.editError(w, r, http.StatusBadRequest, err)
			return
		}
		src, err := imgutil.Decode(raw)
		if err != nil {
			a.editError(w, r, http.StatusBadRequest, err)
			return
		}
		req.SourceImage = &src
	}

	if err := req.Validate(); err != nil {
		a.editError(w, r, http.StatusBadRequest, err)
		return
	}

	// An absent ratio means the caller takes the provider's framing as is.
	autoRatio := body.AutoRatio || strings.TrimSpace(body.AspectRatio) == ""
	if !autoRatio {
		if _, err := domain.ParseAspectRatio(body.AspectRatio); err != nil {
			a.editError(w, r, http.StatusBadRequest, domain.Validation(err.Error()))
			return
		}
	}

	// Claim the session's in-flight slot before acknowledging, so racing
	// submissions cannot both be accepted.
	sess := a.Sessions.GetOrCreate(body.SessionID)
	if err := sess.Controller.Reserve(); err != nil {
		a.Metrics.EditRejected()
		a.error(w, http.StatusConflict, "edit_in_flight", "an edit is already in flight for this session")
		return
	}

	a.Metrics.EditStarted()
	opts := editor.SubmitOptions{AutoRatio: autoRatio, AspectRatio: body.AspectRatio}
	go func() {
		// The edit outlives the request; poll GetEdit for progress.
		if _, err := sess.Controller.SubmitReserved(context.Background(), req, opts); err != nil {
			a.Metrics.EditFailed()
			return
		}
		a.Metrics.EditSucceeded()
	}()

	a.json(w, http.StatusAccepted, editAccepted{
		SessionID: sess.ID,
		State:     string(sess.Controller.Snapshot().State),
	})
}

// GetEdit reports the session's current state, its localized error when the
// last edit failed, and the finished image when one exists. A failed attempt
// leaves the previous result in place, so both can be present at once.
func (a *App) GetEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.Sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	snap := sess.Controller.Snapshot()
	resp := editSnapshot{
		SessionID: sess.ID,
		State:     string(snap.State),
		HasResult: snap.Result != nil,
	}
	if snap.Err != nil {
		slug := string(domain.KindOf(snap.Err))
		if slug == "" {
			slug = "internal"
		}
		locale := middleware.LocaleFromContext(r.Context())
		resp.Error = &errorBody{Code: slug, Message: i18n.ErrorMessage(locale, snap.Err)}
	}
	if snap.Result != nil {
		resp.ImageDataURL = imgutil.EncodeDataURL(snap.Result.MIMEType, snap.Result.ImageBytes)
		resp.DownloadURL = fmt.Sprintf("/v1/edits/%s/image", sess.ID)
		resp.ExportURL = fmt.Sprintf("/v1/edits/%s/export", sess.ID)
	}

	a.json(w, http.StatusOK, resp)
}

// DownloadEdit streams the finished image with a download disposition.
func (a *App) DownloadEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.Sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	snap := sess.Controller.Snapshot()
	if snap.Result == nil {
		a.error(w, http.StatusNotFound, "no_result", "no finished edit for this session")
		return
	}

	ext := imgutil.ExtensionForMIME(snap.Result.MIMEType)
	w.Header().Set("Content-Type", snap.Result.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=editlab-edit%s", ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.Result.ImageBytes)
}

// ExportEdit bundles the finished image and the prompt that produced it
// into a zip archive.
func (a *App) ExportEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.Sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	snap := sess.Controller.Snapshot()
	if snap.Result == nil {
		a.error(w, http.StatusNotFound, "no_result", "no finished edit for this session")
		return
	}

	ext := imgutil.ExtensionForMIME(snap.Result.MIMEType)
	archive, err := zip.Archive([]zip.Asset{
		{Filename: "editlab-edit" + ext, MIME: snap.Result.MIMEType, Data: snap.Result.ImageBytes},
		{Filename: "prompt.txt", MIME: "text/plain", Data: []byte(snap.Prompt)},
	})
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=editlab-edit.zip")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
