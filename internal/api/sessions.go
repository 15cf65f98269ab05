package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/erazemk/popis/internal/imaging"
	"github.com/erazemk/popis/internal/manifest"
	"github.com/erazemk/popis/internal/metrics"
	"github.com/erazemk/popis/internal/model"
	"github.com/erazemk/popis/internal/ocr"
	"github.com/erazemk/popis/internal/reconcile"
	"github.com/erazemk/popis/internal/report"
	"github.com/erazemk/popis/internal/store"
)

// MaxUploadSize bounds manifest uploads, including photos.
const MaxUploadSize = 10 << 20

// SessionsHandler handles session endpoints.
type SessionsHandler struct {
	Engine     *reconcile.Engine
	Reports    *report.Aggregator
	Recognizer ocr.Recognizer
}

type createSessionRequest struct {
	Name  string          `json:"name"`
	Items []manifest.Line `json:"items"`
}

type sessionResponse struct {
	*model.Session
	Progress int          `json:"progress"`
	Items    []model.Item `json:"items"`
}

type scanRequest struct {
	Code string `json:"code"`
}

// Create handles POST /api/sessions.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.Engine.CreateSession(r.Context(), req.Name, req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, session)
}

// Upload handles POST /api/sessions/upload. The form carries an optional
// name and either a delimited export in "file" or a photo in "photo".
func (h *SessionsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	var (
		lines []manifest.Line
		err   error
	)
	if file, _, ferr := r.FormFile("file"); ferr == nil {
		defer file.Close()
		lines, err = h.parseFile(file, r.FormValue("format"))
	} else if photo, _, perr := r.FormFile("photo"); perr == nil {
		defer photo.Close()
		lines, err = h.recognizePhoto(r, photo)
		if err == nil && len(lines) == 0 {
			jsonError(w, http.StatusUnprocessableEntity, "no items recognized in photo")
			return
		}
	} else {
		jsonError(w, http.StatusBadRequest, "file or photo required")
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, imaging.ErrUnsupportedFormat):
			jsonError(w, http.StatusBadRequest, "photo must be JPEG or PNG")
		case errors.Is(err, ocr.ErrNotConfigured):
			jsonError(w, http.StatusServiceUnavailable, "text recognition is not configured")
		default:
			writeError(w, r, err)
		}
		return
	}

	session, err := h.Engine.CreateSession(r.Context(), r.FormValue("name"), lines)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, session)
}

func (h *SessionsHandler) parseFile(file io.Reader, format string) ([]manifest.Line, error) {
	f, err := manifest.ParseFormat(format)
	if err != nil {
		return nil, &manifest.InputFormatError{Err: err}
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	lines, err := manifest.Parse(f, string(data))
	metrics.ManifestParsed(string(f), len(lines), err)
	return lines, err
}

func (h *SessionsHandler) recognizePhoto(r *http.Request, photo io.Reader) ([]manifest.Line, error) {
	if h.Recognizer == nil {
		return nil, ocr.ErrNotConfigured
	}
	img, err := imaging.PrepareForOCR(photo)
	if err != nil {
		return nil, err
	}
	text, err := h.Recognizer.Recognize(r.Context(), img)
	if err != nil {
		return nil, err
	}
	lines := manifest.ParseRecognized(text)
	metrics.ManifestParsed(string(manifest.FormatRecognized), len(lines), nil)
	return lines, nil
}

// List handles GET /api/sessions.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Engine.ListSessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	jsonResponse(w, http.StatusOK, sessions)
}

// Get handles GET /api/sessions/{id}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	status := model.ItemStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	session, err := h.Engine.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.Engine.ListItems(r.Context(), session.ID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}

	jsonResponse(w, http.StatusOK, sessionResponse{
		Session:  session,
		Progress: session.Progress(),
		Items:    items,
	})
}

// Summary handles GET /api/sessions/{id}/summary and GET /api/summary, the
// latter describing the newest session.
func (h *SessionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	text, err := h.Reports.SessionSummary(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, text+"\n")
}

// Scan handles POST /api/sessions/{id}/scan.
func (h *SessionsHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		jsonError(w, http.StatusBadRequest, "code required")
		return
	}

	item, err := h.Engine.Scan(r.Context(), r.PathValue("id"), req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Complete handles POST /api/sessions/{id}/complete.
func (h *SessionsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	session, err := h.Engine.CompleteSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, session)
}

// Delete handles DELETE /api/sessions/{id}.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "session deleted"})
}
