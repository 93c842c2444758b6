package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/leapask/internal/chat"
	"github.com/leapstack-labs/leapask/internal/table"
	"github.com/leapstack-labs/leapask/internal/transcript"
)

const (
	cookieName   = "leapask"
	sessionIDKey = "sid"
)

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// DatasetResponse describes the loaded dataset.
type DatasetResponse struct {
	Name    string             `json:"name"`
	Rows    int                `json:"rows"`
	Columns int                `json:"columns"`
	Schema  []table.ColumnInfo `json:"schema"`
	Preview PreviewResponse    `json:"preview"`
}

// PreviewResponse holds the leading rows of the dataset.
type PreviewResponse struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// HistoryResponse lists the answered turns.
type HistoryResponse struct {
	Turns []chat.Turn `json:"turns"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handlers provides the API's HTTP handlers.
type Handlers struct {
	manager      *Manager
	sessionStore sessions.Store
	cfg          Config
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(manager *Manager, sessionStore sessions.Store, cfg Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{manager: manager, sessionStore: sessionStore, cfg: cfg, logger: logger}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": h.manager.Len()})
}

// UploadDataset loads the multipart "file" field into the caller's session.
func (h *Handlers) UploadDataset(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.cfg.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", h.cfg.MaxUploadBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", h.cfg.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("no file uploaded"))
		return
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, errors.New("uploaded file has no name"))
		return
	}

	s, err := h.session(w, r, true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	dir, err := os.MkdirTemp("", "leapask-upload-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, name)
	if err := saveUpload(path, file); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if _, err := s.Load(r.Context(), path); err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.logger.Info("dataset uploaded", "session", s.ID, "file", header.Filename, "bytes", header.Size)
	h.writeDataset(w, s)
}

// Dataset returns the schema and a preview of the loaded dataset.
func (h *Handlers) Dataset(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r, false)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.writeDataset(w, s)
}

// Ask answers one question about the loaded dataset.
func (h *Handlers) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	s, err := h.session(w, r, false)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	reply, err := s.Ask(r.Context(), req.Question)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// History returns the answered turns of the caller's session.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r, false)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	turns := s.History()
	if turns == nil {
		turns = []chat.Turn{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Turns: turns})
}

// ExportHistory downloads the transcript in the format given by ?format=.
func (h *Handlers) ExportHistory(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "md"
	}
	exporter, err := transcript.NewExporter(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s, err := h.session(w, r, false)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	tr := transcript.FromSession(s)
	name := tr.Dataset
	if name == "" {
		name = "leapask"
	}
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-transcript%s"`, name, exporter.Extension()))
	if err := exporter.Export(tr, w); err != nil {
		h.logger.Error("transcript export failed", "session", s.ID, "error", err)
	}
}

// DeleteSession discards the caller's session and its dataset.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	cs, _ := h.sessionStore.Get(r, cookieName)
	if id, ok := cs.Values[sessionIDKey].(string); ok {
		h.manager.Delete(id)
	}
	cs.Options.MaxAge = -1
	if err := cs.Save(r, w); err != nil {
		h.logger.Warn("failed to clear session cookie", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// session returns the chat session bound to the request cookie and re-saves
// the cookie so its expiry slides with use. With create
// set a new session is started when there is none.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request, create bool) (*chat.Session, error) {
	// A cookie that fails to decode yields a fresh session.
	cs, _ := h.sessionStore.Get(r, cookieName)
	if id, ok := cs.Values[sessionIDKey].(string); ok {
		if s, ok := h.manager.Get(id); ok {
			if err := cs.Save(r, w); err != nil {
				h.logger.Warn("failed to refresh session cookie", "session", id, "error", err)
			}
			return s, nil
		}
	}
	if !create {
		return nil, &table.NotLoadedError{}
	}

	s, err := h.manager.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	cs.Values[sessionIDKey] = s.ID
	if err := cs.Save(r, w); err != nil {
		h.manager.Delete(s.ID)
		return nil, fmt.Errorf("failed to save session cookie: %w", err)
	}
	return s, nil
}

func (h *Handlers) writeDataset(w http.ResponseWriter, s *chat.Session) {
	t, err := s.Table()
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	cols, rows, err := s.Preview(h.cfg.PreviewRows)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DatasetResponse{
		Name:    t.Name,
		Rows:    t.NumRows(),
		Columns: t.NumColumns(),
		Schema:  t.Schema(),
		Preview: PreviewResponse{Columns: cols, Rows: rows},
	})
}

func (h *Handlers) writeSessionError(w http.ResponseWriter, err error) {
	var (
		notLoaded *table.NotLoadedError
		loadErr   *table.LoadError
	)
	switch {
	case errors.As(err, &notLoaded):
		writeError(w, http.StatusConflict, err)
	case errors.As(err, &loadErr):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, chat.ErrClosed):
		writeError(w, http.StatusGone, err)
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func saveUpload(path string, src io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	writeJSON(w, status, ErrorResponse{Error: msg})
}
