package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rcliao/qrfield/internal/hook"
	"github.com/rcliao/qrfield/internal/store"
)

// Handler serves the hook endpoints.
type Handler struct {
	module *hook.Module
	log    *slog.Logger
}

// NewHandler returns a Handler running module. A nil log discards output.
func NewHandler(module *hook.Module, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{module: module, log: log}
}

// SaveRecord runs the save hook for the JSON SaveEvent in the body. The
// project id comes from the path.
func (h *Handler) SaveRecord(w http.ResponseWriter, r *http.Request) {
	pid, _ := strconv.ParseInt(mux.Vars(r)["pid"], 10, 64)

	var ev hook.SaveEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	ev.ProjectID = pid
	if ev.Record == "" || ev.EventID == 0 {
		writeError(w, http.StatusBadRequest, "record and event_id are required")
		return
	}

	outcomes, err := h.module.SaveRecord(r.Context(), ev)
	if err != nil {
		h.fail(w, "save-record", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "outcomes": outcomes})
}

// PageTop returns the page snippet for a form.
func (h *Handler) PageTop(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pid, _ := strconv.ParseInt(vars["pid"], 10, 64)

	var snippet string
	var err error
	if r.URL.Query().Get("survey") == "1" {
		snippet, err = h.module.SurveyPageTop(r.Context(), pid, vars["form"])
	} else {
		snippet, err = h.module.DataEntryFormTop(r.Context(), pid, vars["form"])
	}
	if err != nil {
		h.fail(w, "page-top", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(snippet))
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, hook.ErrRendererUnavailable):
		h.log.Error(op, "err", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error(op, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"ok": false, "error": msg})
}
