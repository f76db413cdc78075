// Package api exposes the hooks over HTTP for hosts that call out to them.
package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers the health, save-record and page-top routes.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")
	r.HandleFunc("/projects/{pid:[0-9]+}/hooks/save-record", h.SaveRecord).Methods("POST")
	r.HandleFunc("/projects/{pid:[0-9]+}/forms/{form}/page-top", h.PageTop).Methods("GET")
	return r
}
