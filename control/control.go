// Package control exposes the running augmentation over a localhost HTTP
// API and optionally as MCP tools, so scripts and agents can drive the
// viewer without touching the keyboard.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/cadkeys/augment"
	"github.com/hazyhaar/cadkeys/journal"
)

// Backend is what the control surface drives. augment.Augmenter implements it.
type Backend interface {
	Status(ctx context.Context) (augment.Status, error)
	SetUnit(ctx context.Context, unit string) error
	SetPrecision(ctx context.Context, denom int) error
	ToggleFeet(ctx context.Context) (bool, error)
	Press(ctx context.Context, combo string) error
	Yank(ctx context.Context, seq string) error
}

// JournalReader reads back recorded actions. Nil disables the endpoint.
type JournalReader interface {
	Recent(n int) ([]journal.Entry, error)
}

// NewRouter builds the HTTP API.
func NewRouter(b Backend, j JournalReader) chi.Router {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		st, err := b.Status(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, st)
	})

	r.Post("/unit", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Unit string `json:"unit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, 400, err)
			return
		}
		if err := b.SetUnit(r.Context(), req.Unit); err != nil {
			writeError(w, 400, err)
			return
		}
		writeJSON(w, 200, map[string]string{"unit": req.Unit})
	})

	r.Post("/precision", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Denominator int `json:"denominator"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, 400, err)
			return
		}
		if err := b.SetPrecision(r.Context(), req.Denominator); err != nil {
			writeError(w, 400, err)
			return
		}
		writeJSON(w, 200, map[string]int{"denominator": req.Denominator})
	})

	r.Post("/feet", func(w http.ResponseWriter, r *http.Request) {
		on, err := b.ToggleFeet(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, map[string]bool{"show_feet": on})
	})

	r.Post("/press", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, 400, err)
			return
		}
		if err := b.Press(r.Context(), req.Key); err != nil {
			writeError(w, 400, err)
			return
		}
		writeJSON(w, 200, map[string]string{"pressed": req.Key})
	})

	r.Post("/yank", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Sequence string `json:"sequence"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, 400, err)
			return
		}
		if err := b.Yank(r.Context(), req.Sequence); err != nil {
			writeError(w, 400, err)
			return
		}
		writeJSON(w, 200, map[string]string{"sequence": req.Sequence})
	})

	r.Get("/journal", func(w http.ResponseWriter, r *http.Request) {
		if j == nil {
			writeError(w, 404, fmt.Errorf("journaling disabled"))
			return
		}
		limit := queryInt(r, "limit", 50)
		entries, err := j.Recent(limit)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if entries == nil {
			entries = []journal.Entry{}
		}
		writeJSON(w, 200, entries)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
