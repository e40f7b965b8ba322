// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the explorer over a JSON HTTP API. Every request
// builds its own session from the shared, read-only dataset.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/scatterscope/internal/dataset"
	"github.com/pdiddy/scatterscope/internal/explorer"
	"github.com/pdiddy/scatterscope/internal/export"
	"github.com/pdiddy/scatterscope/internal/lookup"
	"github.com/pdiddy/scatterscope/internal/render"
	"github.com/pdiddy/scatterscope/internal/searchlist"
	"github.com/pdiddy/scatterscope/internal/viewstate"
	"github.com/pdiddy/scatterscope/internal/views"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// Handler serves the API.
type Handler struct {
	ds     *dataset.Dataset
	index  *lookup.Index
	book   *views.Book
	render render.Options

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewHandler returns a Handler over ds. index and book may be nil, which
// disables lookup and saved views.
func NewHandler(ds *dataset.Dataset, index *lookup.Index, book *views.Book, opts render.Options) *Handler {
	return &Handler{ds: ds, index: index, book: book, render: opts, Now: time.Now}
}

// Routes registers the API on a new mux, wrapped in request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/plot", h.Plot)
	mux.HandleFunc("GET /api/plot.png", h.image(render.PNG))
	mux.HandleFunc("GET /api/plot.svg", h.image(render.SVG))
	mux.HandleFunc("GET /api/plot.xlsx", h.Workbook)
	mux.HandleFunc("GET /api/properties", h.Properties)
	mux.HandleFunc("GET /api/industries", h.Industries)
	mux.HandleFunc("GET /api/lookup", h.Lookup)
	mux.HandleFunc("GET /api/tickers/{id}", h.Ticker)
	mux.HandleFunc("GET /api/status", h.Status)
	mux.HandleFunc("GET /api/views", h.Views)
	mux.HandleFunc("GET /api/views/{name}", h.View)
	return logRequests(mux)
}

// PlotResponse is the body of /api/plot.
type PlotResponse struct {
	View    types.ViewState `json:"view"`
	Encoded string          `json:"encoded"`
	Plot    types.Plot      `json:"plot"`
	Warning string          `json:"warning,omitempty"`
}

// session builds a session from the request's view parameter and the
// optional fit, industry, track and click parameters.
func (h *Handler) session(r *http.Request) (*explorer.Session, string) {
	s := explorer.New(h.ds)
	s.Warn = io.Discard

	q := r.URL.Query()
	var warning string
	if err := s.ApplyEncoded(q.Get(viewstate.Param)); err != nil {
		log.Printf("warning: %s: %v", r.URL.Path, err)
		warning = err.Error()
	}
	s.BestFitPerCategory = q.Get("fit") == "category"
	for _, ind := range q["industry"] {
		if err := s.SelectIndustry(ind); err != nil {
			log.Printf("warning: %s: %v", r.URL.Path, err)
		}
	}
	for _, id := range q["track"] {
		// Unknown or duplicate tickers are ignored, as in the UI.
		_ = s.Track(id)
	}
	if id := q.Get("click"); id != "" {
		_ = s.HandlePointClick(id)
	}
	return s, warning
}

// Plot returns the projection for the requested view.
func (h *Handler) Plot(w http.ResponseWriter, r *http.Request) {
	s, warning := h.session(r)
	p := s.Project()
	writeJSON(w, http.StatusOK, PlotResponse{
		View:    s.State(),
		Encoded: s.Encoded(),
		Plot:    p.Plot,
		Warning: warning,
	})
}

func (h *Handler) image(f render.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, _ := h.session(r)
		opts := h.render
		opts.Format = f
		opts.Width = intParam(r, "width", opts.Width)
		opts.Height = intParam(r, "height", opts.Height)

		var buf bytes.Buffer
		if err := render.Render(&buf, s.Project().Plot, opts); err != nil {
			log.Printf("render: %v", err)
			http.Error(w, "rendering failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		w.Write(buf.Bytes())
	}
}

// Workbook returns the projection as an XLSX download.
func (h *Handler) Workbook(w http.ResponseWriter, r *http.Request) {
	s, _ := h.session(r)
	var buf bytes.Buffer
	if err := export.Write(&buf, s.Project().Plot); err != nil {
		log.Printf("export: %v", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="scatterscope.xlsx"`)
	w.Write(buf.Bytes())
}

// Properties returns the numeric properties matching q.
func (h *Handler) Properties(w http.ResponseWriter, r *http.Request) {
	matches := searchlist.Match(h.ds.Properties, r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string][]string{"properties": matches})
}

// Industries returns the industries matching q, for the industry filter.
func (h *Handler) Industries(w http.ResponseWriter, r *http.Request) {
	known := explorer.New(h.ds).KnownIndustries()
	matches := searchlist.Match(known, r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string][]string{"industries": matches})
}

// Lookup searches tickers by symbol, name, sector and industry.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		http.Error(w, "lookup is not available", http.StatusServiceUnavailable)
		return
	}
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		http.Error(w, "missing query parameter 'q'", http.StatusBadRequest)
		return
	}
	entries, err := h.index.Search(query, intParam(r, "limit", 0))
	if err != nil {
		log.Printf("lookup %q: %v", query, err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]lookup.Entry{"results": entries})
}

// Ticker returns the detail view of one ticker.
func (h *Handler) Ticker(w http.ResponseWriter, r *http.Request) {
	s := explorer.New(h.ds)
	info, err := s.Info(r.PathValue("id"))
	if errors.Is(err, explorer.ErrUnknownTicker) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// StatusResponse is the body of /api/status.
type StatusResponse struct {
	Tickers     int        `json:"tickers"`
	Properties  int        `json:"properties"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	LastUpdated string     `json:"last_updated,omitempty"`
}

// Status reports the size and age of the dataset.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Tickers:    h.ds.Table.Len(),
		Properties: len(h.ds.Properties),
	}
	if !h.ds.UpdatedAt.IsZero() {
		t := h.ds.UpdatedAt
		resp.UpdatedAt = &t
		resp.LastUpdated = dataset.FormatLastUpdated(h.Now(), t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Views lists the saved views.
func (h *Handler) Views(w http.ResponseWriter, r *http.Request) {
	if h.book == nil {
		writeJSON(w, http.StatusOK, map[string][]views.View{"views": {}})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]views.View{"views": h.book.List()})
}

// View returns one saved view.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	if h.book == nil {
		http.Error(w, "no saved views", http.StatusNotFound)
		return
	}
	v, err := h.book.Get(r.PathValue("name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Serve runs the API on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h *Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Printf("listening on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func intParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
