package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/chazu/stairkit/pkg/catalog"
	"github.com/chazu/stairkit/pkg/ifc"
	"github.com/chazu/stairkit/pkg/params"
	"github.com/chazu/stairkit/pkg/pipeline"
	"github.com/chazu/stairkit/pkg/schedule"
	"github.com/chazu/stairkit/pkg/stairerr"
	"github.com/chazu/stairkit/pkg/step"
)

// MaxRequestBody bounds parameter uploads.
const MaxRequestBody = 1 << 20

var (
	serveAddr  string
	serveRate  float64
	serveBurst int
	serveCells int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve builds over HTTP",
	Long: `Start an HTTP server that builds stairs from posted parameters.

Endpoints:
  GET  /api/health
  GET  /api/default              the default parameter bundle
  GET  /api/catalog              insert parts
  POST /api/inspect?format=F     feature summary of a bundle
  POST /api/build/{output}?format=F
                                 output is ifc, stp, xlsx, pdf or json
  POST /api/preview              a .stair script in, preview meshes out

F is the parameter format of the request body: json (default), yaml or
stair. Requests are rate limited per client address.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()
	f.StringVar(&serveAddr, "addr", ":8080", "listen address")
	f.Float64Var(&serveRate, "rate", 1, "requests per second allowed per client")
	f.IntVar(&serveBurst, "burst", 5, "request burst allowed per client")
	f.IntVar(&serveCells, "cells", PreviewCells, "preview meshing resolution")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := NewApp()
	app.cells = serveCells
	srv := &server{app: app, header: headerDefaults()}
	limiter := newIPRateLimiter(rate.Limit(serveRate), serveBurst)

	httpSrv := &http.Server{
		Addr:    serveAddr,
		Handler: srv.routes(limiter),
	}

	errc := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", serveAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Printf("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}

// headerDefaults are the file header fields taken from the environment.
func headerDefaults() pipeline.Options {
	author, org := envList(EnvAuthor), envList(EnvOrganization)
	return pipeline.Options{
		IFC: ifc.Options{
			Author:        author,
			Organization:  org,
			Authorization: os.Getenv(EnvAuthorization),
			Version:       Version,
		},
		STEP:   step.Options{Author: author, Organization: org},
		Logger: logger,
	}
}

// ---------------------------------------------------------------------------
// Rate limiting
// ---------------------------------------------------------------------------

// ipRateLimiter keeps one token bucket per client address.
type ipRateLimiter struct {
	mu  sync.Mutex
	ips map[string]*rate.Limiter
	r   rate.Limit
	b   int
}

func newIPRateLimiter(r rate.Limit, b int) *ipRateLimiter {
	return &ipRateLimiter{ips: make(map[string]*rate.Limiter), r: r, b: b}
}

func (i *ipRateLimiter) limiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	l, ok := i.ips[ip]
	if !ok {
		l = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = l
	}
	return l
}

// middleware rejects requests beyond the client's budget.
func (i *ipRateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !i.limiter(ip).Allow() {
			http.Error(w, "too many requests, try again later", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

type server struct {
	app    *App
	header pipeline.Options
}

func (s *server) routes(limiter *ipRateLimiter) http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(limiter.middleware)

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok\n")
	}).Methods("GET")
	api.HandleFunc("/default", s.handleDefault).Methods("GET")
	api.HandleFunc("/catalog", s.handleCatalog).Methods("GET")
	api.HandleFunc("/inspect", s.handleInspect).Methods("POST")
	api.HandleFunc("/build/{output:ifc|stp|xlsx|pdf|json}", s.handleBuild).Methods("POST")
	api.HandleFunc("/preview", s.handlePreview).Methods("POST")
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Printf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	if errors.Is(err, stairerr.ErrParameterOutOfRange) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]any{"errors": errorData(err)})
}

func (s *server) handleDefault(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := params.Encode(w, params.Default(), params.FormatJSON); err != nil {
		logger.Printf("encoding default bundle: %v", err)
	}
}

// CatalogEntry is one insert part as served by /api/catalog.
type CatalogEntry struct {
	Family      string  `json:"family"`
	Name        string  `json:"name"`
	RabbetDepth float64 `json:"rabbet_depth"`
	EmbedDepth  float64 `json:"embed_depth"`
}

func (s *server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	var out []CatalogEntry
	for _, f := range catalog.Families() {
		for _, name := range catalog.Names(f) {
			p, err := catalog.Lookup(f, name)
			if err != nil {
				writeError(w, err)
				return
			}
			out = append(out, CatalogEntry{f.String(), name, p.RabbetDepth(), p.EmbedDepth()})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeBundle reads the request body in the format named by ?format=.
func decodeBundle(w http.ResponseWriter, r *http.Request) (*params.Bundle, bool) {
	format := params.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = params.FormatJSON
	}
	b, err := params.Decode(http.MaxBytesReader(w, r.Body, MaxRequestBody), format)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []EvalErrorData{{Message: err.Error()}}})
		return nil, false
	}
	return b, true
}

func (s *server) handleInspect(w http.ResponseWriter, r *http.Request) {
	b, ok := decodeBundle(w, r)
	if !ok {
		return
	}
	if err := params.Validate(b); err != nil {
		writeError(w, err)
		return
	}
	sum, err := summarize(b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

var outputTypes = map[string]struct {
	ext, contentType string
}{
	"ifc":  {pipeline.ExtIFC, "application/x-step"},
	"stp":  {pipeline.ExtSTEP, "application/step"},
	"xlsx": {pipeline.ExtWorkbook, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	"pdf":  {pipeline.ExtPDF, "application/pdf"},
	"json": {pipeline.ExtJSON, "application/json"},
}

func (s *server) handleBuild(w http.ResponseWriter, r *http.Request) {
	out := outputTypes[mux.Vars(r)["output"]]
	b, ok := decodeBundle(w, r)
	if !ok {
		return
	}

	opts := s.header
	opts.Kernel = s.app.kernel
	opts.SkipBRep = out.ext != pipeline.ExtSTEP
	opts.IFC.FileName = b.Name + pipeline.ExtIFC
	opts.STEP.Name = b.Name + pipeline.ExtSTEP
	res, err := pipeline.Build(r.Context(), b, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	for _, o := range res.Outputs(schedule.PDFOptions{Author: firstOr(opts.IFC.Author, "")}) {
		if o.Ext != out.ext {
			continue
		}
		if err := o.Write(&buf); err != nil {
			writeError(w, err)
			return
		}
	}
	w.Header().Set("Content-Type", out.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", b.Name+out.ext))
	w.Write(buf.Bytes())
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Evaluate(string(src)))
}

func firstOr(ss []string, def string) string {
	if len(ss) == 0 {
		return def
	}
	return ss[0]
}
