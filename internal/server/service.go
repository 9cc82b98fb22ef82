package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/artifact"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/contextbuilder"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/generator"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/orchestrator"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/registry"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/report"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// currentSnapshot may stand in for the snapshot identity in URLs.
const currentSnapshot = "current"

// Options wires a Service to the pipeline.
type Options struct {
	Orchestrator *orchestrator.Orchestrator
	Builder      *contextbuilder.Builder
	Writer       *generator.Writer
	Generators   []generator.Generator
	Bus          *event.Bus
	Logger       *logging.Logger
	// Snapshot resolves the repository each request works on.
	Snapshot func() (analysis.Snapshot, error)
	// Request builds the base orchestration request for a snapshot.
	Request func(snap analysis.Snapshot) orchestrator.Request
	// Exclude holds the exclusions from configuration.
	Exclude []string
}

// Service implements the HTTP API for one repository.
type Service struct {
	opts   Options
	store  *artifact.Store
	logger *logging.Logger

	// runMu admits one run or generation at a time.
	runMu sync.Mutex
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Service{opts: opts, store: opts.Orchestrator.Store(), logger: logger.WithPhase("server")}
}

// BuildMux registers every route on a new ServeMux.
func BuildMux(s *Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /v1/runs", s.handleRun)
	mux.HandleFunc("GET /v1/snapshots/{id}/report", s.handleLatestReport)
	mux.HandleFunc("GET /v1/snapshots/{id}/reports", s.handleReports)
	mux.HandleFunc("GET /v1/snapshots/{id}/reports/{run}", s.handleReport)
	mux.HandleFunc("GET /v1/snapshots/{id}/artifacts", s.handleArtifacts)
	mux.HandleFunc("GET /v1/snapshots/{id}/artifacts/{analyzer}", s.handleArtifact)
	mux.HandleFunc("GET /v1/snapshots/{id}/documents", s.handleDocuments)
	mux.HandleFunc("POST /v1/generate/{kind}", s.handleGenerate)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	return mux
}

// RunRequest is the body of POST /v1/runs.
type RunRequest struct {
	Exclude    []string `json:"exclude,omitempty"`
	Include    []string `json:"include,omitempty"`
	MaxWorkers int      `json:"max_workers,omitempty"`
	// Timeout bounds the whole run, e.g. "90s".
	Timeout string `json:"timeout,omitempty"`
	// Generate regenerates every document after the run.
	Generate bool `json:"generate,omitempty"`
}

// RunResponse is the body returned by POST /v1/runs.
type RunResponse struct {
	Report    report.Summary    `json:"report"`
	Documents []DocumentSummary `json:"documents,omitempty"`
}

// DocumentSummary describes a generated document.
type DocumentSummary struct {
	Generator string                `json:"generator"`
	Path      string                `json:"path"`
	Skipped   bool                  `json:"skipped,omitempty"`
	Missing   []analysis.AnalyzerID `json:"missing,omitempty"`
	Bytes     int                   `json:"bytes"`
	CreatedAt time.Time             `json:"created_at"`
}

// ArtifactSummary lists an artifact without its body.
type ArtifactSummary struct {
	AnalyzerID  analysis.AnalyzerID `json:"analyzer_id"`
	Format      analysis.Format     `json:"format"`
	LogicalTime uint64              `json:"logical_time"`
	ConfigHash  string              `json:"config_hash"`
	RunID       string              `json:"run_id,omitempty"`
	Bytes       int                 `json:"bytes"`
	CreatedAt   time.Time           `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.opts.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshot": snap, "identity": snap.Identity()})
}

func (s *Service) handleRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			s.writeError(w, errors.NewValidationError("body", nil, err.Error()))
			return
		}
	}

	ex, err := registry.MergeExclusions(s.opts.Exclude, body.Exclude, body.Include)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var timeout time.Duration
	if body.Timeout != "" {
		if timeout, err = cast.ToDurationE(body.Timeout); err != nil || timeout < 0 {
			s.writeError(w, errors.NewValidationError("timeout", body.Timeout, "must be a non-negative duration"))
			return
		}
	}
	if body.MaxWorkers < 0 {
		s.writeError(w, errors.NewValidationError("max_workers", body.MaxWorkers, "must not be negative"))
		return
	}

	if !s.runMu.TryLock() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "a run is already in progress"})
		return
	}
	defer s.runMu.Unlock()

	snap, err := s.opts.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	req := s.opts.Request(snap)
	req.Exclusions = ex
	if body.MaxWorkers > 0 {
		req.MaxWorkers = body.MaxWorkers
	}
	if timeout > 0 {
		req.GlobalTimeout = timeout
	}

	// A run finishes even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	rep, err := s.opts.Orchestrator.Run(ctx, req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := RunResponse{Report: report.Summarize(rep)}
	if body.Generate {
		docs, err := s.generate(ctx, snap, s.opts.Generators)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.Documents = summarizeDocuments(docs)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.snapshotID(w, r)
	if !ok {
		return
	}
	rep, err := s.store.LatestReport(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeReport(w, r, rep)
}

func (s *Service) handleReport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.snapshotID(w, r)
	if !ok {
		return
	}
	rep, err := s.store.Report(r.Context(), id, r.PathValue("run"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeReport(w, r, rep)
}

// writeReport sends the full report when ?full=true, else its summary.
func (s *Service) writeReport(w http.ResponseWriter, r *http.Request, rep *analysis.ExecutionReport) {
	if full, _ := cast.ToBoolE(r.URL.Query().Get("full")); full {
		writeJSON(w, http.StatusOK, rep)
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(rep))
}

func (s *Service) handleReports(w http.ResponseWriter, r *http.Request) {
	id, ok := s.snapshotID(w, r)
	if !ok {
		return
	}
	reps, err := s.store.Reports(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]report.Summary, len(reps))
	for i, rep := range reps {
		out[i] = report.Summarize(rep)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	id, ok := s.snapshotID(w, r)
	if !ok {
		return
	}
	arts, err := s.store.List(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]ArtifactSummary, len(arts))
	for i, a := range arts {
		out[i] = ArtifactSummary{
			AnalyzerID:  a.AnalyzerID,
			Format:      a.Content.Format,
			LogicalTime: a.LogicalTime,
			ConfigHash:  a.ConfigHash,
			RunID:       a.RunID,
			Bytes:       len(a.Content.Body),
			CreatedAt:   a.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleArtifact returns the artifact as JSON, or its raw body when the
// client accepts only text/markdown or passes ?raw=true.
func (s *Service) handleArtifact(w http.ResponseWriter, r *http.Request) {
	id, ok := s.snapshotID(w, r)
	if !ok {
		return
	}
	analyzer := analysis.Normalize(r.PathValue("analyzer"))
	a, err := s.store.Get(r.Context(), id, analyzer)
	if err != nil {
		s.writeError(w, err)
		return
	}

	raw, _ := cast.ToBoolE(r.URL.Query().Get("raw"))
	if raw || r.Header.Get("Accept") == "text/markdown" {
		w.Header().Set("Content-Type", contentType(a.Content.Format))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(a.Content.Body))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Service) handleDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := s.snapshotID(w, r)
	if !ok {
		return
	}
	docs, err := s.store.Documents(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarizeDocuments(docs))
}

// handleGenerate renders documents from stored artifacts. kind is a
// generator name or "all".
func (s *Service) handleGenerate(w http.ResponseWriter, r *http.Request) {
	kind := strings.ToLower(strings.TrimSpace(r.PathValue("kind")))
	gens := s.generators(kind)
	if len(gens) == 0 {
		s.writeError(w, errors.NewValidationError("kind", kind,
			"must be one of "+strings.Join(append(generator.Kinds(), "all"), ", ")))
		return
	}

	if !s.runMu.TryLock() {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "a run is already in progress"})
		return
	}
	defer s.runMu.Unlock()

	snap, err := s.opts.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	docs, err := s.generate(context.WithoutCancel(r.Context()), snap, gens)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarizeDocuments(docs))
}

func (s *Service) generators(kind string) []generator.Generator {
	if kind == "all" {
		return s.opts.Generators
	}
	for _, g := range s.opts.Generators {
		if g.Name() == kind {
			return []generator.Generator{g}
		}
	}
	return nil
}

func (s *Service) generate(ctx context.Context, snap analysis.Snapshot, gens []generator.Generator) ([]analysis.Document, error) {
	return generator.Run(ctx, s.opts.Builder, s.opts.Writer, snap, gens...)
}

// snapshotID reads {id} from the path, resolving "current".
func (s *Service) snapshotID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id != currentSnapshot {
		return id, true
	}
	snap, err := s.opts.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return "", false
	}
	return snap.Identity(), true
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	resp := errorResponse{Error: err.Error()}
	var pe errors.PipelineError
	if errors.As(err, &pe) || errors.IsPreExecution(err) {
		resp.Kind = errors.KindOf(err).String()
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidSnapshot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrNoTasksSelected),
		errors.Is(err, errors.ErrUnknownAnalyzer),
		errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func contentType(f analysis.Format) string {
	switch f {
	case analysis.FormatJSON:
		return "application/json"
	case analysis.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func summarizeDocuments(docs []analysis.Document) []DocumentSummary {
	out := make([]DocumentSummary, len(docs))
	for i, d := range docs {
		out[i] = DocumentSummary{
			Generator: d.Generator,
			Path:      d.Path,
			Skipped:   d.Skipped,
			Missing:   d.Missing,
			Bytes:     len(d.Body),
			CreatedAt: d.CreatedAt,
		}
	}
	return out
}
