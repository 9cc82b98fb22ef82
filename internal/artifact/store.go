// Package artifact is the typed store for analysis artifacts, execution
// reports and generated documents, layered over a blob.Store.
//
// Everything for one snapshot lives in the namespace named by the snapshot
// identity:
//
//	analysis/<analyzer>.json       one artifact per analyzer, overwritten by later runs
//	reports/<sequence>-<run>.json  one report per run
//	documents/<generator>/<path>.json
package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/artifact/blob"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

const (
	analysisDir  = "analysis/"
	reportsDir   = "reports/"
	documentsDir = "documents/"
)

// Store reads and writes typed pipeline records.
type Store struct {
	blobs   blob.Store
	backend string
}

// New wraps b.
func New(b blob.Store) *Store {
	return &Store{blobs: b, backend: blob.Name(b)}
}

// Blobs returns the underlying blob store.
func (s *Store) Blobs() blob.Store { return s.blobs }

// Close closes the underlying blob store.
func (s *Store) Close() error { return s.blobs.Close() }

// Put writes a, replacing any artifact with the same analyzer and snapshot.
// Failures are returned as *errors.StoreError.
func (s *Store) Put(ctx context.Context, a analysis.Artifact) error {
	if err := a.Validate(); err != nil {
		return s.storeErr("put", a.Key(), err)
	}
	return s.putJSON(ctx, a.SnapshotID, analysisPath(a.AnalyzerID), a)
}

// Get returns the artifact for id in snapshotID. A missing artifact is
// reported with an error matching errors.ErrNotFound.
func (s *Store) Get(ctx context.Context, snapshotID string, id analysis.AnalyzerID) (analysis.Artifact, error) {
	var a analysis.Artifact
	if err := s.getJSON(ctx, snapshotID, analysisPath(id), &a); err != nil {
		return analysis.Artifact{}, err
	}
	return a, nil
}

// List returns every artifact stored for snapshotID, ordered by analyzer ID.
func (s *Store) List(ctx context.Context, snapshotID string) ([]analysis.Artifact, error) {
	paths, err := s.list(ctx, snapshotID, analysisDir)
	if err != nil {
		return nil, err
	}
	out := make([]analysis.Artifact, 0, len(paths))
	for _, p := range paths {
		var a analysis.Artifact
		if err := s.getJSON(ctx, snapshotID, p, &a); err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b analysis.Artifact) int { return strings.Compare(string(a.AnalyzerID), string(b.AnalyzerID)) })
	return out, nil
}

// PutReport persists r under its snapshot.
func (s *Store) PutReport(ctx context.Context, r *analysis.ExecutionReport) error {
	if r == nil || r.SnapshotID == "" || r.RunID == "" {
		return s.storeErr("put", reportsDir, fmt.Errorf("report requires snapshot and run IDs"))
	}
	return s.putJSON(ctx, r.SnapshotID, reportPath(r.Sequence, r.RunID), r)
}

// LatestReport returns the report with the highest sequence for snapshotID.
func (s *Store) LatestReport(ctx context.Context, snapshotID string) (*analysis.ExecutionReport, error) {
	paths, err := s.list(ctx, snapshotID, reportsDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no report for %s: %w", snapshotID, errors.ErrNotFound)
	}
	var r analysis.ExecutionReport
	if err := s.getJSON(ctx, snapshotID, paths[len(paths)-1], &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Report returns the report written by runID.
func (s *Store) Report(ctx context.Context, snapshotID, runID string) (*analysis.ExecutionReport, error) {
	paths, err := s.list(ctx, snapshotID, reportsDir)
	if err != nil {
		return nil, err
	}
	suffix := "-" + runID + ".json"
	for _, p := range paths {
		if strings.HasSuffix(p, suffix) {
			var r analysis.ExecutionReport
			if err := s.getJSON(ctx, snapshotID, p, &r); err != nil {
				return nil, err
			}
			return &r, nil
		}
	}
	return nil, fmt.Errorf("report %s: %w", runID, errors.ErrNotFound)
}

// Reports returns every report for snapshotID, oldest first.
func (s *Store) Reports(ctx context.Context, snapshotID string) ([]*analysis.ExecutionReport, error) {
	paths, err := s.list(ctx, snapshotID, reportsDir)
	if err != nil {
		return nil, err
	}
	out := make([]*analysis.ExecutionReport, 0, len(paths))
	for _, p := range paths {
		var r analysis.ExecutionReport
		if err := s.getJSON(ctx, snapshotID, p, &r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, nil
}

// NextSequence returns the sequence number the next run of snapshotID should use.
func (s *Store) NextSequence(ctx context.Context, snapshotID string) (uint64, error) {
	r, err := s.LatestReport(ctx, snapshotID)
	if errors.Is(err, errors.ErrNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return r.Sequence + 1, nil
}

// PutDocument records a generated document.
func (s *Store) PutDocument(ctx context.Context, d analysis.Document) error {
	if d.SnapshotID == "" || d.Generator == "" || d.Path == "" {
		return s.storeErr("put", documentsDir, fmt.Errorf("document requires snapshot, generator and path"))
	}
	return s.putJSON(ctx, d.SnapshotID, documentPath(d.Generator, d.Path), d)
}

// Documents returns the documents generated for snapshotID, ordered by path.
func (s *Store) Documents(ctx context.Context, snapshotID string) ([]analysis.Document, error) {
	paths, err := s.list(ctx, snapshotID, documentsDir)
	if err != nil {
		return nil, err
	}
	out := make([]analysis.Document, 0, len(paths))
	for _, p := range paths {
		var d analysis.Document
		if err := s.getJSON(ctx, snapshotID, p, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) putJSON(ctx context.Context, namespace, p string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s.storeErr("put", p, err)
	}
	if err := s.blobs.Put(ctx, namespace, p, data); err != nil {
		return s.storeErr("put", namespace+"/"+p, err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, namespace, p string, v any) error {
	data, err := s.blobs.Get(ctx, namespace, p)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return err
		}
		return s.storeErr("get", namespace+"/"+p, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return s.storeErr("get", namespace+"/"+p, fmt.Errorf("decode: %w", err))
	}
	return nil
}

func (s *Store) list(ctx context.Context, namespace, dir string) ([]string, error) {
	paths, err := s.blobs.List(ctx, namespace)
	if err != nil {
		return nil, s.storeErr("list", namespace, err)
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.HasPrefix(p, dir) && strings.HasSuffix(p, ".json") {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *Store) storeErr(op, key string, cause error) error {
	return errors.NewStoreError(op, cause).WithKey(key).WithBackend(s.backend)
}

func analysisPath(id analysis.AnalyzerID) string {
	return analysisDir + string(id) + ".json"
}

// reportPath zero-pads the sequence so lexical order is run order.
func reportPath(seq uint64, runID string) string {
	return fmt.Sprintf("%s%012d-%s.json", reportsDir, seq, runID)
}

func documentPath(generator, p string) string {
	return documentsDir + generator + "/" + strings.TrimLeft(p, "/") + ".json"
}
