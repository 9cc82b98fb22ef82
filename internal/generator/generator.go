// Package generator turns an AnalysisContext into repository documents: a
// README and rule files for AI coding assistants. Generators only read the
// context; a missing analysis degrades a document, it never fails it.
package generator

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/contextbuilder"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
)

// Generator names.
const (
	KindReadme = "readme"
	KindRules  = "rules"
)

// Kinds returns the generator names in the order `generate` runs them.
func Kinds() []string { return []string{KindReadme, KindRules} }

// Generator produces documents from analysis results.
type Generator interface {
	// Name is one of the Kind constants.
	Name() string
	// Required lists the analyzers whose artifacts the generator reads.
	Required() []analysis.AnalyzerID
	// Generate renders documents. Paths are relative to snap.Root.
	Generate(ctx context.Context, ac *contextbuilder.AnalysisContext, snap analysis.Snapshot) ([]analysis.Document, error)
}

// DocumentStore records generated documents.
type DocumentStore interface {
	PutDocument(ctx context.Context, d analysis.Document) error
}

// Observer receives document events.
type Observer interface {
	Publish(e event.Event)
}

// Writer persists documents to the repository and to the artifact store.
type Writer struct {
	fs       afero.Fs
	store    DocumentStore
	observer Observer
	logger   *logging.Logger
	now      func() time.Time
}

// NewWriter creates a Writer. store and observer may be nil.
func NewWriter(fs afero.Fs, store DocumentStore, observer Observer, logger *logging.Logger) *Writer {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Writer{fs: fs, store: store, observer: observer, logger: logger, now: time.Now}
}

// Write stores each document. Skipped documents are recorded but their files
// are left untouched. The first file error stops the write.
func (w *Writer) Write(ctx context.Context, snap analysis.Snapshot, docs []analysis.Document) error {
	log := w.logger.WithPhase("generate")
	for i := range docs {
		d := &docs[i]
		if err := ctx.Err(); err != nil {
			return err
		}
		d.SnapshotID = snap.Identity()
		if d.CreatedAt.IsZero() {
			d.CreatedAt = w.now()
		}

		if !d.Skipped {
			target := filepath.Join(snap.Root, filepath.FromSlash(d.Path))
			if err := w.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(err, "failed to create directory for %s", d.Path)
			}
			if err := afero.WriteFile(w.fs, target, []byte(d.Body), 0o644); err != nil {
				return errors.Wrapf(err, "failed to write %s", d.Path)
			}
		}

		if w.store != nil {
			if err := w.store.PutDocument(ctx, *d); err != nil {
				log.Warn("failed to record document", "path", d.Path, "error", err)
			}
		}
		if w.observer != nil {
			w.observer.Publish(event.NewDocumentGeneratedEvent(d.Generator, d.Path, d.Missing, d.Skipped))
		}
		log.Info("document generated", "generator", d.Generator, "path", d.Path,
			"skipped", d.Skipped, "missing", analysis.IDStrings(d.Missing))
	}
	return nil
}

// Run builds the context each generator needs, renders its documents and
// writes them. It returns every document produced, including skipped ones.
func Run(ctx context.Context, b *contextbuilder.Builder, w *Writer, snap analysis.Snapshot, gens ...Generator) ([]analysis.Document, error) {
	var all []analysis.Document
	for _, g := range gens {
		ac, err := b.Build(ctx, g.Required(), snap.Identity())
		if err != nil {
			return all, errors.Wrapf(err, "%s: failed to build analysis context", g.Name())
		}
		docs, err := g.Generate(ctx, ac, snap)
		if err != nil {
			return all, errors.Wrapf(err, "%s: generation failed", g.Name())
		}
		if err := w.Write(ctx, snap, docs); err != nil {
			return all, err
		}
		all = append(all, docs...)
	}
	return all, nil
}
