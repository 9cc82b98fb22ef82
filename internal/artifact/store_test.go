package artifact

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/artifact/blob"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

func newArtifact(id analysis.AnalyzerID, snap string, seq uint64, body string) analysis.Artifact {
	return analysis.Artifact{
		AnalyzerID:  id,
		SnapshotID:  snap,
		Content:     analysis.Content{Format: analysis.FormatMarkdown, Body: body},
		LogicalTime: seq,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ConfigHash:  "abc",
	}
}

func TestStore_PutGetOverwrite(t *testing.T) {
	ctx := context.Background()
	s := New(blob.NewMemoryStore())

	_, err := s.Get(ctx, "repo@1", analysis.Structure)
	require.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, s.Put(ctx, newArtifact(analysis.Structure, "repo@1", 1, "first")))
	require.NoError(t, s.Put(ctx, newArtifact(analysis.Structure, "repo@1", 2, "second")))

	got, err := s.Get(ctx, "repo@1", analysis.Structure)
	require.NoError(t, err)
	require.Equal(t, "second", got.Content.Body)
	require.Equal(t, uint64(2), got.LogicalTime)

	list, err := s.List(ctx, "repo@1")
	require.NoError(t, err)
	require.Len(t, list, 1, "re-run must not duplicate the artifact")
}

func TestStore_ListBySnapshot(t *testing.T) {
	ctx := context.Background()
	s := New(blob.NewMemoryStore())

	for _, id := range []analysis.AnalyzerID{analysis.Structure, analysis.APISurface, analysis.Dependency} {
		require.NoError(t, s.Put(ctx, newArtifact(id, "repo@1", 1, string(id))))
	}
	require.NoError(t, s.Put(ctx, newArtifact(analysis.Structure, "repo@2", 1, "other")))
	require.NoError(t, s.PutReport(ctx, &analysis.ExecutionReport{RunID: "r1", SnapshotID: "repo@1", Sequence: 1}))

	list, err := s.List(ctx, "repo@1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, analysis.APISurface, list[0].AnalyzerID)
	require.Equal(t, analysis.Dependency, list[1].AnalyzerID)
	require.Equal(t, analysis.Structure, list[2].AnalyzerID)
}

func TestStore_PutRejectsInvalid(t *testing.T) {
	s := New(blob.NewMemoryStore())
	err := s.Put(context.Background(), analysis.Artifact{AnalyzerID: analysis.Structure})
	require.Error(t, err)
	require.Equal(t, errors.KindStoreWrite, errors.KindOf(err))
}

type failingBlobs struct{ *blob.MemoryStore }

func (failingBlobs) Put(context.Context, string, string, []byte) error {
	return fmt.Errorf("disk full")
}

func TestStore_PutFailureIsStoreWriteError(t *testing.T) {
	s := New(failingBlobs{blob.NewMemoryStore()})
	err := s.Put(context.Background(), newArtifact(analysis.Structure, "repo", 1, "x"))
	require.ErrorIs(t, err, errors.ErrStoreWrite)
	require.True(t, errors.IsRetryable(err))
	require.Contains(t, err.Error(), "repo/analysis/structure.json")
}

func TestStore_Reports(t *testing.T) {
	ctx := context.Background()
	s := New(blob.NewMemoryStore())

	_, err := s.LatestReport(ctx, "repo")
	require.ErrorIs(t, err, errors.ErrNotFound)

	seq, err := s.NextSequence(ctx, "repo")
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq)

	for i := uint64(1); i <= 11; i++ {
		require.NoError(t, s.PutReport(ctx, &analysis.ExecutionReport{
			RunID:      fmt.Sprintf("run-%d", i),
			SnapshotID: "repo",
			Sequence:   i,
		}))
	}

	latest, err := s.LatestReport(ctx, "repo")
	require.NoError(t, err)
	require.Equal(t, uint64(11), latest.Sequence, "sequence ordering must not be lexical on unpadded numbers")

	seq, err = s.NextSequence(ctx, "repo")
	require.NoError(t, err)
	require.Equal(t, uint64(12), seq)

	r, err := s.Report(ctx, "repo", "run-3")
	require.NoError(t, err)
	require.Equal(t, uint64(3), r.Sequence)

	_, err = s.Report(ctx, "repo", "run-99")
	require.ErrorIs(t, err, errors.ErrNotFound)

	all, err := s.Reports(ctx, "repo")
	require.NoError(t, err)
	require.Len(t, all, 11)
	require.Equal(t, "run-1", all[0].RunID)

	require.Error(t, s.PutReport(ctx, &analysis.ExecutionReport{SnapshotID: "repo"}))
}

func TestStore_Documents(t *testing.T) {
	ctx := context.Background()
	s := New(blob.NewDiskStore(afero.NewMemMapFs(), "/store"))

	docs := []analysis.Document{
		{Generator: "rules", Path: "CLAUDE.md", SnapshotID: "repo", Body: "# Rules"},
		{Generator: "readme", Path: "README.md", SnapshotID: "repo", Body: "# Readme", Missing: []analysis.AnalyzerID{analysis.DataFlow}},
		{Generator: "rules", Path: ".cursor/rules/project.mdc", SnapshotID: "repo", Body: "---"},
	}
	for _, d := range docs {
		require.NoError(t, s.PutDocument(ctx, d))
	}

	got, err := s.Documents(ctx, "repo")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "README.md", got[0].Path)
	require.Equal(t, []analysis.AnalyzerID{analysis.DataFlow}, got[0].Missing)

	require.Error(t, s.PutDocument(ctx, analysis.Document{Generator: "readme", SnapshotID: "repo"}))
}

func TestExport(t *testing.T) {
	fs := afero.NewMemMapFs()

	a := newArtifact(analysis.Structure, "repo", 1, "# Structure")
	path, err := Export(fs, "/repo/.ai/docs", a)
	require.NoError(t, err)
	require.Equal(t, "/repo/.ai/docs/structure.md", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	require.Equal(t, "# Structure\n", string(data))

	j := newArtifact(analysis.Dependency, "repo", 1, `{"a":1}`)
	j.Content.Format = analysis.FormatJSON
	path, err = Export(fs, "/repo/.ai/docs", j)
	require.NoError(t, err)
	data, err = afero.ReadFile(fs, path)
	require.NoError(t, err)
	require.Equal(t, "```json\n{\"a\":1}\n```\n", string(data))
}
