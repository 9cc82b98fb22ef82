package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
)

func TestUniverse_Sorted(t *testing.T) {
	got := Universe()
	want := []AnalyzerID{APISurface, DataFlow, Dependency, RequestFlow, Structure}
	if len(got) != len(want) {
		t.Fatalf("Universe() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Universe()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want AnalyzerID
	}{
		{"structure", Structure},
		{"  Code_Structure ", Structure},
		{"dependencies", Dependency},
		{"DATA_FLOW", DataFlow},
		{"requestflow", RequestFlow},
		{"api", APISurface},
		{"custom-thing", AnalyzerID("custom-thing")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveSnapshot(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]string
		wantCommit string
	}{
		{
			name:       "not a git checkout",
			files:      map[string]string{"/repo/main.go": "package main"},
			wantCommit: "",
		},
		{
			name:       "detached head",
			files:      map[string]string{"/repo/.git/HEAD": "0123456789abcdef0123\n"},
			wantCommit: "0123456789abcdef0123",
		},
		{
			name: "loose ref",
			files: map[string]string{
				"/repo/.git/HEAD":            "ref: refs/heads/main\n",
				"/repo/.git/refs/heads/main": "aaaabbbbccccdddd\n",
			},
			wantCommit: "aaaabbbbccccdddd",
		},
		{
			name: "packed ref",
			files: map[string]string{
				"/repo/.git/HEAD":        "ref: refs/heads/main\n",
				"/repo/.git/packed-refs": "# pack-refs with: peeled\nffffeeee refs/heads/main\n",
			},
			wantCommit: "ffffeeee",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			for path, body := range tt.files {
				if err := afero.WriteFile(fs, path, []byte(body), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			snap, err := ResolveSnapshot(fs, "/repo")
			if err != nil {
				t.Fatalf("ResolveSnapshot() error = %v", err)
			}
			if snap.Commit != tt.wantCommit {
				t.Errorf("Commit = %q, want %q", snap.Commit, tt.wantCommit)
			}
			if !strings.HasPrefix(snap.ID, "repo-") {
				t.Errorf("ID = %q, want repo- prefix", snap.ID)
			}
			if err := ValidateSnapshot(fs, snap); err != nil {
				t.Errorf("ValidateSnapshot() error = %v", err)
			}
		})
	}
}

func TestSnapshot_IdentityStable(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("/work/app", 0o755)

	a, _ := ResolveSnapshot(fs, "/work/app")
	b, _ := ResolveSnapshot(fs, "/work/app/")
	if a.Identity() != b.Identity() {
		t.Errorf("Identity() differs for equivalent roots: %q vs %q", a.Identity(), b.Identity())
	}

	withCommit := Snapshot{ID: "app-1", Commit: "0123456789abcdef"}
	if got := withCommit.Identity(); got != "app-1@0123456789ab" {
		t.Errorf("Identity() = %q", got)
	}
}

func TestValidateSnapshot(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/file.txt", []byte("x"), 0o644)
	_ = fs.MkdirAll("/dir", 0o755)

	tests := []struct {
		name    string
		snap    Snapshot
		wantErr bool
	}{
		{"valid", Snapshot{Root: "/dir", ID: "dir"}, false},
		{"empty root", Snapshot{ID: "x"}, true},
		{"empty id", Snapshot{Root: "/dir"}, true},
		{"missing", Snapshot{Root: "/nope", ID: "x"}, true},
		{"file", Snapshot{Root: "/file.txt", ID: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSnapshot(fs, tt.snap)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSnapshot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrInvalidSnapshot) {
				t.Errorf("error %v does not wrap ErrInvalidSnapshot", err)
			}
		})
	}

	if _, err := ResolveSnapshot(fs, ""); !errors.Is(err, errors.ErrInvalidSnapshot) {
		t.Errorf("ResolveSnapshot(\"\") error = %v, want ErrInvalidSnapshot", err)
	}
}

func TestTaskConfig_Merge(t *testing.T) {
	base := TaskConfig{
		Model:       "gemini-2.5-flash",
		DetailLevel: DetailStandard,
		MaxTokens:   4096,
		Temperature: 0.2,
		Options:     map[string]string{"a": "1"},
	}
	merged := base.Merge(TaskConfig{MaxTokens: 8192, Timeout: time.Minute, Options: map[string]string{"b": "2"}})

	if merged.Model != "gemini-2.5-flash" || merged.MaxTokens != 8192 || merged.Timeout != time.Minute {
		t.Errorf("Merge() = %+v", merged)
	}
	if merged.Option("a", "") != "1" || merged.Option("b", "") != "2" {
		t.Errorf("Merge() options = %v", merged.Options)
	}
	if _, ok := base.Options["b"]; ok {
		t.Error("Merge() mutated the receiver's options")
	}
}

func TestTaskConfig_Hash(t *testing.T) {
	a := TaskConfig{Model: "m", Options: map[string]string{"x": "1", "y": "2"}}
	b := TaskConfig{Model: "m", Options: map[string]string{"y": "2", "x": "1"}}
	if a.Hash() != b.Hash() {
		t.Error("Hash() depends on map insertion order")
	}
	if a.Hash() == (TaskConfig{Model: "n"}).Hash() {
		t.Error("Hash() collided for different configs")
	}
	if len(a.Hash()) != 16 {
		t.Errorf("Hash() length = %d, want 16", len(a.Hash()))
	}
}

func TestNewFailure(t *testing.T) {
	f := NewFailure(Structure, errors.NewTimeoutError("structure", time.Second))
	if f.Kind != errors.KindTimeout || !f.Retriable {
		t.Errorf("NewFailure(timeout) = %+v", f)
	}

	f = NewFailure(Dependency, errors.New("bad manifest"))
	if f.Kind != errors.KindAnalyzer || f.Retriable {
		t.Errorf("NewFailure(plain) = %+v", f)
	}
}

func TestExecutionReport(t *testing.T) {
	r := &ExecutionReport{
		RequestedTasks: Universe(),
		ActiveTasks:    []AnalyzerID{APISurface, Dependency, RequestFlow, Structure},
		Outcomes: map[AnalyzerID]Outcome{
			APISurface:  Succeeded(Artifact{AnalyzerID: APISurface, SnapshotID: "s"}),
			Dependency:  Succeeded(Artifact{AnalyzerID: Dependency, SnapshotID: "s"}),
			RequestFlow: Failed(Failure{AnalyzerID: RequestFlow, Kind: errors.KindAnalyzer, Message: "x"}),
			Structure:   Succeeded(Artifact{AnalyzerID: Structure, SnapshotID: "s"}),
			DataFlow:    Skipped(ReasonExcluded),
		},
	}

	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	s, f, k := r.Counts()
	if s != 3 || f != 1 || k != 1 {
		t.Errorf("Counts() = %d/%d/%d, want 3/1/1", s, f, k)
	}
	if got := r.Skipped(); len(got) != 1 || got[0] != DataFlow {
		t.Errorf("Skipped() = %v", got)
	}

	delete(r.Outcomes, DataFlow)
	if err := r.Validate(); err == nil {
		t.Error("Validate() accepted a report missing an outcome")
	}

	r.Outcomes[DataFlow] = Outcome{Status: StatusSkipped}
	if err := r.Validate(); err == nil {
		t.Error("Validate() accepted a skipped outcome without a reason")
	}
}
