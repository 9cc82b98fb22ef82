package analyzer

import (
	"github.com/spf13/afero"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/llm"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/registry"
)

// Options configures the built-in analyzers.
type Options struct {
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// Ignore holds glob patterns relative to the snapshot root.
	Ignore []string
	// LLM, when set, backs every analyzer with a model call.
	LLM llm.Client
}

// New returns the five built-in analyzers.
func New(opts Options) ([]registry.Analyzer, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	w, err := NewWalker(fs, opts.Ignore)
	if err != nil {
		return nil, err
	}

	local := []registry.Analyzer{
		NewStructure(w),
		NewDependency(w),
		NewDataFlow(w),
		NewRequestFlow(w),
		NewAPISurface(w),
	}
	if opts.LLM == nil {
		return local, nil
	}
	out := make([]registry.Analyzer, len(local))
	for i, a := range local {
		out[i] = WithLLM(a, opts.LLM)
	}
	return out, nil
}

// Defaults returns a registry holding the built-in analyzers.
func Defaults(opts Options) (*registry.Registry, error) {
	as, err := New(opts)
	if err != nil {
		return nil, err
	}
	return registry.New(as...)
}
