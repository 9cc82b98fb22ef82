// Package analyzer implements the built-in repository analyzers.
//
// Each analyzer walks the snapshot through an afero.Fs, skipping paths that
// match the configured ignore globs, and produces a Markdown report of what
// it found. The local analyzers are deterministic and need no network. When
// a model client is configured, WithLLM wraps an analyzer so its findings
// are handed to the model as grounding for a written analysis.
//
// The detail level in the task configuration bounds how much each analyzer
// reports: minimal, standard, or comprehensive.
package analyzer
