package artifact

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
)

// Export writes a's content to dir/<analyzer>.md and returns the path.
// JSON content is fenced so the file still renders as Markdown.
func Export(fs afero.Fs, dir string, a analysis.Artifact) (string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create docs directory: %w", err)
	}
	path := filepath.Join(dir, string(a.AnalyzerID)+".md")

	body := a.Content.Body
	if a.Content.Format == analysis.FormatJSON {
		body = "```json\n" + strings.TrimRight(body, "\n") + "\n```\n"
	}
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	if err := afero.WriteFile(fs, path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
