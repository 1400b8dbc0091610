package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/aminech33/newmars/scanner"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encode writes result in the given format.
func Encode(w io.Writer, result *scanner.AnalysisResult, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatFor picks the format from a destination's extension, defaulting to JSON.
func FormatFor(URL string) string {
	switch strings.ToLower(path.Ext(URL)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Publish encodes result and uploads it to URL (a local path, file://, mem://,
// or any other scheme registered with afs).
func Publish(ctx context.Context, fs afs.Service, URL string, result *scanner.AnalysisResult, format string) error {
	if format == "" {
		format = FormatFor(URL)
	}
	buf := &bytes.Buffer{}
	if err := Encode(buf, result, format); err != nil {
		return err
	}
	if err := fs.Upload(ctx, URL, 0644, buf); err != nil {
		return fmt.Errorf("failed to publish report to %s: %w", URL, err)
	}
	return nil
}
