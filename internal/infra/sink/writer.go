// Package sink delivers usage reports to their consumers.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"toolusage/internal/domain"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" or "json", case-insensitively. Empty means text.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", domain.E(domain.CodeInvalidArgument, "sink.format", fmt.Sprintf("unsupported format %q", value), nil)
	}
}

// WriterSink prints reports to an io.Writer.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
}

func NewWriterSink(w io.Writer, format Format) *WriterSink {
	if format == "" {
		format = FormatText
	}
	return &WriterSink{w: w, format: format}
}

func (s *WriterSink) Record(_ context.Context, report domain.UsageReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.format == FormatJSON {
		enc := json.NewEncoder(s.w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return writeText(s.w, report)
}

func writeText(w io.Writer, report domain.UsageReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "workspace: %s\n", report.Workspace)
	fmt.Fprintf(&b, "tools: %d\n", report.ToolCount)
	if report.CatalogFetchedAt != nil {
		fmt.Fprintf(&b, "catalog: %d plugins (fetched %s)\n", report.CatalogSize, report.CatalogFetchedAt.UTC().Format("2006-01-02T15:04:05Z"))
	} else {
		b.WriteString("catalog: unavailable\n")
	}
	for _, category := range report.Categories {
		fmt.Fprintf(&b, "\n%s (%s): %d\n", category.Name, category.GroupID, len(category.Usages))
		for _, id := range category.Usages.IDs() {
			fmt.Fprintf(&b, "  %s\n", id)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var _ domain.UsageSink = (*WriterSink)(nil)
