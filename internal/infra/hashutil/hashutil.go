// Package hashutil computes content hashes used for change detection.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"toolusage/internal/domain"
)

type reportContent struct {
	Workspace   string                 `json:"workspace"`
	CatalogSize int                    `json:"catalogSize"`
	ToolCount   int                    `json:"toolCount"`
	Categories  []domain.CategoryUsage `json:"categories"`
}

// ReportETag hashes the classification content of a report. Run ids and timestamps
// are excluded, so two runs with identical results share an ETag. Failures are
// logged and yield "".
func ReportETag(logger *zap.Logger, report domain.UsageReport) string {
	return hashWithLogger(logger, "report", func() (string, error) {
		return hashJSON(reportContent{
			Workspace:   report.Workspace,
			CatalogSize: report.CatalogSize,
			ToolCount:   report.ToolCount,
			Categories:  report.Categories,
		})
	})
}

// CatalogETag hashes a sorted id list.
func CatalogETag(logger *zap.Logger, ids []string) string {
	return hashWithLogger(logger, "catalog", func() (string, error) {
		return hashJSON(ids)
	})
}

func hashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func hashWithLogger(logger *zap.Logger, label string, fn func() (string, error)) string {
	etag, err := fn()
	if err != nil {
		if logger != nil {
			logger.Warn(fmt.Sprintf("%s hash failed", label), zap.Error(err))
		}
		return ""
	}
	return etag
}
