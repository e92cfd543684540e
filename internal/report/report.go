// Package report writes generated documents and usage reports to disk.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"docforge/internal/ledger"
)

// WriteDocumentFile writes the assembled markdown document and returns
// its path.
func WriteDocumentFile(content, outputDir, documentTitle string, date time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s.md", sanitizeFilename(documentTitle), date.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(content), 0644)
}

// WriteUsageFile renders the ledger summary and optimization report next
// to the document.
func WriteUsageFile(sum ledger.Summary, rep ledger.Report, outputDir, documentTitle string, date time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s_usage.md", sanitizeFilename(documentTitle), date.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(FormatUsage(documentTitle, sum, rep)), 0644)
}

// FormatUsage renders the run accounting as markdown.
func FormatUsage(documentTitle string, sum ledger.Summary, rep ledger.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Usage report: %s\n\n", documentTitle)
	fmt.Fprintf(&b, "Elapsed: %.1fs\n\n", sum.ElapsedSeconds)

	fmt.Fprintf(&b, "## Writers\n\n")
	fmt.Fprintf(&b, "- sections: %d\n", sum.Writer.SectionCount)
	if len(sum.Writer.Models) > 0 {
		models := make([]string, len(sum.Writer.Models))
		for i, m := range sum.Writer.Models {
			models[i] = string(m)
		}
		fmt.Fprintf(&b, "- models: %s\n", strings.Join(models, ", "))
	}
	fmt.Fprintf(&b, "- tokens: %d in / %d out\n", sum.Writer.InputTokens, sum.Writer.OutputTokens)
	fmt.Fprintf(&b, "- cost: %s\n\n", ledger.FormatUSD(sum.Writer.Cost))

	writeRole(&b, "Architect", sum.Architect)
	writeRole(&b, "Image curator", sum.ImageCurator)
	writeRole(&b, "Reviewer", sum.Reviewer)

	fmt.Fprintf(&b, "## Total\n\n")
	fmt.Fprintf(&b, "- tokens: %d in / %d out\n", sum.Total.InputTokens, sum.Total.OutputTokens)
	fmt.Fprintf(&b, "- cost: %s\n\n", ledger.FormatUSD(sum.Total.Cost))

	fmt.Fprintf(&b, "## Optimization\n\n")
	for _, s := range rep.Suggestions {
		fmt.Fprintf(&b, "- [%s] %s\n", s.Kind, s.Message)
	}
	return b.String()
}

func writeRole(b *strings.Builder, name string, role ledger.RoleSummary) {
	if role.TotalTokens == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", name)
	fmt.Fprintf(b, "- model: %s\n", role.Model)
	fmt.Fprintf(b, "- tokens: %d in / %d out\n", role.InputTokens, role.OutputTokens)
	fmt.Fprintf(b, "- cost: %s\n\n", ledger.FormatUSD(role.Cost))
}

var filenameSanitizer = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

func sanitizeFilename(s string) string {
	s = filenameSanitizer.ReplaceAllString(strings.TrimSpace(s), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "document"
	}
	return s
}
