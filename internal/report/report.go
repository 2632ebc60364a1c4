// Package report assembles section text and chart images into Markdown and
// PDF documents in the outputs directory.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/jonboulle/clockwork"
)

const (
	previewChars   = 1000
	stampLayout    = "2006-01-02 15:04:05"
	defaultHeading = "Section"
)

// Section is one titled block of a report.
type Section struct {
	Heading   string `json:"heading"`
	Content   string `json:"content"`
	ChartPath string `json:"chart_path,omitempty"`
}

// Report points at a written document.
type Report struct {
	Path    string `json:"report_path"`
	Format  string `json:"format"`
	Preview string `json:"report_preview,omitempty"`
	Pages   int    `json:"pages,omitempty"`
}

// Builder writes reports into OutputsDir, stamping them with Clock.
type Builder struct {
	OutputsDir string
	Clock      clockwork.Clock
	Logger     *slog.Logger
}

func NewBuilder(outputsDir string, clock clockwork.Clock, logger *slog.Logger) *Builder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{OutputsDir: outputsDir, Clock: clock, Logger: logger}
}

func heading(s Section) string {
	if strings.TrimSpace(s.Heading) == "" {
		return defaultHeading
	}
	return s.Heading
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// RenderMarkdown lays out a report: title, generation stamp, then each
// section separated by horizontal rules. Charts are linked only when the
// file exists.
func RenderMarkdown(title string, generated time.Time, sections []Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n*Generated on %s*\n\n---\n\n", title, generated.Format(stampLayout))
	for _, s := range sections {
		h := heading(s)
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", h, s.Content)
		if fileExists(s.ChartPath) {
			fmt.Fprintf(&b, "![%s](%s)\n\n", h, s.ChartPath)
		}
		b.WriteString("---\n\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Markdown writes the report to report_<id>.md.
func (b *Builder) Markdown(title string, sections []Section) (*Report, error) {
	md := RenderMarkdown(title, b.Clock.Now(), sections)
	path, err := utils.ArtifactPath(b.OutputsDir, "report", ".md")
	if err != nil {
		return nil, errinfo.External(err, "prepare report file")
	}
	if err := utils.SafeWriteFile(path, []byte(md)); err != nil {
		return nil, errinfo.External(err, "write report")
	}
	b.Logger.Debug("report written", "format", "markdown", "path", path, "sections", len(sections))
	return &Report{Path: path, Format: "markdown", Preview: truncate(md, previewChars)}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
