package report

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/go-pdf/fpdf"
)

const (
	sectionImageWidth = 170.0
	pageImageWidth    = 190.0
)

// embeddable reports whether path is an image fpdf can place. Unreadable
// or unsupported files are skipped rather than failing the document.
func embeddable(path string) bool {
	if !fileExists(path) {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	_, _, err = image.DecodeConfig(f)
	return err == nil
}

// PDF writes a title page, the sections in order and then every entry of
// charts on a page of its own.
func (b *Builder) PDF(title string, sections []Section, charts []string) (*Report, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	imgOpts := fpdf.ImageOptions{ReadDpi: true}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 40, tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 10, "Generated on "+b.Clock.Now().Format(stampLayout), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	for _, s := range sections {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 12, tr(heading(s)), "", 1, "", false, 0, "")
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(s.Content), "", "", false)
		pdf.Ln(4)
		if embeddable(s.ChartPath) {
			pdf.ImageOptions(s.ChartPath, -1, 0, sectionImageWidth, 0, true, imgOpts, 0, "")
			pdf.Ln(5)
		}
	}

	for _, c := range charts {
		if !embeddable(c) {
			b.Logger.Debug("report chart skipped", "path", c)
			continue
		}
		pdf.AddPage()
		pdf.ImageOptions(c, 10, 20, pageImageWidth, 0, false, imgOpts, 0, "")
	}

	path, err := utils.ArtifactPath(b.OutputsDir, "report", ".pdf")
	if err != nil {
		return nil, errinfo.External(err, "prepare report file")
	}
	pages := pdf.PageCount()
	if err := pdf.OutputFileAndClose(path); err != nil {
		_ = os.Remove(path)
		return nil, errinfo.External(err, "write pdf report")
	}
	b.Logger.Debug("report written", "format", "pdf", "path", path, "pages", pages)
	return &Report{Path: path, Format: "pdf", Pages: pages}, nil
}
