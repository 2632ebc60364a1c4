package ingest

import (
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/ledongthuc/pdf"
)

const pdfPreviewChars = 2000

// PageText is the extracted text of one page; empty when the page had none.
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// PDFText is the result of ExtractPDFText.
type PDFText struct {
	Filename    string     `json:"filename"`
	TotalPages  int        `json:"total_pages"`
	Pages       []PageText `json:"-"`
	TextPreview string     `json:"text_preview"`
	FullText    string     `json:"full_text"`
}

// ExtractPDFText pulls plain text from every page. Pages without text are
// kept as empty entries but left out of the joined text.
func (l *Loader) ExtractPDFText(path string) (*PDFText, error) {
	path, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, errinfo.External(err, "open pdf")
	}
	defer f.Close()

	n := r.NumPage()
	out := &PDFText{Filename: filepath.Base(path), TotalPages: n, Pages: make([]PageText, 0, n)}
	var parts []string
	for i := 1; i <= n; i++ {
		pt := PageText{Page: i}
		p := r.Page(i)
		if !p.V.IsNull() {
			text, err := p.GetPlainText(nil)
			if err != nil {
				l.Logger.Warn("pdf page text", "file", out.Filename, "page", i, "err", err)
			}
			pt.Text = strings.TrimSpace(text)
		}
		out.Pages = append(out.Pages, pt)
		if pt.Text != "" {
			parts = append(parts, pt.Text)
		}
	}
	out.FullText = strings.Join(parts, "\n\n")
	out.TextPreview = truncateRunes(out.FullText, pdfPreviewChars)
	return out, nil
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
