package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	pageContentChars = 5000
)

// Page is the result of ScrapeWebpage.
type Page struct {
	URL           string `json:"url"`
	Title         string `json:"title,omitempty"`
	ContentLength int    `json:"content_length"`
	Content       string `json:"content"`
}

func (l *Loader) get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errinfo.Invalid("invalid url %q: %v", url, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := l.HTTP.Do(req)
	if err != nil {
		return nil, errinfo.External(err, "request failed")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, errinfo.External(fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body))), "request failed")
	}
	return resp, nil
}

func (l *Loader) document(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := l.get(ctx, url, map[string]string{"User-Agent": browserUserAgent})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errinfo.External(err, "parse html")
	}
	return doc, nil
}

// ScrapeWebpage fetches url and returns its visible text. With a selector
// only matching elements contribute, one line each.
func (l *Loader) ScrapeWebpage(ctx context.Context, url, selector string) (*Page, error) {
	doc, err := l.document(ctx, url)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, nav, footer, header").Remove()

	var content string
	if selector != "" {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			return nil, errinfo.External(fmt.Errorf("No elements found matching selector: %s", selector), "")
		}
		parts := make([]string, 0, sel.Length())
		sel.Each(func(_ int, s *goquery.Selection) {
			parts = append(parts, textOf(s.Nodes, ""))
		})
		content = strings.Join(parts, "\n")
	} else {
		content = textOf(doc.Nodes, "\n")
	}
	content = truncateRunes(content, pageContentChars)
	return &Page{URL: url, Title: title, ContentLength: len([]rune(content)), Content: content}, nil
}

// textOf joins the trimmed, non-empty text nodes under nodes with sep.
func textOf(nodes []*html.Node, sep string) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		if n.Type == html.CommentNode {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}

// ScrapeTable parses the HTML table at index and registers it as a dataset,
// named web_table_<index> unless name is given.
func (l *Loader) ScrapeTable(ctx context.Context, store *dataset.Store, url string, index int, name string) (*Loaded, error) {
	if index < 0 {
		return nil, errinfo.Invalid("Table index must be zero or positive, got %d.", index)
	}
	doc, err := l.document(ctx, url)
	if err != nil {
		return nil, err
	}
	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, errinfo.NotFound("No tables found on the page.")
	}
	if index >= tables.Length() {
		return nil, errinfo.NotFound("Table index %d out of range. Found %d table(s).", index, tables.Length())
	}
	header, records := parseTable(tables.Eq(index))
	if len(header) == 0 && len(records) == 0 {
		return nil, errinfo.Invalid("Table %d has no rows.", index)
	}
	t, err := dataset.FromFormatted(widen(header, records), records)
	if err != nil {
		return nil, errinfo.Invalid("%v", err)
	}
	if name == "" {
		name = fmt.Sprintf("web_table_%d", index)
	}
	out := register(store, name, t)
	out.TablesFound = tables.Length()
	return out, nil
}

// parseTable reads rows that belong to tbl itself, not to nested tables.
// A leading row made only of <th> cells becomes the header; without one,
// columns are numbered.
func parseTable(tbl *goquery.Selection) (header []string, records [][]string) {
	rows := tbl.Find("tr").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Closest("table").IsSelection(tbl)
	})
	rows.Each(func(i int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("th, td")
		if cells.Length() == 0 {
			return
		}
		var vals []string
		cells.Each(func(_ int, c *goquery.Selection) {
			text := strings.Join(strings.Fields(c.Text()), " ")
			span, _ := strconv.Atoi(c.AttrOr("colspan", "1"))
			if span < 1 {
				span = 1
			}
			for k := 0; k < span; k++ {
				vals = append(vals, text)
			}
		})
		if header == nil && len(records) == 0 && tr.ChildrenFiltered("td").Length() == 0 {
			header = vals
			return
		}
		records = append(records, vals)
	})
	if header == nil {
		w := 0
		for _, r := range records {
			if len(r) > w {
				w = len(r)
			}
		}
		header = make([]string, w)
		for i := range header {
			header[i] = strconv.Itoa(i)
		}
	}
	return header, records
}
