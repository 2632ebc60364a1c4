package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/xuri/excelize/v2"
)

// TabularRequest asks LoadTabular to read one file.
type TabularRequest struct {
	Path string
	// Format is "csv", "tsv" or "excel"; empty picks by extension.
	Format string
	// Name overrides the default dataset name.
	Name string
	// Sheet selects an Excel worksheet; empty reads the first one.
	Sheet string
}

// tableReader reads one tabular file format.
type tableReader interface {
	Format() string
	CanRead(filename string) bool
	Read(path string, req TabularRequest) (*dataset.Table, readInfo, error)
}

// readInfo carries format-specific details back to LoadTabular.
type readInfo struct {
	name   string
	sheets []string
}

var readers []tableReader

func registerReader(r tableReader) { readers = append(readers, r) }

func init() {
	registerReader(csvReader{})
	registerReader(excelReader{})
}

// ErrLegacyExcel rejects BIFF .xls workbooks, which excelize cannot open.
var ErrLegacyExcel = errinfo.Invalid("Legacy .xls workbooks are not supported. Save the file as .xlsx and load it again.")

func pickReader(path, format string) (tableReader, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "xls" || strings.EqualFold(filepath.Ext(path), ".xls") {
		return nil, ErrLegacyExcel
	}
	switch f {
	case "xlsx", "xlsm":
		f = "excel"
	case "tsv":
		f = "csv"
	}
	var names []string
	for _, r := range readers {
		names = append(names, r.Format())
		if f == "" && r.CanRead(path) || f != "" && r.Format() == f {
			return r, nil
		}
	}
	if f == "" {
		return nil, errinfo.Invalid("Unsupported file type %q. Supported formats: %s", filepath.Ext(path), strings.Join(names, ", "))
	}
	return nil, errinfo.Invalid("Unsupported format %q. Supported formats: %s", format, strings.Join(names, ", "))
}

// LoadTabular parses a CSV or Excel file and registers it in store. The
// store is only touched once the whole file parsed successfully.
func (l *Loader) LoadTabular(store *dataset.Store, req TabularRequest) (*Loaded, error) {
	path, err := l.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	r, err := pickReader(path, req.Format)
	if err != nil {
		return nil, err
	}
	t, info, err := r.Read(path, req)
	if err != nil {
		return nil, err
	}
	name := req.Name
	if name == "" {
		name = info.name
	}
	out := register(store, name, t)
	out.Sheets = info.sheets
	l.Logger.Debug("dataset loaded", "dataset", name, "format", r.Format(), "rows", out.Rows, "cols", len(out.Columns))
	return out, nil
}

type csvReader struct{}

func (csvReader) Format() string { return "csv" }

func (csvReader) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (csvReader) Read(path string, _ TabularRequest) (*dataset.Table, readInfo, error) {
	info := readInfo{name: baseName(path)}
	f, err := os.Open(path)
	if err != nil {
		return nil, info, errinfo.External(err, "open csv")
	}
	defer f.Close()
	t, err := readCSV(f, sniffDelimiter(path))
	return t, info, err
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func readCSV(rd io.Reader, delim rune) (*dataset.Table, error) {
	r := csv.NewReader(rd)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errinfo.Invalid("No columns to parse from file.")
		}
		return nil, errinfo.Invalid("read header: %v", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	header = append([]string(nil), header...)
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errinfo.Invalid("read row %d: %v", len(records)+1, err)
		}
		records = append(records, rec)
	}
	t, err := dataset.FromStrings(header, records)
	if err != nil {
		return nil, errinfo.Invalid("%v", err)
	}
	return t, nil
}

type excelReader struct{}

func (excelReader) Format() string { return "excel" }

func (excelReader) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

func (excelReader) Read(path string, req TabularRequest) (*dataset.Table, readInfo, error) {
	info := readInfo{name: baseName(path)}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, info, errinfo.External(err, "open workbook")
	}
	defer f.Close()

	info.sheets = f.GetSheetList()
	if len(info.sheets) == 0 {
		return nil, info, errinfo.Invalid("Workbook %s has no worksheets.", filepath.Base(path))
	}
	sheet := info.sheets[0]
	if req.Sheet != "" {
		found := false
		for _, s := range info.sheets {
			if s == req.Sheet {
				found = true
				break
			}
		}
		if !found {
			return nil, info, errinfo.NotFound("Worksheet named '%s' not found. Available: %s", req.Sheet, strings.Join(info.sheets, ", "))
		}
		sheet = req.Sheet
		info.name = fmt.Sprintf("%s_%s", info.name, req.Sheet)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, info, errinfo.External(err, "read sheet %s", sheet)
	}
	if len(rows) == 0 {
		return nil, info, errinfo.Invalid("Worksheet '%s' is empty.", sheet)
	}
	t, err := dataset.FromFormatted(widen(rows[0], rows[1:]), rows[1:])
	if err != nil {
		return nil, info, errinfo.Invalid("%v", err)
	}
	return t, info, nil
}

// widen pads a header so it is at least as wide as the widest record, for
// sources that omit empty trailing header cells.
func widen(header []string, records [][]string) []string {
	w := len(header)
	for _, r := range records {
		if len(r) > w {
			w = len(r)
		}
	}
	out := make([]string, w)
	copy(out, header)
	return out
}
