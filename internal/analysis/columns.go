package analysis

import (
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
)

// MinSamples is the smallest number of paired observations correlation and
// trend accept.
const MinSamples = 3

// ColumnIndex finds name in t or returns a not-found error listing the
// available columns.
func ColumnIndex(t *dataset.Table, name string) (int, error) {
	if i, ok := t.Index(name); ok {
		return i, nil
	}
	return -1, errinfo.NotFound("Column '%s' not found. Available: %s", name, strings.Join(t.Columns, ", "))
}

// NumericIndex is ColumnIndex restricted to integer and float columns.
func NumericIndex(t *dataset.Table, name string) (int, error) {
	i, err := ColumnIndex(t, name)
	if err != nil {
		return -1, err
	}
	if !t.Types[i].IsNumeric() {
		return -1, errinfo.Invalid("Column '%s' is not numeric (type %s).", name, t.Types[i])
	}
	return i, nil
}
