package dataset_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStringsInfersTypes(t *testing.T) {
	tb := mustTable(t,
		[]string{"id", "price", "ok", "when", "label", ""},
		[]string{"1", "2.5", "true", "2024-01-02", "a", "x"},
		[]string{"2", "1250.75", "False", "2024/01/03", "b"},
		[]string{"", "NA", "", "", "3"},
	)
	require.Equal(t, []dataset.ColumnType{
		dataset.TypeInteger, dataset.TypeFloat, dataset.TypeBoolean,
		dataset.TypeDatetime, dataset.TypeText, dataset.TypeText,
	}, tb.Types)
	assert.Equal(t, "Unnamed: 5", tb.Columns[5])

	f, ok := tb.Rows[1][1].Number()
	require.True(t, ok)
	assert.InDelta(t, 1250.75, f, 1e-9)
	assert.True(t, tb.Rows[2][0].IsNull())
	assert.True(t, tb.Rows[1][5].IsNull())
	assert.Equal(t, "3", tb.Rows[2][4].String())
	assert.Equal(t, "2024-01-03", tb.Rows[1][3].String())
}

func TestDateColumnsUseOneDayMonthOrder(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  []string
	}{
		{
			name:  "month first by default",
			cells: []string{"01/02/2024", "01/15/2024", "12/31/2024"},
			want:  []string{"2024-01-02", "2024-01-15", "2024-12-31"},
		},
		{
			name:  "day first when only that fits",
			cells: []string{"01/02/2024", "31/01/2024", "15/03/2024"},
			want:  []string{"2024-02-01", "2024-01-31", "2024-03-15"},
		},
		{
			name:  "iso cells mix with slash cells",
			cells: []string{"2024-05-06", "03/04/2024"},
			want:  []string{"2024-05-06", "2024-03-04"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rows := make([][]string, len(tc.cells))
			for i, c := range tc.cells {
				rows[i] = []string{c}
			}
			tb, err := dataset.FromStrings([]string{"when"}, rows)
			require.NoError(t, err)
			require.Equal(t, dataset.TypeDatetime, tb.Types[0])
			got := make([]string, len(tb.Rows))
			for i, r := range tb.Rows {
				got[i] = r[0].String()
			}
			assert.Equal(t, tc.want, got)
		})
	}

	tb := mustTable(t, []string{"when"}, []string{"13/13/2024"}, []string{"01/02/2024"})
	assert.Equal(t, dataset.TypeText, tb.Types[0], "no single order fits every cell")
}

func TestNumbersAreStrictDecimals(t *testing.T) {
	tb := mustTable(t,
		[]string{"grouped", "inf", "hex", "sci"},
		[]string{"1,234", "inf", "0x10", "1e3"},
		[]string{"5", "2", "3", "-2.5E-1"},
	)
	assert.Equal(t, []dataset.ColumnType{
		dataset.TypeText, dataset.TypeText, dataset.TypeText, dataset.TypeFloat,
	}, tb.Types)

	tb, err := dataset.FromFormatted(
		[]string{"pop", "price"},
		[][]string{{"709,000", "1,250.75"}, {"291,000", "12"}, {"42", "1,2"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []dataset.ColumnType{dataset.TypeInteger, dataset.TypeText}, tb.Types)
	n, ok := tb.Rows[0][0].Number()
	require.True(t, ok)
	assert.InDelta(t, 709000, n, 0)
}

func TestFromStringsRejectsWideRows(t *testing.T) {
	_, err := dataset.FromStrings([]string{"a"}, [][]string{{"1", "2"}})
	require.Error(t, err)
}

func TestDuplicateHeaders(t *testing.T) {
	tb := mustTable(t, []string{"a", "a", "a"}, []string{"1", "2", "3"})
	require.Equal(t, []string{"a", "a.1", "a.2"}, tb.Columns)
}

func TestCompareAndRecords(t *testing.T) {
	assert.Equal(t, -1, dataset.Compare(dataset.Int(2), dataset.Float(10)))
	assert.Equal(t, 1, dataset.Compare(dataset.Text("b"), dataset.Text("a")))
	assert.Equal(t, -1, dataset.Compare(dataset.Bool(false), dataset.Bool(true)))

	recs := dataset.Records([]string{"n", "s"}, [][]dataset.Value{{dataset.Int(1), dataset.Null()}})
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0]["n"])
	assert.Nil(t, recs[0]["s"])
}

func TestPreview(t *testing.T) {
	out := dataset.Preview(dataset.Sample(), 5)
	assert.Contains(t, out, "Salary")
	assert.Contains(t, out, "Eve")
	assert.NotContains(t, out, "Frank")
	assert.GreaterOrEqual(t, strings.Count(out, "\n"), 6)
}

func TestSample(t *testing.T) {
	tb := dataset.Sample()
	require.Equal(t, 20, tb.NumRows())
	require.Equal(t, 8, tb.NumCols())
	idx, ok := tb.Index("Rating")
	require.True(t, ok)
	require.Equal(t, dataset.TypeFloat, tb.Types[idx])
}
