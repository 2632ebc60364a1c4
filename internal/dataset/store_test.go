package dataset_test

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, header []string, rows ...[]string) *dataset.Table {
	t.Helper()
	tb, err := dataset.FromStrings(header, rows)
	require.NoError(t, err)
	return tb
}

func TestResolveRules(t *testing.T) {
	s := dataset.NewStore()

	_, err := s.Resolve("x")
	require.ErrorIs(t, err, dataset.ErrNotFound)
	require.Equal(t, errinfo.CodeNotFound, errinfo.CodeOf(err))

	a := mustTable(t, []string{"v"}, []string{"1"})
	s.Put("A", a)
	ds, err := s.Resolve("anything")
	require.NoError(t, err)
	require.Equal(t, "A", ds.Name)
	require.Same(t, a, ds.Table)

	b := mustTable(t, []string{"v"}, []string{"2"})
	s.Put("B", b)
	_, err = s.Resolve("unknown")
	var nf *dataset.NotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, []string{"A", "B"}, nf.Loaded)
	require.Contains(t, err.Error(), "A, B")

	ds, err = s.Resolve("A")
	require.NoError(t, err)
	require.Same(t, a, ds.Table)
}

func TestPutLastWriteWins(t *testing.T) {
	s := dataset.NewStore()
	first := mustTable(t, []string{"v"}, []string{"1"})
	second := mustTable(t, []string{"v", "w"}, []string{"3", "x"}, []string{"4", "y"})
	s.Put("sales", first)
	s.Put("other", first)
	meta := s.Put("sales", second)

	require.Equal(t, 2, meta.RowCount)
	require.Equal(t, []string{"sales", "other"}, s.Names())
	ds, err := s.Resolve("sales")
	require.NoError(t, err)
	require.Same(t, second, ds.Table)
	require.Equal(t, meta, ds.Meta)
}

func TestColumnsOfAndClear(t *testing.T) {
	s := dataset.NewStore()
	s.Put("emp", dataset.Sample())

	cols, ok := s.ColumnsOf("emp")
	require.True(t, ok)
	want := dataset.Columns{
		Numeric:     []string{"Age", "Salary", "Experience_Years", "Rating"},
		Categorical: []string{"Name", "City", "Department"},
		Datetime:    []string{"Join_Date"},
		All:         []string{"Name", "Age", "City", "Department", "Salary", "Experience_Years", "Rating", "Join_Date"},
	}
	if diff := cmp.Diff(want, cols); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}

	// A lone dataset answers to any name, the same as Resolve.
	fallback, ok := s.ColumnsOf("nope")
	require.True(t, ok)
	require.Equal(t, want, fallback)

	s.Put("other", dataset.Sample())
	_, ok = s.ColumnsOf("nope")
	require.False(t, ok)
	_, ok = s.ColumnsOf("other")
	require.True(t, ok)

	s.Clear()
	require.Empty(t, s.Names())
	_, err := s.Resolve("emp")
	require.ErrorIs(t, err, dataset.ErrNotFound)
}
