package dataset

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the type inferred for a column at ingestion.
type ColumnType string

const (
	TypeInteger  ColumnType = "integer"
	TypeFloat    ColumnType = "float"
	TypeBoolean  ColumnType = "boolean"
	TypeDatetime ColumnType = "datetime"
	TypeText     ColumnType = "text"
)

// IsNumeric reports whether the column holds numbers.
func (c ColumnType) IsNumeric() bool { return c == TypeInteger || c == TypeFloat }

var nullTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "#n/a": {}, "-nan": {}, "<na>": {},
}

func isNullToken(s string) bool {
	_, ok := nullTokens[strings.ToLower(s)]
	return ok
}

var (
	isoLayouts = []string{
		time.RFC3339, "2006-01-02", "2006/01/02",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05",
	}
	monthFirstLayouts = []string{"1/2/2006", "1/2/2006 15:04", "1/2/2006 15:04:05", "01-02-06", "1/2/06"}
	dayFirstLayouts   = []string{"2/1/2006", "2/1/2006 15:04", "2/1/2006 15:04:05", "02-01-06", "2/1/06"}
)

// ParseTime tries the layouts commonly found in spreadsheets and CSV
// exports. Slash dates are read month first unless only day first fits.
func ParseTime(s string) (time.Time, bool) {
	if t, ok := parseTimeOrder(s, false); ok {
		return t, true
	}
	return parseTimeOrder(s, true)
}

func parseTimeOrder(s string, dayFirst bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	layouts := monthFirstLayouts
	if dayFirst {
		layouts = dayFirstLayouts
	}
	for _, ls := range [][]string{isoLayouts, layouts} {
		for _, l := range ls {
			if t, err := time.Parse(l, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

var (
	intPattern          = regexp.MustCompile(`^[+-]?\d+$`)
	floatPattern        = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	groupedIntPattern   = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+$`)
	groupedFloatPattern = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)
)

// inferOptions varies how cell text is read by source.
type inferOptions struct {
	// thousands accepts comma-grouped numbers ("12,500.75"), as found in
	// rendered HTML tables and formatted spreadsheet cells.
	thousands bool
}

func (o inferOptions) parseInt(s string) (int64, bool) {
	switch {
	case intPattern.MatchString(s):
	case o.thousands && groupedIntPattern.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	default:
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

// parseNumber accepts decimal notation only: no hex, no infinities.
func (o inferOptions) parseNumber(s string) (float64, bool) {
	switch {
	case floatPattern.MatchString(s):
	case o.thousands && groupedFloatPattern.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// inferColumn picks the narrowest type every non-null cell satisfies and
// converts the cells to it. A date column uses one day/month order for
// all of its cells.
func inferColumn(raw []string, opt inferOptions) (ColumnType, []Value) {
	var isInt, isFloat, isBool = true, true, true
	var monthFirst, dayFirst = true, true
	seen := 0
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if isNullToken(s) {
			continue
		}
		seen++
		if isInt {
			if _, ok := opt.parseInt(s); !ok {
				isInt = false
			}
		}
		if isFloat {
			if _, ok := opt.parseNumber(s); !ok {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(s); !ok {
				isBool = false
			}
		}
		if monthFirst {
			if _, ok := parseTimeOrder(s, false); !ok {
				monthFirst = false
			}
		}
		if dayFirst {
			if _, ok := parseTimeOrder(s, true); !ok {
				dayFirst = false
			}
		}
		if !isInt && !isFloat && !isBool && !monthFirst && !dayFirst {
			break
		}
	}
	typ := TypeText
	switch {
	case seen == 0:
		typ = TypeText
	case isInt:
		typ = TypeInteger
	case isFloat:
		typ = TypeFloat
	case isBool:
		typ = TypeBoolean
	case monthFirst || dayFirst:
		typ = TypeDatetime
	}
	c := converter{inferOptions: opt, dayFirst: !monthFirst}
	out := make([]Value, len(raw))
	for i, s := range raw {
		out[i] = c.convert(typ, s)
	}
	return typ, out
}

type converter struct {
	inferOptions
	dayFirst bool
}

func (c converter) convert(typ ColumnType, s string) Value {
	s = strings.TrimSpace(s)
	if isNullToken(s) {
		return Null()
	}
	switch typ {
	case TypeInteger:
		n, _ := c.parseInt(s)
		return Int(n)
	case TypeFloat:
		f, _ := c.parseNumber(s)
		return Float(f)
	case TypeBoolean:
		b, _ := parseBool(s)
		return Bool(b)
	case TypeDatetime:
		t, _ := parseTimeOrder(s, c.dayFirst)
		return Time(t)
	}
	return Text(s)
}
