package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindTime:
		return "timestamp"
	default:
		return "null"
	}
}

// Value is a single cell. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	t    time.Time
}

func Null() Value              { return Value{} }
func Int(v int64) Value        { return Value{kind: KindInt, i: v} }
func Text(v string) Value      { return Value{kind: KindText, s: v} }
func Bool(v bool) Value        { return Value{kind: KindBool, b: v} }
func Time(v time.Time) Value   { return Value{kind: KindTime, t: v} }
func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// Float builds a float cell; NaN is stored as null.
func Float(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Value{kind: KindFloat, f: v}
}

// Number returns the numeric value of int and float cells.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Timestamp returns the time of a timestamp cell.
func (v Value) Timestamp() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// String renders the cell the way it is shown to users and matched by filters.
// Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindText:
		return v.s
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindTime:
		return formatTime(v.t)
	}
	return ""
}

// Interface converts the cell into a plain Go value for JSON and templates.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		if math.IsInf(v.f, 0) {
			return v.String()
		}
		return v.f
	case KindText:
		return v.s
	case KindBool:
		return v.b
	case KindTime:
		return formatTime(v.t)
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) { return json.Marshal(v.Interface()) }

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// Compare orders two non-null cells. Numbers compare numerically, timestamps
// chronologically, booleans false before true; anything else falls back to
// the string form.
func Compare(a, b Value) int {
	if x, ok := a.Number(); ok {
		if y, ok := b.Number(); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	if a.kind == KindTime && b.kind == KindTime {
		return a.t.Compare(b.t)
	}
	if a.kind == KindBool && b.kind == KindBool {
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		}
		return 1
	}
	return strings.Compare(a.String(), b.String())
}
