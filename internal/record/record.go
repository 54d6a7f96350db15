// Package record defines the tagged record abstraction used throughout the
// ingestion pipeline. The field set is configuration-driven, so a record is
// an ordered list of (canonical field name, typed value) pairs rather than a
// fixed struct.
package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the coercion type of a field value.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindDate
	KindTime
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a configuration type name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "":
		return KindString, nil
	case "integer", "int":
		return KindInteger, nil
	case "float":
		return KindFloat, nil
	case "date":
		return KindDate, nil
	case "time":
		return KindTime, nil
	default:
		return KindString, fmt.Errorf("unknown field type %q", name)
	}
}

// Value holds one coerced field value. Null marks a value that was absent or
// unrecoverable; coercion failures degrade to the kind's zero value instead.
type Value struct {
	Kind  Kind
	Null  bool
	Str   string
	Int   int64
	Float float64
	Time  time.Time
}

// NullValue returns the null value of a kind.
func NullValue(kind Kind) Value { return Value{Kind: kind, Null: true} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue wraps an integer.
func IntValue(n int64) Value { return Value{Kind: KindInteger, Int: n} }

// FloatValue wraps a float.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// DateValue wraps a calendar date.
func DateValue(t time.Time) Value { return Value{Kind: KindDate, Time: t} }

// TimeValue wraps a time of day.
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// IsZero reports whether the value carries no usable content: null values,
// empty strings, and the zero time.
func (v Value) IsZero() bool {
	if v.Null {
		return true
	}
	switch v.Kind {
	case KindString:
		return strings.TrimSpace(v.Str) == ""
	case KindDate, KindTime:
		return v.Time.IsZero()
	default:
		return false
	}
}

// Interface returns the database representation of the value. Dates and
// times serialize as strings so the store schema stays portable.
func (v Value) Interface() any {
	if v.Null {
		return nil
	}
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInteger:
		return v.Int
	case KindFloat:
		return v.Float
	case KindDate:
		return v.Time.Format("2006-01-02")
	case KindTime:
		return v.Time.Format("15:04:05")
	default:
		return nil
	}
}

// Display returns a human-readable rendering used in documents.
func (v Value) Display() string {
	if v.Null {
		return ""
	}
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindDate:
		return v.Time.Format("2006-01-02")
	case KindTime:
		return v.Time.Format("15:04:05")
	default:
		return ""
	}
}

// Field pairs a canonical field name with its value.
type Field struct {
	Name  string
	Value Value
}

// Record is one normalized source row. Field order follows the configured
// column mapping. ID is empty until the record passes validation and an
// identifier is assigned.
type Record struct {
	Row    int
	ID     string
	fields []Field
	index  map[string]int
}

// New returns an empty record for the given source row index.
func New(row int, capacity int) *Record {
	return &Record{
		Row:    row,
		fields: make([]Field, 0, capacity),
		index:  make(map[string]int, capacity),
	}
}

// Set appends or replaces the named field.
func (r *Record) Set(name string, value Value) {
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Get returns the named field's value.
func (r *Record) Get(name string) (Value, bool) {
	i, ok := r.index[name]
	if !ok {
		return Value{}, false
	}
	return r.fields[i].Value, true
}

// Fields returns the ordered field list. Callers must not mutate it.
func (r *Record) Fields() []Field { return r.fields }

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.fields) }
