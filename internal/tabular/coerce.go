package tabular

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lorry/internal/record"
)

// Date layouts tried in order. The ISO form is the primary format; the rest
// cover the spreadsheet exports seen in the field.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Time-of-day layouts, permissive about seconds and 12-hour clocks.
var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04:05 PM",
	"3:04PM",
}

// Coerce converts a raw cell into a typed value. An empty cell becomes the
// kind's null value. A non-empty cell that cannot be parsed degrades to the
// kind's default (zero number, null date/time) and returns the parse error
// so the caller can log it; the record still proceeds.
func Coerce(raw string, kind record.Kind) (record.Value, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if kind == record.KindString {
			return record.StringValue(""), nil
		}
		return record.NullValue(kind), nil
	}

	switch kind {
	case record.KindString:
		return record.StringValue(trimmed), nil
	case record.KindInteger:
		return coerceInteger(trimmed)
	case record.KindFloat:
		return coerceFloat(trimmed)
	case record.KindDate:
		return coerceDate(trimmed)
	case record.KindTime:
		return coerceTime(trimmed)
	default:
		return record.NullValue(kind), fmt.Errorf("unsupported kind %v", kind)
	}
}

func coerceInteger(raw string) (record.Value, error) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	if n, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return record.IntValue(n), nil
	}
	// Spreadsheets frequently store counts as "12.0".
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil && f == float64(int64(f)) {
		return record.IntValue(int64(f)), nil
	}
	return record.IntValue(0), fmt.Errorf("parse integer %q", raw)
}

func coerceFloat(raw string) (record.Value, error) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return record.FloatValue(0), fmt.Errorf("parse float %q", raw)
	}
	return record.FloatValue(f), nil
}

func coerceDate(raw string) (record.Value, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return record.DateValue(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)), nil
		}
	}
	return record.NullValue(record.KindDate), fmt.Errorf("parse date %q", raw)
}

func coerceTime(raw string) (record.Value, error) {
	upper := strings.ToUpper(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return record.TimeValue(t), nil
		}
	}
	return record.NullValue(record.KindTime), fmt.Errorf("parse time %q", raw)
}
