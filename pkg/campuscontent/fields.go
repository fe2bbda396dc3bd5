package campuscontent

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidFieldName reports whether name may be used as a document field in a
// store query or update.
func ValidFieldName(name string) bool {
	return fieldNamePattern.MatchString(name)
}

// Validate checks a query before it reaches a store.
func (q Query) Validate() error {
	if q.Collection == "" {
		return fmt.Errorf("%w: collection is required", ErrInvalidQuery)
	}
	if q.Where != nil {
		if !ValidFieldName(q.Where.Field) {
			return fmt.Errorf("%w: bad filter field %q", ErrInvalidQuery, q.Where.Field)
		}
		if q.Where.Op != OpEqual && q.Where.Op != OpArrayContains {
			return fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, q.Where.Op)
		}
	}
	if q.OrderBy.Field != "" && !ValidFieldName(q.OrderBy.Field) {
		return fmt.Errorf("%w: bad order field %q", ErrInvalidQuery, q.OrderBy.Field)
	}
	if q.OrderBy.Direction != "" && q.OrderBy.Direction != Asc && q.OrderBy.Direction != Desc {
		return fmt.Errorf("%w: bad direction %q", ErrInvalidQuery, q.OrderBy.Direction)
	}
	return nil
}

// TimeValue encodes a time for storage inside Document.Fields.
func TimeValue(t time.Time) int64 {
	return t.UnixMicro()
}

// FieldString reads a string field, returning "" when absent.
func FieldString(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// FieldInt64 reads an integral field. JSON-decoded numbers are accepted.
func FieldInt64(fields map[string]any, name string) int64 {
	n, _ := toInt64(fields[name])
	return n
}

// FieldFloat64 reads a numeric field.
func FieldFloat64(fields map[string]any, name string) float64 {
	f, _ := ToFloat64(fields[name])
	return f
}

// FieldStrings reads a string array field.
func FieldStrings(fields map[string]any, name string) []string {
	switch v := fields[name].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// FieldTime reads a time field encoded with TimeValue.
func FieldTime(fields map[string]any, name string) time.Time {
	n, ok := toInt64(fields[name])
	if !ok {
		return time.Time{}
	}
	return time.UnixMicro(n).UTC()
}

// FieldOptionalInt64 reads an integral field that may be absent.
func FieldOptionalInt64(fields map[string]any, name string) *int64 {
	n, ok := toInt64(fields[name])
	if !ok {
		return nil
	}
	return &n
}

// ToFloat64 converts any numeric representation a store may return.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		return int64(math.Round(f)), err == nil
	default:
		f, ok := ToFloat64(v)
		if !ok {
			return 0, false
		}
		return int64(math.Round(f)), true
	}
}

// CloneFields returns a copy of fields whose slices are not shared with the
// original map.
func CloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch s := v.(type) {
		case []string:
			c := make([]string, len(s))
			copy(c, s)
			out[k] = c
		case []any:
			c := make([]any, len(s))
			copy(c, s)
			out[k] = c
		default:
			out[k] = v
		}
	}
	return out
}
