package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// stringify renders a decoded JSON scalar the way a user would have typed it.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// collapse trims and folds every run of whitespace into one space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func runeLen(s string) int {
	return len([]rune(s))
}

// alternateNames normalizes the alternate_names value. ok is false when the
// value is not a list.
func alternateNames(v any) (names []string, ok bool) {
	var raw []any
	switch t := v.(type) {
	case []any:
		raw = t
	case []string:
		raw = make([]any, len(t))
		for i, s := range t {
			raw[i] = s
		}
	default:
		return []string{}, false
	}
	names = make([]string, 0, len(raw))
	for _, item := range raw {
		if n := collapse(stringify(item)); n != "" {
			names = append(names, n)
		}
	}
	return names, true
}
