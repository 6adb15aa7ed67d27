package engine

import (
	"fmt"
	"strconv"
)

// IsEmpty reports whether a value counts as unset: nil or the empty string.
// false and 0 are values.
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	return false
}

// Canonical renders a scalar in the form used for set membership: strings
// as-is, booleans as true/false, numbers in shortest decimal form.
func Canonical(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// member reports whether value is present and its canonical form is listed.
func member(value any, set []string) bool {
	if value == nil {
		return false
	}
	want := Canonical(value)
	for _, candidate := range set {
		if candidate == want {
			return true
		}
	}
	return false
}
