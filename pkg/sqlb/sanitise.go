package sqlb

import "strings"

// SanitiseString doubles every single quote, so the result can be embedded into a single-quoted literal.
// This covers values only, table and column names are never escaped this way.
func SanitiseString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Sanitise returns value with all string parts escaped by SanitiseString.
// Lists are processed element-wise, numbers returned as is.
func Sanitise(v Value) Value {
	switch v.kind {
	case KindString:
		return String(SanitiseString(v.str))
	case KindList:
		res := make([]Value, len(v.list))
		for i, el := range v.list {
			res[i] = Sanitise(el)
		}
		return List(res...)
	default:
		return v
	}
}

func quote(s string) string {
	return "'" + s + "'"
}
