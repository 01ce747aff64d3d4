// Package printer serializes types.Value back to text.
package printer

import (
	"strings"

	"github.com/leinonen/golisp-mal/pkg/types"
)

// PrStr renders value as text. In readable mode strings are double-quoted
// with escapes reversed; in non-readable mode strings are emitted raw.
func PrStr(v types.Value, readable bool) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case types.Nil:
		return "nil"
	case types.Bool:
		return x.String()
	case types.Int:
		return x.String()
	case types.Sym:
		return x.String()
	case types.Keyword:
		return x.String()
	case types.Str:
		if readable {
			return quoteStr(string(x))
		}
		return string(x)
	case *types.List:
		return printSeq("(", ")", x.Items, readable)
	case *types.Vector:
		return printSeq("[", "]", x.Items, readable)
	case *types.Map:
		return printMap(x, readable)
	case *types.Atom:
		return "(atom " + PrStr(x.Deref(), readable) + ")"
	case *types.Builtin:
		return "#<function>"
	case *types.Closure:
		return "#<function>"
	default:
		return v.String()
	}
}

func printSeq(open, closeCh string, items []types.Value, readable bool) string {
	var sb strings.Builder
	sb.WriteString(open)
	for i, it := range items {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(PrStr(it, readable))
	}
	sb.WriteString(closeCh)
	return sb.String()
}

func printMap(m *types.Map, readable bool) string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range m.Keys() {
		if i > 0 {
			sb.WriteString(" ")
		}
		v, _ := m.Get(k)
		sb.WriteString(PrStr(k.Reconstruct(), readable))
		sb.WriteString(" ")
		sb.WriteString(PrStr(v, readable))
	}
	sb.WriteString("}")
	return sb.String()
}

func quoteStr(s string) string {
	var sb strings.Builder
	sb.WriteString("\"")
	for _, ch := range s {
		switch ch {
		case '\\':
			sb.WriteString("\\\\")
		case '"':
			sb.WriteString("\\\"")
		case '\n':
			sb.WriteString("\\n")
		default:
			sb.WriteRune(ch)
		}
	}
	sb.WriteString("\"")
	return sb.String()
}

// Join renders a slice of values joined by sep (used by str/pr-str/prn/println).
func Join(values []types.Value, readable bool, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = PrStr(v, readable)
	}
	return strings.Join(parts, sep)
}
