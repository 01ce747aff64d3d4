package printer

import (
	"testing"

	"github.com/leinonen/golisp-mal/pkg/types"
)

func TestPrStrReadableStrings(t *testing.T) {
	cases := []struct {
		name     string
		v        types.Value
		readable bool
		want     string
	}{
		{"readable quotes and escapes", types.Str("a\"b\nc"), true, `"a\"b\nc"`},
		{"non-readable is raw", types.Str("a\"b\nc"), false, "a\"b\nc"},
		{"nil", types.NilValue, true, "nil"},
		{"int", types.Int(42), true, "42"},
		{"keyword", types.Keyword("foo"), true, ":foo"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := PrStr(c.v, c.readable); got != c.want {
				t.Errorf("PrStr = %q, want %q", got, c.want)
			}
		})
	}
}

func TestPrStrNestedStructures(t *testing.T) {
	list := types.NewList(types.Int(1), types.NewVector(types.Str("a"), types.Keyword("b")))
	want := `(1 ["a" :b])`
	if got := PrStr(list, true); got != want {
		t.Errorf("PrStr(nested) = %q, want %q", got, want)
	}
}

func TestPrStrMap(t *testing.T) {
	m := types.NewMap()
	key, _ := types.KeyOf(types.Keyword("a"))
	m.Put(key, types.Int(1))
	if got := PrStr(m, true); got != "{:a 1}" {
		t.Errorf("PrStr(map) = %q, want {:a 1}", got)
	}
}

func TestJoin(t *testing.T) {
	values := []types.Value{types.Str("a"), types.Str("b")}
	if got := Join(values, true, " "); got != `"a" "b"` {
		t.Errorf("Join(readable) = %q", got)
	}
	if got := Join(values, false, ""); got != "ab" {
		t.Errorf("Join(non-readable) = %q, want ab", got)
	}
}
