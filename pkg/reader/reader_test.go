package reader

import (
	"testing"

	"github.com/leinonen/golisp-mal/pkg/printer"
	"github.com/leinonen/golisp-mal/pkg/types"
)

func TestReadStringBasicForms(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"(+ 1 2)", "(+ 1 2)"},
		{"[1 2 3]", "[1 2 3]"},
		{"{:a 1}", "{:a 1}"},
		{"-42", "-42"},
		{"\"hi\\nthere\"", "\"hi\\nthere\""},
		{"nil", "nil"},
		{"true", "true"},
		{"false", "false"},
	}
	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			v, err := ReadString(c.input)
			if err != nil {
				t.Fatalf("ReadString(%q) error: %v", c.input, err)
			}
			if got := printer.PrStr(v, true); got != c.want {
				t.Errorf("ReadString(%q) printed %q, want %q", c.input, got, c.want)
			}
		})
	}
}

// Quote-family reader macros must rewrite to the equivalent explicit call,
// matching quasiquote's own expectations about reader output shape.
func TestReaderMacroExpansion(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"'a", "(quote a)"},
		{"`a", "(quasiquote a)"},
		{"~a", "(unquote a)"},
		{"~@a", "(splice-unquote a)"},
		{"@a", "(deref a)"},
		{"^{:a 1} []", "(with-meta [] {:a 1})"},
	}
	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			v, err := ReadString(c.input)
			if err != nil {
				t.Fatalf("ReadString(%q) error: %v", c.input, err)
			}
			if got := printer.PrStr(v, true); got != c.want {
				t.Errorf("ReadString(%q) = %q, want %q", c.input, got, c.want)
			}
		})
	}
}

func TestReadStringRoundTrip(t *testing.T) {
	inputs := []string{
		`(1 2 (3 4) [5 6] {:a "b"})`,
		`(foo bar baz)`,
	}
	for _, in := range inputs {
		v1, err := ReadString(in)
		if err != nil {
			t.Fatalf("first read of %q failed: %v", in, err)
		}
		printed := printer.PrStr(v1, true)
		v2, err := ReadString(printed)
		if err != nil {
			t.Fatalf("second read of %q failed: %v", printed, err)
		}
		if !types.Equal(v1, v2) {
			t.Errorf("round trip mismatch: %v != %v", v1, v2)
		}
	}
}

func TestReadStringErrors(t *testing.T) {
	cases := []string{
		"(1 2",
		"\"unterminated",
		"{:a 1 :b}",
		"99999999999999999999",
	}
	for _, in := range cases {
		t.Run(in, func(t *testing.T) {
			if _, err := ReadString(in); err == nil {
				t.Errorf("ReadString(%q) expected an error, got none", in)
			}
		})
	}
}
