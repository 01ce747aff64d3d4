package corelib

import (
	"testing"

	"github.com/leinonen/golisp-mal/pkg/printer"
	"github.com/leinonen/golisp-mal/pkg/types"
)

func newEnv(t *testing.T) *types.Environment {
	t.Helper()
	env, err := NewRootEnv(nil)
	if err != nil {
		t.Fatalf("NewRootEnv: %v", err)
	}
	return env
}

func run(t *testing.T, env *types.Environment, src string) types.Value {
	t.Helper()
	v, err := rep(src, env)
	if err != nil {
		t.Fatalf("rep(%q) error: %v", src, err)
	}
	return v
}

func TestSeedScenarios(t *testing.T) {
	env := newEnv(t)
	cases := []struct {
		src  string
		want string
	}{
		{"(+ 1 2 3)", "6"},
		{"(let* (a 1 b (+ a 1)) (* a b))", "2"},
		{
			"(do (def! f (fn* (n) (if (= n 0) 0 (f (- n 1))))) (f 1000))",
			"0",
		},
		{
			"(do (defmacro! unless (fn* (pred a b) `(if ~pred ~b ~a))) (unless false 1 2))",
			"1",
		},
		{
			`(try* (throw {:msg "boom"}) (catch* e (get e :msg)))`,
			`"boom"`,
		},
		{
			"(do (def! counter (atom 0)) (swap! counter (fn* (x) (+ x 10))) (deref counter))",
			"10",
		},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			v := run(t, env, c.src)
			if got := printer.PrStr(v, true); got != c.want {
				t.Errorf("rep(%q) = %q, want %q", c.src, got, c.want)
			}
		})
	}
}

// Repeated swap! calls must be sequentially consistent: N increments from 0
// must leave the atom holding exactly N.
func TestAtomConsistency(t *testing.T) {
	env := newEnv(t)
	run(t, env, "(def! n (atom 0))")
	for i := 0; i < 25; i++ {
		run(t, env, "(swap! n (fn* (x) (+ x 1)))")
	}
	v := run(t, env, "(deref n)")
	if v != types.Int(25) {
		t.Fatalf("deref after 25 swaps = %v, want 25", v)
	}
}

// :a and "a" (inserted via assoc) are distinct map keys with identical
// textual content.
func TestMapKeyKindsDistinct(t *testing.T) {
	env := newEnv(t)
	v := run(t, env, `(count (keys (assoc {} :a 1 "a" 2)))`)
	if v != types.Int(2) {
		t.Fatalf("count of keys :a vs \"a\" = %v, want 2", v)
	}
}

func TestArithmeticErrors(t *testing.T) {
	env := newEnv(t)
	if _, err := rep("(/ 1 0)", env); err == nil {
		t.Error("(/ 1 0) should error")
	}
	if _, err := rep("(- 1)", env); err == nil {
		t.Error("(- 1) should error: - requires at least 2 arguments")
	}
}

func TestSequenceBuiltins(t *testing.T) {
	env := newEnv(t)
	cases := []struct {
		src  string
		want string
	}{
		{"(cons 1 (list 2 3))", "(1 2 3)"},
		{"(concat (list 1 2) (list 3 4))", "(1 2 3 4)"},
		{"(conj (list 1 2 3) 'a 'b)", "(b a 1 2 3)"},
		{"(conj [1 2 3] 4 5)", "[1 2 3 4 5]"},
		{"(nth (list 1 2 3) 1)", "2"},
		{"(first (list))", "nil"},
		{"(rest (list))", "()"},
		{"(seq \"ab\")", `("a" "b")`},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			v := run(t, env, c.src)
			if got := printer.PrStr(v, true); got != c.want {
				t.Errorf("rep(%q) = %q, want %q", c.src, got, c.want)
			}
		})
	}
}

func TestGensymUniqueness(t *testing.T) {
	env := newEnv(t)
	a := run(t, env, "(gensym)")
	b := run(t, env, "(gensym)")
	if types.Equal(a, b) {
		t.Errorf("two gensym calls produced the same symbol: %v", a)
	}
}
