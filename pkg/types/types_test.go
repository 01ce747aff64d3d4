package types

import "testing"

func TestIsTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil is falsy", NilValue, false},
		{"false is falsy", Bool(false), false},
		{"true is truthy", Bool(true), true},
		{"zero is truthy", Int(0), true},
		{"empty list is truthy", NewList(), true},
		{"empty string is truthy", Str(""), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsTruthy(c.v); got != c.want {
				t.Errorf("IsTruthy(%v) = %v, want %v", c.v, got, c.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal ints", Int(1), Int(1), true},
		{"different ints", Int(1), Int(2), false},
		{"equal strings", Str("a"), Str("a"), true},
		{"symbol vs string differ", Sym("a"), Str("a"), false},
		{"list equals vector with same elements", NewList(Int(1), Int(2)), NewVector(Int(1), Int(2)), true},
		{"list differs in length", NewList(Int(1)), NewList(Int(1), Int(2)), false},
		{"nested lists", NewList(NewList(Int(1))), NewList(NewList(Int(1))), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Equal(c.a, c.b); got != c.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestAtomsCompareByIdentity(t *testing.T) {
	a := NewAtom(Int(1))
	b := NewAtom(Int(1))
	if Equal(a, b) {
		t.Error("distinct atoms with equal contents should not be Equal")
	}
	if !Equal(a, a) {
		t.Error("an atom should be Equal to itself")
	}
}

func TestMapKeyKinds(t *testing.T) {
	m := NewMap()
	symKey, _ := KeyOf(Sym("a"))
	kwKey, _ := KeyOf(Keyword("a"))
	strKey, _ := KeyOf(Str("a"))

	m.Put(symKey, Int(1))
	m.Put(kwKey, Int(2))
	m.Put(strKey, Int(3))

	if len(m.Keys()) != 3 {
		t.Fatalf("expected 3 distinct keys for :a / 'a / \"a\", got %d", len(m.Keys()))
	}
	v, _ := m.Get(kwKey)
	if v != Int(2) {
		t.Errorf("keyword key lookup returned %v, want 2", v)
	}
}

func TestEnvironmentLookupWalksOuterFrames(t *testing.T) {
	root := NewEnvironment(nil)
	root.Set(Sym("x"), Int(1))
	child := NewEnvironment(root)

	v, ok := child.Get(Sym("x"))
	if !ok || v != Int(1) {
		t.Fatalf("expected child to resolve x from root, got %v, %v", v, ok)
	}

	child.Set(Sym("x"), Int(2))
	if v, _ := root.Get(Sym("x")); v != Int(1) {
		t.Error("set in child frame should not mutate the outer frame's binding")
	}
}

func TestWithBindsRestParameter(t *testing.T) {
	outer := NewEnvironment(nil)
	params := []Value{Sym("a"), Sym("&"), Sym("rest")}
	env, err := WithBinds(outer, params, []Value{Int(1), Int(2), Int(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := env.Get(Sym("a"))
	if a != Int(1) {
		t.Errorf("a = %v, want 1", a)
	}
	rest, _ := env.Get(Sym("rest"))
	restList, ok := rest.(*List)
	if !ok || len(restList.Items) != 2 {
		t.Fatalf("rest = %v, want a 2-element list", rest)
	}
}

func TestWithBindsTrailingAmpersandErrors(t *testing.T) {
	outer := NewEnvironment(nil)
	_, err := WithBinds(outer, []Value{Sym("&")}, nil)
	if err == nil {
		t.Error("expected an error for '&' with no following parameter name")
	}
}

func TestAtomSwap(t *testing.T) {
	a := NewAtom(Int(0))
	for i := 0; i < 5; i++ {
		_, err := a.Swap(func(v Value) (Value, error) {
			return Int(int64(v.(Int)) + 1), nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if a.Deref() != Int(5) {
		t.Errorf("deref = %v, want 5", a.Deref())
	}
}

func TestCatch(t *testing.T) {
	thrown := &Throw{Val: Str("boom")}
	if got := Catch(thrown); got != Str("boom") {
		t.Errorf("Catch(Throw) = %v, want the thrown value itself", got)
	}

	other := &SymbolNotFound{Name: "x"}
	got, ok := Catch(other).(Str)
	if !ok || string(got) != "'x' not found" {
		t.Errorf("Catch(SymbolNotFound) = %v, want a Str of its message", got)
	}
}
