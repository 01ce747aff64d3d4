// Package corelib builds the root environment: the fixed builtin
// catalogue plus the bootstrap forms written in the language itself.
package corelib

import (
	"fmt"
	"os"
	"time"

	"github.com/chzyer/readline"

	"github.com/leinonen/golisp-mal/pkg/eval"
	"github.com/leinonen/golisp-mal/pkg/printer"
	"github.com/leinonen/golisp-mal/pkg/reader"
	"github.com/leinonen/golisp-mal/pkg/types"
)

// NewRootEnv builds the root environment: builtins are registered first,
// then the bootstrap forms are evaluated in it, then *host-language* and
// *ARGV* are bound.
func NewRootEnv(argv []string) (*types.Environment, error) {
	env := types.NewEnvironment(nil)
	registerBuiltins(env)

	for _, form := range bootstrapForms {
		if _, err := rep(form, env); err != nil {
			return nil, fmt.Errorf("bootstrap form failed: %w", err)
		}
	}

	env.Set(types.Sym("*host-language*"), types.Str("Go"))

	argvItems := make([]types.Value, len(argv))
	for i, a := range argv {
		argvItems[i] = types.Str(a)
	}
	env.Set(types.Sym("*ARGV*"), types.NewList(argvItems...))

	return env, nil
}

func rep(input string, env *types.Environment) (types.Value, error) {
	form, err := reader.ReadString(input)
	if err != nil {
		return nil, err
	}
	return eval.Eval(form, env)
}

func def(env *types.Environment, name string, fn types.BuiltinFn) {
	env.Set(types.Sym(name), types.NewBuiltin(name, fn))
}

func registerBuiltins(env *types.Environment) {
	registerArithmetic(env)
	registerComparison(env)
	registerPredicates(env)
	registerConstructors(env)
	registerSequences(env)
	registerMaps(env)
	registerStrings(env)
	registerAtoms(env)
	registerMetadata(env)
	registerEvalReflection(env, env)
}

// argErr is returned for every argument-count violation in a builtin,
// matching the ArgsError kind reserved for exactly that purpose.
func argErr(name string) error {
	return &types.ArgsError{}
}

func asInt(name string, v types.Value) (int64, error) {
	n, ok := v.(types.Int)
	if !ok {
		return 0, &types.EvalError{Message: fmt.Sprintf("%s requires an Int argument", name)}
	}
	return int64(n), nil
}

func seqOf(v types.Value) ([]types.Value, bool) {
	switch x := v.(type) {
	case *types.List:
		return x.Items, true
	case *types.Vector:
		return x.Items, true
	case types.Nil:
		return nil, true
	default:
		return nil, false
	}
}

// registerArithmetic wires +, -, *, /; - and / require at least 2 args,
// matching the source's assert_min_args! on sub/div.
func registerArithmetic(env *types.Environment) {
	def(env, "+", func(args []types.Value) (types.Value, error) {
		var sum int64
		for _, a := range args {
			n, err := asInt("+", a)
			if err != nil {
				return nil, err
			}
			sum += n
		}
		return types.Int(sum), nil
	})
	def(env, "*", func(args []types.Value) (types.Value, error) {
		product := int64(1)
		for _, a := range args {
			n, err := asInt("*", a)
			if err != nil {
				return nil, err
			}
			product *= n
		}
		return types.Int(product), nil
	})
	def(env, "-", func(args []types.Value) (types.Value, error) {
		if len(args) < 2 {
			return nil, argErr("-")
		}
		first, err := asInt("-", args[0])
		if err != nil {
			return nil, err
		}
		result := first
		for _, a := range args[1:] {
			n, err := asInt("-", a)
			if err != nil {
				return nil, err
			}
			result -= n
		}
		return types.Int(result), nil
	})
	def(env, "/", func(args []types.Value) (types.Value, error) {
		if len(args) < 2 {
			return nil, argErr("/")
		}
		first, err := asInt("/", args[0])
		if err != nil {
			return nil, err
		}
		result := first
		for _, a := range args[1:] {
			n, err := asInt("/", a)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, &types.EvalError{Message: "division by zero"}
			}
			result /= n
		}
		return types.Int(result), nil
	})
}

func registerComparison(env *types.Environment) {
	def(env, "=", func(args []types.Value) (types.Value, error) {
		if len(args) < 2 {
			return nil, argErr("=")
		}
		for i := 1; i < len(args); i++ {
			if !types.Equal(args[0], args[i]) {
				return types.Bool(false), nil
			}
		}
		return types.Bool(true), nil
	})
	cmp := func(name string, pred func(a, b int64) bool) types.BuiltinFn {
		return func(args []types.Value) (types.Value, error) {
			if len(args) != 2 {
				return nil, argErr(name)
			}
			a, err := asInt(name, args[0])
			if err != nil {
				return nil, err
			}
			b, err := asInt(name, args[1])
			if err != nil {
				return nil, err
			}
			return types.Bool(pred(a, b)), nil
		}
	}
	def(env, "<", cmp("<", func(a, b int64) bool { return a < b }))
	def(env, ">", cmp(">", func(a, b int64) bool { return a > b }))
	def(env, "<=", cmp("<=", func(a, b int64) bool { return a <= b }))
	def(env, ">=", cmp(">=", func(a, b int64) bool { return a >= b }))
}

func registerPredicates(env *types.Environment) {
	pred := func(name string, fn func(types.Value) bool) types.BuiltinFn {
		return func(args []types.Value) (types.Value, error) {
			if len(args) != 1 {
				return nil, argErr(name)
			}
			return types.Bool(fn(args[0])), nil
		}
	}
	def(env, "nil?", pred("nil?", func(v types.Value) bool { _, ok := v.(types.Nil); return ok }))
	def(env, "true?", pred("true?", func(v types.Value) bool { b, ok := v.(types.Bool); return ok && bool(b) }))
	def(env, "false?", pred("false?", func(v types.Value) bool { b, ok := v.(types.Bool); return ok && !bool(b) }))
	def(env, "symbol?", pred("symbol?", func(v types.Value) bool { _, ok := v.(types.Sym); return ok }))
	def(env, "keyword?", pred("keyword?", func(v types.Value) bool { _, ok := v.(types.Keyword); return ok }))
	def(env, "string?", pred("string?", func(v types.Value) bool { _, ok := v.(types.Str); return ok }))
	def(env, "number?", pred("number?", func(v types.Value) bool { _, ok := v.(types.Int); return ok }))
	def(env, "list?", pred("list?", func(v types.Value) bool { _, ok := v.(*types.List); return ok }))
	def(env, "vector?", pred("vector?", func(v types.Value) bool { _, ok := v.(*types.Vector); return ok }))
	def(env, "map?", pred("map?", func(v types.Value) bool { _, ok := v.(*types.Map); return ok }))
	def(env, "sequential?", pred("sequential?", func(v types.Value) bool {
		switch v.(type) {
		case *types.List, *types.Vector:
			return true
		default:
			return false
		}
	}))
	def(env, "atom?", pred("atom?", func(v types.Value) bool { _, ok := v.(*types.Atom); return ok }))
	def(env, "fn?", pred("fn?", func(v types.Value) bool {
		switch f := v.(type) {
		case *types.Builtin:
			return !f.IsMacro
		case *types.Closure:
			return !f.IsMacro
		default:
			return false
		}
	}))
	def(env, "macro?", pred("macro?", func(v types.Value) bool {
		switch f := v.(type) {
		case *types.Builtin:
			return f.IsMacro
		case *types.Closure:
			return f.IsMacro
		default:
			return false
		}
	}))
	def(env, "empty?", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("empty?")
		}
		// Unlike seqOf, nil is not a valid sequence here: it must cast to
		// a List/Vector and error otherwise, matching cast_to_list's
		// rejection of MalVal::Nil.
		var items []types.Value
		switch x := args[0].(type) {
		case *types.List:
			items = x.Items
		case *types.Vector:
			items = x.Items
		default:
			return nil, &types.EvalError{Message: "empty? requires a list or vector"}
		}
		return types.Bool(len(items) == 0), nil
	})
}

func registerConstructors(env *types.Environment) {
	def(env, "list", func(args []types.Value) (types.Value, error) {
		return types.NewList(args...), nil
	})
	def(env, "vector", func(args []types.Value) (types.Value, error) {
		return types.NewVector(args...), nil
	})
	def(env, "hash-map", func(args []types.Value) (types.Value, error) {
		if len(args)%2 != 0 {
			return nil, &types.EvalError{Message: "hash-map requires an even number of arguments"}
		}
		m := types.NewMap()
		for i := 0; i < len(args); i += 2 {
			key, ok := types.KeyOf(args[i])
			if !ok {
				return nil, &types.EvalError{Message: "hash-map keys must be a symbol, keyword, or string"}
			}
			m.Put(key, args[i+1])
		}
		return m, nil
	})
	def(env, "symbol", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("symbol")
		}
		s, ok := args[0].(types.Str)
		if !ok {
			return nil, &types.EvalError{Message: "symbol requires a string argument"}
		}
		return types.Sym(string(s)), nil
	})
	def(env, "keyword", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("keyword")
		}
		switch v := args[0].(type) {
		case types.Str:
			return types.Keyword(string(v)), nil
		case types.Keyword:
			return v, nil
		default:
			return nil, &types.EvalError{Message: "keyword requires a string argument"}
		}
	})
	def(env, "atom", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("atom")
		}
		return types.NewAtom(args[0]), nil
	})
}

func registerSequences(env *types.Environment) {
	def(env, "count", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("count")
		}
		items, ok := seqOf(args[0])
		if !ok {
			return types.Int(0), nil
		}
		return types.Int(len(items)), nil
	})
	def(env, "first", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("first")
		}
		items, ok := seqOf(args[0])
		if !ok || len(items) == 0 {
			return types.NilValue, nil
		}
		return items[0], nil
	})
	def(env, "rest", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("rest")
		}
		items, ok := seqOf(args[0])
		if !ok || len(items) == 0 {
			return types.NewList(), nil
		}
		return types.NewList(items[1:]...), nil
	})
	def(env, "nth", func(args []types.Value) (types.Value, error) {
		if len(args) != 2 {
			return nil, argErr("nth")
		}
		items, ok := seqOf(args[0])
		if !ok {
			return nil, &types.EvalError{Message: "nth requires a sequence"}
		}
		idx, err := asInt("nth", args[1])
		if err != nil {
			return nil, err
		}
		if idx < 0 || int(idx) >= len(items) {
			return nil, &types.EvalError{Message: "nth: index out of bounds"}
		}
		return items[idx], nil
	})
	def(env, "cons", func(args []types.Value) (types.Value, error) {
		if len(args) != 2 {
			return nil, argErr("cons")
		}
		items, ok := seqOf(args[1])
		if !ok {
			return nil, &types.EvalError{Message: "cons requires a sequence as its second argument"}
		}
		out := make([]types.Value, 0, len(items)+1)
		out = append(out, args[0])
		out = append(out, items...)
		return types.NewList(out...), nil
	})
	def(env, "concat", func(args []types.Value) (types.Value, error) {
		var out []types.Value
		for _, a := range args {
			items, ok := seqOf(a)
			if !ok {
				return nil, &types.EvalError{Message: "concat requires sequence arguments"}
			}
			out = append(out, items...)
		}
		return types.NewList(out...), nil
	})
	def(env, "conj", func(args []types.Value) (types.Value, error) {
		if len(args) < 1 {
			return nil, argErr("conj")
		}
		switch base := args[0].(type) {
		case *types.List:
			out := make([]types.Value, 0, len(args)-1+len(base.Items))
			for i := len(args) - 1; i >= 1; i-- {
				out = append(out, args[i])
			}
			out = append(out, base.Items...)
			return types.NewList(out...), nil
		case *types.Vector:
			out := append([]types.Value{}, base.Items...)
			out = append(out, args[1:]...)
			return types.NewVector(out...), nil
		default:
			return nil, &types.EvalError{Message: "conj requires a List or Vector"}
		}
	})
	def(env, "seq", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("seq")
		}
		switch v := args[0].(type) {
		case types.Nil:
			return types.NilValue, nil
		case *types.List:
			if len(v.Items) == 0 {
				return types.NilValue, nil
			}
			return types.NewList(v.Items...), nil
		case *types.Vector:
			if len(v.Items) == 0 {
				return types.NilValue, nil
			}
			return types.NewList(v.Items...), nil
		case types.Str:
			if len(v) == 0 {
				return types.NilValue, nil
			}
			chars := make([]types.Value, 0, len(v))
			for _, r := range string(v) {
				chars = append(chars, types.Str(string(r)))
			}
			return types.NewList(chars...), nil
		default:
			return nil, &types.EvalError{Message: "seq requires a list, vector, string, or nil"}
		}
	})
}

func registerMaps(env *types.Environment) {
	def(env, "assoc", func(args []types.Value) (types.Value, error) {
		if len(args) < 1 || len(args)%2 != 1 {
			return nil, &types.EvalError{Message: "assoc requires a map and an even number of key/value forms"}
		}
		m, ok := args[0].(*types.Map)
		if !ok {
			return nil, &types.EvalError{Message: "assoc requires a map as its first argument"}
		}
		out := m.Clone()
		for i := 1; i < len(args); i += 2 {
			key, ok := types.KeyOf(args[i])
			if !ok {
				return nil, &types.EvalError{Message: "assoc keys must be a symbol, keyword, or string"}
			}
			out.Put(key, args[i+1])
		}
		return out, nil
	})
	def(env, "dissoc", func(args []types.Value) (types.Value, error) {
		if len(args) < 1 {
			return nil, argErr("dissoc")
		}
		m, ok := args[0].(*types.Map)
		if !ok {
			return nil, &types.EvalError{Message: "dissoc requires a map as its first argument"}
		}
		out := m.Clone()
		for _, k := range args[1:] {
			key, ok := types.KeyOf(k)
			if !ok {
				continue
			}
			out.Delete(key)
		}
		return out, nil
	})
	def(env, "get", func(args []types.Value) (types.Value, error) {
		if len(args) != 2 {
			return nil, argErr("get")
		}
		m, ok := args[0].(*types.Map)
		if !ok {
			return types.NilValue, nil
		}
		key, ok := types.KeyOf(args[1])
		if !ok {
			return types.NilValue, nil
		}
		v, ok := m.Get(key)
		if !ok {
			return types.NilValue, nil
		}
		return v, nil
	})
	def(env, "contains?", func(args []types.Value) (types.Value, error) {
		if len(args) != 2 {
			return nil, argErr("contains?")
		}
		m, ok := args[0].(*types.Map)
		if !ok {
			return nil, &types.EvalError{Message: "contains? requires a map as its first argument"}
		}
		key, ok := types.KeyOf(args[1])
		if !ok {
			return types.Bool(false), nil
		}
		_, ok = m.Get(key)
		return types.Bool(ok), nil
	})
	def(env, "keys", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("keys")
		}
		m, ok := args[0].(*types.Map)
		if !ok {
			return nil, &types.EvalError{Message: "keys requires a map"}
		}
		out := make([]types.Value, 0, len(m.Keys()))
		for _, k := range m.Keys() {
			out = append(out, k.Reconstruct())
		}
		return types.NewList(out...), nil
	})
	def(env, "vals", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("vals")
		}
		m, ok := args[0].(*types.Map)
		if !ok {
			return nil, &types.EvalError{Message: "vals requires a map"}
		}
		out := make([]types.Value, 0, len(m.Keys()))
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			out = append(out, v)
		}
		return types.NewList(out...), nil
	})
}

func registerStrings(env *types.Environment) {
	def(env, "pr-str", func(args []types.Value) (types.Value, error) {
		return types.Str(printer.Join(args, true, " ")), nil
	})
	def(env, "str", func(args []types.Value) (types.Value, error) {
		return types.Str(printer.Join(args, false, "")), nil
	})
	def(env, "prn", func(args []types.Value) (types.Value, error) {
		fmt.Println(printer.Join(args, true, " "))
		return types.NilValue, nil
	})
	def(env, "println", func(args []types.Value) (types.Value, error) {
		fmt.Println(printer.Join(args, false, " "))
		return types.NilValue, nil
	})
	def(env, "read-string", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("read-string")
		}
		s, ok := args[0].(types.Str)
		if !ok {
			return nil, &types.EvalError{Message: "read-string requires a string argument"}
		}
		return reader.ReadString(string(s))
	})
	def(env, "slurp", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("slurp")
		}
		path, ok := args[0].(types.Str)
		if !ok {
			return nil, &types.EvalError{Message: "slurp requires a string argument"}
		}
		content, err := os.ReadFile(string(path))
		if err != nil {
			return nil, &types.IoError{Message: err.Error()}
		}
		return types.Str(content), nil
	})
	def(env, "readline", func(args []types.Value) (types.Value, error) {
		prompt := ""
		if len(args) == 1 {
			if s, ok := args[0].(types.Str); ok {
				prompt = string(s)
			}
		}
		rl, err := readline.New(prompt)
		if err != nil {
			return nil, &types.IoError{Message: err.Error()}
		}
		defer rl.Close()
		line, err := rl.Readline()
		if err != nil {
			return types.NilValue, nil
		}
		return types.Str(line), nil
	})
}

func registerAtoms(env *types.Environment) {
	def(env, "deref", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("deref")
		}
		a, ok := args[0].(*types.Atom)
		if !ok {
			return nil, &types.EvalError{Message: "deref requires an atom"}
		}
		return a.Deref(), nil
	})
	def(env, "reset!", func(args []types.Value) (types.Value, error) {
		if len(args) != 2 {
			return nil, argErr("reset!")
		}
		a, ok := args[0].(*types.Atom)
		if !ok {
			return nil, &types.EvalError{Message: "reset! requires an atom"}
		}
		return a.Reset(args[1]), nil
	})
	def(env, "swap!", func(args []types.Value) (types.Value, error) {
		if len(args) < 2 {
			return nil, argErr("swap!")
		}
		a, ok := args[0].(*types.Atom)
		if !ok {
			return nil, &types.EvalError{Message: "swap! requires an atom"}
		}
		extra := args[2:]
		return a.Swap(func(current types.Value) (types.Value, error) {
			callArgs := make([]types.Value, 0, len(extra)+1)
			callArgs = append(callArgs, current)
			callArgs = append(callArgs, extra...)
			return eval.Apply(args[1], callArgs)
		})
	})
}

func registerMetadata(env *types.Environment) {
	def(env, "meta", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("meta")
		}
		m, ok := args[0].(types.Metadatable)
		if !ok {
			return nil, &types.EvalError{Message: "meta requires a List, Vector, Map, Builtin, or Closure"}
		}
		return m.GetMeta(), nil
	})
	def(env, "with-meta", func(args []types.Value) (types.Value, error) {
		if len(args) != 2 {
			return nil, argErr("with-meta")
		}
		m, ok := args[0].(types.Metadatable)
		if !ok {
			return nil, &types.EvalError{Message: "with-meta requires a List, Vector, Map, Builtin, or Closure"}
		}
		return m.WithMeta(args[1]), nil
	})
}

// registerEvalReflection wires eval/apply/map/throw/time-ms. eval closes
// over root, the environment captured at install time, so that `eval`
// always re-enters the evaluator at the top level regardless of the
// lexical environment it's called from.
func registerEvalReflection(env *types.Environment, root *types.Environment) {
	def(env, "eval", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("eval")
		}
		return eval.Eval(args[0], root.Root())
	})
	def(env, "apply", func(args []types.Value) (types.Value, error) {
		if len(args) < 2 {
			return nil, argErr("apply")
		}
		last, ok := seqOf(args[len(args)-1])
		if !ok {
			return nil, &types.EvalError{Message: "apply requires its last argument to be a sequence"}
		}
		callArgs := make([]types.Value, 0, len(args)-2+len(last))
		callArgs = append(callArgs, args[1:len(args)-1]...)
		callArgs = append(callArgs, last...)
		return eval.Apply(args[0], callArgs)
	})
	def(env, "map", func(args []types.Value) (types.Value, error) {
		if len(args) != 2 {
			return nil, argErr("map")
		}
		items, ok := seqOf(args[1])
		if !ok {
			return nil, &types.EvalError{Message: "map requires a sequence as its second argument"}
		}
		out := make([]types.Value, len(items))
		for i, it := range items {
			v, err := eval.Apply(args[0], []types.Value{it})
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return types.NewList(out...), nil
	})
	def(env, "throw", func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return nil, argErr("throw")
		}
		return nil, &types.Throw{Val: args[0]}
	})
	def(env, "time-ms", func(args []types.Value) (types.Value, error) {
		return types.Int(time.Now().UnixMilli()), nil
	})
}
