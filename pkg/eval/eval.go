// Package eval implements the trampolined evaluator: special forms,
// function/macro application, TCO, macro expansion, quasiquote rewriting,
// and try*/catch*.
package eval

import (
	"github.com/leinonen/golisp-mal/pkg/types"
)

// Eval is the single iterative routine eval(form, env). Tail positions are
// implemented by mutating (form, env) and continuing the loop rather than
// by recursive calls, so deep tail recursion does not grow the host stack.
func Eval(form types.Value, env *types.Environment) (types.Value, error) {
	for {
		list, isList := form.(*types.List)
		if !isList {
			return evalAst(form, env)
		}

		expanded, err := macroExpand(form, env)
		if err != nil {
			return nil, err
		}
		form = expanded

		list, isList = form.(*types.List)
		if !isList {
			return evalAst(form, env)
		}
		if len(list.Items) == 0 {
			return form, nil
		}

		if sym, ok := list.Items[0].(types.Sym); ok {
			switch sym {
			case "def!":
				return evalDef(list, env)
			case "defmacro!":
				return evalDefMacro(list, env)
			case "let*":
				nextForm, nextEnv, err := evalLetStar(list, env)
				if err != nil {
					return nil, err
				}
				form, env = nextForm, nextEnv
				continue
			case "do":
				nextForm, err := evalDo(list, env)
				if err != nil {
					return nil, err
				}
				form = nextForm
				continue
			case "if":
				nextForm, err := evalIf(list, env)
				if err != nil {
					return nil, err
				}
				form = nextForm
				continue
			case "fn*":
				return evalFnStar(list, env)
			case "quote":
				if len(list.Items) < 2 {
					return nil, &types.EvalError{Message: "quote requires one argument"}
				}
				return list.Items[1], nil
			case "quasiquote":
				if len(list.Items) < 2 {
					return nil, &types.EvalError{Message: "quasiquote requires one argument"}
				}
				form = quasiquote(list.Items[1])
				continue
			case "macroexpand":
				if len(list.Items) < 2 {
					return nil, &types.EvalError{Message: "macroexpand requires one argument"}
				}
				return macroExpand(list.Items[1], env)
			case "try*":
				nextForm, nextEnv, result, done, err := evalTryStar(list, env)
				if done {
					return result, err
				}
				form, env = nextForm, nextEnv
				continue
			}
		}

		// Function application (default arm).
		nextForm, nextEnv, result, done, err := apply(list, env)
		if done {
			return result, err
		}
		form, env = nextForm, nextEnv
	}
}

// evalAst is the non-head structural walk.
func evalAst(form types.Value, env *types.Environment) (types.Value, error) {
	switch x := form.(type) {
	case types.Sym:
		v, ok := env.Get(x)
		if !ok {
			return nil, &types.SymbolNotFound{Name: string(x)}
		}
		return v, nil
	case *types.List:
		items, err := evalEach(x.Items, env)
		if err != nil {
			return nil, err
		}
		return types.NewList(items...), nil
	case *types.Vector:
		items, err := evalEach(x.Items, env)
		if err != nil {
			return nil, err
		}
		return types.NewVector(items...), nil
	case *types.Map:
		m := types.NewMap()
		m.Meta = x.Meta
		for _, k := range x.Keys() {
			v, _ := x.Get(k)
			ev, err := Eval(v, env)
			if err != nil {
				return nil, err
			}
			m.Put(k, ev)
		}
		return m, nil
	default:
		return form, nil
	}
}

func evalEach(items []types.Value, env *types.Environment) ([]types.Value, error) {
	out := make([]types.Value, len(items))
	for i, it := range items {
		v, err := Eval(it, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func evalDef(list *types.List, env *types.Environment) (types.Value, error) {
	if len(list.Items) != 3 {
		return nil, &types.EvalError{Message: "def! requires exactly 2 arguments"}
	}
	sym, ok := list.Items[1].(types.Sym)
	if !ok {
		return nil, &types.EvalError{Message: "def! target must be a symbol"}
	}
	val, err := Eval(list.Items[2], env)
	if err != nil {
		return nil, err
	}
	env.Set(sym, val)
	return val, nil
}

func evalDefMacro(list *types.List, env *types.Environment) (types.Value, error) {
	if len(list.Items) != 3 {
		return nil, &types.EvalError{Message: "defmacro! requires exactly 2 arguments"}
	}
	sym, ok := list.Items[1].(types.Sym)
	if !ok {
		return nil, &types.EvalError{Message: "defmacro! target must be a symbol"}
	}
	val, err := Eval(list.Items[2], env)
	if err != nil {
		return nil, err
	}
	if closure, ok := val.(*types.Closure); ok {
		marked := *closure
		marked.IsMacro = true
		val = &marked
	}
	env.Set(sym, val)
	return val, nil
}

func bindingSeq(v types.Value) ([]types.Value, bool) {
	switch b := v.(type) {
	case *types.List:
		return b.Items, true
	case *types.Vector:
		return b.Items, true
	default:
		return nil, false
	}
}

func evalLetStar(list *types.List, env *types.Environment) (types.Value, *types.Environment, error) {
	if len(list.Items) != 3 {
		return nil, nil, &types.EvalError{Message: "let* requires exactly 2 arguments"}
	}
	bindings, ok := bindingSeq(list.Items[1])
	if !ok {
		return nil, nil, &types.EvalError{Message: "let* bindings must be a list or vector"}
	}
	if len(bindings)%2 != 0 {
		return nil, nil, &types.EvalError{Message: "let* bindings must have an even number of forms"}
	}

	child := types.NewEnvironment(env)
	for i := 0; i < len(bindings); i += 2 {
		sym, ok := bindings[i].(types.Sym)
		if !ok {
			return nil, nil, &types.EvalError{Message: "let* binding name must be a symbol"}
		}
		val, err := Eval(bindings[i+1], child)
		if err != nil {
			return nil, nil, err
		}
		child.Set(sym, val)
	}
	return list.Items[2], child, nil
}

func evalDo(list *types.List, env *types.Environment) (types.Value, error) {
	if len(list.Items) == 1 {
		return types.NilValue, nil
	}
	for i := 1; i < len(list.Items)-1; i++ {
		if _, err := Eval(list.Items[i], env); err != nil {
			return nil, err
		}
	}
	return list.Items[len(list.Items)-1], nil
}

func evalIf(list *types.List, env *types.Environment) (types.Value, error) {
	if len(list.Items) < 3 || len(list.Items) > 4 {
		return nil, &types.EvalError{Message: "if requires 2 or 3 arguments"}
	}
	cond, err := Eval(list.Items[1], env)
	if err != nil {
		return nil, err
	}
	if types.IsTruthy(cond) {
		return list.Items[2], nil
	}
	if len(list.Items) == 4 {
		return list.Items[3], nil
	}
	return types.NilValue, nil
}

func evalFnStar(list *types.List, env *types.Environment) (types.Value, error) {
	if len(list.Items) != 3 {
		return nil, &types.EvalError{Message: "fn* requires exactly 2 arguments"}
	}
	params, ok := bindingSeq(list.Items[1])
	if !ok {
		return nil, &types.EvalError{Message: "fn* parameter list must be a list or vector"}
	}
	return &types.Closure{
		ParamList: params,
		Body:      list.Items[2],
		Env:       env,
		Meta:      types.NilValue,
	}, nil
}

// evalTryStar evaluates (try* e) or (try* e (catch* sym handler)). When the
// handler tail-calls, done is false and the caller continues the loop with
// the returned (form, env); otherwise done is true and (result, err) is
// final.
func evalTryStar(list *types.List, env *types.Environment) (types.Value, *types.Environment, types.Value, bool, error) {
	if len(list.Items) < 2 || len(list.Items) > 3 {
		return nil, nil, nil, true, &types.EvalError{Message: "try* requires 1 or 2 arguments"}
	}
	result, err := Eval(list.Items[1], env)
	if err == nil {
		return nil, nil, result, true, nil
	}
	if len(list.Items) < 3 {
		return nil, nil, nil, true, err
	}
	catchList, ok := list.Items[2].(*types.List)
	if !ok || len(catchList.Items) != 3 {
		return nil, nil, nil, true, &types.EvalError{Message: "catch* requires a symbol and a handler expression"}
	}
	if catchSym, ok := catchList.Items[0].(types.Sym); !ok || catchSym != "catch*" {
		return nil, nil, nil, true, &types.EvalError{Message: "try* second form must be a catch* clause"}
	}
	sym, ok := catchList.Items[1].(types.Sym)
	if !ok {
		return nil, nil, nil, true, &types.EvalError{Message: "catch* binding must be a symbol"}
	}
	child := types.NewEnvironment(env)
	child.Set(sym, types.Catch(err))
	return catchList.Items[2], child, nil, false, nil
}

// apply is the default function-application arm. When it tail-calls into a
// Closure body, done is false and the caller continues with (form, env);
// otherwise done is true and (result, err) is final.
func apply(list *types.List, env *types.Environment) (types.Value, *types.Environment, types.Value, bool, error) {
	evaluated, err := evalEach(list.Items, env)
	if err != nil {
		return nil, nil, nil, true, err
	}
	head := evaluated[0]
	args := evaluated[1:]

	switch callee := head.(type) {
	case *types.Builtin:
		result, err := callee.Fn(args)
		return nil, nil, result, true, err
	case *types.Closure:
		childEnv, err := types.WithBinds(callee.Env, callee.ParamList, args)
		if err != nil {
			return nil, nil, nil, true, err
		}
		return callee.Body, childEnv, nil, false, nil
	default:
		return nil, nil, nil, true, &types.EvalError{Message: "no function provided"}
	}
}

// Apply invokes callee (a Builtin or Closure) with args and returns its
// result fully evaluated — used by the `apply`/`map` builtins, which need
// a non-tail-calling entry point into the same dispatch.
func Apply(callee types.Value, args []types.Value) (types.Value, error) {
	switch c := callee.(type) {
	case *types.Builtin:
		return c.Fn(args)
	case *types.Closure:
		childEnv, err := types.WithBinds(c.Env, c.ParamList, args)
		if err != nil {
			return nil, err
		}
		return Eval(c.Body, childEnv)
	default:
		return nil, &types.EvalError{Message: "apply: not a function"}
	}
}

// macroExpand repeatedly expands form while its head resolves to a Closure
// with the is-macro flag set, applying that closure to the tail
// unevaluated. A Builtin head is never expanded, whatever its flag.
func macroExpand(form types.Value, env *types.Environment) (types.Value, error) {
	for {
		list, ok := form.(*types.List)
		if !ok || len(list.Items) == 0 {
			return form, nil
		}
		sym, ok := list.Items[0].(types.Sym)
		if !ok {
			return form, nil
		}
		v, ok := env.Get(sym)
		if !ok {
			return form, nil
		}
		closure, ok := v.(*types.Closure)
		if !ok || !closure.IsMacro {
			return form, nil
		}
		childEnv, err := types.WithBinds(closure.Env, closure.ParamList, list.Items[1:])
		if err != nil {
			return nil, err
		}
		expanded, err := Eval(closure.Body, childEnv)
		if err != nil {
			return nil, err
		}
		form = expanded
	}
}
