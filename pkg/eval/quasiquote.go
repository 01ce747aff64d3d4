package eval

import "github.com/leinonen/golisp-mal/pkg/types"

// quasiquote is the purely syntactic quasiquote rewriter: it rewrites ast
// into calls of cons/concat/quote. The evaluator has no other runtime
// knowledge of quasiquote beyond this one rewrite, then evaluating the
// result through the normal loop.
func quasiquote(ast types.Value) types.Value {
	items, isSeq := seqItems(ast)
	if !isSeq || len(items) == 0 {
		return types.NewList(types.Sym("quote"), ast)
	}

	if sym, ok := items[0].(types.Sym); ok && sym == "unquote" {
		return items[1]
	}

	if headItems, headIsSeq := seqItems(items[0]); headIsSeq && len(headItems) > 0 {
		if sym, ok := headItems[0].(types.Sym); ok && sym == "splice-unquote" {
			rest := types.NewList(items[1:]...)
			return types.NewList(types.Sym("concat"), headItems[1], quasiquote(rest))
		}
	}

	rest := types.NewList(items[1:]...)
	return types.NewList(types.Sym("cons"), quasiquote(items[0]), quasiquote(rest))
}

func seqItems(v types.Value) ([]types.Value, bool) {
	switch x := v.(type) {
	case *types.List:
		return x.Items, true
	case *types.Vector:
		return x.Items, true
	default:
		return nil, false
	}
}
