package repl

import (
	"github.com/leinonen/golisp-mal/pkg/printer"
	"github.com/leinonen/golisp-mal/pkg/reader"
	"github.com/leinonen/golisp-mal/pkg/types"
)

// ErrorFormatter renders an error on a single line. Most kinds start with
// their kind tag; SymbolNotFound prints as "'<name>' not found" and
// ArgsError as "Args error".
type ErrorFormatter struct{}

// NewErrorFormatter constructs an ErrorFormatter.
func NewErrorFormatter() *ErrorFormatter {
	return &ErrorFormatter{}
}

// Format renders err with its own Error() text, except for Throw, which is
// rendered as "Exception: " plus the thrown Value printed via pr-str.
func (f *ErrorFormatter) Format(err error) string {
	switch e := err.(type) {
	case *reader.ParseError:
		return e.Error()
	case *types.SymbolNotFound:
		return e.Error()
	case *types.IoError:
		return e.Error()
	case *types.ArgsError:
		return e.Error()
	case *types.Throw:
		return "Exception: " + printer.PrStr(e.Val, true)
	case *types.EvalError:
		return e.Error()
	default:
		return err.Error()
	}
}
