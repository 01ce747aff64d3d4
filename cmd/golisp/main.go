// Command golisp is the process entry point: with no arguments it starts
// the interactive REPL; with a script path argument it loads and runs that
// script, exposing the remaining arguments as *ARGV*.
package main

import (
	"fmt"
	"os"

	"github.com/leinonen/golisp-mal/pkg/corelib"
	"github.com/leinonen/golisp-mal/pkg/eval"
	"github.com/leinonen/golisp-mal/pkg/repl"
	"github.com/leinonen/golisp-mal/pkg/types"
)

func main() {
	args := os.Args[1:]

	var argv []string
	if len(args) > 1 {
		argv = args[1:]
	}

	env, err := corelib.NewRootEnv(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize environment: %v\n", err)
		os.Exit(1)
	}

	if len(args) > 0 {
		runScript(env, args[0])
		return
	}

	if err := repl.REPL(env); err != nil {
		fmt.Fprintf(os.Stderr, "repl error: %v\n", err)
		os.Exit(1)
	}
}

func runScript(env *types.Environment, path string) {
	form := types.NewList(types.Sym("load-file"), types.Str(path))
	if _, err := eval.Eval(form, env); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
