// Package repl implements the interactive read-eval-print loop: prompt,
// multi-line balanced-parenthesis input, history persistence, and colored
// output, wired on github.com/chzyer/readline and github.com/fatih/color.
package repl

import (
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/leinonen/golisp-mal/pkg/eval"
	"github.com/leinonen/golisp-mal/pkg/printer"
	"github.com/leinonen/golisp-mal/pkg/reader"
	"github.com/leinonen/golisp-mal/pkg/types"
)

const (
	prompt       = "user> "
	continuation = "...   "
	historyFile  = ".mal_history"
)

// REPL reads expressions from the terminal, evaluates them in env, and
// prints results with pr-str readable=true until EOF.
func REPL(env *types.Environment) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      color.New(color.FgBlue, color.Bold).Sprint(prompt),
		HistoryFile: historyFile,
	})
	if err != nil {
		return &types.IoError{Message: err.Error()}
	}
	defer rl.Close()

	errFormatter := NewErrorFormatter()
	resultColor := color.New(color.FgGreen)

	for {
		input, err := readForm(rl)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			color.New(color.FgRed, color.Bold).Println(errFormatter.Format(&types.IoError{Message: err.Error()}))
			continue
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		result, err := rep(input, env)
		if err != nil {
			color.New(color.FgRed, color.Bold).Println(errFormatter.Format(err))
			continue
		}
		resultColor.Println(printer.PrStr(result, true))
	}
}

// rep reads one form and evaluates it in env.
func rep(input string, env *types.Environment) (types.Value, error) {
	form, err := reader.ReadString(input)
	if err != nil {
		return nil, err
	}
	return eval.Eval(form, env)
}

// readForm reads lines from rl until parentheses/brackets/braces balance,
// respecting strings and escapes, so a multi-line form can be entered
// before evaluation.
func readForm(rl *readline.Instance) (string, error) {
	var lines []string
	depth := 0
	inString := false
	escaped := false
	first := true

	for {
		if first {
			rl.SetPrompt(color.New(color.FgBlue, color.Bold).Sprint(prompt))
			first = false
		} else {
			rl.SetPrompt(color.New(color.FgHiBlack).Sprint(continuation))
		}

		line, err := rl.Readline()
		if err != nil {
			return "", err
		}
		lines = append(lines, line)

		for _, ch := range line {
			if escaped {
				escaped = false
				continue
			}
			switch ch {
			case '\\':
				if inString {
					escaped = true
				}
			case '"':
				inString = !inString
			case '(', '[', '{':
				if !inString {
					depth++
				}
			case ')', ']', '}':
				if !inString {
					depth--
				}
			}
		}

		joined := strings.Join(lines, "\n")
		if depth <= 0 && hasContent(joined) {
			return joined, nil
		}
	}
}

func hasContent(input string) bool {
	for _, line := range strings.Split(input, "\n") {
		inString := false
		escaped := false
		for i, ch := range line {
			if escaped {
				escaped = false
				continue
			}
			switch ch {
			case '\\':
				if inString {
					escaped = true
				}
			case '"':
				inString = !inString
			case ';':
				if !inString {
					line = line[:i]
				}
			}
		}
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}
