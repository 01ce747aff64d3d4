// Package reader turns source text into types.Value forms.
package reader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leinonen/golisp-mal/pkg/types"
)

// Position is a 1-based line/column location used for parse-error context.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// ParseError is a reader failure, carrying the message and the Position it
// occurred at.
type ParseError struct {
	Message  string
	Position Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Parse error: %s (%s)", e.Message, e.Position)
}

// reader walks the input rune by rune, tracking line/column for diagnostics.
type reader struct {
	src    []rune
	pos    int
	line   int
	column int
}

func newReader(input string) *reader {
	return &reader{src: []rune(input), line: 1, column: 1}
}

func (r *reader) peek() (rune, bool) {
	if r.pos >= len(r.src) {
		return 0, false
	}
	return r.src[r.pos], true
}

func (r *reader) peekAt(offset int) (rune, bool) {
	idx := r.pos + offset
	if idx >= len(r.src) {
		return 0, false
	}
	return r.src[idx], true
}

func (r *reader) next() (rune, bool) {
	ch, ok := r.peek()
	if !ok {
		return 0, false
	}
	r.pos++
	if ch == '\n' {
		r.line++
		r.column = 1
	} else {
		r.column++
	}
	return ch, true
}

func (r *reader) position() Position {
	return Position{Line: r.line, Column: r.column}
}

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == ','
}

func isSymbolStart(ch rune) bool {
	if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' {
		return true
	}
	switch ch {
	case '!', '#', '$', '%', '&', '|', '*', '+', '-', '/', '<', '=', '>', '?', '_':
		return true
	}
	return false
}

func isSymbolChar(ch rune) bool {
	return isSymbolStart(ch) || (ch >= '0' && ch <= '9')
}

func (r *reader) skipWhitespaceAndComments() {
	for {
		ch, ok := r.peek()
		if !ok {
			return
		}
		if isWhitespace(ch) {
			r.next()
			continue
		}
		if ch == ';' {
			for {
				c, ok := r.peek()
				if !ok || c == '\n' {
					break
				}
				r.next()
			}
			continue
		}
		return
	}
}

// ReadString parses a single top-level Form from input. Trailing input
// beyond the first form is ignored by the caller (the REPL only ever reads
// one form per ReadString call).
func ReadString(input string) (types.Value, error) {
	r := newReader(input)
	r.skipWhitespaceAndComments()
	if _, ok := r.peek(); !ok {
		return nil, &ParseError{Message: "empty input", Position: r.position()}
	}
	v, err := r.readForm()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *reader) readForm() (types.Value, error) {
	r.skipWhitespaceAndComments()
	ch, ok := r.peek()
	if !ok {
		return nil, &ParseError{Message: "unexpected end of input", Position: r.position()}
	}

	switch {
	case ch == '(':
		return r.readSeq('(', ')', true)
	case ch == '[':
		return r.readSeq('[', ']', false)
	case ch == '{':
		return r.readMap()
	case ch == ')' || ch == ']' || ch == '}':
		return nil, &ParseError{Message: fmt.Sprintf("unexpected '%c'", ch), Position: r.position()}
	case ch == '\'':
		return r.readWrapped("quote", 1)
	case ch == '`':
		return r.readWrapped("quasiquote", 1)
	case ch == '~':
		if c2, ok := r.peekAt(1); ok && c2 == '@' {
			return r.readWrapped("splice-unquote", 2)
		}
		return r.readWrapped("unquote", 1)
	case ch == '@':
		return r.readWrapped("deref", 1)
	case ch == '^':
		return r.readMetaForm()
	case ch == '"':
		return r.readString()
	case ch == ':':
		return r.readKeyword()
	default:
		return r.readAtom()
	}
}

func (r *reader) readWrapped(sym string, skip int) (types.Value, error) {
	for i := 0; i < skip; i++ {
		r.next()
	}
	inner, err := r.readForm()
	if err != nil {
		return nil, err
	}
	return types.NewList(types.Sym(sym), inner), nil
}

// readMetaForm handles `^m e` → `(with-meta e m)`; note the argument swap.
func (r *reader) readMetaForm() (types.Value, error) {
	r.next() // consume '^'
	meta, err := r.readForm()
	if err != nil {
		return nil, err
	}
	target, err := r.readForm()
	if err != nil {
		return nil, err
	}
	return types.NewList(types.Sym("with-meta"), target, meta), nil
}

func (r *reader) readSeq(open, closeCh rune, isList bool) (types.Value, error) {
	startPos := r.position()
	r.next() // consume opening delimiter
	var items []types.Value
	for {
		r.skipWhitespaceAndComments()
		ch, ok := r.peek()
		if !ok {
			return nil, &ParseError{Message: fmt.Sprintf("unterminated sequence starting at %s", startPos), Position: r.position()}
		}
		if ch == closeCh {
			r.next()
			break
		}
		v, err := r.readForm()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if isList {
		return types.NewList(items...), nil
	}
	return types.NewVector(items...), nil
}

func (r *reader) readMap() (types.Value, error) {
	startPos := r.position()
	r.next() // consume '{'
	var forms []types.Value
	for {
		r.skipWhitespaceAndComments()
		ch, ok := r.peek()
		if !ok {
			return nil, &ParseError{Message: fmt.Sprintf("unterminated map starting at %s", startPos), Position: r.position()}
		}
		if ch == '}' {
			r.next()
			break
		}
		v, err := r.readForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, v)
	}
	if len(forms)%2 != 0 {
		return nil, &ParseError{Message: "map literal requires an even number of forms", Position: startPos}
	}
	m := types.NewMap()
	for i := 0; i < len(forms); i += 2 {
		key, ok := types.KeyOf(forms[i])
		if !ok {
			return nil, &ParseError{Message: "map keys must be a symbol, keyword, or string", Position: startPos}
		}
		m.Put(key, forms[i+1])
	}
	return m, nil
}

func (r *reader) readString() (types.Value, error) {
	startPos := r.position()
	r.next() // consume opening quote
	var sb strings.Builder
	for {
		ch, ok := r.next()
		if !ok {
			return nil, &ParseError{Message: "unterminated string", Position: startPos}
		}
		if ch == '"' {
			return types.Str(sb.String()), nil
		}
		if ch == '\\' {
			esc, ok := r.next()
			if !ok {
				return nil, &ParseError{Message: "unterminated string escape", Position: startPos}
			}
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(ch)
	}
}

func (r *reader) readKeyword() (types.Value, error) {
	r.next() // consume ':'
	start := r.pos
	for {
		ch, ok := r.peek()
		if !ok || !isSymbolChar(ch) {
			break
		}
		r.next()
	}
	return types.Keyword(string(r.src[start:r.pos])), nil
}

func (r *reader) readAtom() (types.Value, error) {
	pos := r.position()
	ch, _ := r.peek()

	if ch == '-' {
		if next, ok := r.peekAt(1); ok && next >= '0' && next <= '9' {
			return r.readNumber()
		}
	}
	if ch >= '0' && ch <= '9' {
		return r.readNumber()
	}
	if !isSymbolStart(ch) {
		return nil, &ParseError{Message: fmt.Sprintf("unexpected character '%c'", ch), Position: pos}
	}

	start := r.pos
	r.next()
	for {
		c, ok := r.peek()
		if !ok || !isSymbolChar(c) {
			break
		}
		r.next()
	}
	name := string(r.src[start:r.pos])
	switch name {
	case "true":
		return types.Bool(true), nil
	case "false":
		return types.Bool(false), nil
	case "nil":
		return types.NilValue, nil
	default:
		return types.Sym(name), nil
	}
}

func (r *reader) readNumber() (types.Value, error) {
	pos := r.position()
	start := r.pos
	if ch, ok := r.peek(); ok && ch == '-' {
		r.next()
	}
	digits := 0
	for {
		ch, ok := r.peek()
		if !ok || ch < '0' || ch > '9' {
			break
		}
		r.next()
		digits++
	}
	if digits == 0 {
		return nil, &ParseError{Message: "malformed integer literal", Position: pos}
	}
	text := string(r.src[start:r.pos])
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("integer literal %q does not fit in 64 bits", text), Position: pos}
	}
	return types.Int(n), nil
}
