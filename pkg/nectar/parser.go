package nectar

import (
	"strconv"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
	rawOpen    = "{{{"
	rawClose   = "}}}"
)

// parser is a single-pass scanner over template source. Finished nodes are
// appended to the innermost open section, or to the output list when no
// section is open.
type parser struct {
	src   string
	pos   int
	out   []Node
	stack []openSection
}

// openSection tracks a section whose close tag has not been seen yet. raw
// is the path text exactly as written, which the close tag must repeat.
type openSection struct {
	node *SectionNode
	raw  string
}

// Parse compiles template source into a node tree. The returned nodes are
// immutable and safe for concurrent rendering. Failures are *Error values
// with kind ErrParse, positioned at the offending tag.
func Parse(src string) ([]Node, error) {
	p := &parser{src: src}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.out, nil
}

func (p *parser) run() error {
	for p.pos < len(p.src) {
		next := strings.Index(p.src[p.pos:], openDelim)
		if next < 0 {
			p.emit(&TextNode{Pos: p.pos, Text: p.src[p.pos:]})
			p.pos = len(p.src)
			break
		}
		if next > 0 {
			p.emit(&TextNode{Pos: p.pos, Text: p.src[p.pos : p.pos+next]})
			p.pos += next
		}
		if err := p.parseTag(); err != nil {
			return err
		}
	}
	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		return p.errorf(top.node.Pos, "section %q is never closed", top.raw)
	}
	return nil
}

func (p *parser) emit(n Node) {
	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1].node
		top.Body = append(top.Body, n)
		return
	}
	p.out = append(p.out, n)
}

func (p *parser) errorf(pos int, format string, args ...any) *Error {
	return newError(ErrParse, format, args...).withPos(p.src, pos)
}

// parseTag consumes one {{...}} tag starting at p.pos.
func (p *parser) parseTag() error {
	start := p.pos
	if strings.HasPrefix(p.src[start:], rawOpen) {
		return p.parseRawVar(start)
	}
	inner, end, err := p.scanTag(start + len(openDelim))
	if err != nil {
		return err
	}
	p.pos = end

	trimmed := strings.TrimLeft(inner, " \t\r\n")
	bodyStart := start + len(openDelim) + len(inner) - len(trimmed)
	body := strings.TrimRight(trimmed, " \t\r\n")
	if body == "" {
		return p.errorf(start, "empty tag")
	}

	switch body[0] {
	case '#', '^':
		raw := strings.TrimSpace(body[1:])
		if raw == "" {
			return p.errorf(start, "section tag with no path")
		}
		segs, perr := p.parsePath(start, raw)
		if perr != nil {
			return perr
		}
		node := &SectionNode{Pos: start, Path: segs, Inverted: body[0] == '^'}
		p.stack = append(p.stack, openSection{node: node, raw: raw})
	case '/':
		raw := strings.TrimSpace(body[1:])
		if len(p.stack) == 0 {
			return p.errorf(start, "close tag %q without an open section", raw)
		}
		top := p.stack[len(p.stack)-1]
		if raw != top.raw {
			return p.errorf(start, "close tag %q does not match open section %q", raw, top.raw)
		}
		p.stack = p.stack[:len(p.stack)-1]
		p.emit(top.node)
	case '!':
		// comment, discarded
	case '>':
		name := strings.TrimSpace(body[1:])
		if name == "" {
			return p.errorf(start, "partial tag with no name")
		}
		p.emit(&PartialNode{Pos: start, Name: name})
	case '@':
		node, cerr := p.parseCallTag(start, bodyStart, bodyStart+len(body))
		if cerr != nil {
			return cerr
		}
		p.emit(node)
	default:
		if strings.ContainsRune(body, '(') {
			node, cerr := p.parseCallTag(start, bodyStart, bodyStart+len(body))
			if cerr != nil {
				return cerr
			}
			p.emit(node)
			break
		}
		segs, perr := p.parsePath(start, body)
		if perr != nil {
			return perr
		}
		p.emit(&VarNode{Pos: start, Path: segs})
	}
	return nil
}

// parseRawVar consumes a {{{...}}} tag, which admits only a variable path.
func (p *parser) parseRawVar(start int) error {
	rest := p.src[start+len(rawOpen):]
	rel := strings.Index(rest, rawClose)
	if rel < 0 {
		return p.errorf(start, "unterminated tag")
	}
	body := strings.TrimSpace(rest[:rel])
	if body == "" {
		return p.errorf(start, "empty tag")
	}
	if strings.ContainsAny(body, "#^/!>@(") {
		return p.errorf(start, "only a variable path may appear in an unescaped tag")
	}
	segs, err := p.parsePath(start, body)
	if err != nil {
		return err
	}
	p.emit(&VarNode{Pos: start, Path: segs, Raw: true})
	p.pos = start + len(rawOpen) + rel + len(rawClose)
	return nil
}

// scanTag returns the tag content between the delimiters, honoring string
// literals so a quoted "}}" does not close the tag, along with the offset
// just past the closing delimiter.
func (p *parser) scanTag(from int) (string, int, error) {
	i := from
	for i < len(p.src) {
		switch c := p.src[i]; c {
		case '\'', '"':
			q := i
			i++
			for i < len(p.src) && p.src[i] != c {
				i++
			}
			if i >= len(p.src) {
				return "", 0, p.errorf(q, "unterminated string literal")
			}
			i++
		case '}':
			if strings.HasPrefix(p.src[i:], closeDelim) {
				return p.src[from:i], i + len(closeDelim), nil
			}
			i++
		default:
			i++
		}
	}
	return "", 0, p.errorf(from-len(openDelim), "unterminated tag")
}

// parsePath validates a dotted path outside the call grammar. A bare "."
// addresses the current element and yields a nil path.
func (p *parser) parsePath(pos int, s string) ([]string, error) {
	if s == "." {
		return nil, nil
	}
	segs := strings.Split(s, ".")
	for _, seg := range segs {
		if seg == "" {
			return nil, p.errorf(pos, "empty segment in path %q", s)
		}
		if strings.ContainsAny(seg, " \t\r\n(){}'\"@#^/!<>") {
			return nil, p.errorf(pos, "malformed path %q", s)
		}
	}
	return segs, nil
}

// parseCallTag parses a tag body that holds a single function or method
// call, spanning src[from:to).
func (p *parser) parseCallTag(tagPos, from, to int) (Node, error) {
	c := &callParser{p: p, pos: from, end: to}
	node, err := c.parseCallExpr(tagPos)
	if err != nil {
		return nil, err
	}
	c.skipSpace()
	if c.pos != c.end {
		return nil, p.errorf(c.pos, "unexpected text after call")
	}
	return node, nil
}

// callParser parses the call grammar inside one tag: @name(args) for
// registry functions, receiver.path.method(args) for object methods.
// Positions are byte offsets into the full template source.
type callParser struct {
	p   *parser
	pos int
	end int
}

func (c *callParser) peek() byte {
	if c.pos >= c.end {
		return 0
	}
	return c.p.src[c.pos]
}

func (c *callParser) peekAt(off int) byte {
	if c.pos+off >= c.end {
		return 0
	}
	return c.p.src[c.pos+off]
}

func (c *callParser) skipSpace() {
	for c.pos < c.end && isSpace(c.p.src[c.pos]) {
		c.pos++
	}
}

func (c *callParser) parseCallExpr(pos int) (Node, error) {
	if c.peek() == '@' {
		c.pos++
		name, err := c.ident()
		if err != nil {
			return nil, err
		}
		if c.peek() != '(' {
			return nil, c.p.errorf(c.pos, "expected '(' after function name %q", name)
		}
		args, err := c.parseArgs()
		if err != nil {
			return nil, err
		}
		return &FuncNode{Pos: pos, Name: name, Args: args}, nil
	}
	start := c.pos
	segs, err := c.path()
	if err != nil {
		return nil, err
	}
	return c.methodFromPath(pos, start, segs)
}

// methodFromPath finishes a method call whose dotted path has already been
// read up to the opening parenthesis. The last segment is the method name;
// the rest locate the receiver.
func (c *callParser) methodFromPath(pos, start int, segs []string) (Node, error) {
	if c.peek() != '(' {
		return nil, c.p.errorf(c.pos, "expected '(' in call")
	}
	if len(segs) < 2 {
		return nil, c.p.errorf(start, "a method call needs a receiver, like user.name()")
	}
	args, err := c.parseArgs()
	if err != nil {
		return nil, err
	}
	return &MethodNode{Pos: pos, Path: segs[:len(segs)-1], Method: segs[len(segs)-1], Args: args}, nil
}

// parseArgs consumes a parenthesized, comma-separated argument list. The
// caller has verified that the next byte is '('.
func (c *callParser) parseArgs() ([]Arg, error) {
	c.pos++
	c.skipSpace()
	if c.peek() == ')' {
		c.pos++
		return nil, nil
	}
	var args []Arg
	for {
		c.skipSpace()
		a, err := c.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		c.skipSpace()
		switch c.peek() {
		case ',':
			c.pos++
			c.skipSpace()
			switch c.peek() {
			case ')':
				return nil, c.p.errorf(c.pos, "trailing comma in argument list")
			case 0:
				return nil, c.p.errorf(c.pos, "unterminated argument list")
			}
		case ')':
			c.pos++
			return args, nil
		case 0:
			return nil, c.p.errorf(c.pos, "unterminated argument list")
		default:
			return nil, c.p.errorf(c.pos, "expected ',' or ')' in argument list")
		}
	}
}

// parseArg reads one argument: a quoted string, a number, a boolean, a
// context path, or a nested call.
func (c *callParser) parseArg() (Arg, error) {
	start := c.pos
	switch ch := c.peek(); {
	case ch == '\'' || ch == '"':
		s, err := c.stringLit()
		if err != nil {
			return nil, err
		}
		return &LitArg{Val: s}, nil
	case ch == '@':
		call, err := c.parseCallExpr(start)
		if err != nil {
			return nil, err
		}
		return &CallArg{Call: call}, nil
	case ch == '-' || isDigit(ch):
		return c.numberLit()
	default:
		segs, err := c.path()
		if err != nil {
			return nil, err
		}
		if c.peek() == '(' {
			call, merr := c.methodFromPath(start, start, segs)
			if merr != nil {
				return nil, merr
			}
			return &CallArg{Call: call}, nil
		}
		if len(segs) == 1 {
			switch segs[0] {
			case "true":
				return &LitArg{Val: true}, nil
			case "false":
				return &LitArg{Val: false}, nil
			}
		}
		return &PathArg{Path: segs}, nil
	}
}

// stringLit reads a quoted literal. There are no escape sequences: the
// literal runs to the next occurrence of the opening quote character.
func (c *callParser) stringLit() (string, error) {
	quote := c.p.src[c.pos]
	start := c.pos
	c.pos++
	lit := c.pos
	for c.pos < c.end && c.p.src[c.pos] != quote {
		c.pos++
	}
	if c.pos >= c.end {
		return "", c.p.errorf(start, "unterminated string literal")
	}
	s := c.p.src[lit:c.pos]
	c.pos++
	return s, nil
}

// numberLit reads an integer or float literal.
func (c *callParser) numberLit() (Arg, error) {
	start := c.pos
	if c.peek() == '-' {
		c.pos++
	}
	for c.pos < c.end && (isDigit(c.p.src[c.pos]) || c.p.src[c.pos] == '.') {
		c.pos++
	}
	text := c.p.src[start:c.pos]
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return &LitArg{Val: n}, nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return &LitArg{Val: f}, nil
	}
	return nil, c.p.errorf(start, "malformed number %q", text)
}

// ident reads one name segment.
func (c *callParser) ident() (string, error) {
	start := c.pos
	if !isIdentStart(c.peek()) {
		return "", c.p.errorf(c.pos, "expected a name")
	}
	for c.pos < c.end && isIdentByte(c.p.src[c.pos]) {
		c.pos++
	}
	return c.p.src[start:c.pos], nil
}

// path reads a dotted name. A bare "." yields a nil path, addressing the
// current element.
func (c *callParser) path() ([]string, error) {
	if c.peek() == '.' && !isIdentStart(c.peekAt(1)) {
		c.pos++
		return nil, nil
	}
	var segs []string
	for {
		seg, err := c.ident()
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
		if c.peek() == '.' {
			c.pos++
			continue
		}
		return segs, nil
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}
