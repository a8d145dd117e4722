// Package parse implements the recursive-descent parser that turns a
// pre-split argument vector into an expr.Node tree: root-path
// collection, the EXPR/CLAUSE/TERM/FACTOR/LITERAL grammar of §4.F,
// the predicate dispatch table with fuzzy-match suggestions, and the
// global/positional option handlers that populate a cmdline.Context
// alongside it.
package parse

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/bfswalk/bfs/internal/cmdline"
	"github.com/bfswalk/bfs/internal/expr"
	"github.com/bfswalk/bfs/internal/fsutil"
	"github.com/bfswalk/bfs/internal/optimize"
	"github.com/bfswalk/bfs/internal/qptrie"
)

// defaultOpen opens path for the -fprint family the way the find
// family always has: created if missing, truncated if it already
// exists, since these are one-shot report files for a single run.
func defaultOpen(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
}

// Parser holds the cursor over one argument vector plus the
// side-tables (compiled regex cache, open sink files, user/group
// cache) that predicate and action parseFns share.
type Parser struct {
	args []string
	pos  int

	pool *expr.Pool
	ctx  *cmdline.Context

	roots []string

	idcache *fsutil.IDCache
	regex   *qptrie.Trie[*regexp.Regexp]
	sinks   *qptrie.Trie[io.Writer]
	closers []io.Closer
	openFn  OpenFunc

	now time.Time

	sawOutputAction bool
	sawPrune        bool
}

// OpenFunc opens the file a -fprint-family sink writes to. cmd/bfs
// supplies a real *os.File-backed implementation; tests can supply an
// in-memory stand-in.
type OpenFunc func(path string) (io.WriteCloser, error)

// Options bundles the collaborators Parse needs beyond the raw argv:
// the node pool and context to build into, the user/group cache, and
// the sink-opening function.
type Options struct {
	Pool    *expr.Pool
	Ctx     *cmdline.Context
	IDCache *fsutil.IDCache
	Open    OpenFunc
}

// Parse parses args into an expression tree, returning it alongside
// the root paths collected from the command line (defaulting to
// {"."} if none were given) and any parse error. An implicit -print
// is appended when no output-producing action appears anywhere in the
// tree (§4.F).
func Parse(args []string, opts Options) (*expr.Node, []string, error) {
	p := &Parser{
		args:    args,
		pool:    opts.Pool,
		ctx:     opts.Ctx,
		idcache: opts.IDCache,
		regex:   qptrie.New[*regexp.Regexp](),
		sinks:   qptrie.New[io.Writer](),
		now:     opts.Ctx.Now,
	}
	if opts.Open != nil {
		p.openFn = opts.Open
	} else {
		p.openFn = defaultOpen
	}

	p.collectRootsAndGlobalOptions()

	var node *expr.Node
	if p.pos >= len(p.args) {
		node = expr.TRUE
	} else {
		n, err := p.parseExpr()
		if err != nil {
			p.closeSinks()
			return nil, nil, err
		}
		if p.pos != len(p.args) {
			p.closeSinks()
			return nil, nil, fmt.Errorf("%w: %s", ErrUnexpectedToken, p.args[p.pos])
		}
		node = n
	}

	if !p.sawOutputAction {
		print := p.pool.NewLeafSpec(printLeafSpec(nil))
		node = p.pool.NewBinary(expr.OpAnd, node, print)
	}

	// §9's open question: -depth (post-order delivery) combined with
	// -prune is warned about, not an error: in post-order mode a
	// directory is evaluated only after its children have been
	// visited, so -prune has nothing left to skip.
	if p.ctx.PostOrder && p.sawPrune && p.ctx.Warn {
		p.ctx.Log.Warn().Msg("-prune has no effect when -depth is also given: a directory is evaluated only after its children have been visited")
	}

	level := optimize.Level(p.ctx.OptimizeLevel)
	if p.ctx.Fast {
		level = optimize.O4
	}
	if level >= optimize.O1 {
		node = optimize.Run(p.pool, node, level)
	}

	roots := p.roots
	if len(roots) == 0 {
		roots = []string{"."}
	}
	return node, roots, nil
}

func (p *Parser) closeSinks() {
	for _, c := range p.closers {
		_ = c.Close()
	}
}

func (p *Parser) openSink(path string) (io.Writer, error) {
	key := []byte(path)
	if leaf, ok := p.sinks.FindExact(key); ok {
		return leaf.Value, nil
	}
	w, err := p.openFn(path)
	if err != nil {
		return nil, fmt.Errorf("parse: cannot open %q: %w", path, err)
	}
	leaf, _ := p.sinks.Insert(key)
	leaf.Value = w
	p.closers = append(p.closers, w)
	return w, nil
}

func (p *Parser) compileRegex(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	key := pattern
	if caseInsensitive {
		key = "(?i)" + key
	}
	if leaf, ok := p.regex.FindExact([]byte(key)); ok {
		return leaf.Value, nil
	}
	re, err := regexp.Compile(key)
	if err != nil {
		return nil, fmt.Errorf("parse: invalid regex %q: %w", pattern, err)
	}
	leaf, _ := p.regex.Insert([]byte(key))
	leaf.Value = re
	return re, nil
}

func (p *Parser) peek() (string, bool) {
	if p.pos >= len(p.args) {
		return "", false
	}
	return p.args[p.pos], true
}

func (p *Parser) advance() string {
	tok := p.args[p.pos]
	p.pos++
	return tok
}

// arg consumes and returns the next token as name's required value
// argument, or an error if the vector is exhausted.
func (p *Parser) arg(name string) (string, error) {
	v, ok := p.peek()
	if !ok {
		return "", fmt.Errorf("%w: %s requires an argument", ErrMissingArgument, name)
	}
	p.advance()
	return v, nil
}

func isOperatorToken(tok string) bool {
	switch tok {
	case "(", ")", "!", "-not", "-a", "-and", "-o", "-or", ",":
		return true
	}
	return false
}

// collectRootsAndGlobalOptions implements §4.F's root-path scan:
// bare non-flag tokens before the first test/action/operator are
// roots; recognized global/positional option tokens are consumed and
// applied to p.ctx in place; the scan stops at the first token that
// looks like the start of the expression grammar.
func (p *Parser) collectRootsAndGlobalOptions() {
	for {
		tok, ok := p.peek()
		if !ok || isOperatorToken(tok) {
			return
		}
		if fn, ok := optionTable[tok]; ok {
			start := p.pos
			p.advance()
			if err := fn(p); err != nil {
				// Rewind to the option token and end the scan:
				// parseLiteral dispatches the same table, re-runs the
				// option, and returns its error from Parse.
				p.pos = start
				return
			}
			continue
		}
		if _, ok := testOrActionTable[tok]; ok {
			return
		}
		if _, _, ok := matchNewerXY(tok); ok {
			return
		}
		if len(tok) > 0 && tok[0] == '-' {
			return
		}
		p.roots = append(p.roots, tok)
		p.advance()
	}
}

// EXPR := CLAUSE ("," CLAUSE)*
func (p *Parser) parseExpr() (*expr.Node, error) {
	left, err := p.parseClause()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok != "," {
			return left, nil
		}
		p.advance()
		right, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		left = p.pool.NewBinary(expr.OpComma, left, right)
	}
}

// CLAUSE := TERM (("-o" | "-or") TERM)*
func (p *Parser) parseClause() (*expr.Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || (tok != "-o" && tok != "-or") {
			return left, nil
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = p.pool.NewBinary(expr.OpOr, left, right)
	}
}

// TERM := FACTOR (("-a" | "-and" | ε) FACTOR)*
func (p *Parser) parseTerm() (*expr.Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok == ")" || tok == "," || tok == "-o" || tok == "-or" {
			return left, nil
		}
		if tok == "-a" || tok == "-and" {
			p.advance()
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = p.pool.NewBinary(expr.OpAnd, left, right)
	}
}

// FACTOR := "(" EXPR ")" | ("!" | "-not") FACTOR | LITERAL
func (p *Parser) parseFactor() (*expr.Node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("%w: expression ended unexpectedly", ErrUnexpectedToken)
	}
	switch tok {
	case "(":
		p.advance()
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok || closing != ")" {
			return nil, fmt.Errorf("%w: expected )", ErrUnexpectedToken)
		}
		p.advance()
		return n, nil
	case "!", "-not":
		p.advance()
		child, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return p.pool.NewUnary(child), nil
	default:
		return p.parseLiteral()
	}
}

// LITERAL dispatches tok to the predicate table (exact match, then
// the -newerXY family, then a fuzzy suggestion on miss).
func (p *Parser) parseLiteral() (*expr.Node, error) {
	tok, _ := p.peek()

	if fn, ok := optionTable[tok]; ok {
		p.advance()
		if err := fn(p); err != nil {
			return nil, err
		}
		return expr.TRUE, nil
	}
	if fn, ok := testOrActionTable[tok]; ok {
		p.advance()
		return fn(p)
	}
	if x, y, ok := matchNewerXY(tok); ok {
		p.advance()
		return p.parseNewerXY(tok, x, y)
	}
	if len(tok) > 0 && tok[0] != '-' {
		// A bare word reached the expression grammar: after
		// expression parsing has begun, only "-f PATH" may introduce
		// further roots (§4.F); anything else here is a stray
		// argument.
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedToken, tok)
	}
	return nil, p.unknownPredicate(tok)
}

func (p *Parser) unknownPredicate(tok string) error {
	suggestion, _ := fsutil.Suggest(allPredicateNames(), tok)
	if suggestion == "" {
		return fmt.Errorf("%w: %s", ErrUnknownPredicate, tok)
	}
	return fmt.Errorf("%w: %s (did you mean %s?)", ErrUnknownPredicate, tok, suggestion)
}
