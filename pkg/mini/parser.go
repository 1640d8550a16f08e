package mini

import (
	"fmt"
	"strings"
)

// Parser turns a token stream into a ParseResult. It never panics on
// malformed input; every failure path returns an error value.
type Parser struct {
	lex *Lexer
}

// NewParser builds a Parser over src.
func NewParser(src string) *Parser {
	return &Parser{lex: NewLexer(src)}
}

// Parse parses the entire input as either a top-level control command
// or a pattern expression.
func Parse(src string) (ParseResult, error) {
	p := NewParser(src)
	if cmd, ok, err := p.tryCommand(); err != nil {
		return ParseResult{}, err
	} else if ok {
		return ParseResult{Command: cmd}, nil
	}
	node, err := p.parseExpr()
	if err != nil {
		return ParseResult{}, err
	}
	if t := p.lex.Peek(); t.Kind != TokEOF {
		return ParseResult{}, unexpected(t)
	}
	return ParseResult{Node: node}, nil
}

func (p *Parser) tryCommand() (*Command, bool, error) {
	t := p.lex.Peek()
	if t.Kind != TokAtom || !IsCommandKeyword(t.Text) {
		return nil, false, nil
	}
	p.lex.Next()
	switch strings.ToLower(t.Text) {
	case "hush":
		if rest := p.lex.Peek(); rest.Kind != TokEOF {
			return nil, false, fmt.Errorf("hush takes no argument, got %q at %d", rest.Text, rest.Begin)
		}
		return &Command{Kind: CmdHush}, true, nil
	case "setcps", "setbpm":
		arg := p.lex.Next()
		if arg.Kind != TokNumber {
			return nil, false, fmt.Errorf("%s expects a number, got %q at %d", t.Text, arg.Text, arg.Begin)
		}
		if rest := p.lex.Peek(); rest.Kind != TokEOF {
			return nil, false, fmt.Errorf("unexpected trailing input at %d", rest.Begin)
		}
		kind := CmdSetCPS
		if strings.ToLower(t.Text) == "setbpm" {
			kind = CmdSetBPM
		}
		return &Command{Kind: kind, Value: arg.Num}, true, nil
	}
	return nil, false, nil
}

// parseExpr == alt.
func (p *Parser) parseExpr() (*Node, error) {
	return p.parseAlt()
}

func (p *Parser) parseAlt() (*Node, error) {
	begin := p.lex.Peek().Begin
	first, err := p.parseCat()
	if err != nil {
		return nil, err
	}
	if p.lex.Peek().Kind != TokPipe {
		return first, nil
	}
	first.Weight = 1
	alts := []*Node{first}
	for p.lex.Peek().Kind == TokPipe {
		p.lex.Next()
		weight := 1.0
		if p.lex.Peek().Kind == TokNumber {
			weight = p.lex.Next().Num
		}
		next, err := p.parseCat()
		if err != nil {
			return nil, err
		}
		next.Weight = weight
		alts = append(alts, next)
	}
	n := newNode(KAlt, begin, p.lastEnd())
	n.Children = alts
	return n, nil
}

// parseCat == element+, stopping at a delimiter the caller owns.
func (p *Parser) parseCat() (*Node, error) {
	begin := p.lex.Peek().Begin
	var elems []*Node
	for isElementStart(p.lex.Peek().Kind) {
		el, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
	}
	if len(elems) == 0 {
		t := p.lex.Peek()
		return nil, fmt.Errorf("expected an element at %d, got %s", t.Begin, t.Kind)
	}
	if len(elems) == 1 {
		return elems[0], nil
	}
	n := newNode(KSeq, begin, p.lastEnd())
	n.Children = elems
	return n, nil
}

func isElementStart(k TokenKind) bool {
	switch k {
	case TokAtom, TokNumber, TokRest, TokLBracket, TokLBrace, TokLAngle:
		return true
	default:
		return false
	}
}

// parseElement == atom modifiers*, with the "0 .. 3" range production
// folded in at this level since it spans two atoms.
func (p *Parser) parseElement() (*Node, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if base.Kind == KNumber && p.lex.Peek().Kind == TokDotDot {
		p.lex.Next()
		upper, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		if upper.Kind != KNumber {
			return nil, fmt.Errorf("range upper bound must be a number at %d", upper.Begin)
		}
		r := newNode(KRange, base.Begin, upper.End)
		r.Num = base.Num
		r.RangeTo = upper
		base = r
	}
	for {
		ok, err := p.tryParseModifier(base)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}
	base.End = p.lastEnd()
	return base, nil
}

// tryParseModifier consumes one modifier onto base if present, mutating
// base in place (Ops/Weight/Reps are accumulated directly on the
// element rather than wrapped, matching how @ and ! apply to the
// element as a whole rather than nesting).
func (p *Parser) tryParseModifier(base *Node) (bool, error) {
	t := p.lex.Peek()
	switch t.Kind {
	case TokStar:
		p.lex.Next()
		arg, err := p.parseModifierArg()
		if err != nil {
			return false, err
		}
		base.Ops = append(base.Ops, Op{Kind: OpFast, Arg: arg})
		return true, nil
	case TokSlash:
		p.lex.Next()
		arg, err := p.parseModifierArg()
		if err != nil {
			return false, err
		}
		base.Ops = append(base.Ops, Op{Kind: OpSlow, Arg: arg})
		return true, nil
	case TokLParen:
		p.lex.Next()
		pulse, err := p.parseExpr()
		if err != nil {
			return false, err
		}
		if _, err := p.expect(TokComma); err != nil {
			return false, err
		}
		step, err := p.parseExpr()
		if err != nil {
			return false, err
		}
		var rot *Node
		if p.lex.Peek().Kind == TokComma {
			p.lex.Next()
			rot, err = p.parseExpr()
			if err != nil {
				return false, err
			}
		}
		if _, err := p.expect(TokRParen); err != nil {
			return false, err
		}
		base.Ops = append(base.Ops, Op{Kind: OpEuclid, Pulse: pulse, Step: step, Rot: rot})
		return true, nil
	case TokAt:
		p.lex.Next()
		n, err := p.expect(TokNumber)
		if err != nil {
			return false, err
		}
		base.Weight = n.Num
		return true, nil
	case TokBang:
		p.lex.Next()
		n, err := p.expect(TokNumber)
		if err != nil {
			return false, err
		}
		base.Reps = int(n.Num)
		return true, nil
	case TokColon:
		p.lex.Next()
		key, err := p.parseAtom()
		if err != nil {
			return false, err
		}
		base.Ops = append(base.Ops, Op{Kind: OpTail, Key: key})
		return true, nil
	case TokQuestion:
		p.lex.Next()
		base.Ops = append(base.Ops, Op{Kind: OpDegrade})
		return true, nil
	case TokDoubleQuestion:
		p.lex.Next()
		n, err := p.expect(TokNumber)
		if err != nil {
			return false, err
		}
		base.Ops = append(base.Ops, Op{Kind: OpDegradeBy, Amount: n.Num})
		return true, nil
	default:
		return false, nil
	}
}

// parseModifierArg parses the right-hand side of '*'/'/': a single
// atom, which may itself be a bracketed or angle-bracketed group (so
// "e*2" and "e*[2 3]" both work without a dedicated expr-in-modifier
// production).
func (p *Parser) parseModifierArg() (*Node, error) {
	return p.parseAtom()
}

func (p *Parser) parseAtom() (*Node, error) {
	t := p.lex.Next()
	switch t.Kind {
	case TokNumber:
		n := newNode(KNumber, t.Begin, t.End)
		n.Num = t.Num
		return n, nil
	case TokAtom:
		n := newNode(KIdent, t.Begin, t.End)
		n.Text = t.Text
		return n, nil
	case TokRest:
		return newNode(KRest, t.Begin, t.End), nil
	case TokLBracket:
		inner, err := p.parseStackOrCat()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRBracket); err != nil {
			return nil, err
		}
		inner.Begin, inner.End = t.Begin, p.lastEnd()
		return inner, nil
	case TokLAngle:
		inner, err := p.parseStackOrCat()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRAngle); err != nil {
			return nil, err
		}
		slowcat := newNode(KSlowcat, t.Begin, p.lastEnd())
		slowcat.Children = flattenToChildren(inner)
		return slowcat, nil
	case TokLBrace:
		inner, err := p.parseStackOrCat()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRBrace); err != nil {
			return nil, err
		}
		poly := newNode(KPolymeter, t.Begin, p.lastEnd())
		poly.Children = flattenToChildren(inner)
		if p.lex.Peek().Kind == TokPercent {
			p.lex.Next()
			steps, err := p.expect(TokNumber)
			if err != nil {
				return nil, err
			}
			stepsNode := newNode(KNumber, steps.Begin, steps.End)
			stepsNode.Num = steps.Num
			poly.Steps = stepsNode
			poly.End = p.lastEnd()
		}
		return poly, nil
	default:
		return nil, unexpected(t)
	}
}

// flattenToChildren normalises a parseStackOrCat result (which may be a
// bare KSeq/KStack/single element) into a slice of per-slot nodes for
// constructs (slowcat, polymeter) that treat commas as top-level slots.
func flattenToChildren(n *Node) []*Node {
	if n.Kind == KStack {
		return n.Children
	}
	return []*Node{n}
}

// parseStackOrCat == catList ( ',' catList )*.
func (p *Parser) parseStackOrCat() (*Node, error) {
	begin := p.lex.Peek().Begin
	first, err := p.parseCat()
	if err != nil {
		return nil, err
	}
	if p.lex.Peek().Kind != TokComma {
		return first, nil
	}
	cats := []*Node{first}
	for p.lex.Peek().Kind == TokComma {
		p.lex.Next()
		next, err := p.parseCat()
		if err != nil {
			return nil, err
		}
		cats = append(cats, next)
	}
	n := newNode(KStack, begin, p.lastEnd())
	n.Children = cats
	return n, nil
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	t := p.lex.Next()
	if t.Kind != kind {
		return t, fmt.Errorf("expected %s, got %q at %d", kind, t.Text, t.Begin)
	}
	return t, nil
}

func (p *Parser) lastEnd() int {
	return p.lex.pos
}
