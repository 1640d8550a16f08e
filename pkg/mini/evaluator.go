package mini

import (
	"github.com/chase3718/strudel-go/pkg/diag"
	"github.com/chase3718/strudel-go/pkg/pattern"
	"github.com/chase3718/strudel-go/pkg/rational"
	"github.com/chase3718/strudel-go/pkg/registry"
	"github.com/chase3718/strudel-go/pkg/tspan"
	"github.com/chase3718/strudel-go/pkg/value"
)

// evaluator lowers an AST to a Pattern. It carries a monotonically
// increasing counter used as the nodeID seed for any combinator this
// source introduces randomness at (rand, degrade, alt); the same
// source parsed twice assigns the same ids in the same order, keeping
// per-cycle randomness reproducible as required by the pattern
// engine's seeding contract.
type evaluator struct {
	counter uint64
}

func (e *evaluator) nextID() uint64 {
	e.counter++
	return e.counter
}

// Evaluate parses and lowers source. Exactly one of the returned
// Pattern or Command is meaningful: a control command (setcps/setbpm/
// hush) returns a nil error with Command set and Silence as the Pattern.
func Evaluate(source string) (pattern.Pattern, *Command, error) {
	res, err := Parse(source)
	if err != nil {
		return pattern.Silence, nil, err
	}
	if res.Command != nil {
		return pattern.Silence, res.Command, nil
	}
	e := &evaluator{}
	return e.lowerElementFull(res.Node).pat, nil, nil
}

// EvaluateDiag is Evaluate wrapped for hosts that want a diag.Diagnostic
// instead of a bare error, per the host evaluator's "safe evaluation"
// contract: a parse failure never panics and is reported as a ParseError
// whose message includes the error's source offset; the Diagnostic's
// Span field is not set.
func EvaluateDiag(source string) (pattern.Pattern, *Command, *diag.Diagnostic) {
	p, cmd, err := Evaluate(source)
	if err != nil {
		d := diag.New(diag.ParseError, err.Error())
		return pattern.Silence, nil, &d
	}
	return p, cmd, nil
}

type loweredElement struct {
	pat    pattern.Pattern
	weight float64
	reps   int
}

func orDefault(f, fallback float64) float64 {
	if f == 0 {
		return fallback
	}
	return f
}

func intOrDefault(n, fallback int) int {
	if n == 0 {
		return fallback
	}
	return n
}

func (e *evaluator) lowerElementFull(n *Node) loweredElement {
	p := e.lowerBase(n)
	for _, op := range n.Ops {
		p = e.applyOp(p, op)
	}
	return loweredElement{
		pat:    p,
		weight: orDefault(n.Weight, 1),
		reps:   intOrDefault(n.Reps, 1),
	}
}

func (e *evaluator) lowerBase(n *Node) pattern.Pattern {
	switch n.Kind {
	case KIdent:
		if p, ok := registry.Global.Lookup(n.Text); ok {
			return p
		}
		return pattern.Pure(value.MapOf("s", value.String(n.Text)))
	case KNumber:
		return pattern.Pure(value.Number(n.Num))
	case KRest:
		return pattern.Silence
	case KSeq:
		return e.lowerSeq(n)
	case KStack:
		return e.lowerStackChildren(n.Children)
	case KSlowcat:
		return e.lowerSlowcat(n)
	case KPolymeter:
		return e.lowerPolymeter(n)
	case KAlt:
		return e.lowerAlt(n)
	case KRange:
		return e.lowerSeq(rangeAsSeq(n))
	default:
		return pattern.Silence
	}
}

func (e *evaluator) lowerStackChildren(children []*Node) pattern.Pattern {
	pats := make([]pattern.Pattern, len(children))
	for i, c := range children {
		pats[i] = e.lowerElementFull(c).pat
	}
	return pattern.Stack(pats...)
}

// lowerSeq packs a cat's elements into one cycle via Timecat, expanding
// '!'-replicated elements into repeated weighted slots and ".."-ranges
// into their constituent numbers inline, so "0 .. 3" and "0 1 2 3"
// produce identical timing.
func (e *evaluator) lowerSeq(n *Node) pattern.Pattern {
	var wps []pattern.WeightedPattern
	for _, el := range n.Children {
		if el.Kind == KRange && len(el.Ops) == 0 {
			for _, num := range expandRange(el) {
				le := e.lowerElementFull(num)
				for i := 0; i < le.reps; i++ {
					wps = append(wps, pattern.WeightedPattern{Weight: rational.FromFloat(le.weight), Pattern: le.pat})
				}
			}
			continue
		}
		le := e.lowerElementFull(el)
		for i := 0; i < le.reps; i++ {
			wps = append(wps, pattern.WeightedPattern{Weight: rational.FromFloat(le.weight), Pattern: le.pat})
		}
	}
	return pattern.Timecat(wps...)
}

// rangeAsSeq turns a range lowered on its own (e.g. the entire source
// "0 .. 3", or a range carrying modifiers such as "0 .. 3*2") into a cat
// of its numbers; the range's own modifiers are applied afterwards by
// lowerElementFull.
func rangeAsSeq(n *Node) *Node {
	seq := newNode(KSeq, n.Begin, n.End)
	seq.Children = expandRange(n)
	return seq
}

func expandRange(n *Node) []*Node {
	from := int(n.Num)
	to := int(n.RangeTo.Num)
	var out []*Node
	if from <= to {
		for i := from; i <= to; i++ {
			out = append(out, numberNode(i))
		}
	} else {
		for i := from; i >= to; i-- {
			out = append(out, numberNode(i))
		}
	}
	return out
}

func numberNode(v int) *Node {
	n := newNode(KNumber, 0, 0)
	n.Num = float64(v)
	return n
}

// slowcatSlots splits one comma-separated lane into its space-separated
// per-cycle slots.
func slowcatSlots(lane *Node) []*Node {
	if lane.Kind == KSeq {
		return lane.Children
	}
	return []*Node{lane}
}

// lowerSlowcat lowers every comma-separated lane of a "<...>" group. The
// parser already flattens a stacked "<a b, c d>" into one child per
// lane (flattenToChildren in parser.go), the same shape lowerPolymeter
// consumes directly, so each of n.Children here is already one lane.
func (e *evaluator) lowerSlowcat(n *Node) pattern.Pattern {
	parts := make([]pattern.Pattern, len(n.Children))
	for i, lane := range n.Children {
		slots := slowcatSlots(lane)
		pats := make([]pattern.Pattern, len(slots))
		for j, s := range slots {
			pats[j] = e.lowerElementFull(s).pat
		}
		parts[i] = pattern.Cat(pats...)
	}
	return pattern.Stack(parts...)
}

func (e *evaluator) lowerPolymeter(n *Node) pattern.Pattern {
	groups := n.Children
	pats := make([]pattern.Pattern, len(groups))
	fallback := rational.One
	for i, g := range groups {
		pats[i] = e.lowerElementFull(g).pat
		if n.Steps == nil {
			if t, ok := pats[i].Tactus(); ok && t.Greater(fallback) {
				fallback = t
			}
		}
	}
	steps := fallback
	if n.Steps != nil {
		steps = rational.FromInt(int64(n.Steps.Num))
	}
	return pattern.Polymeter(steps, pats...)
}

func (e *evaluator) lowerAlt(n *Node) pattern.Pattern {
	choices := make([]pattern.WeightedPatternChoice, len(n.Children))
	for i, c := range n.Children {
		choices[i] = pattern.WeightedPatternChoice{
			Weight:  orDefault(c.Weight, 1),
			Pattern: e.lowerElementFull(c).pat,
		}
	}
	return pattern.ChooseCyclesWeighted(e.nextID(), choices)
}

// evalConstNumber lowers n and samples its value at cycle 0, for
// modifier arguments (rates, euclid parameters) that are in practice
// always constants in mini-notation source. A pattern-valued rate
// (e.g. "e*<2 3>") samples whichever value cycle 0 holds rather than
// truly varying per cycle.
func (e *evaluator) evalConstNumber(n *Node) float64 {
	if n.Kind == KNumber {
		return n.Num
	}
	p := e.lowerElementFull(n).pat
	haps := p.Query(tspan.FromInts(0, 1))
	if len(haps) == 0 {
		return 1
	}
	v, _ := haps[0].Value.AsNumber()
	return v
}

func (e *evaluator) applyOp(p pattern.Pattern, op Op) pattern.Pattern {
	switch op.Kind {
	case OpFast:
		return p.Fast(rational.FromFloat(e.evalConstNumber(op.Arg)))
	case OpSlow:
		return p.Slow(rational.FromFloat(e.evalConstNumber(op.Arg)))
	case OpEuclid:
		pulse := int(e.evalConstNumber(op.Pulse))
		step := int(e.evalConstNumber(op.Step))
		rot := 0
		if op.Rot != nil {
			rot = int(e.evalConstNumber(op.Rot))
		}
		return p.Euclid(pulse, step, rot)
	case OpDegrade:
		return p.DegradeBy(e.nextID(), 0.5)
	case OpDegradeBy:
		return p.DegradeBy(e.nextID(), op.Amount)
	case OpTail:
		return e.applyTail(p, op.Key)
	default:
		return p
	}
}

func (e *evaluator) applyTail(p pattern.Pattern, key *Node) pattern.Pattern {
	if key.Kind == KNumber {
		n := key.Num
		return p.WithValue(func(v value.V) value.V { return v.WithKey("n", value.Number(n)) })
	}
	text := key.Text
	return p.WithValue(func(v value.V) value.V { return v.WithKey("s", value.String(text)) })
}
