package qasm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// MaxQubits bounds the declared qubit count, the declared bit count and any
// bare index.
const MaxQubits = 1024

type register struct {
	offset int
	size   int
}

type parser struct {
	qregs   map[string]register
	cregs   map[string]register
	nqubits int
	nclbits int
	gates   []Gate
}

// Parse reads an OpenQASM 2 program. Headers, includes, barriers and gate
// definitions are skipped; every other statement becomes a Gate.
func Parse(src string) (Circuit, error) {
	p := &parser{qregs: map[string]register{}, cregs: map[string]register{}}
	for _, st := range splitStatements(src) {
		if err := p.statement(st.text); err != nil {
			return Circuit{}, fmt.Errorf("line %d: %w", st.line, err)
		}
	}
	return Circuit{NumQubits: p.nqubits, NumClbits: p.nclbits, Gates: p.gates}, nil
}

type statement struct {
	text string
	line int
}

// splitStatements strips // comments and splits on ';' outside braces.
func splitStatements(src string) []statement {
	var (
		out   []statement
		buf   strings.Builder
		depth int
		start int
	)
	flush := func() {
		text := strings.TrimSpace(buf.String())
		if text != "" {
			out = append(out, statement{text: text, line: start})
		}
		buf.Reset()
		start = 0
	}
	for i, line := range strings.Split(src, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		for _, r := range line {
			if start == 0 && !unicode.IsSpace(r) {
				start = i + 1
			}
			switch {
			case r == '{':
				depth++
				buf.WriteRune(r)
			case r == '}':
				buf.WriteRune(r)
				if depth > 0 {
					depth--
				}
				if depth == 0 {
					flush()
				}
			case r == ';' && depth == 0:
				flush()
			default:
				buf.WriteRune(r)
			}
		}
		buf.WriteByte(' ')
	}
	flush()
	return out
}

func (p *parser) statement(text string) error {
	head, rest := splitHead(text)
	switch head {
	case "OPENQASM", "include", "barrier", "gate", "opaque", "if":
		return nil
	case "qreg", "creg":
		return p.declare(head, rest)
	case "measure":
		return p.measure(rest)
	}
	name, params, args, err := splitGate(text)
	if err != nil {
		return err
	}
	values := make([]float64, 0, len(params))
	for _, expr := range params {
		v, err := evalAngle(expr)
		if err != nil {
			return err
		}
		values = append(values, v)
	}
	operands := make([][]int, 0, len(args))
	for _, arg := range args {
		qs, err := resolve(p.qregs, arg)
		if err != nil {
			return err
		}
		operands = append(operands, qs)
	}
	if len(operands) == 0 {
		return fmt.Errorf("%w: %q has no qubit operands", ErrSyntax, text)
	}
	// A bare register on a single-operand gate applies the gate to every qubit.
	if len(operands) == 1 {
		for _, q := range operands[0] {
			p.gates = append(p.gates, Gate{Name: name, Qubits: []int{q}, Params: values})
		}
		return nil
	}
	qubits := make([]int, 0, len(operands))
	for _, qs := range operands {
		if len(qs) != 1 {
			return fmt.Errorf("%w: register broadcast in multi-qubit gate %q", ErrSyntax, text)
		}
		qubits = append(qubits, qs[0])
	}
	p.gates = append(p.gates, Gate{Name: name, Qubits: qubits, Params: values})
	return nil
}

func (p *parser) declare(kind, rest string) error {
	name, size, ok := parseRef(rest)
	if !ok || size <= 0 {
		return fmt.Errorf("%w: bad %s declaration %q", ErrSyntax, kind, rest)
	}
	total := p.nclbits
	if kind == "qreg" {
		total = p.nqubits
	}
	if size > MaxQubits-total {
		return fmt.Errorf("%w: %s %s[%d] exceeds %d", ErrQubitRange, kind, name, size, MaxQubits)
	}
	if kind == "qreg" {
		p.qregs[name] = register{offset: p.nqubits, size: size}
		p.nqubits += size
		return nil
	}
	p.cregs[name] = register{offset: p.nclbits, size: size}
	p.nclbits += size
	return nil
}

func (p *parser) measure(rest string) error {
	src, dst, found := strings.Cut(rest, "->")
	qs, err := resolve(p.qregs, strings.TrimSpace(src))
	if err != nil {
		return err
	}
	var cs []int
	if found {
		cs, err = resolve(p.cregs, strings.TrimSpace(dst))
		if err != nil {
			return err
		}
		if len(cs) != len(qs) {
			return fmt.Errorf("%w: measure size mismatch in %q", ErrSyntax, rest)
		}
	}
	for i, q := range qs {
		g := Gate{Name: "measure", Qubits: []int{q}}
		if cs != nil {
			g.Clbits = []int{cs[i]}
		}
		p.gates = append(p.gates, g)
	}
	return nil
}

// resolve maps an operand such as q[2] or q to absolute indices. Without
// any declared register the bracket index is used as is.
func resolve(regs map[string]register, operand string) ([]int, error) {
	name, idx, ok := parseRef(operand)
	if !ok {
		reg, known := regs[strings.TrimSpace(operand)]
		if !known {
			return nil, fmt.Errorf("%w: unknown operand %q", ErrSyntax, operand)
		}
		out := make([]int, reg.size)
		for i := range out {
			out[i] = reg.offset + i
		}
		return out, nil
	}
	if len(regs) == 0 {
		if idx >= MaxQubits {
			return nil, fmt.Errorf("%w: %s[%d] exceeds %d", ErrQubitRange, name, idx, MaxQubits)
		}
		return []int{idx}, nil
	}
	reg, known := regs[name]
	if !known {
		return nil, fmt.Errorf("%w: unknown register %q", ErrSyntax, name)
	}
	if idx >= reg.size {
		return nil, fmt.Errorf("%w: %s[%d] (size %d)", ErrQubitRange, name, idx, reg.size)
	}
	return []int{reg.offset + idx}, nil
}

func splitHead(text string) (string, string) {
	idx := strings.IndexFunc(text, func(r rune) bool { return unicode.IsSpace(r) || r == '(' })
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimSpace(text[idx:])
}

func splitGate(text string) (string, []string, []string, error) {
	name, rest := splitHead(text)
	if name == "" {
		return "", nil, nil, fmt.Errorf("%w: empty statement", ErrSyntax)
	}
	var params []string
	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return "", nil, nil, fmt.Errorf("%w: unclosed parameter list in %q", ErrSyntax, text)
		}
		for _, expr := range strings.Split(rest[1:end], ",") {
			if expr = strings.TrimSpace(expr); expr != "" {
				params = append(params, expr)
			}
		}
		rest = strings.TrimSpace(rest[end+1:])
	}
	var args []string
	for _, arg := range strings.Split(rest, ",") {
		if arg = strings.TrimSpace(arg); arg != "" {
			args = append(args, arg)
		}
	}
	return strings.ToLower(name), params, args, nil
}

// parseRef splits "name[idx]".
func parseRef(s string) (string, int, bool) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return "", 0, false
	}
	idx, err := strconv.Atoi(strings.TrimSpace(s[open+1 : len(s)-1]))
	if err != nil || idx < 0 {
		return "", 0, false
	}
	return strings.TrimSpace(s[:open]), idx, true
}

// evalAngle evaluates the small arithmetic used in gate parameters:
// numbers, pi, unary minus, + - * / and parentheses.
func evalAngle(expr string) (float64, error) {
	e := &angleExpr{src: strings.ReplaceAll(expr, " ", "")}
	v, err := e.sum()
	if err != nil {
		return 0, err
	}
	if e.pos != len(e.src) {
		return 0, fmt.Errorf("%w: bad parameter %q", ErrSyntax, expr)
	}
	return v, nil
}

type angleExpr struct {
	src string
	pos int
}

func (e *angleExpr) peek() byte {
	if e.pos < len(e.src) {
		return e.src[e.pos]
	}
	return 0
}

func (e *angleExpr) sum() (float64, error) {
	v, err := e.product()
	if err != nil {
		return 0, err
	}
	for {
		switch e.peek() {
		case '+':
			e.pos++
			r, err := e.product()
			if err != nil {
				return 0, err
			}
			v += r
		case '-':
			e.pos++
			r, err := e.product()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (e *angleExpr) product() (float64, error) {
	v, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		switch e.peek() {
		case '*':
			e.pos++
			r, err := e.unary()
			if err != nil {
				return 0, err
			}
			v *= r
		case '/':
			e.pos++
			r, err := e.unary()
			if err != nil {
				return 0, err
			}
			if r == 0 {
				return 0, fmt.Errorf("%w: division by zero in %q", ErrSyntax, e.src)
			}
			v /= r
		default:
			return v, nil
		}
	}
}

func (e *angleExpr) unary() (float64, error) {
	switch e.peek() {
	case '-':
		e.pos++
		v, err := e.unary()
		return -v, err
	case '+':
		e.pos++
		return e.unary()
	case '(':
		e.pos++
		v, err := e.sum()
		if err != nil {
			return 0, err
		}
		if e.peek() != ')' {
			return 0, fmt.Errorf("%w: unbalanced parentheses in %q", ErrSyntax, e.src)
		}
		e.pos++
		return v, nil
	}
	if strings.HasPrefix(e.src[e.pos:], "pi") {
		e.pos += 2
		return math.Pi, nil
	}
	start := e.pos
	for e.pos < len(e.src) {
		c := e.src[e.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' ||
			((c == '-' || c == '+') && e.pos > start && (e.src[e.pos-1] == 'e' || e.src[e.pos-1] == 'E')) {
			e.pos++
			continue
		}
		break
	}
	if start == e.pos {
		return 0, fmt.Errorf("%w: bad parameter %q", ErrSyntax, e.src)
	}
	v, err := strconv.ParseFloat(e.src[start:e.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number in %q", ErrSyntax, e.src)
	}
	return v, nil
}
