package builtin

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/tool"
)

const calcHistoryKey = "calc_history"

// calcHistoryLimit caps how many past calculations are kept per user.
const calcHistoryLimit = 10

// NewCalculatorTool builds the math expression evaluator. Supported syntax:
// + - * / ^, parentheses, the constants pi and e, and the functions sqrt,
// sin, cos, tan, log (base 10), ln and abs. The last calculations are kept
// in the user's extension data under "calc_history".
func NewCalculatorTool() (tool.Tool, tool.Metadata, error) {
	md := tool.Metadata{
		Description: "Evaluate math expressions (e.g. 2+2, sqrt(16), sin(0.5))",
		Version:     "1.0.0",
		Author:      "ChatMesh Team",
		Category:    "math",
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "Math expression to evaluate, e.g. 2+2, sqrt(16), sin(0.5)",
			},
		},
		"required": []string{"expression"},
	}

	t := tool.NewFunctionTool("calculator", md.Description, schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			expression, _ := args["expression"].(string)

			result, err := evalExpression(expression)
			if err != nil {
				return fmt.Sprintf("ERROR: cannot evaluate %q: %v", expression, err), nil
			}

			appendCalcHistory(tc, expression, result)

			return fmt.Sprintf("%s = %s", strings.TrimSpace(expression), formatNumber(result)), nil
		})

	return t, md, nil
}

type calcEntry struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
	Timestamp  string  `json:"timestamp"`
}

func appendCalcHistory(tc *core.ToolContext, expression string, result float64) {
	var history []calcEntry
	if raw, ok := tc.GetData(calcHistoryKey); ok {
		_ = reencode(raw, &history)
	}

	history = append(history, calcEntry{
		Expression: strings.TrimSpace(expression),
		Result:     result,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	if len(history) > calcHistoryLimit {
		history = history[len(history)-calcHistoryLimit:]
	}

	tc.SetData(calcHistoryKey, history)
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}

	return strconv.FormatFloat(v, 'g', 12, 64)
}

// evalExpression parses and evaluates a math expression with a small
// recursive descent parser. Grammar:
//
//	expr   := term (('+'|'-') term)*
//	term   := unary (('*'|'/') unary)*
//	unary  := '-' unary | power
//	power  := atom ('^' unary)?
//	atom   := number | const | func '(' expr ')' | '(' expr ')'
func evalExpression(input string) (float64, error) {
	p := &exprParser{input: strings.ToLower(input)}
	p.skipSpaces()

	if p.pos >= len(p.input) {
		return 0, fmt.Errorf("empty expression")
	}

	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}

	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected %q at position %d", p.input[p.pos], p.pos)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("result is not a finite number")
	}

	return v, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}

	return 0
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++

		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}

		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++

		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}

		if op == '*' {
			left *= right
		} else {
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	}

	return p.parsePower()
}

func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parseAtom()
	if err != nil {
		return 0, err
	}

	p.skipSpaces()
	if p.peek() != '^' {
		return base, nil
	}
	p.pos++

	// Right associative.
	exp, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	return math.Pow(base, exp), nil
}

func (p *exprParser) parseAtom() (float64, error) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, fmt.Errorf("unexpected end of expression")
	}

	c := p.input[p.pos]

	if c == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}

	if c >= '0' && c <= '9' || c == '.' {
		return p.parseNumber()
	}

	if unicode.IsLetter(rune(c)) {
		return p.parseIdent()
	}

	return 0, fmt.Errorf("unexpected %q at position %d", c, p.pos)
}

func (p *exprParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' || c == '.' {
			p.pos++
			continue
		}
		break
	}

	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}

	return v, nil
}

func (p *exprParser) parseIdent() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) && unicode.IsLetter(rune(p.input[p.pos])) {
		p.pos++
	}
	name := p.input[start:p.pos]

	switch name {
	case "pi":
		return math.Pi, nil
	case "e":
		return math.E, nil
	}

	fn, ok := mathFuncs[name]
	if !ok {
		return 0, fmt.Errorf("unknown function or constant %q", name)
	}

	p.skipSpaces()
	if p.peek() != '(' {
		return 0, fmt.Errorf("expected '(' after %q", name)
	}
	p.pos++

	arg, err := p.parseExpr()
	if err != nil {
		return 0, err
	}

	p.skipSpaces()
	if p.peek() != ')' {
		return 0, fmt.Errorf("missing closing parenthesis for %q", name)
	}
	p.pos++

	return fn(arg)
}

var mathFuncs = map[string]func(float64) (float64, error){
	"sqrt": func(x float64) (float64, error) {
		if x < 0 {
			return 0, fmt.Errorf("square root of negative number")
		}
		return math.Sqrt(x), nil
	},
	"sin": func(x float64) (float64, error) { return math.Sin(x), nil },
	"cos": func(x float64) (float64, error) { return math.Cos(x), nil },
	"tan": func(x float64) (float64, error) { return math.Tan(x), nil },
	"abs": func(x float64) (float64, error) { return math.Abs(x), nil },
	"log": func(x float64) (float64, error) {
		if x <= 0 {
			return 0, fmt.Errorf("logarithm of non-positive number")
		}
		return math.Log10(x), nil
	},
	"ln": func(x float64) (float64, error) {
		if x <= 0 {
			return 0, fmt.Errorf("logarithm of non-positive number")
		}
		return math.Log(x), nil
	},
}
