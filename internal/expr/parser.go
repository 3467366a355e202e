package expr

import (
	"strconv"
	"strings"

	"github.com/jacoelho/mdq/internal/field"
)

// statementWords are identifiers that only make sense as statements or
// definitions and are rejected wherever an operand is expected.
var statementWords = map[string]string{
	"import":   "import statements are not allowed",
	"from":     "import statements are not allowed",
	"def":      "function definitions are not allowed",
	"lambda":   "function definitions are not allowed",
	"class":    "class definitions are not allowed",
	"async":    "function definitions are not allowed",
	"await":    "await is not allowed",
	"yield":    "yield is not allowed",
	"global":   "global declarations are not allowed",
	"nonlocal": "nonlocal declarations are not allowed",
	"del":      "del statements are not allowed",
}

type parserState struct {
	tokens []token
	pos    int
}

func parse(input string) (node, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}

	state := parserState{tokens: tokens}
	if state.current().typ == tokenEOF {
		return nil, expressionError("expression is empty")
	}

	root, err := state.parseExpression()
	if err != nil {
		return nil, err
	}

	switch tok := state.current(); tok.typ {
	case tokenEOF:
		return root, nil
	case tokenSemicolon:
		return nil, unsupportedError("statements are not supported (';' at position %d)", tok.pos)
	case tokenAssign:
		return nil, unsupportedError("assignment is not supported (position %d)", tok.pos)
	case tokenIdentifier:
		if reason, ok := statementWords[tok.literal]; ok {
			return nil, unsafeError("%s (position %d)", reason, tok.pos)
		}
		if tok.literal == "if" || tok.literal == "for" {
			return nil, unsupportedError("conditional and loop expressions are not supported (position %d)", tok.pos)
		}
		return nil, expressionError("unexpected %s at position %d", tok.describe(), tok.pos)
	default:
		return nil, expressionError("unexpected %s at position %d", tok.describe(), tok.pos)
	}
}

func (p *parserState) parseExpression() (node, error) {
	return p.parseOr()
}

func (p *parserState) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current().typ == tokenOr {
		op := p.advance().typ
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}

	return left, nil
}

func (p *parserState) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.current().typ == tokenAnd {
		op := p.advance().typ
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}

	return left, nil
}

func (p *parserState) parseNot() (node, error) {
	if p.current().typ == tokenNot {
		op := p.advance().typ
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op, operand: operand}, nil
	}

	return p.parseComparison()
}

// parseComparison handles chained comparisons: a < b < c means a < b and b < c.
func (p *parserState) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	var result node
	for {
		op, negated, ok := p.comparisonOperator()
		if !ok {
			break
		}

		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}

		comparison := comparisonNode{op: op, negated: negated, left: left, right: right}
		if result == nil {
			result = comparison
		} else {
			result = binaryNode{op: tokenAnd, left: result, right: comparison}
		}
		left = right
	}

	if result == nil {
		return left, nil
	}
	return result, nil
}

func (p *parserState) comparisonOperator() (tokenType, bool, bool) {
	tok := p.current()
	switch tok.typ {
	case tokenEqual, tokenNotEqual, tokenLess, tokenLessEqual, tokenGreater, tokenGreaterEqual, tokenIn:
		p.advance()
		return tok.typ, false, true
	case tokenIs:
		p.advance()
		if p.current().typ == tokenNot {
			p.advance()
			return tokenIs, true, true
		}
		return tokenIs, false, true
	case tokenNot:
		if p.peek().typ == tokenIn {
			p.advance()
			p.advance()
			return tokenIn, true, true
		}
	}
	return 0, false, false
}

func (p *parserState) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		typ := p.current().typ
		if typ != tokenPlus && typ != tokenMinus {
			break
		}

		op := p.advance().typ
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}

	return left, nil
}

func (p *parserState) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		typ := p.current().typ
		if typ != tokenStar && typ != tokenSlash && typ != tokenPercent {
			break
		}

		op := p.advance().typ
		if op == tokenStar && p.current().typ == tokenStar {
			return nil, unsupportedError("'**' is not supported (position %d)", p.current().pos)
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}

	return left, nil
}

func (p *parserState) parseUnary() (node, error) {
	typ := p.current().typ
	if typ == tokenMinus || typ == tokenPlus {
		op := p.advance().typ
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op, operand: operand}, nil
	}

	return p.parsePostfix()
}

func (p *parserState) parsePostfix() (node, error) {
	current, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.current()
		switch tok.typ {
		case tokenDot:
			p.advance()
			name := p.current()
			if !name.isWord() {
				return nil, expressionError("expected attribute name after '.' at position %d", name.pos)
			}
			p.advance()
			current = attributeNode{target: current, name: name.literal, pos: name.pos}
		case tokenLBracket:
			p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if p.current().typ == tokenColon {
				return nil, unsupportedError("slices are not supported (position %d)", p.current().pos)
			}
			if p.current().typ != tokenRBracket {
				return nil, expressionError("missing closing ']' at position %d", p.current().pos)
			}
			p.advance()
			current = indexNode{target: current, index: index, pos: tok.pos}
		case tokenLParen:
			p.advance()
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			current = callNode{callee: current, args: args, pos: tok.pos}
		default:
			return current, nil
		}
	}
}

func (p *parserState) parseArguments() ([]node, error) {
	var args []node
	for p.current().typ != tokenRParen {
		if p.current().typ == tokenStar {
			return nil, unsupportedError("argument unpacking is not supported (position %d)", p.current().pos)
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		switch p.current().typ {
		case tokenAssign:
			return nil, unsupportedError("keyword arguments are not supported (position %d)", p.current().pos)
		case tokenIdentifier:
			if p.current().literal == "for" {
				return nil, unsupportedError("generator expressions are not supported (position %d)", p.current().pos)
			}
		}
		args = append(args, arg)

		if p.current().typ == tokenComma {
			p.advance()
			continue
		}
		if p.current().typ != tokenRParen {
			return nil, expressionError("missing closing ')' at position %d", p.current().pos)
		}
	}
	p.advance()
	return args, nil
}

func (p *parserState) parsePrimary() (node, error) {
	tok := p.current()
	switch tok.typ {
	case tokenIdentifier:
		if reason, ok := statementWords[tok.literal]; ok {
			return nil, unsafeError("%s (position %d)", reason, tok.pos)
		}
		p.advance()
		return identifierNode{name: tok.literal, pos: tok.pos}, nil
	case tokenNumber:
		p.advance()
		return numberLiteral(tok)
	case tokenString:
		p.advance()
		return literalNode{value: field.String(tok.literal)}, nil
	case tokenTrue:
		p.advance()
		return literalNode{value: field.Bool(true)}, nil
	case tokenFalse:
		p.advance()
		return literalNode{value: field.Bool(false)}, nil
	case tokenNull:
		p.advance()
		return literalNode{value: field.Null}, nil
	case tokenLParen:
		p.advance()
		if p.current().typ == tokenRParen {
			return nil, unsupportedError("tuples are not supported (position %d)", tok.pos)
		}
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		switch current := p.current(); {
		case current.typ == tokenIdentifier && current.literal == "for":
			return nil, unsupportedError("generator expressions are not supported (position %d)", current.pos)
		case current.typ == tokenComma:
			return nil, unsupportedError("tuples are not supported (position %d)", current.pos)
		case current.typ == tokenColon:
			return nil, unsupportedError("assignment expressions are not supported (position %d)", current.pos)
		case current.typ != tokenRParen:
			return nil, expressionError("missing closing ')' at position %d", current.pos)
		}
		p.advance()
		return inner, nil
	case tokenLBracket:
		return p.parseList()
	case tokenLBrace:
		return nil, unsupportedError("dict and set literals are not supported (position %d)", tok.pos)
	case tokenEOF:
		return nil, expressionError("unexpected end of expression at position %d", tok.pos)
	default:
		return nil, expressionError("unexpected %s at position %d", tok.describe(), tok.pos)
	}
}

func (p *parserState) parseList() (node, error) {
	open := p.advance()
	var items []node

	for p.current().typ != tokenRBracket {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if current := p.current(); current.typ == tokenIdentifier && current.literal == "for" {
			return nil, unsupportedError("list comprehensions are not supported (position %d)", current.pos)
		}
		items = append(items, item)

		if p.current().typ == tokenComma {
			p.advance()
			continue
		}
		if p.current().typ != tokenRBracket {
			return nil, expressionError("missing closing ']' for list at position %d", open.pos)
		}
	}
	p.advance()

	return listNode{items: items}, nil
}

func numberLiteral(tok token) (node, error) {
	if !strings.ContainsAny(tok.literal, ".eE") {
		if value, err := strconv.ParseInt(tok.literal, 10, 64); err == nil {
			return literalNode{value: field.Int(value)}, nil
		}
	}

	value, err := strconv.ParseFloat(tok.literal, 64)
	if err != nil {
		return nil, expressionError("invalid number literal %q at position %d", tok.literal, tok.pos)
	}
	return literalNode{value: field.Number(value)}, nil
}

func (p *parserState) current() token {
	if p.pos >= len(p.tokens) {
		return token{typ: tokenEOF, pos: len(p.tokens)}
	}
	return p.tokens[p.pos]
}

func (p *parserState) peek() token {
	if p.pos+1 >= len(p.tokens) {
		return token{typ: tokenEOF}
	}
	return p.tokens[p.pos+1]
}

func (p *parserState) advance() token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}
