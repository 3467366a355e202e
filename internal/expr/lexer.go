package expr

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenIdentifier
	tokenNumber
	tokenString
	tokenTrue
	tokenFalse
	tokenNull
	tokenEqual
	tokenNotEqual
	tokenLess
	tokenLessEqual
	tokenGreater
	tokenGreaterEqual
	tokenAnd
	tokenOr
	tokenNot
	tokenIn
	tokenIs
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenDot
	tokenComma
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenLBrace
	tokenRBrace
	tokenColon
	tokenSemicolon
	tokenAssign
)

var tokenNames = map[tokenType]string{
	tokenEOF:          "end of expression",
	tokenEqual:        "'=='",
	tokenNotEqual:     "'!='",
	tokenLess:         "'<'",
	tokenLessEqual:    "'<='",
	tokenGreater:      "'>'",
	tokenGreaterEqual: "'>='",
	tokenAnd:          "'and'",
	tokenOr:           "'or'",
	tokenNot:          "'not'",
	tokenIn:           "'in'",
	tokenIs:           "'is'",
	tokenPlus:         "'+'",
	tokenMinus:        "'-'",
	tokenStar:         "'*'",
	tokenSlash:        "'/'",
	tokenPercent:      "'%'",
	tokenDot:          "'.'",
	tokenComma:        "','",
	tokenLParen:       "'('",
	tokenRParen:       "')'",
	tokenLBracket:     "'['",
	tokenRBracket:     "']'",
	tokenLBrace:       "'{'",
	tokenRBrace:       "'}'",
	tokenColon:        "':'",
	tokenSemicolon:    "';'",
	tokenAssign:       "'='",
}

var wordTokens = map[string]tokenType{
	"true":  tokenTrue,
	"True":  tokenTrue,
	"false": tokenFalse,
	"False": tokenFalse,
	"null":  tokenNull,
	"None":  tokenNull,
	"and":   tokenAnd,
	"or":    tokenOr,
	"not":   tokenNot,
	"in":    tokenIn,
	"is":    tokenIs,
}

type token struct {
	typ     tokenType
	literal string
	pos     int
}

func (t token) describe() string {
	switch t.typ {
	case tokenIdentifier:
		return strconv.Quote(t.literal)
	case tokenNumber:
		return "number " + t.literal
	case tokenString:
		return "string " + strconv.Quote(t.literal)
	case tokenTrue, tokenFalse, tokenNull:
		return t.literal
	}
	if name, ok := tokenNames[t.typ]; ok {
		return name
	}
	return "token"
}

// isWord reports whether the token can serve as an attribute name after '.'.
func (t token) isWord() bool {
	switch t.typ {
	case tokenIdentifier, tokenTrue, tokenFalse, tokenNull, tokenAnd, tokenOr, tokenNot, tokenIn, tokenIs:
		return true
	default:
		return false
	}
}

func lex(input string) ([]token, error) {
	tokens := make([]token, 0, len(input)/2)
	pos := 0

	for pos < len(input) {
		r, size := utf8.DecodeRuneInString(input[pos:])
		if unicode.IsSpace(r) {
			pos += size
			continue
		}

		if isIdentifierStart(r) {
			start := pos
			pos += size
			for pos < len(input) {
				next, nextSize := utf8.DecodeRuneInString(input[pos:])
				if !isIdentifierPart(next) {
					break
				}
				pos += nextSize
			}
			literal := input[start:pos]
			typ, ok := wordTokens[literal]
			if !ok {
				typ = tokenIdentifier
			}
			tokens = append(tokens, token{typ: typ, literal: literal, pos: start})
			continue
		}

		if isDigit(input[pos]) || (input[pos] == '.' && pos+1 < len(input) && isDigit(input[pos+1])) {
			numberToken, nextPos, err := lexNumber(input, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, numberToken)
			pos = nextPos
			continue
		}

		if input[pos] == '\'' || input[pos] == '"' {
			literal, nextPos, err := lexString(input, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{typ: tokenString, literal: literal, pos: pos})
			pos = nextPos
			continue
		}

		typ, width, err := lexOperator(input, pos)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token{typ: typ, literal: input[pos : pos+width], pos: pos})
		pos += width
	}

	tokens = append(tokens, token{typ: tokenEOF, pos: len(input)})
	return tokens, nil
}

func lexOperator(input string, pos int) (tokenType, int, error) {
	next := byte(0)
	if pos+1 < len(input) {
		next = input[pos+1]
	}

	switch input[pos] {
	case '=':
		if next == '=' {
			return tokenEqual, 2, nil
		}
		return tokenAssign, 1, nil
	case '!':
		if next == '=' {
			return tokenNotEqual, 2, nil
		}
		return tokenNot, 1, nil
	case '<':
		if next == '=' {
			return tokenLessEqual, 2, nil
		}
		return tokenLess, 1, nil
	case '>':
		if next == '=' {
			return tokenGreaterEqual, 2, nil
		}
		return tokenGreater, 1, nil
	case '&':
		if next == '&' {
			return tokenAnd, 2, nil
		}
	case '|':
		if next == '|' {
			return tokenOr, 2, nil
		}
	case '+':
		return tokenPlus, 1, nil
	case '-':
		return tokenMinus, 1, nil
	case '*':
		return tokenStar, 1, nil
	case '/':
		return tokenSlash, 1, nil
	case '%':
		return tokenPercent, 1, nil
	case '.':
		return tokenDot, 1, nil
	case ',':
		return tokenComma, 1, nil
	case '(':
		return tokenLParen, 1, nil
	case ')':
		return tokenRParen, 1, nil
	case '[':
		return tokenLBracket, 1, nil
	case ']':
		return tokenRBracket, 1, nil
	case '{':
		return tokenLBrace, 1, nil
	case '}':
		return tokenRBrace, 1, nil
	case ':':
		return tokenColon, 1, nil
	case ';':
		return tokenSemicolon, 1, nil
	}

	r, _ := utf8.DecodeRuneInString(input[pos:])
	return 0, 0, expressionError("unexpected character %q at position %d", r, pos)
}

func isIdentifierStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentifierPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func lexNumber(input string, start int) (token, int, error) {
	pos := start
	for pos < len(input) && isDigit(input[pos]) {
		pos++
	}

	if pos < len(input) && input[pos] == '.' && (pos+1 >= len(input) || !isIdentifierStart(rune(input[pos+1]))) {
		pos++
		for pos < len(input) && isDigit(input[pos]) {
			pos++
		}
	}

	if pos < len(input) && (input[pos] == 'e' || input[pos] == 'E') {
		expPos := pos + 1
		if expPos < len(input) && (input[expPos] == '+' || input[expPos] == '-') {
			expPos++
		}
		if expPos >= len(input) || !isDigit(input[expPos]) {
			return token{}, 0, expressionError("invalid number exponent at position %d", start)
		}
		pos = expPos
		for pos < len(input) && isDigit(input[pos]) {
			pos++
		}
	}

	if pos < len(input) && isIdentifierStart(rune(input[pos])) {
		return token{}, 0, expressionError("invalid number %q at position %d", input[start:pos+1], start)
	}

	literal := input[start:pos]
	if _, err := strconv.ParseFloat(literal, 64); err != nil {
		return token{}, 0, expressionError("invalid number %q at position %d", literal, start)
	}

	return token{typ: tokenNumber, literal: literal, pos: start}, pos, nil
}

func lexString(input string, start int) (string, int, error) {
	quote := input[start]
	var b strings.Builder

	for pos := start + 1; pos < len(input); pos++ {
		ch := input[pos]
		if ch == quote {
			return b.String(), pos + 1, nil
		}

		if ch == '\\' {
			pos++
			if pos >= len(input) {
				return "", 0, expressionError("unterminated escape sequence at position %d", start)
			}
			switch escaped := input[pos]; escaped {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(escaped)
			}
			continue
		}

		if ch == '\n' || ch == '\r' {
			return "", 0, expressionError("unterminated string at position %d", start)
		}

		b.WriteByte(ch)
	}

	return "", 0, expressionError("unterminated string at position %d", start)
}
