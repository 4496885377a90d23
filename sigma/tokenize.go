package sigma

import "fmt"

type tokenKind int

const (
	tokIdentifier tokenKind = iota
	tokAnd
	tokOr
	tokNot
	tokLeftParen
	tokRightParen
	tokOf
	tokThem
	tokAll
	tokNumber
	tokWildcard
)

type token struct {
	Kind   tokenKind
	Text   string // identifier / wildcard pattern
	Number uint32
}

// tokenizeCondition scans a detection condition string. Keywords are only
// recognized in lower case; "AND" is an identifier, matching Sigma practice.
func tokenizeCondition(cond string) ([]token, error) {
	toks := make([]token, 0, 8)
	i := 0
	n := len(cond)
	for i < n {
		c := cond[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{Kind: tokLeftParen})
			i++
		case c == ')':
			toks = append(toks, token{Kind: tokRightParen})
			i++
		case c >= '0' && c <= '9':
			start := i
			for i < n && cond[i] >= '0' && cond[i] <= '9' {
				i++
			}
			var num uint32
			for j := start; j < i; j++ {
				num = num*10 + uint32(cond[j]-'0')
			}
			toks = append(toks, token{Kind: tokNumber, Number: num})
		case isIdentStart(c):
			start := i
			for i < n && isIdentPart(cond[i]) {
				i++
			}
			ident := cond[start:i]
			switch ident {
			case "and":
				toks = append(toks, token{Kind: tokAnd})
			case "or":
				toks = append(toks, token{Kind: tokOr})
			case "not":
				toks = append(toks, token{Kind: tokNot})
			case "of":
				toks = append(toks, token{Kind: tokOf})
			case "them":
				toks = append(toks, token{Kind: tokThem})
			case "all":
				toks = append(toks, token{Kind: tokAll})
			default:
				kind := tokIdentifier
				for j := 0; j < len(ident); j++ {
					if ident[j] == '*' {
						kind = tokWildcard
						break
					}
				}
				toks = append(toks, token{Kind: kind, Text: ident})
			}
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty condition")
	}
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '*'
}
