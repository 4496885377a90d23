package xql

import "strings"

// LiteralContext tells the escaper how the rendered literal will be used.
type LiteralContext int

const (
	// CtxEquality: quoted string; glob markers in wildcard literals stay
	// pattern tokens, everything else is matched literally.
	CtxEquality LiteralContext = iota
	// CtxSubstring: quoted string compared as a plain substring; wildcard
	// characters have no meaning and are escaped.
	CtxSubstring
	// CtxRegex: value placed between the regex delimiters untouched except
	// for the minimal escaping that keeps it a single token.
	CtxRegex
	// CtxOrdinal: operand of >, >=, <, <=; numbers render bare.
	CtxOrdinal
)

// escapeBody renders the raw string as the inside of a quoted literal.
// translateWildcards keeps '*' and '?' as pattern tokens; otherwise they are
// escaped so a literal glob character is not misread as a pattern operator.
func (d *Dialect) escapeBody(s string, translateWildcards bool) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case translateWildcards && c == d.EscapeChar && i+1 < len(s) &&
			(s[i+1] == d.WildcardMulti || s[i+1] == d.WildcardSingle):
			// Source-escaped glob marker: keep it a literal character.
			b.WriteByte(d.EscapeChar)
			b.WriteByte(s[i+1])
			i++
		case c == d.StringQuote || c == d.EscapeChar:
			b.WriteByte(d.EscapeChar)
			b.WriteByte(c)
		case (c == d.WildcardMulti || c == d.WildcardSingle) && !translateWildcards:
			b.WriteByte(d.EscapeChar)
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (d *Dialect) quote(body string) string {
	q := string(d.StringQuote)
	return q + body + q
}

// escapeRegex keeps the regex value a single token between the delimiters.
// Backslashes are left alone: they belong to the regex, not to the quoting.
func (d *Dialect) escapeRegex(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == d.StringQuote {
			b.WriteByte(d.EscapeChar)
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Escape renders one literal for the given context, quoted and escaped per
// the dialect tables. Fails when the literal kind has no rule for the
// context, e.g. null under a substring comparison.
func (d *Dialect) Escape(lit Literal, ctx LiteralContext) (string, error) {
	switch ctx {
	case CtxRegex:
		switch lit.Kind {
		case LitString, LitWildcard:
			return d.escapeRegex(lit.Str), nil
		}
		return "", unsupportedLiteral(lit.Kind, "regex")

	case CtxSubstring:
		switch lit.Kind {
		case LitString:
			return d.quote(d.escapeBody(lit.Str, false)), nil
		case LitWildcard:
			// Substring match has no pattern semantics; markers go literal.
			return d.quote(d.escapeBody(lit.Str, false)), nil
		}
		return "", unsupportedLiteral(lit.Kind, "substring")

	case CtxOrdinal:
		switch lit.Kind {
		case LitNumber:
			return lit.Str, nil
		case LitString:
			return d.quote(d.escapeBody(lit.Str, false)), nil
		}
		return "", unsupportedLiteral(lit.Kind, "ordinal")

	default: // CtxEquality
		switch lit.Kind {
		case LitString:
			return d.quote(d.escapeBody(lit.Str, false)), nil
		case LitWildcard:
			return d.quote(d.escapeBody(lit.Str, true)), nil
		case LitNumber:
			return lit.Str, nil
		case LitBool:
			if lit.Bool {
				return "true", nil
			}
			return "false", nil
		case LitNull:
			return d.NullToken, nil
		}
		return "", unsupportedLiteral(lit.Kind, "equality")
	}
}
