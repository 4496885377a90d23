package xql

import (
	"fmt"
	"strings"
)

// EmitPredicate renders one leaf into a complete query fragment. Multi-value
// predicates expand to a parenthesized disjunction, or a conjunction when
// AllMode is set; value order is preserved exactly.
func (d *Dialect) EmitPredicate(p *Predicate) (string, error) {
	if p == nil || p.Field == "" {
		return "", malformedf("predicate without a field")
	}
	spec, ok := d.OperatorFor(p.Comparison)
	if !ok {
		return "", unsupportedComparison(p.Field, p.Comparison)
	}

	// Presence checks are unary and ignore any carried values.
	if spec.Form == formPresence {
		return p.Field + d.TokenSeparator + spec.Token + d.TokenSeparator + d.NullToken, nil
	}

	if len(p.Values) == 0 {
		return "", malformedf("predicate on %q has no values", p.Field)
	}

	if len(p.Values) == 1 {
		return d.emitOne(p.Field, spec, p.Comparison, p.Values[0])
	}

	join := d.TokenSeparator + d.OrToken + d.TokenSeparator
	if p.AllMode {
		join = d.TokenSeparator + d.AndToken + d.TokenSeparator
	}
	parts := make([]string, 0, len(p.Values))
	for _, v := range p.Values {
		frag, err := d.emitOne(p.Field, spec, p.Comparison, v)
		if err != nil {
			return "", err
		}
		parts = append(parts, frag)
	}
	return "(" + strings.Join(parts, join) + ")", nil
}

func (d *Dialect) emitOne(field string, spec OperatorSpec, cmp ComparisonKind, lit Literal) (string, error) {
	sep := d.TokenSeparator
	switch spec.Form {
	case formRegex:
		body, err := d.Escape(lit, CtxRegex)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", field, err)
		}
		return field + sep + spec.Token + sep + d.quote(body), nil

	case formFunc:
		switch lit.Kind {
		case LitString, LitWildcard:
			body := d.escapeBody(lit.Str, false)
			return spec.Token + "(" + field + ", " + d.quote(body) + ")", nil
		}
		return "", fmt.Errorf("field %q: %w", field, unsupportedLiteral(lit.Kind, cmp.String()))

	case formFieldRef:
		if lit.Kind != LitString || lit.Str == "" {
			return "", fmt.Errorf("field %q: %w", field, unsupportedLiteral(lit.Kind, cmp.String()))
		}
		// RHS is another field's target name, rendered bare.
		return field + sep + spec.Token + sep + lit.Str, nil

	case formInfix:
		if spec.PrefixWildcard || spec.SuffixWildcard {
			// Prefix/suffix matches lower to a wildcard equality.
			switch lit.Kind {
			case LitString, LitWildcard:
			default:
				return "", fmt.Errorf("field %q: %w", field, unsupportedLiteral(lit.Kind, cmp.String()))
			}
			body := d.escapeBody(lit.Str, lit.Kind == LitWildcard)
			if spec.PrefixWildcard {
				body = string(d.WildcardMulti) + body
			}
			if spec.SuffixWildcard {
				body = body + string(d.WildcardMulti)
			}
			return field + sep + spec.Token + sep + d.quote(body), nil
		}

		ctx := CtxEquality
		switch cmp {
		case CompContains:
			ctx = CtxSubstring
		case CompGt, CompGte, CompLt, CompLte:
			ctx = CtxOrdinal
		}
		val, err := d.Escape(lit, ctx)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", field, err)
		}
		return field + sep + spec.Token + sep + val, nil
	}
	return "", unsupportedComparison(field, cmp)
}
