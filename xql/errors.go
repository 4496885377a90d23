package xql

import (
	"errors"
	"fmt"
)

// Compilation failures are deterministic for a given tree: retrying the same
// input fails identically, so callers record and move on to the next rule.
var (
	// ErrMalformedCondition reports a structural invariant violation in the
	// input tree (e.g. an And/Or node with fewer than two children).
	ErrMalformedCondition = errors.New("malformed condition")

	// ErrUnsupportedComparison reports a ComparisonKind with no entry in the
	// dialect operator table.
	ErrUnsupportedComparison = errors.New("unsupported comparison")

	// ErrUnsupportedLiteral reports a literal kind that has no formatting
	// rule for the requested context (e.g. null under contains).
	ErrUnsupportedLiteral = errors.New("unsupported literal kind")
)

func malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedCondition, fmt.Sprintf(format, args...))
}

func unsupportedComparison(field string, kind ComparisonKind) error {
	return fmt.Errorf("%w: field %q kind %s", ErrUnsupportedComparison, field, kind)
}

func unsupportedLiteral(kind LiteralKind, where string) error {
	return fmt.Errorf("%w: %s value under %s", ErrUnsupportedLiteral, kind, where)
}
