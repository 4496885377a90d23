package xql

import (
	"fmt"
	"strings"
)

// Compile reduces a condition tree to a boolean filter expression in the
// dialect's grammar. It is a pure single-pass reduction: no I/O, no shared
// state, safe to call concurrently with independent trees.
//
// Precedence: unary not binds tightest, and binds tighter than or.
// Parentheses are inserted minimally but always sufficiently: a non-root or
// is wrapped to protect it from an enclosing and/not, the root or is left
// bare, and not wraps a compound operand so the negation scopes over the
// whole sub-expression.
func Compile(d *Dialect, root *ConditionNode) (string, error) {
	if root == nil {
		return "", malformedf("nil condition tree")
	}
	return d.compileNode(root, true, "")
}

func (d *Dialect) compileNode(n *ConditionNode, isRoot bool, path string) (string, error) {
	switch n.Kind {
	case NodePredicate:
		frag, err := d.EmitPredicate(n.Pred)
		if err != nil {
			return "", at(path, err)
		}
		return frag, nil

	case NodeAnd:
		if len(n.Children) < 2 {
			return "", at(path, malformedf("and with %d children", len(n.Children)))
		}
		parts := make([]string, 0, len(n.Children))
		for i, c := range n.Children {
			frag, err := d.compileNode(c, false, childPath(path, "and", i))
			if err != nil {
				return "", err
			}
			parts = append(parts, frag)
		}
		return strings.Join(parts, d.TokenSeparator+d.AndToken+d.TokenSeparator), nil

	case NodeOr:
		if len(n.Children) < 2 {
			return "", at(path, malformedf("or with %d children", len(n.Children)))
		}
		parts := make([]string, 0, len(n.Children))
		for i, c := range n.Children {
			frag, err := d.compileNode(c, false, childPath(path, "or", i))
			if err != nil {
				return "", err
			}
			parts = append(parts, frag)
		}
		expr := strings.Join(parts, d.TokenSeparator+d.OrToken+d.TokenSeparator)
		if !isRoot {
			expr = "(" + expr + ")"
		}
		return expr, nil

	case NodeNot:
		if n.Child == nil {
			return "", at(path, malformedf("not without operand"))
		}
		frag, err := d.compileNode(n.Child, false, childPath(path, "not", -1))
		if err != nil {
			return "", err
		}
		// A non-root or already wrapped itself; and still needs the group so
		// the negation covers more than its first operand.
		if n.Child.Kind == NodeAnd {
			frag = "(" + frag + ")"
		}
		return d.NotToken + d.TokenSeparator + frag, nil
	}
	return "", at(path, malformedf("unknown node kind %d", n.Kind))
}

// childPath tracks the node position for failure diagnostics.
func childPath(parent, kind string, idx int) string {
	seg := kind
	if idx >= 0 {
		seg = fmt.Sprintf("%s[%d]", kind, idx)
	}
	if parent == "" {
		return seg
	}
	return parent + "/" + seg
}

func at(path string, err error) error {
	if path == "" {
		return err
	}
	return fmt.Errorf("at %s: %w", path, err)
}
