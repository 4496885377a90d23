package xql

// NodeKind discriminates the variants of a ConditionNode.
type NodeKind int

const (
	NodeAnd NodeKind = iota
	NodeOr
	NodeNot
	NodePredicate
)

// ComparisonKind enumerates the supported field comparisons.
type ComparisonKind int

const (
	CompEquals ComparisonKind = iota
	CompContains
	CompStartsWith
	CompEndsWith
	CompRegex
	CompFieldEquals
	CompExists
	CompIsNull
	CompCidr
	CompGt
	CompGte
	CompLt
	CompLte
)

func (k ComparisonKind) String() string {
	switch k {
	case CompEquals:
		return "equals"
	case CompContains:
		return "contains"
	case CompStartsWith:
		return "startswith"
	case CompEndsWith:
		return "endswith"
	case CompRegex:
		return "regex"
	case CompFieldEquals:
		return "fieldref"
	case CompExists:
		return "exists"
	case CompIsNull:
		return "isnull"
	case CompCidr:
		return "cidr"
	case CompGt:
		return "gt"
	case CompGte:
		return "gte"
	case CompLt:
		return "lt"
	case CompLte:
		return "lte"
	}
	return "unknown"
}

// LiteralKind discriminates the value kinds a predicate may carry.
type LiteralKind int

const (
	LitString LiteralKind = iota
	// LitWildcard is a string that still contains source glob markers
	// ('*', '?') which must be kept as pattern tokens, not escaped.
	LitWildcard
	LitNumber
	LitBool
	LitNull
)

func (k LiteralKind) String() string {
	switch k {
	case LitString:
		return "string"
	case LitWildcard:
		return "wildcard-string"
	case LitNumber:
		return "number"
	case LitBool:
		return "bool"
	case LitNull:
		return "null"
	}
	return "unknown"
}

// Literal is one comparison value. Numbers keep their source text so output
// stays byte-identical with the rule document.
type Literal struct {
	Kind LiteralKind
	Str  string // LitString, LitWildcard, LitNumber
	Bool bool   // LitBool
}

func String(s string) Literal   { return Literal{Kind: LitString, Str: s} }
func Wildcard(s string) Literal { return Literal{Kind: LitWildcard, Str: s} }
func Number(s string) Literal   { return Literal{Kind: LitNumber, Str: s} }
func Bool(b bool) Literal       { return Literal{Kind: LitBool, Bool: b} }
func Null() Literal             { return Literal{Kind: LitNull} }

// Predicate is a single field comparison leaf. Field is already remapped to
// the target schema. AllMode selects conjunction expansion for multi-value
// predicates; the default is disjunction.
type Predicate struct {
	Field      string
	Comparison ComparisonKind
	Values     []Literal
	AllMode    bool
}

// ConditionNode is one node of the boolean condition tree. The tree is built
// once by the rule frontend, never mutated, and discarded after compilation.
type ConditionNode struct {
	Kind     NodeKind
	Children []*ConditionNode // NodeAnd, NodeOr
	Child    *ConditionNode   // NodeNot
	Pred     *Predicate       // NodePredicate
}

func And(children ...*ConditionNode) *ConditionNode {
	return &ConditionNode{Kind: NodeAnd, Children: children}
}

func Or(children ...*ConditionNode) *ConditionNode {
	return &ConditionNode{Kind: NodeOr, Children: children}
}

func Not(child *ConditionNode) *ConditionNode {
	return &ConditionNode{Kind: NodeNot, Child: child}
}

func Pred(p Predicate) *ConditionNode {
	return &ConditionNode{Kind: NodePredicate, Pred: &p}
}

// Leaf is shorthand for a single-value predicate node.
func Leaf(field string, cmp ComparisonKind, v Literal) *ConditionNode {
	return Pred(Predicate{Field: field, Comparison: cmp, Values: []Literal{v}})
}

// Clone deep-copies the tree. Every node is exclusively owned by its parent,
// so referencing a sub-tree from two places requires a copy.
func (n *ConditionNode) Clone() *ConditionNode {
	if n == nil {
		return nil
	}
	cp := &ConditionNode{Kind: n.Kind}
	if len(n.Children) > 0 {
		cp.Children = make([]*ConditionNode, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = c.Clone()
		}
	}
	cp.Child = n.Child.Clone()
	if n.Pred != nil {
		p := *n.Pred
		p.Values = append([]Literal(nil), n.Pred.Values...)
		cp.Pred = &p
	}
	return cp
}
