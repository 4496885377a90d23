package xql

// opForm selects how a comparison is rendered.
type opForm int

const (
	formInfix    opForm = iota // field <token> <literal>
	formRegex                  // field <token> "<regex>"
	formFunc                   // <token>(field, "<value>")
	formPresence               // unary null / not-null check
	formFieldRef               // field <token> <other field>, RHS unquoted
)

// OperatorSpec is one row of the ComparisonKind -> operator table.
type OperatorSpec struct {
	Form  opForm
	Token string
	// Wildcard lowering for prefix/suffix matches: the target grammar has no
	// startswith/endswith operators, so "foo" becomes = "foo*" / = "*foo".
	PrefixWildcard bool
	SuffixWildcard bool
	// Negate flips the null check (exists => != null).
	Negate bool
}

// Dialect holds the operator and escaping tables for one target grammar.
// It is immutable after construction and safe to share across goroutines;
// construct it once at startup and pass it in explicitly.
type Dialect struct {
	TokenSeparator string
	AndToken       string
	OrToken        string
	NotToken       string

	StringQuote    byte
	EscapeChar     byte
	WildcardMulti  byte
	WildcardSingle byte

	NullToken string

	operators map[ComparisonKind]OperatorSpec
}

// DefaultDialect returns the Cortex XSIAM XQL filter dialect.
func DefaultDialect() *Dialect {
	return &Dialect{
		TokenSeparator: " ",
		AndToken:       "and",
		OrToken:        "or",
		NotToken:       "not",

		StringQuote:    '"',
		EscapeChar:     '\\',
		WildcardMulti:  '*',
		WildcardSingle: '?',

		NullToken: "null",

		operators: map[ComparisonKind]OperatorSpec{
			CompEquals:      {Form: formInfix, Token: "="},
			CompContains:    {Form: formInfix, Token: "contains"},
			CompStartsWith:  {Form: formInfix, Token: "=", SuffixWildcard: true},
			CompEndsWith:    {Form: formInfix, Token: "=", PrefixWildcard: true},
			CompRegex:       {Form: formRegex, Token: "~="},
			CompFieldEquals: {Form: formFieldRef, Token: "="},
			CompExists:      {Form: formPresence, Token: "!=", Negate: true},
			CompIsNull:      {Form: formPresence, Token: "="},
			CompCidr:        {Form: formFunc, Token: "cidrtype"},
			CompGt:          {Form: formInfix, Token: ">"},
			CompGte:         {Form: formInfix, Token: ">="},
			CompLt:          {Form: formInfix, Token: "<"},
			CompLte:         {Form: formInfix, Token: "<="},
		},
	}
}

// OperatorFor looks up the operator row for a comparison kind. The table is
// total over the kinds the dialect supports; anything else is a capability
// gap surfaced to the caller.
func (d *Dialect) OperatorFor(kind ComparisonKind) (OperatorSpec, bool) {
	spec, ok := d.operators[kind]
	return spec, ok
}
