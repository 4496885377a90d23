// Package lint flags rule literal values that collide with query-language
// keywords. A value like "net user and" converts fine but produces a query
// that is easy to misread during triage, so the batch runner surfaces these
// as warnings without blocking conversion.
package lint

import (
	ac "github.com/petar-dambovaliev/aho-corasick"

	"github.com/detectlab/sigma2xql/sigma"
	"github.com/detectlab/sigma2xql/xql"
)

// reservedTokens are XQL keywords and operators that read as syntax when
// they appear inside a quoted value.
var reservedTokens = []string{
	"and",
	"or",
	"not",
	"contains",
	"filter",
	"datamodel",
	"dataset",
	"cidrtype",
	"null",
}

// Warning marks one literal value that contains a reserved token.
type Warning struct {
	RuleID string `json:"rule_id"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Token  string `json:"token"`
}

// Linter scans literal values with a prebuilt automaton. Safe for
// concurrent use after construction.
type Linter struct {
	automaton ac.AhoCorasick
	patterns  []string
}

func New() *Linter {
	builder := ac.NewAhoCorasickBuilder(ac.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ac.LeftMostLongestMatch,
	})
	return &Linter{
		automaton: builder.Build(reservedTokens),
		patterns:  reservedTokens,
	}
}

// CheckRule builds the rule's condition tree and scans every string value.
// Rules whose detection cannot be built produce no warnings; conversion
// reports that failure itself.
func (l *Linter) CheckRule(r sigma.Rule) []Warning {
	tree, err := sigma.BuildTree(r.Detection)
	if err != nil {
		return nil
	}
	return l.CheckTree(r.ID, tree)
}

// CheckTree scans every string and wildcard literal in the tree.
func (l *Linter) CheckTree(ruleID string, tree *xql.ConditionNode) []Warning {
	var out []Warning
	l.walk(ruleID, tree, &out)
	return out
}

func (l *Linter) walk(ruleID string, n *xql.ConditionNode, out *[]Warning) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		l.walk(ruleID, c, out)
	}
	l.walk(ruleID, n.Child, out)
	if n.Pred == nil {
		return
	}
	for _, v := range n.Pred.Values {
		if v.Kind != xql.LitString && v.Kind != xql.LitWildcard {
			continue
		}
		for _, m := range l.automaton.FindAll(v.Str) {
			*out = append(*out, Warning{
				RuleID: ruleID,
				Field:  n.Pred.Field,
				Value:  v.Str,
				Token:  l.patterns[m.Pattern()],
			})
		}
	}
}
