// Package convert turns parsed Sigma rules into complete XQL queries. It is
// glue: the sigma frontend shapes the condition tree, the pipeline remaps
// field names, the xql compiler emits the filter expression, and this package
// embeds the expression into the query template.
package convert

import (
	"fmt"

	"github.com/detectlab/sigma2xql/pipeline"
	"github.com/detectlab/sigma2xql/sigma"
	"github.com/detectlab/sigma2xql/xql"
)

// Converter holds the immutable pieces shared across rules. Safe for
// concurrent use: each conversion works on its own owned tree.
type Converter struct {
	dialect *xql.Dialect
	mapping *pipeline.Pipeline
}

func New(d *xql.Dialect, p *pipeline.Pipeline) *Converter {
	if d == nil {
		d = xql.DefaultDialect()
	}
	if p == nil {
		p = pipeline.New(nil)
	}
	return &Converter{dialect: d, mapping: p}
}

// ConvertRule compiles one rule into a full query. A rule converts completely
// or fails entirely; no partial query is ever returned.
func (c *Converter) ConvertRule(r sigma.Rule) (string, error) {
	tree, err := sigma.BuildTree(r.Detection)
	if err != nil {
		return "", fmt.Errorf("rule %q: %w", r.ID, err)
	}
	mapped := c.mapping.Apply(tree, r.Logsource)
	expr, err := xql.Compile(c.dialect, mapped)
	if err != nil {
		return "", fmt.Errorf("rule %q: %w", r.ID, err)
	}
	return fmt.Sprintf("datamodel dataset = %s | filter %s", c.mapping.Dataset(), expr), nil
}

// ConvertYAML parses every rule document in the given bytes and converts
// each; the first failure aborts.
func (c *Converter) ConvertYAML(b []byte) ([]string, error) {
	rules, err := sigma.LoadRules(b)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		q, err := c.ConvertRule(r)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}
