// Package pipeline remaps generic rule field names to the target schema
// before a condition tree reaches the query compiler. Mappings are loaded
// once from a YAML pipeline config and are immutable afterwards.
package pipeline

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/detectlab/sigma2xql/sigma"
	"github.com/detectlab/sigma2xql/xql"
)

const defaultDataset = "xdr_data"

// Config is the on-disk shape of a mapping pipeline.
type Config struct {
	Name    string `yaml:"name"`
	Dataset string `yaml:"dataset"`
	// Mappings apply to every rule.
	Mappings map[string]string `yaml:"mappings"`
	// Groups apply only when the rule's logsource matches.
	Groups []Group `yaml:"groups"`
}

// Group is a logsource-conditioned mapping set. Empty filter fields match
// anything.
type Group struct {
	Logsource sigma.Logsource   `yaml:"logsource"`
	Mappings  map[string]string `yaml:"mappings"`
}

// Pipeline resolves generic field names to target field names.
type Pipeline struct {
	name    string
	dataset string
	base    map[string]string
	groups  []Group
}

// New builds a pipeline from flat mappings, for tests and embedded use.
func New(mappings map[string]string) *Pipeline {
	base := make(map[string]string, len(mappings))
	for k, v := range mappings {
		base[k] = v
	}
	return &Pipeline{name: "inline", dataset: defaultDataset, base: base}
}

// Load decodes a pipeline config document.
func Load(b []byte) (*Pipeline, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	p := New(cfg.Mappings)
	p.name = cfg.Name
	if cfg.Dataset != "" {
		p.dataset = cfg.Dataset
	}
	p.groups = cfg.Groups
	return p, nil
}

func (p *Pipeline) Name() string    { return p.name }
func (p *Pipeline) Dataset() string { return p.dataset }

// Resolve maps one generic field name for a rule with the given logsource.
// Unmapped fields pass through unchanged.
func (p *Pipeline) Resolve(field string, ls sigma.Logsource) string {
	for _, g := range p.groups {
		if !logsourceMatches(g.Logsource, ls) {
			continue
		}
		if v, ok := g.Mappings[field]; ok {
			return v
		}
	}
	if v, ok := p.base[field]; ok {
		return v
	}
	return field
}

// Apply returns a copy of the tree with every predicate field (and fieldref
// right-hand side) resolved to its target name. The input tree is not
// touched.
func (p *Pipeline) Apply(tree *xql.ConditionNode, ls sigma.Logsource) *xql.ConditionNode {
	if tree == nil {
		return nil
	}
	out := tree.Clone()
	p.rewrite(out, ls)
	return out
}

func (p *Pipeline) rewrite(n *xql.ConditionNode, ls sigma.Logsource) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		p.rewrite(c, ls)
	}
	p.rewrite(n.Child, ls)
	if n.Pred != nil {
		n.Pred.Field = p.Resolve(n.Pred.Field, ls)
		if n.Pred.Comparison == xql.CompFieldEquals {
			for i, v := range n.Pred.Values {
				if v.Kind == xql.LitString {
					n.Pred.Values[i] = xql.String(p.Resolve(v.Str, ls))
				}
			}
		}
	}
}

func logsourceMatches(filter, ls sigma.Logsource) bool {
	if filter.Product != "" && filter.Product != ls.Product {
		return false
	}
	if filter.Category != "" && filter.Category != ls.Category {
		return false
	}
	if filter.Service != "" && filter.Service != ls.Service {
		return false
	}
	return true
}
