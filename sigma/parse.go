package sigma

import (
	"fmt"
	"sort"
	"strings"

	"github.com/detectlab/sigma2xql/xql"
)

// conditionParser builds the condition tree from tokens. Selection trees are
// cloned on every reference so the result has exclusive ownership of all of
// its nodes.
type conditionParser struct {
	toks       []token
	pos        int
	selections map[string]*xql.ConditionNode
}

func parseTokens(toks []token, selections map[string]*xql.ConditionNode) (*xql.ConditionNode, error) {
	p := &conditionParser{toks: toks, selections: selections}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.current(); t != nil {
		return nil, fmt.Errorf("condition: trailing tokens after expression")
	}
	return node, nil
}

func (p *conditionParser) current() *token {
	if p.pos < len(p.toks) {
		return &p.toks[p.pos]
	}
	return nil
}

func (p *conditionParser) advance() {
	if p.pos < len(p.toks) {
		p.pos++
	}
}

// or (lowest precedence)
func (p *conditionParser) parseOr() (*xql.ConditionNode, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []*xql.ConditionNode{first}
	for {
		if t := p.current(); t != nil && t.Kind == tokOr {
			p.advance()
			next, err := p.parseAnd()
			if err != nil {
				return nil, err
			}
			children = append(children, next)
			continue
		}
		break
	}
	return combine(xql.Or, children), nil
}

// and
func (p *conditionParser) parseAnd() (*xql.ConditionNode, error) {
	first, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	children := []*xql.ConditionNode{first}
	for {
		if t := p.current(); t != nil && t.Kind == tokAnd {
			p.advance()
			next, err := p.parseNot()
			if err != nil {
				return nil, err
			}
			children = append(children, next)
			continue
		}
		break
	}
	return combine(xql.And, children), nil
}

// not (highest precedence)
func (p *conditionParser) parseNot() (*xql.ConditionNode, error) {
	if t := p.current(); t != nil && t.Kind == tokNot {
		p.advance()
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return xql.Not(operand), nil
	}
	return p.parsePrimary()
}

func (p *conditionParser) parsePrimary() (*xql.ConditionNode, error) {
	t := p.current()
	if t == nil {
		return nil, fmt.Errorf("condition: unexpected end of expression")
	}
	switch t.Kind {
	case tokLeftParen:
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if r := p.current(); r == nil || r.Kind != tokRightParen {
			return nil, fmt.Errorf("condition: expected closing parenthesis")
		}
		p.advance()
		return expr, nil

	case tokIdentifier:
		name := t.Text
		p.advance()
		sel, ok := p.selections[name]
		if !ok {
			return nil, fmt.Errorf("condition: unknown selection identifier %q", name)
		}
		return sel.Clone(), nil

	case tokNumber:
		count := t.Number
		p.advance()
		if count != 1 {
			return nil, fmt.Errorf("condition: only '1 of' quantifiers are supported")
		}
		return p.parseOfTail(xql.Or)

	case tokAll:
		p.advance()
		return p.parseOfTail(xql.And)

	default:
		return nil, fmt.Errorf("condition: unexpected token")
	}
}

// parseOfTail handles "... of them" and "... of pattern*" after the
// quantifier, joining matching selections with the given combinator.
func (p *conditionParser) parseOfTail(join func(...*xql.ConditionNode) *xql.ConditionNode) (*xql.ConditionNode, error) {
	if t := p.current(); t == nil || t.Kind != tokOf {
		return nil, fmt.Errorf("condition: expected 'of' after quantifier")
	}
	p.advance()
	t := p.current()
	if t == nil {
		return nil, fmt.Errorf("condition: expected 'them' or pattern after 'of'")
	}
	var pattern string
	switch t.Kind {
	case tokThem:
		pattern = "*"
	case tokWildcard, tokIdentifier:
		pattern = t.Text
	default:
		return nil, fmt.Errorf("condition: expected 'them' or pattern after 'of'")
	}
	p.advance()

	names := make([]string, 0, len(p.selections))
	for name := range p.selections {
		if matchSelectionPattern(name, pattern) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("condition: no selections match %q", pattern)
	}
	sort.Strings(names)
	nodes := make([]*xql.ConditionNode, 0, len(names))
	for _, name := range names {
		nodes = append(nodes, p.selections[name].Clone())
	}
	return combine(join, nodes), nil
}

// matchSelectionPattern matches a selection name against a glob with '*'
// segments, anchored at both ends.
func matchSelectionPattern(name, pattern string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return name == pattern
	}
	if !strings.HasPrefix(name, parts[0]) {
		return false
	}
	name = name[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(name, part)
		if idx < 0 {
			return false
		}
		name = name[idx+len(part):]
	}
	return strings.HasSuffix(name, parts[len(parts)-1])
}
