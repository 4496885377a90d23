package sigma

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/detectlab/sigma2xql/xql"
)

// Keyword selections (bare values without a field) search the raw event text.
const keywordField = "_raw_log"

// BuildTree compiles a detection block into an owned condition tree carrying
// the rule document's generic field names. Field remapping happens later in
// the pipeline stage; this step only shapes the boolean structure.
func BuildTree(det Detection) (*xql.ConditionNode, error) {
	selections := make(map[string]*xql.ConditionNode, len(det.Selections))
	for name, raw := range det.Selections {
		node, err := buildSelection(raw)
		if err != nil {
			return nil, fmt.Errorf("selection %s: %w", name, err)
		}
		selections[name] = node
	}
	toks, err := tokenizeCondition(det.Condition)
	if err != nil {
		return nil, fmt.Errorf("condition: %w", err)
	}
	return parseTokens(toks, selections)
}

func buildSelection(raw any) (*xql.ConditionNode, error) {
	switch v := raw.(type) {
	case map[string]any:
		return buildSelectionMap(v)
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("empty selection list")
		}
		nodes := make([]*xql.ConditionNode, 0, len(v))
		for i, item := range v {
			switch it := item.(type) {
			case map[string]any:
				n, err := buildSelectionMap(it)
				if err != nil {
					return nil, fmt.Errorf("item %d: %w", i, err)
				}
				nodes = append(nodes, n)
			default:
				lit, err := keywordLiteral(it)
				if err != nil {
					return nil, fmt.Errorf("item %d: %w", i, err)
				}
				nodes = append(nodes, xql.Leaf(keywordField, xql.CompContains, lit))
			}
		}
		return combine(xql.Or, nodes), nil
	case string, int, int64, uint64, float64, bool:
		lit, err := keywordLiteral(v)
		if err != nil {
			return nil, err
		}
		return xql.Leaf(keywordField, xql.CompContains, lit), nil
	default:
		return nil, fmt.Errorf("selection must be a mapping or a list")
	}
}

// buildSelectionMap turns one field->value(s) mapping into an AND of
// predicates. Keys are visited in sorted order so output is reproducible.
func buildSelectionMap(m map[string]any) (*xql.ConditionNode, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("empty selection mapping")
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	nodes := make([]*xql.ConditionNode, 0, len(keys))
	for _, key := range keys {
		pred, err := buildPredicate(key, m[key])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, xql.Pred(*pred))
	}
	return combine(xql.And, nodes), nil
}

func buildPredicate(key string, rawVal any) (*xql.Predicate, error) {
	spec, err := parseFieldModifiers(key)
	if err != nil {
		return nil, err
	}

	if spec.ExistsCheck {
		b, ok := rawVal.(bool)
		if !ok {
			return nil, fmt.Errorf("field %q: exists modifier requires a boolean value", spec.Field)
		}
		cmp := xql.CompExists
		if !b {
			cmp = xql.CompIsNull
		}
		return &xql.Predicate{Field: spec.Field, Comparison: cmp, Values: []xql.Literal{xql.Bool(b)}}, nil
	}

	var rawValues []any
	if arr, ok := rawVal.([]any); ok {
		if len(arr) == 0 {
			return nil, fmt.Errorf("field %q: empty value list", spec.Field)
		}
		rawValues = arr
	} else {
		rawValues = []any{rawVal}
	}

	values := make([]xql.Literal, 0, len(rawValues))
	for _, rv := range rawValues {
		lit, err := spec.classifyValue(rv)
		if err != nil {
			return nil, err
		}
		values = append(values, lit)
	}
	return &xql.Predicate{
		Field:      spec.Field,
		Comparison: spec.Comparison,
		Values:     values,
		AllMode:    spec.AllMode,
	}, nil
}

// classifyValue maps a decoded YAML scalar to a target literal. Strings keep
// their glob markers only where the comparison honors patterns.
func (s fieldSpec) classifyValue(v any) (xql.Literal, error) {
	if s.FieldRef {
		ref, ok := v.(string)
		if !ok || ref == "" {
			return xql.Literal{}, fmt.Errorf("field %q: fieldref requires a field name", s.Field)
		}
		return xql.String(ref), nil
	}
	switch t := v.(type) {
	case nil:
		return xql.Null(), nil
	case bool:
		return xql.Bool(t), nil
	case int:
		return xql.Number(strconv.Itoa(t)), nil
	case int64:
		return xql.Number(strconv.FormatInt(t, 10)), nil
	case uint64:
		return xql.Number(strconv.FormatUint(t, 10)), nil
	case float64:
		return xql.Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case string:
		str, err := s.applyTransforms(t)
		if err != nil {
			return xql.Literal{}, err
		}
		switch s.Comparison {
		case xql.CompEquals, xql.CompStartsWith, xql.CompEndsWith:
			if strings.ContainsAny(str, "*?") {
				return xql.Wildcard(str), nil
			}
		}
		return xql.String(str), nil
	default:
		return xql.Literal{}, fmt.Errorf("field %q: unsupported value type %T", s.Field, v)
	}
}

func keywordLiteral(v any) (xql.Literal, error) {
	switch t := v.(type) {
	case string:
		return xql.String(t), nil
	case int:
		return xql.String(strconv.Itoa(t)), nil
	case int64:
		return xql.String(strconv.FormatInt(t, 10)), nil
	case uint64:
		return xql.String(strconv.FormatUint(t, 10)), nil
	case float64:
		return xql.String(strconv.FormatFloat(t, 'g', -1, 64)), nil
	case bool:
		return xql.String(strconv.FormatBool(t)), nil
	default:
		return xql.Literal{}, fmt.Errorf("unsupported keyword value type %T", v)
	}
}

// combine builds an n-ary boolean node, collapsing the single-child case so
// the tree never carries a degenerate and/or.
func combine(join func(...*xql.ConditionNode) *xql.ConditionNode, nodes []*xql.ConditionNode) *xql.ConditionNode {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return join(nodes...)
}
