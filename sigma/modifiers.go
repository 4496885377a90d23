package sigma

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/detectlab/sigma2xql/xql"
)

// fieldSpec is the parsed form of a "Field|modifier|modifier" key.
type fieldSpec struct {
	Field      string
	Comparison xql.ComparisonKind
	AllMode    bool
	// Value transforms applied before literal classification, in order.
	Transforms []valueTransform
	// exists/fieldref change how the YAML value is interpreted.
	ExistsCheck bool
	FieldRef    bool
	// A wide transform leaves raw UTF-16 bytes in the value until a
	// base64 step encodes them.
	widePending bool
}

type valueTransform func(string) (string, error)

// parseFieldModifiers splits a Sigma field key into the base field, the
// comparison kind, and the value handling flags. Unknown modifiers fail the
// rule instead of silently producing a weaker query.
func parseFieldModifiers(key string) (fieldSpec, error) {
	parts := strings.Split(key, "|")
	spec := fieldSpec{Field: parts[0], Comparison: xql.CompEquals}
	for _, raw := range parts[1:] {
		mod := strings.ToLower(strings.TrimSpace(raw))
		switch mod {
		case "contains":
			spec.Comparison = xql.CompContains
		case "startswith":
			spec.Comparison = xql.CompStartsWith
		case "endswith":
			spec.Comparison = xql.CompEndsWith
		case "re", "regex":
			spec.Comparison = xql.CompRegex
		case "cidr":
			spec.Comparison = xql.CompCidr
		case "gt":
			spec.Comparison = xql.CompGt
		case "gte":
			spec.Comparison = xql.CompGte
		case "lt":
			spec.Comparison = xql.CompLt
		case "lte":
			spec.Comparison = xql.CompLte
		case "exists":
			spec.ExistsCheck = true
		case "fieldref":
			spec.FieldRef = true
			spec.Comparison = xql.CompFieldEquals
		case "all":
			spec.AllMode = true
		case "base64":
			spec.Transforms = append(spec.Transforms, func(s string) (string, error) {
				return base64.StdEncoding.EncodeToString([]byte(s)), nil
			})
			spec.widePending = false
		case "wide", "utf16le":
			spec.Transforms = append(spec.Transforms, func(s string) (string, error) {
				units := utf16.Encode([]rune(s))
				b := make([]byte, 0, len(units)*2)
				for _, u := range units {
					b = append(b, byte(u), byte(u>>8))
				}
				return string(b), nil
			})
			spec.widePending = true
		case "cased":
			// XQL string comparison is case sensitive already.
		case "":
		default:
			return fieldSpec{}, fmt.Errorf("%w: field modifier %q on %q", xql.ErrUnsupportedComparison, mod, parts[0])
		}
	}
	if spec.Field == "" {
		return fieldSpec{}, fmt.Errorf("empty field in key %q", key)
	}
	if spec.widePending {
		return fieldSpec{}, fmt.Errorf("%w: wide on %q needs a following base64 modifier", xql.ErrUnsupportedComparison, spec.Field)
	}
	return spec, nil
}

func (s fieldSpec) applyTransforms(v string) (string, error) {
	var err error
	for _, tr := range s.Transforms {
		v, err = tr(v)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", s.Field, err)
		}
	}
	return v, nil
}
