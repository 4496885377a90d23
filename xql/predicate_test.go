package xql

import (
	"errors"
	"strings"
	"testing"
)

func TestEmitMultiValueAllMode(t *testing.T) {
	d := DefaultDialect()
	p := Predicate{
		Field:      "cmd",
		Comparison: CompContains,
		Values:     []Literal{String("a"), String("b"), String("c")},
		AllMode:    true,
	}
	got, err := d.EmitPredicate(&p)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	want := `(cmd contains "a" and cmd contains "b" and cmd contains "c")`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestEmitMultiValueCounts(t *testing.T) {
	d := DefaultDialect()
	vals := []Literal{String("1"), String("2"), String("3"), String("4")}

	anyOf, err := d.EmitPredicate(&Predicate{Field: "f", Comparison: CompEquals, Values: vals})
	if err != nil {
		t.Fatalf("emit any: %v", err)
	}
	if n := strings.Count(anyOf, " or "); n != len(vals)-1 {
		t.Fatalf("want %d or joins, got %d in %q", len(vals)-1, n, anyOf)
	}
	if !strings.HasPrefix(anyOf, "(") || !strings.HasSuffix(anyOf, ")") {
		t.Fatalf("disjunction not parenthesized: %q", anyOf)
	}

	allOf, err := d.EmitPredicate(&Predicate{Field: "f", Comparison: CompEquals, Values: vals, AllMode: true})
	if err != nil {
		t.Fatalf("emit all: %v", err)
	}
	if n := strings.Count(allOf, " and "); n != len(vals)-1 {
		t.Fatalf("want %d and joins, got %d in %q", len(vals)-1, n, allOf)
	}
}

func TestEmitValueOrderPreserved(t *testing.T) {
	d := DefaultDialect()
	p := Predicate{Field: "f", Comparison: CompEquals, Values: []Literal{String("z"), String("a"), String("z")}}
	got, err := d.EmitPredicate(&p)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	// No reordering, no dedup.
	if got != `(f = "z" or f = "a" or f = "z")` {
		t.Fatalf("got %q", got)
	}
}

func TestEmitStartsEndsWithLowering(t *testing.T) {
	d := DefaultDialect()

	got, err := d.EmitPredicate(&Predicate{Field: "Image", Comparison: CompStartsWith, Values: []Literal{String("C:\\Tools")}})
	if err != nil {
		t.Fatalf("startswith: %v", err)
	}
	if got != `Image = "C:\\Tools*"` {
		t.Fatalf("startswith got %q", got)
	}

	got, err = d.EmitPredicate(&Predicate{Field: "Image", Comparison: CompEndsWith, Values: []Literal{String("\\cmd.exe")}})
	if err != nil {
		t.Fatalf("endswith: %v", err)
	}
	if got != `Image = "*\\cmd.exe"` {
		t.Fatalf("endswith got %q", got)
	}
}

func TestEmitRegex(t *testing.T) {
	d := DefaultDialect()
	got, err := d.EmitPredicate(&Predicate{Field: "host", Comparison: CompRegex, Values: []Literal{String(`\d+\.example`)}})
	if err != nil {
		t.Fatalf("regex: %v", err)
	}
	// Regex body goes between the delimiters without glob translation.
	if got != `host ~= "\d+\.example"` {
		t.Fatalf("regex got %q", got)
	}
}

func TestEmitCidr(t *testing.T) {
	d := DefaultDialect()
	got, err := d.EmitPredicate(&Predicate{Field: "src_ip", Comparison: CompCidr, Values: []Literal{String("10.0.0.0/8")}})
	if err != nil {
		t.Fatalf("cidr: %v", err)
	}
	if got != `cidrtype(src_ip, "10.0.0.0/8")` {
		t.Fatalf("cidr got %q", got)
	}
}

func TestEmitFieldRef(t *testing.T) {
	d := DefaultDialect()
	got, err := d.EmitPredicate(&Predicate{Field: "ParentImage", Comparison: CompFieldEquals, Values: []Literal{String("Image")}})
	if err != nil {
		t.Fatalf("fieldref: %v", err)
	}
	if got != `ParentImage = Image` {
		t.Fatalf("fieldref got %q", got)
	}
}

func TestEmitPresenceChecks(t *testing.T) {
	d := DefaultDialect()

	got, err := d.EmitPredicate(&Predicate{Field: "hash", Comparison: CompExists, Values: []Literal{Bool(true)}})
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if got != `hash != null` {
		t.Fatalf("exists got %q", got)
	}

	got, err = d.EmitPredicate(&Predicate{Field: "hash", Comparison: CompIsNull, Values: []Literal{Null()}})
	if err != nil {
		t.Fatalf("isnull: %v", err)
	}
	if got != `hash = null` {
		t.Fatalf("isnull got %q", got)
	}
}

func TestEmitOrdinal(t *testing.T) {
	d := DefaultDialect()
	got, err := d.EmitPredicate(&Predicate{Field: "port", Comparison: CompGte, Values: []Literal{Number("1024")}})
	if err != nil {
		t.Fatalf("gte: %v", err)
	}
	if got != `port >= 1024` {
		t.Fatalf("gte got %q", got)
	}
}

func TestEmitUnsupportedComparison(t *testing.T) {
	d := DefaultDialect()
	_, err := d.EmitPredicate(&Predicate{Field: "f", Comparison: ComparisonKind(99), Values: []Literal{String("v")}})
	if !errors.Is(err, ErrUnsupportedComparison) {
		t.Fatalf("want ErrUnsupportedComparison, got %v", err)
	}
	if !strings.Contains(err.Error(), `"f"`) {
		t.Fatalf("missing field name: %q", err.Error())
	}
}

func TestEmitNullUnderContains(t *testing.T) {
	d := DefaultDialect()
	_, err := d.EmitPredicate(&Predicate{Field: "f", Comparison: CompContains, Values: []Literal{Null()}})
	if !errors.Is(err, ErrUnsupportedLiteral) {
		t.Fatalf("want ErrUnsupportedLiteral, got %v", err)
	}
}

func TestEmitEmptyValues(t *testing.T) {
	d := DefaultDialect()
	_, err := d.EmitPredicate(&Predicate{Field: "f", Comparison: CompEquals})
	if !errors.Is(err, ErrMalformedCondition) {
		t.Fatalf("want ErrMalformedCondition, got %v", err)
	}
}
