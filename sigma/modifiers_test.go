package sigma

import (
	"testing"

	"github.com/detectlab/sigma2xql/xql"
)

func TestParseFieldModifiers(t *testing.T) {
	cases := []struct {
		key     string
		field   string
		cmp     xql.ComparisonKind
		allMode bool
	}{
		{"Image", "Image", xql.CompEquals, false},
		{"CommandLine|contains", "CommandLine", xql.CompContains, false},
		{"CommandLine|contains|all", "CommandLine", xql.CompContains, true},
		{"Image|startswith", "Image", xql.CompStartsWith, false},
		{"Image|endswith", "Image", xql.CompEndsWith, false},
		{"Hash|re", "Hash", xql.CompRegex, false},
		{"SourceIp|cidr", "SourceIp", xql.CompCidr, false},
		{"Port|gte", "Port", xql.CompGte, false},
		{"Port|lt", "Port", xql.CompLt, false},
		{"ParentImage|fieldref", "ParentImage", xql.CompFieldEquals, false},
	}
	for _, c := range cases {
		spec, err := parseFieldModifiers(c.key)
		if err != nil {
			t.Fatalf("%s: %v", c.key, err)
		}
		if spec.Field != c.field || spec.Comparison != c.cmp || spec.AllMode != c.allMode {
			t.Fatalf("%s: got %+v", c.key, spec)
		}
	}
}

func TestParseFieldModifiersExists(t *testing.T) {
	spec, err := parseFieldModifiers("Hash|exists")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !spec.ExistsCheck {
		t.Fatalf("exists flag not set: %+v", spec)
	}
}

func TestParseFieldModifiersBase64(t *testing.T) {
	spec, err := parseFieldModifiers("Data|base64|contains")
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	got, err := spec.applyTransforms("abc")
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if got != "YWJj" {
		t.Fatalf("got %q", got)
	}
}

func TestParseFieldModifiersWideBase64(t *testing.T) {
	spec, err := parseFieldModifiers("CommandLine|wide|base64|contains")
	if err != nil {
		t.Fatalf("wide|base64: %v", err)
	}
	got, err := spec.applyTransforms("cmd")
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	// UTF-16LE bytes of "cmd", base64 encoded.
	if got != "YwBtAGQA" {
		t.Fatalf("got %q", got)
	}
}

func TestParseFieldModifiersWideAloneRejected(t *testing.T) {
	if _, err := parseFieldModifiers("CommandLine|wide"); err == nil {
		t.Fatalf("wide without base64 must fail")
	}
}

func TestParseFieldModifiersUnknown(t *testing.T) {
	if _, err := parseFieldModifiers("Data|utf16"); err == nil {
		t.Fatalf("expected error for unsupported modifier")
	}
	if _, err := parseFieldModifiers("|contains"); err == nil {
		t.Fatalf("expected error for empty field")
	}
}
