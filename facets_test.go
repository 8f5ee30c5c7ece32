package xsd

import (
	"errors"
	"testing"
)

func TestNormalizeWhiteSpace(t *testing.T) {
	tests := []struct {
		name   string
		policy WhiteSpace
		input  string
		want   string
	}{
		{"preserve keeps everything", PreserveWhiteSpace, "  a\tb\nc  ", "  a\tb\nc  "},
		{"replace maps tabs and newlines", ReplaceWhiteSpace, "a\tb\nc", "a b c"},
		{"collapse trims and folds runs", CollapseWhiteSpace, "  a \t b  ", "a b"},
		{"collapse on empty", CollapseWhiteSpace, "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeWhiteSpace(tt.input, tt.policy); got != tt.want {
				t.Errorf("NormalizeWhiteSpace(%q, %s) = %q, want %q", tt.input, tt.policy, got, tt.want)
			}
		})
	}
}

func TestLengthFacets(t *testing.T) {
	st := NewAtomicType(XSDName("testString"), XSDName("string"))

	tests := []struct {
		name    string
		facet   Facet
		value   string
		wantErr bool
	}{
		{"length exact", &LengthFacet{Value: 3}, "abc", false},
		{"length mismatch", &LengthFacet{Value: 3}, "abcd", true},
		{"minLength ok", &MinLengthFacet{Value: 2}, "ab", false},
		{"minLength short", &MinLengthFacet{Value: 2}, "a", true},
		{"maxLength ok", &MaxLengthFacet{Value: 4}, "abcd", false},
		{"maxLength long", &MaxLengthFacet{Value: 4}, "abcde", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.facet.Check(tt.value, st)
			if (err != nil) != tt.wantErr {
				t.Errorf("Check(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestBoundFacets(t *testing.T) {
	st := NewAtomicType(XSDName("testInt"), XSDName("integer"))

	tests := []struct {
		name    string
		kind    string
		bound   string
		value   string
		wantErr bool
	}{
		{"minInclusive at bound", FacetMinInclusive, "5", "5", false},
		{"minInclusive below", FacetMinInclusive, "5", "4", true},
		{"minExclusive at bound", FacetMinExclusive, "5", "5", true},
		{"minExclusive above", FacetMinExclusive, "5", "6", false},
		{"maxInclusive at bound", FacetMaxInclusive, "10", "10", false},
		{"maxInclusive above", FacetMaxInclusive, "10", "11", true},
		{"maxExclusive at bound", FacetMaxExclusive, "10", "10", true},
		{"maxExclusive below", FacetMaxExclusive, "10", "9", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFacet(tt.kind, tt.bound)
			if err != nil {
				t.Fatalf("ParseFacet(%s, %s): %v", tt.kind, tt.bound, err)
			}
			checkErr := f.Check(tt.value, st)
			if (checkErr != nil) != tt.wantErr {
				t.Errorf("%s=%s Check(%q) error = %v, wantErr %v", tt.kind, tt.bound, tt.value, checkErr, tt.wantErr)
			}
		})
	}
}

func TestEnumerationFacet(t *testing.T) {
	st := NewAtomicType(XSDName("color"), XSDName("string"))
	f := &EnumerationFacet{Values: []string{"red", "green", "blue"}}

	if err := f.Check("green", st); err != nil {
		t.Errorf("Check(green) = %v, want nil", err)
	}
	if err := f.Check("purple", st); err == nil {
		t.Error("Check(purple) = nil, want error")
	}
}

func TestEnumerationValueSpace(t *testing.T) {
	// Numeric enumerations compare in the value space, not lexically.
	st := NewAtomicType(XSDName("level"), XSDName("integer"))
	f := &EnumerationFacet{Values: []string{"1", "2"}}

	if err := f.Check("01", st); err != nil {
		t.Errorf("Check(01) = %v, want nil for numeric equality with 1", err)
	}
}

func TestPatternFacet(t *testing.T) {
	st := NewAtomicType(XSDName("sku"), XSDName("string"))
	f, err := NewPatternFacet(`\d{3}-[A-Z]{2}`)
	if err != nil {
		t.Fatalf("NewPatternFacet: %v", err)
	}

	if err := f.Check("123-AB", st); err != nil {
		t.Errorf("Check(123-AB) = %v, want nil", err)
	}
	if err := f.Check("123-ab", st); err == nil {
		t.Error("Check(123-ab) = nil, want error")
	}
	// Patterns are implicitly anchored.
	if err := f.Check("x123-ABx", st); err == nil {
		t.Error("Check(x123-ABx) = nil, want error from anchoring")
	}
}

func TestPatternFacetAlternatives(t *testing.T) {
	// Multiple patterns on one restriction step are alternatives.
	st := NewAtomicType(XSDName("code"), XSDName("string"))
	f, err := NewPatternFacet(`[a-z]+`, `\d+`)
	if err != nil {
		t.Fatalf("NewPatternFacet: %v", err)
	}

	for _, ok := range []string{"abc", "123"} {
		if err := f.Check(ok, st); err != nil {
			t.Errorf("Check(%q) = %v, want nil", ok, err)
		}
	}
	if err := f.Check("abc123", st); err == nil {
		t.Error("Check(abc123) = nil, want error")
	}
}

func TestDigitFacets(t *testing.T) {
	st := NewAtomicType(XSDName("price"), XSDName("decimal"))

	total := &TotalDigitsFacet{Value: 4}
	if err := total.Check("12.34", st); err != nil {
		t.Errorf("totalDigits Check(12.34) = %v, want nil", err)
	}
	if err := total.Check("123.45", st); err == nil {
		t.Error("totalDigits Check(123.45) = nil, want error")
	}

	fraction := &FractionDigitsFacet{Value: 2}
	if err := fraction.Check("1.23", st); err != nil {
		t.Errorf("fractionDigits Check(1.23) = %v, want nil", err)
	}
	if err := fraction.Check("1.234", st); err == nil {
		t.Error("fractionDigits Check(1.234) = nil, want error")
	}
}

func TestFacetNarrowingRejectedAtBuild(t *testing.T) {
	ns := "http://example.com/test"
	schema := NewSchema(ns)

	base := NewAtomicType(QName{Namespace: ns, Local: "shortString"}, XSDName("string"),
		&MaxLengthFacet{Value: 5})
	derived := NewAtomicType(QName{Namespace: ns, Local: "longerString"},
		QName{Namespace: ns, Local: "shortString"},
		&MinLengthFacet{Value: 10})

	if err := schema.AddType(base); err != nil {
		t.Fatal(err)
	}
	if err := schema.AddType(derived); err != nil {
		t.Fatal(err)
	}

	errs := schema.Build(StrictMode)
	if len(errs) == 0 {
		t.Fatal("Build accepted minLength 10 restricting maxLength 5, want ParseError")
	}
	var pe *ParseError
	if !errors.As(errs[0], &pe) {
		t.Errorf("Build error = %T, want *ParseError", errs[0])
	}
}

func TestFacetAdmittedByPrimitive(t *testing.T) {
	// fractionDigits makes no sense on a string primitive.
	err := checkFacetSet("test", []Facet{&FractionDigitsFacet{Value: 2}},
		GetBuiltinType("string"), nil)
	if err == nil {
		t.Error("checkFacetSet accepted fractionDigits on string, want error")
	}
}

func TestWhiteSpaceNarrowing(t *testing.T) {
	ns := "http://example.com/test"
	schema := NewSchema(ns)

	base := NewAtomicType(QName{Namespace: ns, Local: "collapsed"}, XSDName("token"))
	derived := NewAtomicType(QName{Namespace: ns, Local: "preserved"},
		QName{Namespace: ns, Local: "collapsed"},
		&WhiteSpaceFacet{Value: PreserveWhiteSpace})

	if err := schema.AddType(base); err != nil {
		t.Fatal(err)
	}
	if err := schema.AddType(derived); err != nil {
		t.Fatal(err)
	}

	if errs := schema.Build(StrictMode); len(errs) == 0 {
		t.Error("Build accepted preserve under a collapse ancestor, want ParseError")
	}
}
