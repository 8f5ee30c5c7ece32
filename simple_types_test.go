package xsd

import (
	"errors"
	"math/big"
	"strings"
	"testing"
)

func TestAtomicDecode(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		input   string
		want    any
		wantErr bool
	}{
		{"string passthrough", "string", "hello", "hello", false},
		{"token collapses", "token", "  a  b  ", "a b", false},
		{"integer", "integer", "42", int64(42), false},
		{"integer with surrounding space", "integer", " 42 ", int64(42), false},
		{"negative integer", "integer", "-7", int64(-7), false},
		{"bad integer", "integer", "forty", nil, true},
		{"boolean true", "boolean", "true", true, false},
		{"boolean numeric", "boolean", "1", true, false},
		{"bad boolean", "boolean", "yes", nil, true},
		{"double", "double", "1.5", 1.5, false},
		{"double INF", "double", "INF", nil, false},
		{"date", "date", "2024-02-29", "2024-02-29", false},
		{"bad date", "date", "2024-2-29", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := builtinSimpleType(tt.typ)
			if st == nil {
				t.Fatalf("no builtin type %s", tt.typ)
			}
			got, errs := st.Decode(tt.input)
			if tt.wantErr {
				if len(errs) == 0 {
					t.Fatalf("Decode(%q) = %v with no errors, want DecodeError", tt.input, got)
				}
				var de *DecodeError
				if !errors.As(errs[0], &de) {
					t.Errorf("Decode(%q) error = %T, want *DecodeError", tt.input, errs[0])
				}
				// Non-fail-fast callers still receive the normalized text.
				if got == nil {
					t.Error("Decode returned no fallback value")
				}
				return
			}
			if len(errs) > 0 {
				t.Fatalf("Decode(%q) errors: %v", tt.input, errs)
			}
			if tt.want != nil && got != tt.want {
				t.Errorf("Decode(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestAtomicDecodeWithFacets(t *testing.T) {
	st := NewAtomicType(XSDName("smallInt"), XSDName("integer"),
		MinInclusive("0"), MaxInclusive("100"))

	if _, errs := st.Decode("50"); len(errs) > 0 {
		t.Errorf("Decode(50) errors: %v", errs)
	}
	_, errs := st.Decode("200")
	if len(errs) != 1 {
		t.Fatalf("Decode(200) produced %d errors, want 1", len(errs))
	}
	var ve *ValidationError
	if !errors.As(errs[0], &ve) {
		t.Errorf("Decode(200) error = %T, want *ValidationError", errs[0])
	}
}

func TestDecimalDecode(t *testing.T) {
	st := builtinSimpleType("decimal")
	got, errs := st.Decode("3.14")
	if len(errs) > 0 {
		t.Fatalf("Decode(3.14) errors: %v", errs)
	}
	f, ok := got.(*big.Float)
	if !ok {
		t.Fatalf("Decode(3.14) = %T, want *big.Float", got)
	}
	if f.Text('f', 2) != "3.14" {
		t.Errorf("Decode(3.14) = %s", f.Text('f', 2))
	}
}

func TestListDecode(t *testing.T) {
	st := NewListType(XSDName("intList"), XSDName("integer"))

	got, errs := st.Decode(" 1  2 3 ")
	if len(errs) > 0 {
		t.Fatalf("Decode errors: %v", errs)
	}
	values, ok := got.([]any)
	if !ok {
		t.Fatalf("Decode = %T, want []any", got)
	}
	want := []int64{1, 2, 3}
	if len(values) != len(want) {
		t.Fatalf("Decode produced %d items, want %d", len(values), len(want))
	}
	for i, v := range values {
		if v != want[i] {
			t.Errorf("item %d = %v, want %d", i, v, want[i])
		}
	}
}

func TestListFacetsApplyToWholeSequence(t *testing.T) {
	// length counts items, not characters.
	st := NewListType(XSDName("pair"), XSDName("integer"), &LengthFacet{Value: 2})

	if _, errs := st.Decode("10 20"); len(errs) > 0 {
		t.Errorf("Decode(10 20) errors: %v", errs)
	}
	if _, errs := st.Decode("10 20 30"); len(errs) == 0 {
		t.Error("Decode(10 20 30) passed a length=2 facet")
	}
}

func TestUnionDecodeCommitsToFirstMember(t *testing.T) {
	// integer comes first, so numeric text binds numerically even though
	// string would also accept it.
	st := NewUnionType(XSDName("intOrString"), XSDName("integer"), XSDName("string"))

	got, errs := st.Decode("89")
	if len(errs) > 0 {
		t.Fatalf("Decode(89) errors: %v", errs)
	}
	if got != int64(89) {
		t.Errorf("Decode(89) = %v (%T), want int64(89)", got, got)
	}

	got, errs = st.Decode("hello")
	if len(errs) > 0 {
		t.Fatalf("Decode(hello) errors: %v", errs)
	}
	if got != "hello" {
		t.Errorf("Decode(hello) = %v, want \"hello\"", got)
	}
}

func TestUnionDecodeNoMemberAccepts(t *testing.T) {
	st := NewUnionType(XSDName("numeric"), XSDName("integer"), XSDName("boolean"))

	_, errs := st.Decode("maybe")
	if len(errs) != 1 {
		t.Fatalf("Decode(maybe) produced %d errors, want 1", len(errs))
	}
	var de *DecodeError
	if !errors.As(errs[0], &de) {
		t.Fatalf("Decode(maybe) error = %T, want *DecodeError", errs[0])
	}
	// The error names every member tried.
	for _, member := range []string{"integer", "boolean"} {
		if !strings.Contains(de.Reason, member) {
			t.Errorf("error %q does not name member %s", de.Reason, member)
		}
	}
}

func TestAtomicEncode(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		input   any
		want    string
		wantErr bool
	}{
		{"string", "string", "hello", "hello", false},
		{"integer", "integer", int64(42), "42", false},
		{"int value", "integer", 7, "7", false},
		{"boolean", "boolean", true, "true", false},
		{"double", "double", 1.5, "1.5", false},
		{"wrong shape", "integer", []int{1}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := builtinSimpleType(tt.typ)
			got, errs := st.Encode(tt.input)
			if tt.wantErr {
				if len(errs) == 0 {
					t.Fatalf("Encode(%v) = %q with no errors, want EncodeError", tt.input, got)
				}
				var ee *EncodeError
				if !errors.As(errs[0], &ee) {
					t.Errorf("Encode error = %T, want *EncodeError", errs[0])
				}
				return
			}
			if len(errs) > 0 {
				t.Fatalf("Encode(%v) errors: %v", tt.input, errs)
			}
			if got != tt.want {
				t.Errorf("Encode(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestListEncode(t *testing.T) {
	st := NewListType(XSDName("intList"), XSDName("integer"))
	got, errs := st.Encode([]any{int64(1), int64(2), int64(3)})
	if len(errs) > 0 {
		t.Fatalf("Encode errors: %v", errs)
	}
	if got != "1 2 3" {
		t.Errorf("Encode = %q, want \"1 2 3\"", got)
	}
}

func TestEffectiveFacetsInherit(t *testing.T) {
	ns := "http://example.com/test"
	schema := NewSchema(ns)

	base := NewAtomicType(QName{Namespace: ns, Local: "bounded"}, XSDName("integer"),
		MaxInclusive("100"))
	derived := NewAtomicType(QName{Namespace: ns, Local: "positiveBounded"},
		QName{Namespace: ns, Local: "bounded"},
		MinInclusive("1"))

	if err := schema.AddType(base); err != nil {
		t.Fatal(err)
	}
	if err := schema.AddType(derived); err != nil {
		t.Fatal(err)
	}
	if errs := schema.Build(StrictMode); len(errs) > 0 {
		t.Fatalf("Build errors: %v", errs)
	}

	// The inherited maxInclusive still applies.
	if _, errs := derived.Decode("150"); len(errs) == 0 {
		t.Error("Decode(150) passed the inherited maxInclusive 100")
	}
	if _, errs := derived.Decode("50"); len(errs) > 0 {
		t.Errorf("Decode(50) errors: %v", errs)
	}
}

func TestUnsignedDecodeFullRange(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		input   string
		want    any
		wantErr bool
	}{
		{"unsignedLong max", "unsignedLong", "18446744073709551615", uint64(18446744073709551615), false},
		{"unsignedLong above int64", "unsignedLong", "9223372036854775808", uint64(9223372036854775808), false},
		{"unsignedLong overflow", "unsignedLong", "18446744073709551616", nil, true},
		{"unsignedLong negative", "unsignedLong", "-1", nil, true},
		{"unsignedInt max", "unsignedInt", "4294967295", uint64(4294967295), false},
		{"unsignedInt overflow", "unsignedInt", "4294967296", nil, true},
		{"unsignedShort max", "unsignedShort", "65535", uint64(65535), false},
		{"unsignedByte overflow", "unsignedByte", "256", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := builtinSimpleType(tt.typ)
			if st == nil {
				t.Fatalf("no builtin type %s", tt.typ)
			}
			got, errs := st.Decode(tt.input)
			if tt.wantErr {
				if len(errs) == 0 {
					t.Fatalf("Decode(%q) succeeded with %v", tt.input, got)
				}
				var de *DecodeError
				if !errors.As(errs[0], &de) {
					t.Fatalf("error is %T, want DecodeError", errs[0])
				}
				return
			}
			if len(errs) > 0 {
				t.Fatalf("Decode(%q) errors: %v", tt.input, errs)
			}
			if got != tt.want {
				t.Fatalf("Decode(%q) = %v (%T), want %v", tt.input, got, got, tt.want)
			}
		})
	}
}
