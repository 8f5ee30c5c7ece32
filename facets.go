package xsd

import (
	"fmt"
	"strconv"
	"strings"
)

// Facet is one constraining predicate attached to a simple type. Facets never
// mutate the value; they observe the normalized lexical form and report
// pass/fail with a reason.
type Facet interface {
	Kind() string
	Check(value string, st *SimpleType) error
}

// NormalizeWhiteSpace applies the pre-lexical whitespace policy: preserve is
// a no-op, replace maps tabs and line breaks to spaces, collapse additionally
// trims and squeezes internal runs.
func NormalizeWhiteSpace(value string, ws WhiteSpace) string {
	switch ws {
	case ReplaceWhiteSpace:
		r := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
		return r.Replace(value)
	case CollapseWhiteSpace:
		return strings.Join(strings.Fields(value), " ")
	default:
		return value
	}
}

// valueLength measures a value the way its type counts: list item count for
// list types, a primitive-specific measure (octets for binary types) when
// defined, runes otherwise.
func valueLength(value string, st *SimpleType) int {
	if st != nil && st.Variety == ListVariety {
		return len(strings.Fields(value))
	}
	if st != nil && st.Primitive != nil && st.Primitive.Length != nil {
		return st.Primitive.Length(value)
	}
	return len([]rune(value))
}

// compareInType compares two lexical values in the type's native ordering.
func compareInType(a, b string, st *SimpleType) (int, error) {
	if st != nil && st.Primitive != nil && st.Primitive.Compare != nil {
		return st.Primitive.Compare(a, b)
	}
	return strings.Compare(a, b), nil
}

// LengthFacet requires an exact length.
type LengthFacet struct{ Value int }

func (f *LengthFacet) Kind() string { return FacetLength }

func (f *LengthFacet) Check(value string, st *SimpleType) error {
	if n := valueLength(value, st); n != f.Value {
		return fmt.Errorf("length must be exactly %d, got %d", f.Value, n)
	}
	return nil
}

// MinLengthFacet requires a minimum length.
type MinLengthFacet struct{ Value int }

func (f *MinLengthFacet) Kind() string { return FacetMinLength }

func (f *MinLengthFacet) Check(value string, st *SimpleType) error {
	if n := valueLength(value, st); n < f.Value {
		return fmt.Errorf("length must be at least %d, got %d", f.Value, n)
	}
	return nil
}

// MaxLengthFacet requires a maximum length.
type MaxLengthFacet struct{ Value int }

func (f *MaxLengthFacet) Kind() string { return FacetMaxLength }

func (f *MaxLengthFacet) Check(value string, st *SimpleType) error {
	if n := valueLength(value, st); n > f.Value {
		return fmt.Errorf("length must be at most %d, got %d", f.Value, n)
	}
	return nil
}

// boundFacet covers the four ordered-value range facets.
type boundFacet struct {
	kind      string
	Value     string
	inclusive bool
	lower     bool
}

func (f *boundFacet) Kind() string { return f.kind }

func (f *boundFacet) Check(value string, st *SimpleType) error {
	cmp, err := compareInType(value, f.Value, st)
	if err != nil {
		return err
	}
	switch {
	case f.lower && f.inclusive && cmp < 0:
		return fmt.Errorf("value must be >= %s, got %s", f.Value, value)
	case f.lower && !f.inclusive && cmp <= 0:
		return fmt.Errorf("value must be > %s, got %s", f.Value, value)
	case !f.lower && f.inclusive && cmp > 0:
		return fmt.Errorf("value must be <= %s, got %s", f.Value, value)
	case !f.lower && !f.inclusive && cmp >= 0:
		return fmt.Errorf("value must be < %s, got %s", f.Value, value)
	}
	return nil
}

// MinInclusive returns a minInclusive facet.
func MinInclusive(value string) Facet {
	return &boundFacet{kind: FacetMinInclusive, Value: value, inclusive: true, lower: true}
}

// MinExclusive returns a minExclusive facet.
func MinExclusive(value string) Facet {
	return &boundFacet{kind: FacetMinExclusive, Value: value, lower: true}
}

// MaxInclusive returns a maxInclusive facet.
func MaxInclusive(value string) Facet {
	return &boundFacet{kind: FacetMaxInclusive, Value: value, inclusive: true}
}

// MaxExclusive returns a maxExclusive facet.
func MaxExclusive(value string) Facet {
	return &boundFacet{kind: FacetMaxExclusive, Value: value}
}

// TotalDigitsFacet bounds the count of significant decimal digits.
type TotalDigitsFacet struct{ Value int }

func (f *TotalDigitsFacet) Kind() string { return FacetTotalDigits }

func (f *TotalDigitsFacet) Check(value string, st *SimpleType) error {
	digits := strings.TrimLeft(value, "+-")
	digits = strings.Replace(digits, ".", "", 1)
	digits = strings.TrimLeft(digits, "0")
	digits = strings.TrimRight(digits, "0")
	if digits == "" {
		digits = "0"
	}
	if len(digits) > f.Value {
		return fmt.Errorf("total digits must be at most %d, got %d", f.Value, len(digits))
	}
	return nil
}

// FractionDigitsFacet bounds the count of fraction digits.
type FractionDigitsFacet struct{ Value int }

func (f *FractionDigitsFacet) Kind() string { return FacetFractionDigits }

func (f *FractionDigitsFacet) Check(value string, st *SimpleType) error {
	_, frac, ok := strings.Cut(value, ".")
	if !ok {
		return nil
	}
	frac = strings.TrimRight(frac, "0")
	if len(frac) > f.Value {
		return fmt.Errorf("fraction digits must be at most %d, got %d", f.Value, len(frac))
	}
	return nil
}

// EnumerationFacet requires membership in a literal set decoded with the
// base type.
type EnumerationFacet struct{ Values []string }

func (f *EnumerationFacet) Kind() string { return FacetEnumeration }

func (f *EnumerationFacet) Check(value string, st *SimpleType) error {
	for _, allowed := range f.Values {
		if value == allowed {
			return nil
		}
		// Values equal in the primitive's value space also match ("1.0" vs "1").
		if st != nil && st.Primitive != nil && st.Primitive.Compare != nil {
			if cmp, err := st.Primitive.Compare(value, allowed); err == nil && cmp == 0 {
				return nil
			}
		}
	}
	return fmt.Errorf("value %q is not in enumeration %v", value, f.Values)
}

// PatternFacet accepts a value when any of its alternatives matches.
// Patterns are ORed, never ANDed.
type PatternFacet struct {
	Patterns []string
	matchers []PatternMatcher
}

// NewPatternFacet compiles the alternatives with the default translator.
func NewPatternFacet(patterns ...string) (*PatternFacet, error) {
	return NewPatternFacetWith(nil, patterns...)
}

// NewPatternFacetWith compiles the alternatives resolving named character
// classes through the given resolver.
func NewPatternFacetWith(resolver CodePointResolver, patterns ...string) (*PatternFacet, error) {
	f := &PatternFacet{Patterns: patterns}
	for _, p := range patterns {
		m, err := CompilePatternWith(p, resolver)
		if err != nil {
			return nil, err
		}
		f.matchers = append(f.matchers, m)
	}
	return f, nil
}

func (f *PatternFacet) Kind() string { return FacetPattern }

func (f *PatternFacet) Check(value string, st *SimpleType) error {
	for _, m := range f.matchers {
		if m.Search(value) {
			return nil
		}
	}
	return fmt.Errorf("value %q does not match any of the patterns %v", value, f.Patterns)
}

// WhiteSpaceFacet records a whitespace policy override; normalization itself
// happens before facet checks run.
type WhiteSpaceFacet struct{ Value WhiteSpace }

func (f *WhiteSpaceFacet) Kind() string { return FacetWhiteSpace }

func (f *WhiteSpaceFacet) Check(value string, st *SimpleType) error { return nil }

// ParseFacet builds a facet from a kind name and a lexical value, the way
// declarative schema forms carry them. Pattern values hold one alternative.
func ParseFacet(kind, value string) (Facet, error) {
	intValue := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("facet %s needs a non-negative integer value, got %q", kind, value)
		}
		return n, nil
	}
	switch kind {
	case FacetLength:
		n, err := intValue()
		if err != nil {
			return nil, err
		}
		return &LengthFacet{Value: n}, nil
	case FacetMinLength:
		n, err := intValue()
		if err != nil {
			return nil, err
		}
		return &MinLengthFacet{Value: n}, nil
	case FacetMaxLength:
		n, err := intValue()
		if err != nil {
			return nil, err
		}
		return &MaxLengthFacet{Value: n}, nil
	case FacetMinInclusive:
		return MinInclusive(value), nil
	case FacetMinExclusive:
		return MinExclusive(value), nil
	case FacetMaxInclusive:
		return MaxInclusive(value), nil
	case FacetMaxExclusive:
		return MaxExclusive(value), nil
	case FacetTotalDigits:
		n, err := intValue()
		if err != nil {
			return nil, err
		}
		return &TotalDigitsFacet{Value: n}, nil
	case FacetFractionDigits:
		n, err := intValue()
		if err != nil {
			return nil, err
		}
		return &FractionDigitsFacet{Value: n}, nil
	case FacetEnumeration:
		return &EnumerationFacet{Values: []string{value}}, nil
	case FacetPattern:
		return NewPatternFacet(value)
	case FacetWhiteSpace:
		ws := WhiteSpace(value)
		switch ws {
		case PreserveWhiteSpace, ReplaceWhiteSpace, CollapseWhiteSpace:
			return &WhiteSpaceFacet{Value: ws}, nil
		}
		return nil, fmt.Errorf("invalid whiteSpace value %q", value)
	}
	return nil, fmt.Errorf("unknown facet %q", kind)
}

// facetOfKind returns the first facet of the given kind, or nil.
func facetOfKind(facets []Facet, kind string) Facet {
	for _, f := range facets {
		if f.Kind() == kind {
			return f
		}
	}
	return nil
}

// checkFacetSet enforces the build-time facet rules for a restriction:
// every facet must be admitted by the primitive ancestor, the combination
// must not be provably contradictory, and no facet may widen a bound imposed
// by an ancestor of the same kind. Violations are schema build errors.
func checkFacetSet(component string, facets []Facet, primitive *BuiltinType, base *SimpleType) error {
	fail := func(format string, args ...any) error {
		return &ParseError{Component: component, Message: fmt.Sprintf(format, args...)}
	}

	if primitive != nil {
		for _, f := range facets {
			if !primitive.Admits(f.Kind()) {
				return fail("facet %s is not admitted by primitive type %s", f.Kind(), primitive.Name.Local)
			}
		}
	}

	length, _ := facetOfKind(facets, FacetLength).(*LengthFacet)
	minLen, _ := facetOfKind(facets, FacetMinLength).(*MinLengthFacet)
	maxLen, _ := facetOfKind(facets, FacetMaxLength).(*MaxLengthFacet)

	if minLen != nil && maxLen != nil && minLen.Value > maxLen.Value {
		return fail("minLength %d exceeds maxLength %d", minLen.Value, maxLen.Value)
	}
	if length != nil && minLen != nil && minLen.Value > length.Value {
		return fail("minLength %d exceeds length %d", minLen.Value, length.Value)
	}
	if length != nil && maxLen != nil && maxLen.Value < length.Value {
		return fail("maxLength %d is below length %d", maxLen.Value, length.Value)
	}

	total, _ := facetOfKind(facets, FacetTotalDigits).(*TotalDigitsFacet)
	frac, _ := facetOfKind(facets, FacetFractionDigits).(*FractionDigitsFacet)
	if total != nil && frac != nil && frac.Value > total.Value {
		return fail("fractionDigits %d exceeds totalDigits %d", frac.Value, total.Value)
	}

	if err := checkBoundFacets(component, facets, primitive); err != nil {
		return err
	}

	// Narrowing against every ancestor of the same facet kind.
	for anc := base; anc != nil; anc = anc.base {
		if err := checkFacetNarrowing(component, facets, anc); err != nil {
			return err
		}
	}
	return nil
}

func checkBoundFacets(component string, facets []Facet, primitive *BuiltinType) error {
	cmp := func(a, b string) (int, error) {
		if primitive != nil && primitive.Compare != nil {
			return primitive.Compare(a, b)
		}
		return strings.Compare(a, b), nil
	}
	lower := func(kind string) *boundFacet {
		f, _ := facetOfKind(facets, kind).(*boundFacet)
		return f
	}
	minInc, minExc := lower(FacetMinInclusive), lower(FacetMinExclusive)
	maxInc, maxExc := lower(FacetMaxInclusive), lower(FacetMaxExclusive)

	if minInc != nil && minExc != nil {
		return &ParseError{Component: component, Message: "minInclusive and minExclusive are mutually exclusive"}
	}
	if maxInc != nil && maxExc != nil {
		return &ParseError{Component: component, Message: "maxInclusive and maxExclusive are mutually exclusive"}
	}

	check := func(lo, hi *boundFacet, strict bool) error {
		if lo == nil || hi == nil {
			return nil
		}
		c, err := cmp(lo.Value, hi.Value)
		if err != nil {
			return &ParseError{Component: component, Message: err.Error()}
		}
		if c > 0 || (strict && c == 0) {
			return &ParseError{Component: component,
				Message: fmt.Sprintf("%s %s contradicts %s %s", lo.kind, lo.Value, hi.kind, hi.Value)}
		}
		return nil
	}
	if err := check(minInc, maxInc, false); err != nil {
		return err
	}
	if err := check(minInc, maxExc, true); err != nil {
		return err
	}
	if err := check(minExc, maxInc, true); err != nil {
		return err
	}
	return check(minExc, maxExc, true)
}

// checkFacetNarrowing rejects facets that relax a bound the ancestor already
// imposes with the same kind.
func checkFacetNarrowing(component string, facets []Facet, anc *SimpleType) error {
	fail := func(format string, args ...any) error {
		return &ParseError{Component: component, Message: fmt.Sprintf(format, args...)}
	}
	for _, f := range facets {
		bf := facetOfKind(anc.Facets, f.Kind())
		if bf == nil {
			continue
		}
		switch nf := f.(type) {
		case *LengthFacet:
			if bv := bf.(*LengthFacet).Value; nf.Value != bv {
				return fail("length %d differs from base length %d", nf.Value, bv)
			}
		case *MinLengthFacet:
			if bv := bf.(*MinLengthFacet).Value; nf.Value < bv {
				return fail("minLength %d is below base minLength %d", nf.Value, bv)
			}
		case *MaxLengthFacet:
			if bv := bf.(*MaxLengthFacet).Value; nf.Value > bv {
				return fail("maxLength %d exceeds base maxLength %d", nf.Value, bv)
			}
		case *TotalDigitsFacet:
			if bv := bf.(*TotalDigitsFacet).Value; nf.Value > bv {
				return fail("totalDigits %d exceeds base totalDigits %d", nf.Value, bv)
			}
		case *FractionDigitsFacet:
			if bv := bf.(*FractionDigitsFacet).Value; nf.Value > bv {
				return fail("fractionDigits %d exceeds base fractionDigits %d", nf.Value, bv)
			}
		case *boundFacet:
			base := bf.(*boundFacet)
			c, err := compareInType(nf.Value, base.Value, anc)
			if err != nil {
				return fail("%s", err)
			}
			if nf.lower && c < 0 {
				return fail("%s %s relaxes base %s %s", nf.kind, nf.Value, base.kind, base.Value)
			}
			if !nf.lower && c > 0 {
				return fail("%s %s relaxes base %s %s", nf.kind, nf.Value, base.kind, base.Value)
			}
		case *WhiteSpaceFacet:
			if whiteSpaceRank(nf.Value) < whiteSpaceRank(bf.(*WhiteSpaceFacet).Value) {
				return fail("whiteSpace %s relaxes base whiteSpace %s", nf.Value, bf.(*WhiteSpaceFacet).Value)
			}
		}
	}
	// The base's opposing length bounds also constrain new facets:
	// minLength may not exceed the base's maxLength.
	if minLen, ok := facetOfKind(facets, FacetMinLength).(*MinLengthFacet); ok {
		if baseMax, ok := facetOfKind(anc.Facets, FacetMaxLength).(*MaxLengthFacet); ok {
			if minLen.Value > baseMax.Value {
				return fail("minLength %d exceeds base maxLength %d", minLen.Value, baseMax.Value)
			}
		}
	}
	if maxLen, ok := facetOfKind(facets, FacetMaxLength).(*MaxLengthFacet); ok {
		if baseMin, ok := facetOfKind(anc.Facets, FacetMinLength).(*MinLengthFacet); ok {
			if maxLen.Value < baseMin.Value {
				return fail("maxLength %d is below base minLength %d", maxLen.Value, baseMin.Value)
			}
		}
	}
	return nil
}

// checkFacets runs every facet of the type against a normalized value,
// collecting one error per violated facet.
func checkFacets(value string, st *SimpleType) []error {
	var errs []error
	for _, f := range st.effectiveFacets() {
		if err := f.Check(value, st); err != nil {
			errs = append(errs, &ValidationError{
				Code:      CodeFacetValid,
				Value:     value,
				Component: st.QName.String(),
				Reason:    fmt.Sprintf("%s constraint violated: %v", f.Kind(), err),
			})
		}
	}
	return errs
}
