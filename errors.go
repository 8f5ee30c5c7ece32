package xsd

import (
	"errors"
	"fmt"
	"iter"
)

// ValidationMode controls how build and instance errors propagate.
// StrictMode stops at the first error, LaxMode collects every error while
// continuing with best-effort fallbacks, SkipMode suppresses the checks
// entirely and always returns a best-effort result.
type ValidationMode string

const (
	StrictMode ValidationMode = "strict"
	LaxMode    ValidationMode = "lax"
	SkipMode   ValidationMode = "skip"
)

// Validation error codes, following the cvc rule identifiers.
const (
	CodeDatatypeValid    = "cvc-datatype-valid.1"
	CodeFacetValid       = "cvc-facet-valid"
	CodeAttributeMissing = "cvc-complex-type.4"
	CodeAttributeUnknown = "cvc-complex-type.3.2.2"
	CodeAttributeFixed   = "cvc-attribute.fixed"
	CodeElementFixed     = "cvc-elt.fixed"
	CodeTagExpected      = "cvc-complex-type.2.4.b"
	CodeTagUnexpected    = "cvc-complex-type.2.4.d"
	CodeTextNotAllowed   = "cvc-complex-type.2.3"
	CodeNilNotAllowed    = "cvc-elt.3.1"
	CodeNilWithContent   = "cvc-elt.3.2.2"
	CodeWildcardStrict   = "cvc-wildcard.strict"
)

// ParseError is a schema build-time failure: a malformed declaration, an
// inconsistent derivation, a structurally impossible facet combination or a
// dangling component reference.
type ParseError struct {
	Component string
	Message   string
}

func (e *ParseError) Error() string {
	if e.Component == "" {
		return "schema error: " + e.Message
	}
	return fmt.Sprintf("schema error in %s: %s", e.Component, e.Message)
}

// ValidationError is an instance-time failure of a structured value against
// the schema: a facet violation, a missing required attribute or particle,
// or an unexpected child or attribute.
type ValidationError struct {
	Code      string
	Node      *Node
	Value     any
	Component string
	Reason    string
	Expected  []string
}

func (e *ValidationError) Error() string {
	if e.Component == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Reason)
}

// DecodeError is well-formed but unconvertible text, for example non-numeric
// text bound to a numeric type. Distinct from a facet ValidationError.
type DecodeError struct {
	Type   QName
	Text   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %q as %s: %s", e.Text, e.Type, e.Reason)
}

// EncodeError is a native value whose shape or primitive type is incompatible
// with the declaring type.
type EncodeError struct {
	Type   QName
	Value  any
	Reason string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("cannot encode %v (%T) as %s: %s", e.Value, e.Value, e.Type, e.Reason)
}

// Result is one tagged step outcome of a decode or encode stream: either a
// produced value or an error, never both.
type Result struct {
	Value any
	Err   error
}

func valueResult(v any) Result     { return Result{Value: v} }
func errorResult(err error) Result { return Result{Err: err} }

// ResultSeq is a finite, forward-only stream of tagged results. It is not
// restartable: it consumes its input once.
type ResultSeq = iter.Seq[Result]

// Drain runs a result stream under a validation mode and returns the last
// produced value with the gathered errors. Under StrictMode it stops at the
// first error; under SkipMode validation outcomes are dropped while
// DecodeError/EncodeError records are still reported.
func Drain(seq ResultSeq, mode ValidationMode) (any, []error) {
	var value any
	var errs []error
	for r := range seq {
		if r.Err == nil {
			value = r.Value
			continue
		}
		if mode == SkipMode && !isConversionError(r.Err) {
			continue
		}
		errs = append(errs, r.Err)
		if mode == StrictMode {
			break
		}
	}
	return value, errs
}

// isConversionError reports whether err belongs to the decode/encode class,
// which is reported in every mode.
func isConversionError(err error) bool {
	var de *DecodeError
	var ee *EncodeError
	return errors.As(err, &de) || errors.As(err, &ee)
}
