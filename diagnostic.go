package xsd

import (
	"errors"
	"io"

	"github.com/goccy/go-json"
)

// Diagnostic is a renderable validation outcome: the error class, the cvc
// code where one applies, the originating component and the offending
// instance location.
type Diagnostic struct {
	Severity  string   `json:"severity"`
	Code      string   `json:"code,omitempty"`
	Component string   `json:"component,omitempty"`
	Element   string   `json:"element,omitempty"`
	Value     any      `json:"value,omitempty"`
	Expected  []string `json:"expected,omitempty"`
	Message   string   `json:"message"`
}

// DiagnosticFromError classifies an error from the build or validation
// pipeline into a diagnostic record.
func DiagnosticFromError(err error) Diagnostic {
	var pe *ParseError
	if errors.As(err, &pe) {
		return Diagnostic{
			Severity:  "schema-error",
			Component: pe.Component,
			Message:   pe.Message,
		}
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		d := Diagnostic{
			Severity:  "validation-error",
			Code:      ve.Code,
			Component: ve.Component,
			Value:     ve.Value,
			Expected:  ve.Expected,
			Message:   ve.Reason,
		}
		if ve.Node != nil {
			d.Element = ve.Node.Name.String()
		}
		return d
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return Diagnostic{
			Severity:  "decode-error",
			Component: de.Type.String(),
			Value:     de.Text,
			Message:   de.Reason,
		}
	}
	var ee *EncodeError
	if errors.As(err, &ee) {
		return Diagnostic{
			Severity:  "encode-error",
			Component: ee.Type.String(),
			Value:     ee.Value,
			Message:   ee.Reason,
		}
	}
	return Diagnostic{Severity: "error", Message: err.Error()}
}

// Diagnostics converts an error list into diagnostic records.
func Diagnostics(errs []error) []Diagnostic {
	out := make([]Diagnostic, 0, len(errs))
	for _, err := range errs {
		out = append(out, DiagnosticFromError(err))
	}
	return out
}

// WriteDiagnostics renders an error list as a JSON report.
func WriteDiagnostics(w io.Writer, errs []error) error {
	report := struct {
		Valid       bool         `json:"valid"`
		Diagnostics []Diagnostic `json:"diagnostics"`
	}{
		Valid:       len(errs) == 0,
		Diagnostics: Diagnostics(errs),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
