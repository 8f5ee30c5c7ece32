package xsd

import (
	"fmt"
	"log/slog"
)

// Validator checks instance trees against a schema without materializing
// decoded values. Safe for concurrent use after the schema has been built.
type Validator struct {
	schema *Schema
	mode   ValidationMode
	logger *slog.Logger
}

// NewValidator creates a validator for a built schema. An empty mode
// defaults to strict.
func NewValidator(schema *Schema, mode ValidationMode) *Validator {
	if mode == "" {
		mode = StrictMode
	}
	return &Validator{schema: schema, mode: mode, logger: slog.Default()}
}

// WithLogger replaces the validator's logger.
func (v *Validator) WithLogger(logger *slog.Logger) *Validator {
	v.logger = logger
	return v
}

// Validate runs the decode pipeline over a node purely for its errors.
func (v *Validator) Validate(node *Node) []error {
	if node == nil {
		return []error{fmt.Errorf("nil node")}
	}
	decoder := &Decoder{Schema: v.schema, Converter: discardConverter{}, Logger: v.logger}
	_, errs := decoder.Decode(node, v.mode)
	if v.logger != nil {
		v.logger.Debug("validated element",
			"name", node.Name.String(), "errors", len(errs))
	}
	return errs
}

// ValidateDocument parses markup text and validates its root element.
func (v *Validator) ValidateDocument(data []byte) []error {
	node, err := ParseNode(data)
	if err != nil {
		return []error{err}
	}
	return v.Validate(node)
}

// IsValid reports whether the node passes validation with no errors.
func (v *Validator) IsValid(node *Node) bool {
	return len(v.Validate(node)) == 0
}

// discardConverter drops decoded values; validation wants only the errors.
type discardConverter struct{}

func (discardConverter) DecodeElement(*ElementData) any { return nil }

func (discardConverter) EncodeElement(name QName, value any) (*ElementData, error) {
	return &ElementData{Name: name}, nil
}
