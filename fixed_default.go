package xsd

import "fmt"

// effectiveElementText picks the text to decode for an element, applying
// the declaration's default and fixed values. An empty element takes the
// default or fixed text; a present value that disagrees with a fixed
// declaration is a validation error, reported alongside the declared text
// so that lax callers still decode the canonical value.
func effectiveElementText(decl *ElementParticle, node *Node, st *SimpleType) (string, *ValidationError) {
	text := node.TextContent()
	if decl == nil {
		return text, nil
	}
	present := text != "" || node.HasContent()
	if !present {
		if decl.Fixed != "" {
			return decl.Fixed, nil
		}
		if decl.Default != "" {
			return decl.Default, nil
		}
		return text, nil
	}
	if decl.Fixed != "" && !textEquivalent(text, decl.Fixed, st) {
		return decl.Fixed, &ValidationError{
			Code:      CodeElementFixed,
			Node:      node,
			Value:     text,
			Component: decl.Name.String(),
			Reason:    fmt.Sprintf("value %q does not match the fixed value %q", text, decl.Fixed),
		}
	}
	return text, nil
}

// effectiveAttributeText applies an attribute declaration's default and
// fixed values to the raw instance text, mirroring effectiveElementText.
// The bool reports whether any text results at all.
func effectiveAttributeText(decl *AttributeDecl, raw string, present bool) (string, bool, *ValidationError) {
	if !present {
		if decl.Fixed != "" {
			return decl.Fixed, true, nil
		}
		if decl.Default != "" {
			return decl.Default, true, nil
		}
		return "", false, nil
	}
	if decl.Fixed != "" && !textEquivalent(raw, decl.Fixed, decl.typ) {
		return decl.Fixed, true, &ValidationError{
			Code:      CodeAttributeFixed,
			Value:     raw,
			Component: decl.Name.String(),
			Reason:    fmt.Sprintf("value %q does not match the fixed value %q", raw, decl.Fixed),
		}
	}
	return raw, true, nil
}

// textEquivalent compares two lexical forms under the type's whitespace
// policy, falling back to exact comparison without a type.
func textEquivalent(a, b string, st *SimpleType) bool {
	if st == nil {
		return a == b
	}
	return st.Normalize(a) == st.Normalize(b)
}
