package xsd

import (
	"fmt"
	"log/slog"
	"strings"
)

// Decoder converts instance trees into native values under a schema. Safe
// for concurrent use after the schema has been built; each call allocates
// its own working state.
type Decoder struct {
	Schema    *Schema
	Converter Converter
	Logger    *slog.Logger
}

// NewDecoder returns a decoder using the conventional mapping converter.
func NewDecoder(schema *Schema) *Decoder {
	return &Decoder{Schema: schema, Converter: NewDefaultConverter()}
}

// Decode locates the global declaration for the node's tag and drains the
// decode stream under the given mode.
func (d *Decoder) Decode(node *Node, mode ValidationMode) (any, []error) {
	if d.Logger != nil {
		d.Logger.Debug("decoding element", "name", node.Name.String(), "mode", string(mode))
	}
	decl, ok := d.Schema.LookupElement(node.Name)
	if !ok {
		err := &ValidationError{
			Code:   CodeTagUnexpected,
			Node:   node,
			Reason: fmt.Sprintf("no declaration for element %s", node.Name),
		}
		if mode == SkipMode {
			return node.TextContent(), nil
		}
		return nil, []error{err}
	}
	return Drain(d.IterDecodeElement(node, decl), mode)
}

// IterDecode streams the decode of a node against a type: validation errors
// in document order, then the converted value. The stream is finite and not
// restartable.
func (d *Decoder) IterDecode(node *Node, t Type) ResultSeq {
	return func(yield func(Result) bool) {
		r := &decodeRun{decoder: d, yield: yield}
		value := r.decodeElement(node, t, nil)
		if !r.stopped {
			yield(valueResult(value))
		}
	}
}

// IterDecodeElement streams the decode of a node against its element
// declaration, applying nillable, default and fixed semantics.
func (d *Decoder) IterDecodeElement(node *Node, decl *ElementParticle) ResultSeq {
	return func(yield func(Result) bool) {
		r := &decodeRun{decoder: d, yield: yield}
		value := r.decodeElement(node, decl.ResolvedType(), decl)
		if !r.stopped {
			yield(valueResult(value))
		}
	}
}

// decodeRun is the per-call working state: the yield sink and a stop mark
// set once the consumer breaks out of the stream.
type decodeRun struct {
	decoder *Decoder
	yield   func(Result) bool
	stopped bool
}

func (r *decodeRun) emit(err error) {
	if r.stopped || err == nil {
		return
	}
	if !r.yield(errorResult(err)) {
		r.stopped = true
	}
}

func (r *decodeRun) emitAll(errs []error) {
	for _, err := range errs {
		if r.stopped {
			return
		}
		r.emit(err)
	}
}

func (r *decodeRun) converter() Converter {
	if r.decoder.Converter != nil {
		return r.decoder.Converter
	}
	return NewDefaultConverter()
}

func (r *decodeRun) decodeElement(node *Node, t Type, decl *ElementParticle) any {
	if r.stopped {
		return nil
	}
	data := &ElementData{Name: node.Name}

	if node.IsNil() {
		if decl == nil || !decl.Nillable {
			r.emit(&ValidationError{
				Code:      CodeNilNotAllowed,
				Node:      node,
				Component: node.Name.String(),
				Reason:    "element is not declared nillable",
			})
		}
		if node.HasContent() {
			r.emit(&ValidationError{
				Code:      CodeNilWithContent,
				Node:      node,
				Component: node.Name.String(),
				Reason:    "a nil element must be empty",
			})
		}
		data.Nil = true
		return r.converter().DecodeElement(data)
	}

	switch typ := t.(type) {
	case *SimpleType:
		r.decodeSimpleElement(node, typ, decl, data)
	case *ComplexType:
		if typ.HasSimpleContent() {
			data.Attributes = r.decodeAttributes(node, typ.Attributes)
			r.decodeSimpleElement(node, typ.SimpleContentType(), decl, data)
		} else {
			data.Attributes = r.decodeAttributes(node, typ.Attributes)
			r.decodeComplexContent(node, typ, data)
		}
	case nil:
		// Undeclared type: keep the raw character data.
		data.Value = node.TextContent()
	default:
		r.emit(&DecodeError{Type: t.Name(), Text: node.TextContent(),
			Reason: "type is neither simple nor complex"})
		data.Value = node.TextContent()
	}
	return r.converter().DecodeElement(data)
}

// decodeSimpleElement decodes text content through a simple type. Child
// elements are structurally impossible here.
func (r *decodeRun) decodeSimpleElement(node *Node, st *SimpleType, decl *ElementParticle, data *ElementData) {
	for _, child := range node.Children {
		r.emit(&ValidationError{
			Code:      CodeTagUnexpected,
			Node:      child,
			Component: node.Name.String(),
			Reason:    fmt.Sprintf("unexpected tag %s in simple content", child.Name),
		})
	}
	text, fixErr := effectiveElementText(decl, node, st)
	if fixErr != nil {
		r.emit(fixErr)
	}
	if st == nil {
		data.Value = text
		return
	}
	value, errs := st.Decode(text)
	r.emitAll(errs)
	data.Value = value
}

func (r *decodeRun) decodeComplexContent(node *Node, ct *ComplexType, data *ElementData) {
	if !ct.Mixed && r.hasMixedText(node) {
		r.emit(&ValidationError{
			Code:      CodeTextNotAllowed,
			Node:      node,
			Component: ct.QName.String(),
			Reason:    "character data is not allowed in element-only content",
		})
	}

	if ct.Model == nil {
		for _, child := range node.Children {
			r.emit(&ValidationError{
				Code:      CodeTagUnexpected,
				Node:      child,
				Component: ct.QName.String(),
				Reason:    fmt.Sprintf("unexpected tag %s in empty content", child.Name),
			})
		}
		return
	}

	matches, errs := MatchContent(r.decoder.Schema, ct.Model, node.Children)
	r.emitAll(errs)

	if ct.Mixed && strings.TrimSpace(node.Text) != "" {
		data.Content = append(data.Content, ContentItem{Value: strings.TrimSpace(node.Text)})
	}
	for _, match := range matches {
		if r.stopped {
			return
		}
		var value any
		switch {
		case match.Element != nil:
			value = r.decodeElement(match.Child, match.Element.ResolvedType(), match.Element)
		default:
			value = r.decodeWildcardChild(match.Child, match.Wildcard)
		}
		data.Content = append(data.Content, ContentItem{
			Name:     match.Child.Name,
			Value:    value,
			Particle: match.Element,
		})
		if ct.Mixed && strings.TrimSpace(match.Child.Tail) != "" {
			data.Content = append(data.Content, ContentItem{Value: strings.TrimSpace(match.Child.Tail)})
		}
	}
}

// decodeWildcardChild handles a child consumed by a wildcard particle per
// its processContents policy.
func (r *decodeRun) decodeWildcardChild(child *Node, w *WildcardParticle) any {
	if w.ProcessContents == SkipProcess {
		return child
	}
	decl, ok := r.decoder.Schema.LookupElement(child.Name)
	if !ok {
		if w.ProcessContents == StrictProcess {
			r.emit(&ValidationError{
				Code:      CodeWildcardStrict,
				Node:      child,
				Component: child.Name.String(),
				Reason:    fmt.Sprintf("no declaration resolvable for %s under strict wildcard processing", child.Name),
			})
		}
		return child
	}
	return r.decodeElement(child, decl.ResolvedType(), decl)
}

func (r *decodeRun) hasMixedText(node *Node) bool {
	if strings.TrimSpace(node.Text) != "" {
		return true
	}
	for _, child := range node.Children {
		if strings.TrimSpace(child.Tail) != "" {
			return true
		}
	}
	return false
}

// decodeAttributes validates and decodes a node's attribute set against an
// attribute group. Missing required attributes are aggregated into a single
// error listing all of them.
func (r *decodeRun) decodeAttributes(node *Node, group *AttributeGroup) []AttributeValue {
	if group == nil {
		group = NewAttributeGroup(node.Name)
	}
	var decoded []AttributeValue
	var missing []string

	for _, name := range group.Order {
		decl := group.Decls[name]
		raw, present := node.Attr(decl.Name)
		if decl.Use == ProhibitedUse {
			if present {
				r.emit(&ValidationError{
					Code:      CodeAttributeUnknown,
					Node:      node,
					Value:     raw,
					Component: decl.Name.String(),
					Reason:    fmt.Sprintf("attribute %s is prohibited", decl.Name),
				})
			}
			continue
		}
		text, have, fixErr := effectiveAttributeText(decl, raw, present)
		if fixErr != nil {
			fixErr.Node = node
			r.emit(fixErr)
		}
		if !have {
			if decl.Use == RequiredUse {
				missing = append(missing, decl.Name.String())
			}
			continue
		}
		st := decl.ResolvedType()
		if st == nil {
			decoded = append(decoded, AttributeValue{Name: decl.Name, Value: text})
			continue
		}
		value, errs := st.Decode(text)
		r.emitAll(errs)
		decoded = append(decoded, AttributeValue{Name: decl.Name, Value: value})
	}

	if len(missing) > 0 {
		r.emit(&ValidationError{
			Code:      CodeAttributeMissing,
			Node:      node,
			Component: node.Name.String(),
			Reason:    fmt.Sprintf("missing required attributes: %s", strings.Join(missing, ", ")),
			Expected:  missing,
		})
	}

	targetNS := ""
	if r.decoder.Schema != nil {
		targetNS = r.decoder.Schema.TargetNamespace
	}
	for _, a := range node.Attributes {
		if a.Name.Namespace == XSINamespace {
			continue
		}
		if _, ok := group.lookup(a.Name); ok {
			continue
		}
		if group.Wildcard != nil && group.Wildcard.Namespace.Matches(a.Name.Namespace, targetNS) {
			decoded = append(decoded, AttributeValue{Name: a.Name, Value: a.Value})
			continue
		}
		r.emit(&ValidationError{
			Code:      CodeAttributeUnknown,
			Node:      node,
			Value:     a.Value,
			Component: node.Name.String(),
			Reason:    fmt.Sprintf("attribute %s is not allowed", a.Name),
		})
	}
	return decoded
}
