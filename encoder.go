package xsd

import (
	"fmt"
	"log/slog"
	"strings"
)

// Encoder converts native values back into instance trees under a schema.
// Children follow the content model's declared order unless Unordered is
// set, in which case they follow the value's own order and the content
// model is not re-validated.
type Encoder struct {
	Schema    *Schema
	Converter Converter
	Unordered bool
	Logger    *slog.Logger
}

// NewEncoder returns an encoder using the conventional mapping converter.
func NewEncoder(schema *Schema) *Encoder {
	return &Encoder{Schema: schema, Converter: NewDefaultConverter()}
}

// Encode locates the global declaration for the given tag and drains the
// encode stream under the given mode. The returned value is a *Node.
func (e *Encoder) Encode(value any, name QName, mode ValidationMode) (*Node, []error) {
	if e.Logger != nil {
		e.Logger.Debug("encoding element", "name", name.String(), "mode", string(mode))
	}
	decl, ok := e.Schema.LookupElement(name)
	if !ok {
		err := &EncodeError{Type: name, Value: value,
			Reason: "no declaration for element"}
		if mode == SkipMode {
			node := NewNode(name)
			node.Text = fmt.Sprint(value)
			return node, nil
		}
		return nil, []error{err}
	}
	result, errs := Drain(e.IterEncodeElement(value, decl), mode)
	node, _ := result.(*Node)
	return node, errs
}

// IterEncode streams the encode of a value against a type: validation
// errors first come interleaved, then the produced node.
func (e *Encoder) IterEncode(value any, t Type, name QName) ResultSeq {
	return func(yield func(Result) bool) {
		r := &encodeRun{encoder: e, yield: yield}
		node := r.encodeElement(value, t, nil, name)
		if !r.stopped {
			yield(valueResult(node))
		}
	}
}

// IterEncodeElement streams the encode of a value against its element
// declaration, applying nillable, default and fixed semantics.
func (e *Encoder) IterEncodeElement(value any, decl *ElementParticle) ResultSeq {
	return func(yield func(Result) bool) {
		r := &encodeRun{encoder: e, yield: yield}
		node := r.encodeElement(value, decl.ResolvedType(), decl, decl.Name)
		if !r.stopped {
			yield(valueResult(node))
		}
	}
}

type encodeRun struct {
	encoder *Encoder
	yield   func(Result) bool
	stopped bool
}

func (r *encodeRun) emit(err error) {
	if r.stopped || err == nil {
		return
	}
	if !r.yield(errorResult(err)) {
		r.stopped = true
	}
}

func (r *encodeRun) emitAll(errs []error) {
	for _, err := range errs {
		if r.stopped {
			return
		}
		r.emit(err)
	}
}

func (r *encodeRun) converter() Converter {
	if r.encoder.Converter != nil {
		return r.encoder.Converter
	}
	return NewDefaultConverter()
}

func (r *encodeRun) encodeElement(value any, t Type, decl *ElementParticle, name QName) *Node {
	if r.stopped {
		return nil
	}
	data, err := r.converter().EncodeElement(name, value)
	if err != nil {
		r.emit(err)
		return NewNode(name)
	}
	node := NewNode(name)

	if data.Nil {
		if decl == nil || !decl.Nillable {
			r.emit(&ValidationError{
				Code:      CodeNilNotAllowed,
				Node:      node,
				Component: name.String(),
				Reason:    "element is not declared nillable",
			})
		}
		node.SetAttr(QName{Namespace: XSINamespace, Local: "nil"}, "true")
		return node
	}

	switch typ := t.(type) {
	case *SimpleType:
		r.encodeSimpleContent(node, data, typ, decl)
	case *ComplexType:
		r.encodeAttributes(node, data.Attributes, typ.Attributes)
		if typ.HasSimpleContent() {
			r.encodeSimpleContent(node, data, typ.SimpleContentType(), decl)
		} else {
			r.encodeComplexContent(node, data, typ)
		}
	case nil:
		if data.Value != nil {
			node.Text = fmt.Sprint(data.Value)
		}
	default:
		r.emit(&EncodeError{Type: t.Name(), Value: value,
			Reason: "type is neither simple nor complex"})
	}
	return node
}

func (r *encodeRun) encodeSimpleContent(node *Node, data *ElementData, st *SimpleType, decl *ElementParticle) {
	for _, item := range data.Content {
		if !item.Name.IsZero() {
			r.emit(&EncodeError{Type: node.Name, Value: item.Value,
				Reason: fmt.Sprintf("child %s is not allowed in simple content", item.Name)})
		}
	}
	if data.Value == nil {
		if decl != nil && decl.Fixed != "" {
			node.Text = decl.Fixed
		} else if decl != nil && decl.Default != "" {
			node.Text = decl.Default
		}
		return
	}
	if st == nil {
		node.Text = fmt.Sprint(data.Value)
		return
	}
	text, errs := st.Encode(data.Value)
	r.emitAll(errs)
	if decl != nil && decl.Fixed != "" && !textEquivalent(text, decl.Fixed, st) {
		r.emit(&ValidationError{
			Code:      CodeElementFixed,
			Node:      node,
			Value:     data.Value,
			Component: decl.Name.String(),
			Reason:    fmt.Sprintf("value %q does not match the fixed value %q", text, decl.Fixed),
		})
		text = decl.Fixed
	}
	node.Text = text
}

func (r *encodeRun) encodeComplexContent(node *Node, data *ElementData, ct *ComplexType) {
	if data.Value != nil {
		if ct.Mixed {
			node.Text = fmt.Sprint(data.Value)
		} else {
			r.emit(&ValidationError{
				Code:      CodeTextNotAllowed,
				Node:      node,
				Value:     data.Value,
				Component: ct.QName.String(),
				Reason:    "character data is not allowed in element-only content",
			})
		}
	}

	particles := collectElementParticles(ct.Model)
	if r.encoder.Unordered {
		for _, item := range data.Content {
			r.encodeContentItem(node, item, particles, ct)
		}
		return
	}

	// Declared model order: each particle claims its items in input order,
	// then the produced children are checked against the content model.
	claimed := make([]bool, len(data.Content))
	for _, p := range particles {
		for i, item := range data.Content {
			if claimed[i] || item.Name.IsZero() {
				continue
			}
			target := r.resolveParticle(item.Name, []*ElementParticle{p})
			if target == nil {
				continue
			}
			claimed[i] = true
			r.appendChild(node, item, target)
		}
	}
	for i, item := range data.Content {
		if claimed[i] {
			continue
		}
		if item.Name.IsZero() {
			r.appendMixedText(node, item, ct)
			continue
		}
		r.emit(&EncodeError{Type: ct.QName, Value: item.Value,
			Reason: fmt.Sprintf("no particle accepts child %s", item.Name)})
	}

	if ct.Model != nil {
		_, errs := MatchContent(r.encoder.Schema, ct.Model, node.Children)
		r.emitAll(errs)
	}
}

func (r *encodeRun) encodeContentItem(node *Node, item ContentItem, particles []*ElementParticle, ct *ComplexType) {
	if item.Name.IsZero() {
		r.appendMixedText(node, item, ct)
		return
	}
	target := item.Particle
	if target == nil {
		target = r.resolveParticle(item.Name, particles)
	}
	if target == nil {
		r.emit(&EncodeError{Type: ct.QName, Value: item.Value,
			Reason: fmt.Sprintf("no particle accepts child %s", item.Name)})
		return
	}
	r.appendChild(node, item, target)
}

func (r *encodeRun) appendChild(node *Node, item ContentItem, decl *ElementParticle) {
	childName := decl.Name
	if !item.Name.IsZero() && item.Name.Namespace != "" {
		childName = item.Name
	}
	child := r.encodeElement(item.Value, decl.ResolvedType(), decl, childName)
	if child != nil {
		node.Append(child)
	}
}

func (r *encodeRun) appendMixedText(node *Node, item ContentItem, ct *ComplexType) {
	text := fmt.Sprint(item.Value)
	if !ct.Mixed {
		if strings.TrimSpace(text) != "" {
			r.emit(&ValidationError{
				Code:      CodeTextNotAllowed,
				Node:      node,
				Value:     item.Value,
				Component: ct.QName.String(),
				Reason:    "character data is not allowed in element-only content",
			})
		}
		return
	}
	if len(node.Children) == 0 {
		node.Text += text
	} else {
		node.Children[len(node.Children)-1].Tail += text
	}
}

// encodeAttributes validates and encodes attribute values against an
// attribute group, mirroring the decode side: required attributes missing
// from the value are aggregated into a single error, defaults and fixed
// values fill the gaps.
func (r *encodeRun) encodeAttributes(node *Node, attrs []AttributeValue, group *AttributeGroup) {
	if group == nil {
		group = NewAttributeGroup(node.Name)
	}
	claimed := make([]bool, len(attrs))
	find := func(name QName) (AttributeValue, bool) {
		for i, a := range attrs {
			if claimed[i] {
				continue
			}
			if a.Name == name || (a.Name.Namespace == "" && a.Name.Local == name.Local) {
				claimed[i] = true
				return a, true
			}
		}
		return AttributeValue{}, false
	}

	var missing []string
	for _, name := range group.Order {
		decl := group.Decls[name]
		value, present := find(decl.Name)
		if decl.Use == ProhibitedUse {
			if present {
				r.emit(&ValidationError{
					Code:      CodeAttributeUnknown,
					Node:      node,
					Value:     value.Value,
					Component: decl.Name.String(),
					Reason:    fmt.Sprintf("attribute %s is prohibited", decl.Name),
				})
			}
			continue
		}
		if !present {
			switch {
			case decl.Fixed != "":
				node.SetAttr(decl.Name, decl.Fixed)
			case decl.Default != "":
				node.SetAttr(decl.Name, decl.Default)
			case decl.Use == RequiredUse:
				missing = append(missing, decl.Name.String())
			}
			continue
		}
		text := fmt.Sprint(value.Value)
		if st := decl.ResolvedType(); st != nil {
			var errs []error
			text, errs = st.Encode(value.Value)
			r.emitAll(errs)
		}
		if decl.Fixed != "" && !textEquivalent(text, decl.Fixed, decl.ResolvedType()) {
			r.emit(&ValidationError{
				Code:      CodeAttributeFixed,
				Node:      node,
				Value:     value.Value,
				Component: decl.Name.String(),
				Reason:    fmt.Sprintf("value %q does not match the fixed value %q", text, decl.Fixed),
			})
			text = decl.Fixed
		}
		node.SetAttr(decl.Name, text)
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
	if r.encoder.Schema != nil {
		targetNS = r.encoder.Schema.TargetNamespace
	}
	for i, a := range attrs {
		if claimed[i] {
			continue
		}
		if group.Wildcard != nil && group.Wildcard.Namespace.Matches(a.Name.Namespace, targetNS) {
			node.SetAttr(a.Name, fmt.Sprint(a.Value))
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
}

// resolveParticle matches a logical field name against element particles,
// consulting substitution-group equivalents when no direct match exists.
func (r *encodeRun) resolveParticle(name QName, particles []*ElementParticle) *ElementParticle {
	for _, p := range particles {
		if p.Name == name {
			return p
		}
		if name.Namespace == "" && p.Name.Local == name.Local {
			return p
		}
	}
	if r.encoder.Schema == nil {
		return nil
	}
	for _, p := range particles {
		for _, member := range r.encoder.Schema.SubstitutionGroups[p.Name] {
			if member == name || (name.Namespace == "" && member.Local == name.Local) {
				if decl, ok := r.encoder.Schema.LookupElement(member); ok {
					return decl
				}
			}
		}
	}
	return nil
}

// collectElementParticles flattens a content model into its element
// particles in declaration order.
func collectElementParticles(g *Group) []*ElementParticle {
	if g == nil {
		return nil
	}
	var out []*ElementParticle
	for _, p := range g.Particles {
		switch particle := p.(type) {
		case *ElementParticle:
			out = append(out, particle)
		case *Group:
			out = append(out, collectElementParticles(particle)...)
		}
	}
	return out
}
