package xsd

import "fmt"

// Derivation tags how a complex type relates to its base.
type Derivation string

const (
	NoDerivation          Derivation = "none"
	RestrictionDerivation Derivation = "restriction"
	ExtensionDerivation   Derivation = "extension"
)

// ComplexType is a structured value type: either simple content (text plus
// attributes) or complex content (a group model plus attributes), with an
// optional derivation from a base type.
type ComplexType struct {
	QName      QName
	Simple     QName  // simple content: wrapped simple type reference
	Model      *Group // complex content model
	Attributes *AttributeGroup
	Mixed      bool
	Derivation Derivation
	Base       QName // base type when Derivation != none

	simple  *SimpleType
	base    Type
	derived bool // derivation already folded in
	built   bool
	checked *buildPass
}

// NewComplexType builds a complex type with a content model.
func NewComplexType(name QName, model *Group, attrs *AttributeGroup) (*ComplexType, error) {
	ct := &ComplexType{QName: name, Model: model, Attributes: attrs, Derivation: NoDerivation}
	if attrs == nil {
		ct.Attributes = NewAttributeGroup(name)
	}
	if model != nil {
		if err := model.check(); err != nil {
			return nil, err
		}
	}
	return ct, nil
}

// NewSimpleContentType builds a complex type wrapping a simple type for its
// text content. Such a type never declares element particles.
func NewSimpleContentType(name QName, simple QName, attrs *AttributeGroup) (*ComplexType, error) {
	ct := &ComplexType{QName: name, Simple: simple, Attributes: attrs, Derivation: NoDerivation}
	if attrs == nil {
		ct.Attributes = NewAttributeGroup(name)
	}
	if simple.Namespace == XSDNamespace {
		ct.simple = builtinSimpleType(simple.Local)
	}
	return ct, nil
}

// Name implements Type.
func (ct *ComplexType) Name() QName { return ct.QName }

// Built reports whether the type has finished resolving.
func (ct *ComplexType) Built() bool { return ct.built }

// HasSimpleContent reports whether the type's content is character data
// decoded through a wrapped simple type.
func (ct *ComplexType) HasSimpleContent() bool {
	return !ct.Simple.IsZero() || ct.simple != nil
}

// SimpleContentType returns the wrapped simple type, nil for complex content.
func (ct *ComplexType) SimpleContentType() *SimpleType { return ct.simple }

// BaseType returns the resolved derivation base, nil when underived.
func (ct *ComplexType) BaseType() Type { return ct.base }

// Restrict declares a restriction of base: the type inherits the base's
// attributes and facets and may only narrow them. The structural checks run
// at schema build, once both sides are resolved.
func (ct *ComplexType) Restrict(base QName) *ComplexType {
	ct.Derivation = RestrictionDerivation
	ct.Base = base
	return ct
}

// Extend declares an extension of base: the base's content model members are
// prepended and the attribute groups are unioned at schema build.
func (ct *ComplexType) Extend(base QName) *ComplexType {
	ct.Derivation = ExtensionDerivation
	ct.Base = base
	return ct
}

// validate enforces the type's own structural invariants.
func (ct *ComplexType) validate() error {
	if ct.HasSimpleContent() && ct.Model != nil {
		return &ParseError{Component: ct.QName.String(),
			Message: "simple content cannot declare element particles"}
	}
	if ct.Model != nil {
		return ct.Model.check()
	}
	return nil
}

// applyDerivation folds the resolved base into the type. Called once per
// build pass after both components resolved.
func (ct *ComplexType) applyDerivation() error {
	if ct.Derivation == NoDerivation || ct.base == nil || ct.derived {
		return nil
	}
	ct.derived = true
	baseCT, ok := ct.base.(*ComplexType)
	if !ok {
		// Deriving from a simple type is simple-content derivation.
		if st, ok := ct.base.(*SimpleType); ok {
			if ct.Model != nil {
				return &ParseError{Component: ct.QName.String(),
					Message: fmt.Sprintf("cannot derive complex content from simple type %s", st.QName)}
			}
			ct.simple = st
			return nil
		}
		return &ParseError{Component: ct.QName.String(),
			Message: "unresolvable derivation base"}
	}

	switch ct.Derivation {
	case RestrictionDerivation:
		// A restriction must keep the base's content model kind unless it
		// narrows to emptiness.
		if ct.Model != nil && baseCT.Model != nil && ct.Model.Kind != baseCT.Model.Kind {
			return &ParseError{Component: ct.QName.String(),
				Message: fmt.Sprintf("restriction changes content model kind from %s to %s",
					baseCT.Model.Kind, ct.Model.Kind)}
		}
		if ct.Model == nil && baseCT.Model != nil && !baseCT.Model.IsEmptiable() {
			return &ParseError{Component: ct.QName.String(),
				Message: "restriction removes a non-emptiable content model"}
		}
		if err := ct.Attributes.merge(baseCT.Attributes); err != nil {
			return err
		}
		if ct.simple == nil {
			ct.simple = baseCT.simple
		}
	case ExtensionDerivation:
		if baseCT.Model != nil {
			if ct.Model == nil {
				ct.Model = baseCT.Model
			} else {
				// Extension sequences the base's content model before its
				// own, each kept as a child group so a choice or all base
				// retains its semantics.
				ct.Model = &Group{
					Occurs:    Once,
					Kind:      SequenceGroup,
					Particles: []Particle{baseCT.Model, ct.Model},
				}
			}
		}
		if err := ct.Attributes.merge(baseCT.Attributes); err != nil {
			return err
		}
		if ct.simple == nil {
			ct.simple = baseCT.simple
		}
		if baseCT.Mixed {
			ct.Mixed = true
		}
	}
	return ct.validate()
}
