package xsd

import "fmt"

// AttributeUse says whether an attribute slot must, may or must not appear.
type AttributeUse string

const (
	OptionalUse   AttributeUse = "optional"
	RequiredUse   AttributeUse = "required"
	ProhibitedUse AttributeUse = "prohibited"
)

// AttributeDecl is one attribute slot on a complex type.
type AttributeDecl struct {
	Name    QName
	Type    QName // simple type reference, resolved at schema build
	Use     AttributeUse
	Default string
	Fixed   string

	typ *SimpleType
}

// NewAttributeDecl builds an attribute declaration, enforcing mutually
// exclusive default/fixed.
func NewAttributeDecl(name QName, typeName QName, use AttributeUse) (*AttributeDecl, error) {
	if use == "" {
		use = OptionalUse
	}
	switch use {
	case OptionalUse, RequiredUse, ProhibitedUse:
	default:
		return nil, &ParseError{Component: name.String(), Message: fmt.Sprintf("invalid attribute use %q", use)}
	}
	decl := &AttributeDecl{Name: name, Type: typeName, Use: use}
	if typeName.Namespace == XSDNamespace {
		decl.typ = builtinSimpleType(typeName.Local)
	}
	return decl, nil
}

// WithDefault sets the default text; default and fixed are never both set.
func (d *AttributeDecl) WithDefault(text string) (*AttributeDecl, error) {
	if d.Fixed != "" {
		return nil, &ParseError{Component: d.Name.String(), Message: "default and fixed are mutually exclusive"}
	}
	if d.Use == RequiredUse {
		return nil, &ParseError{Component: d.Name.String(), Message: "a required attribute cannot carry a default"}
	}
	d.Default = text
	return d, nil
}

// WithFixed sets the fixed text; default and fixed are never both set.
func (d *AttributeDecl) WithFixed(text string) (*AttributeDecl, error) {
	if d.Default != "" {
		return nil, &ParseError{Component: d.Name.String(), Message: "default and fixed are mutually exclusive"}
	}
	d.Fixed = text
	return d, nil
}

// ResolvedType returns the simple type bound during schema build.
func (d *AttributeDecl) ResolvedType() *SimpleType { return d.typ }

// AttributeGroup is a set of attribute slots plus at most one wildcard.
// Declaration order is preserved for deterministic error reporting.
type AttributeGroup struct {
	Name     QName
	Decls    map[QName]*AttributeDecl
	Order    []QName
	Wildcard *AttributeWildcard
}

// NewAttributeGroup builds an empty attribute group.
func NewAttributeGroup(name QName) *AttributeGroup {
	return &AttributeGroup{Name: name, Decls: make(map[QName]*AttributeDecl)}
}

// Add registers an attribute slot; duplicate names are a build error.
func (g *AttributeGroup) Add(decl *AttributeDecl) error {
	if _, dup := g.Decls[decl.Name]; dup {
		return &ParseError{Component: g.Name.String(),
			Message: fmt.Sprintf("duplicate attribute %s", decl.Name)}
	}
	g.Decls[decl.Name] = decl
	g.Order = append(g.Order, decl.Name)
	return nil
}

// SetWildcard installs the group's anyAttribute entry; a group admits at
// most one.
func (g *AttributeGroup) SetWildcard(w *AttributeWildcard) error {
	if g.Wildcard != nil {
		return &ParseError{Component: g.Name.String(), Message: "attribute group already has a wildcard"}
	}
	g.Wildcard = w
	return nil
}

// merge unions another group's slots into this one; used by extension
// derivation. Conflicting redeclarations of the same name are build errors.
func (g *AttributeGroup) merge(other *AttributeGroup) error {
	if other == nil {
		return nil
	}
	for _, name := range other.Order {
		decl := other.Decls[name]
		if existing, ok := g.Decls[name]; ok {
			if existing.Type != decl.Type {
				return &ParseError{Component: g.Name.String(),
					Message: fmt.Sprintf("attribute %s redeclared with a different type", name)}
			}
			continue
		}
		g.Decls[name] = decl
		g.Order = append(g.Order, name)
	}
	if other.Wildcard != nil && g.Wildcard == nil {
		g.Wildcard = other.Wildcard
	}
	return nil
}

// lookup finds a declaration by qualified name, falling back to a local-name
// match for unqualified instance attributes.
func (g *AttributeGroup) lookup(name QName) (*AttributeDecl, bool) {
	if d, ok := g.Decls[name]; ok {
		return d, true
	}
	if name.Namespace == "" {
		for _, d := range g.Decls {
			if d.Name.Local == name.Local {
				return d, true
			}
		}
	}
	return nil, false
}
