package xsd

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML schema description consumed by LoadSchema. It covers
// the declarative surface of the component model: named types, global
// elements and attribute groups, referencing each other by name.
type Manifest struct {
	TargetNamespace string              `yaml:"targetNamespace"`
	Types           []TypeManifest      `yaml:"types"`
	Elements        []ElementManifest   `yaml:"elements"`
	AttributeGroups []AttrGroupManifest `yaml:"attributeGroups"`
}

// TypeManifest declares one named type; exactly one of the variants is set.
type TypeManifest struct {
	Name        string               `yaml:"name"`
	Restriction *RestrictionManifest `yaml:"restriction"`
	List        *ListManifest        `yaml:"list"`
	Union       *UnionManifest       `yaml:"union"`
	Complex     *ComplexManifest     `yaml:"complex"`
}

// RestrictionManifest declares an atomic simple type restricting a base.
type RestrictionManifest struct {
	Base   string          `yaml:"base"`
	Facets *FacetsManifest `yaml:"facets"`
}

// ListManifest declares a list simple type.
type ListManifest struct {
	Item   string          `yaml:"item"`
	Facets *FacetsManifest `yaml:"facets"`
}

// UnionManifest declares a union simple type.
type UnionManifest struct {
	Members []string `yaml:"members"`
}

// ComplexManifest declares a complex type: simple content or a content
// model, plus attributes, mixed flag and an optional derivation.
type ComplexManifest struct {
	SimpleContent   string              `yaml:"simpleContent"`
	Content         *ParticleManifest   `yaml:"content"`
	Mixed           bool                `yaml:"mixed"`
	Attributes      []AttributeManifest `yaml:"attributes"`
	AttributeGroups []string            `yaml:"attributeGroups"`
	AnyAttribute    *WildcardManifest   `yaml:"anyAttribute"`
	Extends         string              `yaml:"extends"`
	Restricts       string              `yaml:"restricts"`
}

// ParticleManifest declares one particle; exactly one of Element, Any,
// Sequence, Choice or All is set.
type ParticleManifest struct {
	Element  *ElementManifest   `yaml:"element"`
	Any      *WildcardManifest  `yaml:"any"`
	Sequence []ParticleManifest `yaml:"sequence"`
	Choice   []ParticleManifest `yaml:"choice"`
	All      []ParticleManifest `yaml:"all"`

	MinOccurs *int   `yaml:"minOccurs"`
	MaxOccurs string `yaml:"maxOccurs"` // integer or "unbounded"
}

// ElementManifest declares an element particle or global element.
type ElementManifest struct {
	Name              string `yaml:"name"`
	Type              string `yaml:"type"`
	Nillable          bool   `yaml:"nillable"`
	Default           string `yaml:"default"`
	Fixed             string `yaml:"fixed"`
	SubstitutionGroup string `yaml:"substitutionGroup"`
	MinOccurs         *int   `yaml:"minOccurs"`
	MaxOccurs         string `yaml:"maxOccurs"`
}

// AttributeManifest declares one attribute slot.
type AttributeManifest struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Use     string `yaml:"use"`
	Default string `yaml:"default"`
	Fixed   string `yaml:"fixed"`
}

// AttrGroupManifest declares a named, reusable attribute group.
type AttrGroupManifest struct {
	Name         string              `yaml:"name"`
	Attributes   []AttributeManifest `yaml:"attributes"`
	AnyAttribute *WildcardManifest   `yaml:"anyAttribute"`
}

// WildcardManifest declares an any/anyAttribute slot.
type WildcardManifest struct {
	Namespace       string `yaml:"namespace"`
	ProcessContents string `yaml:"processContents"`
	MinOccurs       *int   `yaml:"minOccurs"`
	MaxOccurs       string `yaml:"maxOccurs"`
}

// FacetsManifest gathers the constraining facet values of a restriction.
type FacetsManifest struct {
	Length         *int     `yaml:"length"`
	MinLength      *int     `yaml:"minLength"`
	MaxLength      *int     `yaml:"maxLength"`
	MinInclusive   string   `yaml:"minInclusive"`
	MaxInclusive   string   `yaml:"maxInclusive"`
	MinExclusive   string   `yaml:"minExclusive"`
	MaxExclusive   string   `yaml:"maxExclusive"`
	TotalDigits    *int     `yaml:"totalDigits"`
	FractionDigits *int     `yaml:"fractionDigits"`
	WhiteSpace     string   `yaml:"whiteSpace"`
	Patterns       []string `yaml:"pattern"`
	Enumeration    []string `yaml:"enumeration"`
}

// ParseManifest decodes a YAML schema manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse schema manifest: %w", err)
	}
	return &m, nil
}

// LoadSchema parses a YAML manifest and builds the schema under the given
// mode. Under lax the schema is returned alongside the build errors.
func LoadSchema(data []byte, mode ValidationMode) (*Schema, error) {
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	schema, err := m.Schema()
	if err != nil {
		return nil, err
	}
	if errs := schema.Build(mode); len(errs) > 0 && mode != LaxMode {
		return nil, errs[0]
	}
	return schema, nil
}

// Schema converts the manifest into an unbuilt component arena.
func (m *Manifest) Schema() (*Schema, error) {
	s := NewSchema(m.TargetNamespace)

	groups := make(map[QName]*AttributeGroup, len(m.AttributeGroups))
	for i := range m.AttributeGroups {
		g, err := m.buildAttrGroup(&m.AttributeGroups[i])
		if err != nil {
			return nil, err
		}
		if err := s.AddAttributeGroup(g); err != nil {
			return nil, err
		}
		groups[g.Name] = g
	}

	for i := range m.Types {
		t, err := m.buildType(&m.Types[i], s, groups)
		if err != nil {
			return nil, err
		}
		if err := s.AddType(t); err != nil {
			return nil, err
		}
	}
	for i := range m.Elements {
		decl, err := m.buildElement(&m.Elements[i], s)
		if err != nil {
			return nil, err
		}
		if err := s.AddElement(decl); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// resolveName turns a manifest name into a qualified name: the xsd prefix
// maps to the schema namespace, braced names pass through, everything else
// lands in the target namespace.
func (m *Manifest) resolveName(name string) QName {
	if strings.HasPrefix(name, "xsd:") || strings.HasPrefix(name, "xs:") {
		return XSDName(name[strings.IndexByte(name, ':')+1:])
	}
	if strings.HasPrefix(name, "{") {
		return ParseQName(name)
	}
	return QName{Namespace: m.TargetNamespace, Local: name}
}

// resolveAttributeName is resolveName for attribute slots: locally declared
// attributes are unqualified, the way unprefixed instance attributes are.
func (m *Manifest) resolveAttributeName(name string) QName {
	if strings.HasPrefix(name, "{") {
		return ParseQName(name)
	}
	return QName{Local: name}
}

func (m *Manifest) buildAttrGroup(agm *AttrGroupManifest) (*AttributeGroup, error) {
	g := NewAttributeGroup(m.resolveName(agm.Name))
	for i := range agm.Attributes {
		decl, err := m.buildAttribute(&agm.Attributes[i])
		if err != nil {
			return nil, err
		}
		if err := g.Add(decl); err != nil {
			return nil, err
		}
	}
	if agm.AnyAttribute != nil {
		w := NewAttributeWildcard(agm.AnyAttribute.Namespace, ProcessContentsMode(agm.AnyAttribute.ProcessContents))
		if err := g.SetWildcard(w); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (m *Manifest) buildType(tm *TypeManifest, s *Schema, groups map[QName]*AttributeGroup) (Type, error) {
	name := m.resolveName(tm.Name)
	switch {
	case tm.Restriction != nil:
		facets, err := tm.Restriction.Facets.build()
		if err != nil {
			return nil, &ParseError{Component: tm.Name, Message: err.Error()}
		}
		return NewAtomicType(name, m.resolveName(tm.Restriction.Base), facets...), nil
	case tm.List != nil:
		facets, err := tm.List.Facets.build()
		if err != nil {
			return nil, &ParseError{Component: tm.Name, Message: err.Error()}
		}
		return NewListType(name, m.resolveName(tm.List.Item), facets...), nil
	case tm.Union != nil:
		members := make([]QName, len(tm.Union.Members))
		for i, member := range tm.Union.Members {
			members[i] = m.resolveName(member)
		}
		return NewUnionType(name, members...), nil
	case tm.Complex != nil:
		return m.buildComplexType(name, tm.Complex, groups)
	}
	return nil, &ParseError{Component: tm.Name, Message: "type declares no variant"}
}

func (m *Manifest) buildComplexType(name QName, cm *ComplexManifest, groups map[QName]*AttributeGroup) (Type, error) {
	attrs := NewAttributeGroup(name)
	for i := range cm.Attributes {
		decl, err := m.buildAttribute(&cm.Attributes[i])
		if err != nil {
			return nil, err
		}
		if err := attrs.Add(decl); err != nil {
			return nil, err
		}
	}
	for _, ref := range cm.AttributeGroups {
		g, ok := groups[m.resolveName(ref)]
		if !ok {
			return nil, &ParseError{Component: name.String(),
				Message: fmt.Sprintf("undefined attribute group %s", ref)}
		}
		if err := attrs.merge(g); err != nil {
			return nil, err
		}
	}
	if cm.AnyAttribute != nil {
		w := NewAttributeWildcard(cm.AnyAttribute.Namespace, ProcessContentsMode(cm.AnyAttribute.ProcessContents))
		if err := attrs.SetWildcard(w); err != nil {
			return nil, err
		}
	}

	var ct *ComplexType
	var err error
	if cm.SimpleContent != "" {
		ct, err = NewSimpleContentType(name, m.resolveName(cm.SimpleContent), attrs)
	} else {
		var model *Group
		if cm.Content != nil {
			model, err = m.buildGroup(cm.Content)
			if err != nil {
				return nil, err
			}
		}
		ct, err = NewComplexType(name, model, attrs)
	}
	if err != nil {
		return nil, err
	}
	ct.Mixed = cm.Mixed

	switch {
	case cm.Extends != "" && cm.Restricts != "":
		return nil, &ParseError{Component: name.String(),
			Message: "extends and restricts are mutually exclusive"}
	case cm.Extends != "":
		ct.Extend(m.resolveName(cm.Extends))
	case cm.Restricts != "":
		ct.Restrict(m.resolveName(cm.Restricts))
	}
	return ct, nil
}

func (m *Manifest) buildGroup(pm *ParticleManifest) (*Group, error) {
	occurs, err := manifestOccurs(pm.MinOccurs, pm.MaxOccurs)
	if err != nil {
		return nil, err
	}
	var kind ModelGroupKind
	var members []ParticleManifest
	switch {
	case pm.Sequence != nil:
		kind, members = SequenceGroup, pm.Sequence
	case pm.Choice != nil:
		kind, members = ChoiceGroup, pm.Choice
	case pm.All != nil:
		kind, members = AllGroup, pm.All
	default:
		return nil, &ParseError{Message: "content particle must be a sequence, choice or all group"}
	}

	particles := make([]Particle, 0, len(members))
	for i := range members {
		p, err := m.buildParticle(&members[i])
		if err != nil {
			return nil, err
		}
		particles = append(particles, p)
	}
	return NewGroup(kind, occurs, particles...)
}

func (m *Manifest) buildParticle(pm *ParticleManifest) (Particle, error) {
	switch {
	case pm.Element != nil:
		return m.buildElement(pm.Element, nil)
	case pm.Any != nil:
		occurs, err := manifestOccurs(pm.Any.MinOccurs, pm.Any.MaxOccurs)
		if err != nil {
			return nil, err
		}
		return NewWildcardParticle(pm.Any.Namespace, ProcessContentsMode(pm.Any.ProcessContents), occurs)
	default:
		return m.buildGroup(pm)
	}
}

func (m *Manifest) buildElement(em *ElementManifest, s *Schema) (*ElementParticle, error) {
	occurs, err := manifestOccurs(em.MinOccurs, em.MaxOccurs)
	if err != nil {
		return nil, err
	}
	decl, err := NewElementParticle(m.resolveName(em.Name), m.resolveName(em.Type), occurs)
	if err != nil {
		return nil, err
	}
	decl.Nillable = em.Nillable
	if em.SubstitutionGroup != "" {
		decl.SubstitutionGroup = m.resolveName(em.SubstitutionGroup)
	}
	if em.Default != "" {
		if _, err := decl.WithDefault(em.Default); err != nil {
			return nil, err
		}
	}
	if em.Fixed != "" {
		if _, err := decl.WithFixed(em.Fixed); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

func (m *Manifest) buildAttribute(am *AttributeManifest) (*AttributeDecl, error) {
	decl, err := NewAttributeDecl(m.resolveAttributeName(am.Name), m.resolveName(am.Type), AttributeUse(am.Use))
	if err != nil {
		return nil, err
	}
	if am.Default != "" {
		if _, err := decl.WithDefault(am.Default); err != nil {
			return nil, err
		}
	}
	if am.Fixed != "" {
		if _, err := decl.WithFixed(am.Fixed); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

// manifestOccurs interprets the minOccurs/maxOccurs pair; absent values
// default to one, "unbounded" lifts the upper bound.
func manifestOccurs(min *int, max string) (Occurs, error) {
	occurs := Once
	if min != nil {
		occurs.Min = *min
	}
	switch max {
	case "":
		// Absent maxOccurs follows the minimum when that exceeds one.
		if occurs.Max < occurs.Min {
			occurs.Max = occurs.Min
		}
	case "unbounded":
		occurs.Max = Unbounded
	default:
		n, err := strconv.Atoi(max)
		if err != nil {
			return occurs, &ParseError{Message: fmt.Sprintf("invalid maxOccurs %q", max)}
		}
		occurs.Max = n
	}
	if err := occurs.validate(); err != nil {
		return occurs, &ParseError{Message: err.Error()}
	}
	return occurs, nil
}

// build converts the facet manifest into compiled facets.
func (fm *FacetsManifest) build() ([]Facet, error) {
	if fm == nil {
		return nil, nil
	}
	var facets []Facet
	add := func(kind string, value string) error {
		f, err := ParseFacet(kind, value)
		if err != nil {
			return err
		}
		facets = append(facets, f)
		return nil
	}
	addInt := func(kind string, value *int) error {
		if value == nil {
			return nil
		}
		return add(kind, strconv.Itoa(*value))
	}

	if err := addInt(FacetLength, fm.Length); err != nil {
		return nil, err
	}
	if err := addInt(FacetMinLength, fm.MinLength); err != nil {
		return nil, err
	}
	if err := addInt(FacetMaxLength, fm.MaxLength); err != nil {
		return nil, err
	}
	if err := addInt(FacetTotalDigits, fm.TotalDigits); err != nil {
		return nil, err
	}
	if err := addInt(FacetFractionDigits, fm.FractionDigits); err != nil {
		return nil, err
	}
	for kind, value := range map[string]string{
		FacetMinInclusive: fm.MinInclusive,
		FacetMaxInclusive: fm.MaxInclusive,
		FacetMinExclusive: fm.MinExclusive,
		FacetMaxExclusive: fm.MaxExclusive,
		FacetWhiteSpace:   fm.WhiteSpace,
	} {
		if value == "" {
			continue
		}
		if err := add(kind, value); err != nil {
			return nil, err
		}
	}
	if len(fm.Patterns) > 0 {
		f, err := NewPatternFacet(fm.Patterns...)
		if err != nil {
			return nil, err
		}
		facets = append(facets, f)
	}
	if len(fm.Enumeration) > 0 {
		facets = append(facets, &EnumerationFacet{Values: fm.Enumeration})
	}
	return facets, nil
}
