package xsd

import (
	"fmt"
	"sync"
)

// buildPass is the monotonically increasing build-generation token. A
// component's "checked" mark holds the pointer of the pass that checked it;
// comparison is by identity, so a recursive check started inside the same
// pass is answered "already running" instead of recursing forever.
type buildPass struct {
	seq uint64
}

// Schema is the name-keyed component arena. Components are registered by
// name first and resolved by lookup afterwards, so mutually recursive
// definitions are a legal intermediate state. After Build completes the
// whole graph is immutable and safe for concurrent use.
type Schema struct {
	mu                 sync.RWMutex
	TargetNamespace    string
	Elements           map[QName]*ElementParticle
	Types              map[QName]Type
	AttributeGroups    map[QName]*AttributeGroup
	Groups             map[QName]*Group
	SubstitutionGroups map[QName][]QName

	pass  *buildPass
	built bool
}

// NewSchema creates an empty schema arena for a target namespace.
func NewSchema(targetNamespace string) *Schema {
	return &Schema{
		TargetNamespace:    targetNamespace,
		Elements:           make(map[QName]*ElementParticle),
		Types:              make(map[QName]Type),
		AttributeGroups:    make(map[QName]*AttributeGroup),
		Groups:             make(map[QName]*Group),
		SubstitutionGroups: make(map[QName][]QName),
	}
}

// Name returns a qualified name in the schema's target namespace.
func (s *Schema) Name(local string) QName {
	return QName{Namespace: s.TargetNamespace, Local: local}
}

// Built reports whether a build pass has completed.
func (s *Schema) Built() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.built
}

// AddType registers a named type. Registration is phase one of construction;
// references stay unresolved until Build.
func (s *Schema) AddType(t Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := t.Name()
	if _, dup := s.Types[name]; dup {
		return &ParseError{Component: name.String(), Message: "duplicate type definition"}
	}
	s.Types[name] = t
	s.built = false
	return nil
}

// AddElement registers a global element declaration.
func (s *Schema) AddElement(decl *ElementParticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.Elements[decl.Name]; dup {
		return &ParseError{Component: decl.Name.String(), Message: "duplicate element declaration"}
	}
	s.Elements[decl.Name] = decl
	s.built = false
	return nil
}

// AddAttributeGroup registers a named attribute group.
func (s *Schema) AddAttributeGroup(g *AttributeGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.AttributeGroups[g.Name]; dup {
		return &ParseError{Component: g.Name.String(), Message: "duplicate attribute group"}
	}
	s.AttributeGroups[g.Name] = g
	s.built = false
	return nil
}

// AddGroup registers a named model group.
func (s *Schema) AddGroup(name QName, g *Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.Groups[name]; dup {
		return &ParseError{Component: name.String(), Message: "duplicate model group"}
	}
	s.Groups[name] = g
	s.built = false
	return nil
}

// Build is phase two: resolve every reference by name, enforce derivation
// and facet rules and freeze the graph. The mode controls error handling:
// StrictMode returns at the first ParseError, LaxMode substitutes permissive
// fallbacks and returns every error, SkipMode suppresses the structural
// checks and resolves references only.
func (s *Schema) Build(mode ValidationMode) []error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// One fresh generation token per completed pass.
	pass := &buildPass{}
	if s.pass != nil {
		pass.seq = s.pass.seq + 1
	}
	s.pass = pass

	var errs []error
	report := func(err error) bool {
		if err == nil {
			return false
		}
		if mode == SkipMode {
			return false
		}
		errs = append(errs, err)
		return mode == StrictMode
	}

	for _, t := range s.Types {
		if st, ok := t.(*SimpleType); ok {
			if report(s.resolveSimpleType(st, mode)) {
				return errs
			}
		}
	}
	for _, t := range s.Types {
		if ct, ok := t.(*ComplexType); ok {
			if report(s.resolveComplexType(ct, mode)) {
				return errs
			}
		}
	}
	for _, decl := range s.Elements {
		if report(s.resolveElement(decl, mode)) {
			return errs
		}
	}
	for name, g := range s.Groups {
		if report(s.resolveGroupParticles(g, name.String(), mode)) {
			return errs
		}
	}

	s.buildSubstitutionGroups()
	s.built = true
	return errs
}

// MustBuild builds in strict mode and panics on schema errors; convenience
// for statically known-good schemas.
func (s *Schema) MustBuild() *Schema {
	if errs := s.Build(StrictMode); len(errs) > 0 {
		panic(errs[0])
	}
	return s
}

// resolveTypeRef resolves a type reference against the arena and builtins.
func (s *Schema) resolveTypeRef(name QName) (Type, error) {
	if t, ok := s.Types[name]; ok {
		return t, nil
	}
	if name.Namespace == XSDNamespace || name.Namespace == "" {
		if st := builtinSimpleType(name.Local); st != nil {
			return st, nil
		}
	}
	return nil, &ParseError{Component: name.String(), Message: "reference to undefined type"}
}

// fallbackSimpleType is the safe component substituted under lax builds.
func fallbackSimpleType() *SimpleType {
	return builtinSimpleType("anySimpleType")
}

func (s *Schema) resolveSimpleType(st *SimpleType, mode ValidationMode) error {
	if st.checked == s.pass {
		// A cyclic check request inside the current pass: not yet known,
		// answered without recursing.
		return nil
	}
	st.checked = s.pass

	switch st.Variety {
	case ListVariety:
		t, err := s.resolveTypeRef(st.ItemType)
		if err == nil {
			if item, ok := t.(*SimpleType); ok {
				if err2 := s.resolveSimpleType(item, mode); err2 != nil {
					return err2
				}
				st.item = item
			} else {
				err = &ParseError{Component: st.QName.String(),
					Message: fmt.Sprintf("list item type %s is not a simple type", st.ItemType)}
			}
		}
		if err != nil {
			if mode != LaxMode {
				return err
			}
			st.item = fallbackSimpleType()
			st.built = true
			return err
		}
	case UnionVariety:
		st.members = st.members[:0]
		for _, m := range st.MemberTypes {
			t, err := s.resolveTypeRef(m)
			if err != nil {
				if mode != LaxMode {
					return err
				}
				st.members = append(st.members, fallbackSimpleType())
				continue
			}
			member, ok := t.(*SimpleType)
			if !ok {
				err = &ParseError{Component: st.QName.String(),
					Message: fmt.Sprintf("union member %s is not a simple type", m)}
				if mode != LaxMode {
					return err
				}
				member = fallbackSimpleType()
			} else if err2 := s.resolveSimpleType(member, mode); err2 != nil {
				return err2
			}
			st.members = append(st.members, member)
		}
	default:
		if !st.Base.IsZero() && st.Primitive == nil {
			t, err := s.resolveTypeRef(st.Base)
			if err != nil {
				if mode != LaxMode {
					return err
				}
				st.base = fallbackSimpleType()
				st.Primitive = st.base.Primitive
				st.built = true
				return err
			}
			base, ok := t.(*SimpleType)
			if !ok {
				err = &ParseError{Component: st.QName.String(),
					Message: fmt.Sprintf("restriction base %s is not a simple type", st.Base)}
				if mode != LaxMode {
					return err
				}
				base = fallbackSimpleType()
			} else if err2 := s.resolveSimpleType(base, mode); err2 != nil {
				return err2
			}
			if base != st {
				st.base = base
				st.Primitive = base.Primitive
			}
		}
		if mode != SkipMode {
			if err := checkFacetSet(st.QName.String(), st.Facets, st.Primitive, st.base); err != nil {
				if mode != LaxMode {
					return err
				}
				st.built = true
				return err
			}
			if err := s.checkWhiteSpaceNarrowing(st); err != nil {
				if mode != LaxMode {
					return err
				}
				st.built = true
				return err
			}
		}
	}
	st.built = true
	return nil
}

// checkWhiteSpaceNarrowing forbids relaxing the whitespace policy under
// restriction: collapse can never become preserve again.
func (s *Schema) checkWhiteSpaceNarrowing(st *SimpleType) error {
	own, ok := facetOfKind(st.Facets, FacetWhiteSpace).(*WhiteSpaceFacet)
	if !ok {
		return nil
	}
	inherited := PreserveWhiteSpace
	if st.base != nil {
		inherited = st.base.effectiveWhiteSpace()
	} else if st.Primitive != nil {
		inherited = st.Primitive.WhiteSpace
	}
	if whiteSpaceRank(own.Value) < whiteSpaceRank(inherited) {
		return &ParseError{Component: st.QName.String(),
			Message: fmt.Sprintf("whiteSpace %s relaxes inherited policy %s", own.Value, inherited)}
	}
	return nil
}

func (s *Schema) resolveComplexType(ct *ComplexType, mode ValidationMode) error {
	if ct.checked == s.pass {
		return nil
	}
	ct.checked = s.pass

	if !ct.Simple.IsZero() && ct.simple == nil {
		t, err := s.resolveTypeRef(ct.Simple)
		if err == nil {
			if st, ok := t.(*SimpleType); ok {
				ct.simple = st
			} else {
				err = &ParseError{Component: ct.QName.String(),
					Message: fmt.Sprintf("simple content type %s is not a simple type", ct.Simple)}
			}
		}
		if err != nil {
			if mode != LaxMode {
				return err
			}
			ct.simple = fallbackSimpleType()
		}
	}

	if ct.Derivation != NoDerivation {
		base, err := s.resolveTypeRef(ct.Base)
		if err != nil {
			if mode != LaxMode {
				return err
			}
		} else {
			if baseCT, ok := base.(*ComplexType); ok {
				if err := s.resolveComplexType(baseCT, mode); err != nil {
					return err
				}
			}
			ct.base = base
			if err := ct.applyDerivation(); err != nil && mode != SkipMode {
				if mode != LaxMode {
					return err
				}
			}
		}
	}

	if mode != SkipMode {
		if err := ct.validate(); err != nil {
			if mode != LaxMode {
				return err
			}
		}
	}

	if err := s.resolveAttributeTypes(ct.Attributes, mode); err != nil {
		return err
	}
	if ct.Model != nil {
		if err := s.resolveGroupParticles(ct.Model, ct.QName.String(), mode); err != nil {
			return err
		}
	}
	ct.built = true
	return nil
}

func (s *Schema) resolveAttributeTypes(g *AttributeGroup, mode ValidationMode) error {
	if g == nil {
		return nil
	}
	for _, name := range g.Order {
		decl := g.Decls[name]
		if decl.typ != nil || decl.Type.IsZero() {
			continue
		}
		t, err := s.resolveTypeRef(decl.Type)
		if err == nil {
			if st, ok := t.(*SimpleType); ok {
				decl.typ = st
				continue
			}
			err = &ParseError{Component: decl.Name.String(),
				Message: fmt.Sprintf("attribute type %s is not a simple type", decl.Type)}
		}
		if mode != LaxMode {
			return err
		}
		decl.typ = fallbackSimpleType()
	}
	return nil
}

func (s *Schema) resolveGroupParticles(g *Group, component string, mode ValidationMode) error {
	for _, p := range g.Particles {
		switch particle := p.(type) {
		case *ElementParticle:
			if err := s.resolveElement(particle, mode); err != nil {
				return err
			}
		case *Group:
			if err := s.resolveGroupParticles(particle, component, mode); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Schema) resolveElement(decl *ElementParticle, mode ValidationMode) error {
	if decl.typ != nil || decl.Type.IsZero() {
		return nil
	}
	t, err := s.resolveTypeRef(decl.Type)
	if err != nil {
		if mode != LaxMode {
			return err
		}
		decl.typ = fallbackSimpleType()
		return err
	}
	decl.typ = t
	return nil
}

func (s *Schema) buildSubstitutionGroups() {
	s.SubstitutionGroups = make(map[QName][]QName)
	for _, decl := range s.Elements {
		if decl.SubstitutionGroup.IsZero() {
			continue
		}
		head := decl.SubstitutionGroup
		if head.Namespace == "" {
			head.Namespace = s.TargetNamespace
		}
		s.SubstitutionGroups[head] = append(s.SubstitutionGroups[head], decl.Name)
	}
}

// IsSubstitutableFor reports whether actual can stand in for expected via
// the substitution group registry.
func (s *Schema) IsSubstitutableFor(actual, expected QName) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, member := range s.SubstitutionGroups[expected] {
		if member == actual {
			return true
		}
	}
	return false
}

// LookupElement finds a global element declaration, falling back to the
// target namespace for unqualified names.
func (s *Schema) LookupElement(name QName) (*ElementParticle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if decl, ok := s.Elements[name]; ok {
		return decl, true
	}
	if name.Namespace == "" && s.TargetNamespace != "" {
		decl, ok := s.Elements[QName{Namespace: s.TargetNamespace, Local: name.Local}]
		return decl, ok
	}
	return nil, false
}

// LookupType finds a named type in the arena or among the builtins.
func (s *Schema) LookupType(name QName) (Type, bool) {
	s.mu.RLock()
	t, ok := s.Types[name]
	s.mu.RUnlock()
	if ok {
		return t, true
	}
	if name.Namespace == XSDNamespace {
		if st := builtinSimpleType(name.Local); st != nil {
			return st, true
		}
	}
	return nil, false
}
