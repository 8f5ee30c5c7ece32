package xsd

import (
	"errors"
	"testing"
)

func TestSchemaDuplicateRegistration(t *testing.T) {
	ns := "http://example.com/test"
	s := NewSchema(ns)

	st := NewAtomicType(s.Name("code"), XSDName("string"))
	if err := s.AddType(st); err != nil {
		t.Fatal(err)
	}
	err := s.AddType(NewAtomicType(s.Name("code"), XSDName("token")))
	if err == nil {
		t.Fatal("duplicate type registration accepted")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("error = %T, want *ParseError", err)
	}
}

func TestSchemaUndefinedReference(t *testing.T) {
	ns := "http://example.com/test"
	s := NewSchema(ns)

	el, err := NewElementParticle(s.Name("thing"), s.Name("ThingType"), Once)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddElement(el); err != nil {
		t.Fatal(err)
	}

	errs := s.Build(StrictMode)
	if len(errs) != 1 {
		t.Fatalf("Build produced %d errors, want 1", len(errs))
	}
	var pe *ParseError
	if !errors.As(errs[0], &pe) {
		t.Fatalf("error = %T, want *ParseError", errs[0])
	}
}

func TestSchemaLaxBuildUsesFallback(t *testing.T) {
	ns := "http://example.com/test"
	s := NewSchema(ns)

	el, err := NewElementParticle(s.Name("thing"), s.Name("ThingType"), Once)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddElement(el); err != nil {
		t.Fatal(err)
	}

	errs := s.Build(LaxMode)
	if len(errs) == 0 {
		t.Fatal("lax Build reported no errors for a dangling reference")
	}
	// The rest of the graph stays usable through the permissive fallback.
	if el.ResolvedType() == nil {
		t.Error("lax Build left the element unresolved")
	}
}

func TestSchemaCyclicReference(t *testing.T) {
	// An element whose type contains the element itself.
	ns := "http://example.com/tree"
	s := NewSchema(ns)

	child, err := NewElementParticle(s.Name("node"), s.Name("NodeType"), Occurs{Min: 0, Max: Unbounded})
	if err != nil {
		t.Fatal(err)
	}
	nodeType, err := NewComplexType(s.Name("NodeType"), Sequence(child), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddType(nodeType); err != nil {
		t.Fatal(err)
	}
	root, err := NewElementParticle(s.Name("node"), s.Name("NodeType"), Once)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddElement(root); err != nil {
		t.Fatal(err)
	}

	if errs := s.Build(StrictMode); len(errs) > 0 {
		t.Fatalf("Build errors: %v", errs)
	}
	if child.ResolvedType() != nodeType {
		t.Error("cyclic reference did not resolve to the containing type")
	}

	// A nested document validates against the recursive model.
	doc := NewNode(s.Name("node"))
	inner := NewNode(s.Name("node"))
	doc.Append(inner)
	inner.Append(NewNode(s.Name("node")))

	v := NewValidator(s, StrictMode)
	if errs := v.Validate(doc); len(errs) > 0 {
		t.Errorf("recursive document rejected: %v", errs)
	}
}

func TestSchemaRebuild(t *testing.T) {
	ns := "http://example.com/test"
	s := NewSchema(ns)

	if err := s.AddType(NewAtomicType(s.Name("code"), XSDName("string"))); err != nil {
		t.Fatal(err)
	}
	if errs := s.Build(StrictMode); len(errs) > 0 {
		t.Fatal(errs)
	}
	if !s.Built() {
		t.Fatal("schema not marked built")
	}

	// Adding a component invalidates the build; rebuilding restores it.
	if err := s.AddType(NewAtomicType(s.Name("token"), XSDName("token"))); err != nil {
		t.Fatal(err)
	}
	if s.Built() {
		t.Error("schema still marked built after a new registration")
	}
	if errs := s.Build(StrictMode); len(errs) > 0 {
		t.Fatal(errs)
	}
	if !s.Built() {
		t.Error("schema not rebuilt")
	}
}

func TestComplexTypeExtension(t *testing.T) {
	ns := "http://example.com/test"
	s := NewSchema(ns)

	nameEl, err := NewElementParticle(s.Name("name"), XSDName("string"), Once)
	if err != nil {
		t.Fatal(err)
	}
	baseAttrs := NewAttributeGroup(s.Name("BaseType"))
	id, err := NewAttributeDecl(QName{Local: "id"}, XSDName("integer"), RequiredUse)
	if err != nil {
		t.Fatal(err)
	}
	if err := baseAttrs.Add(id); err != nil {
		t.Fatal(err)
	}
	base, err := NewComplexType(s.Name("BaseType"), Sequence(nameEl), baseAttrs)
	if err != nil {
		t.Fatal(err)
	}

	ageEl, err := NewElementParticle(s.Name("age"), XSDName("integer"), Once)
	if err != nil {
		t.Fatal(err)
	}
	derived, err := NewComplexType(s.Name("DerivedType"), Sequence(ageEl), nil)
	if err != nil {
		t.Fatal(err)
	}
	derived.Extend(s.Name("BaseType"))

	if err := s.AddType(base); err != nil {
		t.Fatal(err)
	}
	if err := s.AddType(derived); err != nil {
		t.Fatal(err)
	}
	if errs := s.Build(StrictMode); len(errs) > 0 {
		t.Fatalf("Build errors: %v", errs)
	}

	// Extension appends content after the base's and unions attributes.
	particles := collectElementParticles(derived.Model)
	if len(particles) != 2 || particles[0] != nameEl || particles[1] != ageEl {
		t.Errorf("extension content order wrong: %v", particles)
	}
	if _, ok := derived.Attributes.lookup(QName{Local: "id"}); !ok {
		t.Error("extension did not inherit the base attribute")
	}
}

func TestComplexTypeRestrictionKindMismatch(t *testing.T) {
	ns := "http://example.com/test"
	s := NewSchema(ns)

	a, err := NewElementParticle(s.Name("a"), XSDName("string"), Once)
	if err != nil {
		t.Fatal(err)
	}
	base, err := NewComplexType(s.Name("BaseType"), Sequence(a), nil)
	if err != nil {
		t.Fatal(err)
	}

	b, err := NewElementParticle(s.Name("a"), XSDName("string"), Once)
	if err != nil {
		t.Fatal(err)
	}
	derived, err := NewComplexType(s.Name("DerivedType"), Choice(b), nil)
	if err != nil {
		t.Fatal(err)
	}
	derived.Restrict(s.Name("BaseType"))

	if err := s.AddType(base); err != nil {
		t.Fatal(err)
	}
	if err := s.AddType(derived); err != nil {
		t.Fatal(err)
	}

	if errs := s.Build(StrictMode); len(errs) == 0 {
		t.Error("restriction changing the model kind accepted")
	}
}

func TestSubstitutionGroupRegistry(t *testing.T) {
	ns := "http://example.com/shapes"
	s := NewSchema(ns)

	head, err := NewElementParticle(s.Name("shape"), XSDName("string"), Once)
	if err != nil {
		t.Fatal(err)
	}
	circle, err := NewElementParticle(s.Name("circle"), XSDName("string"), Once)
	if err != nil {
		t.Fatal(err)
	}
	circle.SubstitutionGroup = head.Name
	square, err := NewElementParticle(s.Name("square"), XSDName("string"), Once)
	if err != nil {
		t.Fatal(err)
	}
	square.SubstitutionGroup = head.Name

	for _, el := range []*ElementParticle{head, circle, square} {
		if err := s.AddElement(el); err != nil {
			t.Fatal(err)
		}
	}
	if errs := s.Build(StrictMode); len(errs) > 0 {
		t.Fatal(errs)
	}

	if !s.IsSubstitutableFor(circle.Name, head.Name) {
		t.Error("circle not substitutable for shape")
	}
	if !s.IsSubstitutableFor(square.Name, head.Name) {
		t.Error("square not substitutable for shape")
	}
	if s.IsSubstitutableFor(head.Name, circle.Name) {
		t.Error("substitutability is not symmetric")
	}
}

func TestLookupElementTargetNamespaceFallback(t *testing.T) {
	ns := "http://example.com/test"
	s := NewSchema(ns)
	el, err := NewElementParticle(s.Name("thing"), XSDName("string"), Once)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddElement(el); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.LookupElement(QName{Local: "thing"}); !ok {
		t.Error("unqualified lookup did not fall back to the target namespace")
	}
	if _, ok := s.LookupElement(QName{Namespace: "http://other", Local: "thing"}); ok {
		t.Error("foreign-namespace lookup unexpectedly succeeded")
	}
}

func TestComplexTypeExtensionOfChoiceBase(t *testing.T) {
	ns := "http://example.com/test"
	s := NewSchema(ns)

	aEl, err := NewElementParticle(s.Name("a"), XSDName("string"), Once)
	if err != nil {
		t.Fatal(err)
	}
	bEl, err := NewElementParticle(s.Name("b"), XSDName("string"), Once)
	if err != nil {
		t.Fatal(err)
	}
	base, err := NewComplexType(s.Name("BaseType"), Choice(aEl, bEl), nil)
	if err != nil {
		t.Fatal(err)
	}

	cEl, err := NewElementParticle(s.Name("c"), XSDName("string"), Once)
	if err != nil {
		t.Fatal(err)
	}
	derived, err := NewComplexType(s.Name("DerivedType"), Sequence(cEl), nil)
	if err != nil {
		t.Fatal(err)
	}
	derived.Extend(s.Name("BaseType"))

	if err := s.AddType(base); err != nil {
		t.Fatal(err)
	}
	if err := s.AddType(derived); err != nil {
		t.Fatal(err)
	}
	if errs := s.Build(StrictMode); len(errs) > 0 {
		t.Fatalf("Build errors: %v", errs)
	}

	// The base stays one choice: either alternative followed by c is valid,
	// both alternatives at once is not.
	tests := []struct {
		name     string
		children []string
		valid    bool
	}{
		{"first alternative", []string{"a", "c"}, true},
		{"second alternative", []string{"b", "c"}, true},
		{"both alternatives", []string{"a", "b", "c"}, false},
		{"extension only", []string{"c"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			children := make([]*Node, len(tt.children))
			for i, l := range tt.children {
				children[i] = NewNode(s.Name(l))
			}
			_, errs := MatchContent(s, derived.Model, children)
			if tt.valid && len(errs) > 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
			if !tt.valid && len(errs) == 0 {
				t.Error("invalid content accepted")
			}
		})
	}
}
