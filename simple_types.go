package xsd

import (
	"fmt"
	"strings"
)

// Type is the interface shared by simple and complex types.
type Type interface {
	Name() QName
}

// Variety is the shape of a simple type.
type Variety string

const (
	AtomicVariety Variety = "atomic"
	ListVariety   Variety = "list"
	UnionVariety  Variety = "union"
)

// SimpleType is an atomic, list or union value type: a primitive conversion
// wrapped in a facet set and a whitespace policy. Instances are immutable
// once the owning schema build completes.
type SimpleType struct {
	QName       QName
	Variety     Variety
	Base        QName   // atomic: restriction base
	ItemType    QName   // list: item type
	MemberTypes []QName // union: members in declaration order
	Facets      []Facet
	Primitive   *BuiltinType // primitive ancestor, resolved at build

	base    *SimpleType
	item    *SimpleType
	members []*SimpleType
	built   bool
	checked *buildPass
}

// NewAtomicType declares an atomic simple type restricting base. A base in
// the schema namespace resolves immediately; other references resolve during
// the owning schema's build.
func NewAtomicType(name QName, base QName, facets ...Facet) *SimpleType {
	st := &SimpleType{QName: name, Variety: AtomicVariety, Base: base, Facets: facets}
	if base.Namespace == XSDNamespace {
		st.Primitive = GetBuiltinType(base.Local)
	}
	return st
}

// NewListType declares a list simple type over an item type.
func NewListType(name QName, itemType QName, facets ...Facet) *SimpleType {
	st := &SimpleType{QName: name, Variety: ListVariety, ItemType: itemType, Facets: facets}
	if itemType.Namespace == XSDNamespace {
		st.item = builtinSimpleType(itemType.Local)
	}
	return st
}

// NewUnionType declares a union simple type over member types, tried in
// declaration order.
func NewUnionType(name QName, memberTypes ...QName) *SimpleType {
	st := &SimpleType{QName: name, Variety: UnionVariety, MemberTypes: memberTypes}
	for _, m := range memberTypes {
		if m.Namespace == XSDNamespace {
			st.members = append(st.members, builtinSimpleType(m.Local))
		} else {
			st.members = append(st.members, nil)
		}
	}
	return st
}

// builtinSimpleType wraps a builtin primitive as a facetless simple type.
func builtinSimpleType(local string) *SimpleType {
	b := GetBuiltinType(local)
	if b == nil {
		return nil
	}
	return &SimpleType{
		QName:     b.Name,
		Variety:   AtomicVariety,
		Base:      b.Name,
		Primitive: b,
		built:     true,
	}
}

// Name implements Type.
func (st *SimpleType) Name() QName { return st.QName }

// Built reports whether the type has finished resolving.
func (st *SimpleType) Built() bool { return st.built }

// BaseType returns the resolved restriction base, nil for a primitive or an
// unresolved reference.
func (st *SimpleType) BaseType() *SimpleType { return st.base }

// effectiveWhiteSpace walks the restriction chain for the nearest whitespace
// policy; list types collapse by definition.
func (st *SimpleType) effectiveWhiteSpace() WhiteSpace {
	if st.Variety == ListVariety {
		return CollapseWhiteSpace
	}
	for t := st; t != nil; t = t.base {
		if f, ok := facetOfKind(t.Facets, FacetWhiteSpace).(*WhiteSpaceFacet); ok {
			return f.Value
		}
	}
	if st.Primitive != nil {
		return st.Primitive.WhiteSpace
	}
	return CollapseWhiteSpace
}

// effectiveFacets returns the type's own facets plus every ancestor facet of
// a kind the type does not itself constrain.
func (st *SimpleType) effectiveFacets() []Facet {
	facets := make([]Facet, len(st.Facets))
	copy(facets, st.Facets)
	for anc := st.base; anc != nil; anc = anc.base {
		for _, f := range anc.Facets {
			if facetOfKind(facets, f.Kind()) == nil {
				facets = append(facets, f)
			}
		}
	}
	return facets
}

// Normalize applies the type's whitespace policy to raw text.
func (st *SimpleType) Normalize(text string) string {
	return NormalizeWhiteSpace(text, st.effectiveWhiteSpace())
}

// Decode converts markup text into a native value: whitespace normalization,
// then facets, then the primitive conversion. A conversion failure yields a
// DecodeError together with the normalized text as best-effort fallback, so
// non-fail-fast callers always receive some value.
func (st *SimpleType) Decode(text string) (any, []error) {
	switch st.Variety {
	case ListVariety:
		return st.decodeList(text)
	case UnionVariety:
		return st.decodeUnion(text)
	default:
		return st.decodeAtomic(text)
	}
}

func (st *SimpleType) decodeAtomic(text string) (any, []error) {
	normalized := st.Normalize(text)
	errs := checkFacets(normalized, st)

	if st.Primitive == nil || st.Primitive.Decode == nil {
		return normalized, errs
	}
	value, err := st.Primitive.Decode(normalized)
	if err != nil {
		errs = append(errs, &DecodeError{Type: st.QName, Text: normalized, Reason: err.Error()})
		return normalized, errs
	}
	return value, errs
}

func (st *SimpleType) decodeList(text string) (any, []error) {
	normalized := st.Normalize(text)
	errs := checkFacets(normalized, st)

	var values []any
	if st.item == nil {
		errs = append(errs, &DecodeError{Type: st.QName, Text: normalized,
			Reason: fmt.Sprintf("unresolved item type %s", st.ItemType)})
		return normalized, errs
	}
	for _, token := range strings.Fields(normalized) {
		v, itemErrs := st.item.Decode(token)
		errs = append(errs, itemErrs...)
		values = append(values, v)
	}
	return values, errs
}

func (st *SimpleType) decodeUnion(text string) (any, []error) {
	// Members commit on lexical acceptance alone, in declaration order.
	for _, m := range st.members {
		if m == nil {
			continue
		}
		if v, errs := m.Decode(text); len(errs) == 0 {
			return v, nil
		}
	}
	names := make([]string, len(st.MemberTypes))
	for i, m := range st.MemberTypes {
		names[i] = m.String()
	}
	err := &DecodeError{Type: st.QName, Text: text,
		Reason: fmt.Sprintf("no member type accepts the value (tried %s)", strings.Join(names, ", "))}
	return st.Normalize(text), []error{err}
}

// Encode converts a native value back into markup text: native compatibility
// first, then facets against the encoded form, then the text itself.
func (st *SimpleType) Encode(value any) (string, []error) {
	switch st.Variety {
	case ListVariety:
		return st.encodeList(value)
	case UnionVariety:
		return st.encodeUnion(value)
	default:
		return st.encodeAtomic(value)
	}
}

func (st *SimpleType) encodeAtomic(value any) (string, []error) {
	var text string
	var errs []error
	if st.Primitive != nil && st.Primitive.Encode != nil {
		var err error
		text, err = st.Primitive.Encode(value)
		if err != nil {
			errs = append(errs, &EncodeError{Type: st.QName, Value: value, Reason: err.Error()})
			text = fmt.Sprint(value)
		}
	} else {
		text = fmt.Sprint(value)
	}
	text = st.Normalize(text)
	errs = append(errs, checkFacets(text, st)...)
	return text, errs
}

func (st *SimpleType) encodeList(value any) (string, []error) {
	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case string:
		for _, s := range strings.Fields(v) {
			items = append(items, s)
		}
	default:
		err := &EncodeError{Type: st.QName, Value: value, Reason: "list type expects a slice"}
		return fmt.Sprint(value), []error{err}
	}

	var errs []error
	encoded := make([]string, 0, len(items))
	for _, item := range items {
		if st.item == nil {
			errs = append(errs, &EncodeError{Type: st.QName, Value: item,
				Reason: fmt.Sprintf("unresolved item type %s", st.ItemType)})
			encoded = append(encoded, fmt.Sprint(item))
			continue
		}
		text, itemErrs := st.item.Encode(item)
		errs = append(errs, itemErrs...)
		encoded = append(encoded, text)
	}
	text := strings.Join(encoded, " ")
	errs = append(errs, checkFacets(text, st)...)
	return text, errs
}

func (st *SimpleType) encodeUnion(value any) (string, []error) {
	for _, m := range st.members {
		if m == nil {
			continue
		}
		if text, errs := m.Encode(value); len(errs) == 0 {
			return text, nil
		}
	}
	err := &EncodeError{Type: st.QName, Value: value,
		Reason: "no member type accepts the value"}
	return fmt.Sprint(value), []error{err}
}
