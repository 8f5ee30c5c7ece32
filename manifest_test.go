package xsd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const booksManifest = `
targetNamespace: urn:books
attributeGroups:
  - name: audited
    attributes:
      - name: revision
        type: xsd:integer
        use: required
types:
  - name: isbnType
    restriction:
      base: xsd:string
      facets:
        pattern: ["[0-9]{10}"]
  - name: bookType
    complex:
      content:
        sequence:
          - element: {name: title, type: "xsd:string"}
          - element: {name: author, type: "xsd:string", minOccurs: 0, maxOccurs: unbounded}
      attributes:
        - name: isbn
          type: isbnType
          use: required
      attributeGroups: [audited]
elements:
  - name: book
    type: bookType
`

func TestLoadSchemaFromManifest(t *testing.T) {
	schema, err := LoadSchema([]byte(booksManifest), StrictMode)
	require.NoError(t, err)
	require.True(t, schema.Built())

	decl, ok := schema.LookupElement(QName{Namespace: "urn:books", Local: "book"})
	require.True(t, ok)
	assert.Equal(t, QName{Namespace: "urn:books", Local: "bookType"}, decl.Type)

	node, err := ParseNode([]byte(
		`<book xmlns="urn:books" isbn="0123456789" revision="4">` +
			`<title>Go</title><author>Pike</author><author>Donovan</author>` +
			`</book>`))
	require.NoError(t, err)

	d := NewDecoder(schema)
	value, errs := d.Decode(node, StrictMode)
	require.Empty(t, errs)
	m, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0123456789", m["@isbn"])
	assert.Equal(t, int64(4), m["@revision"])
	assert.Equal(t, []any{"Pike", "Donovan"}, m["author"])
}

func TestLoadSchemaRejectsInvalidDocument(t *testing.T) {
	schema, err := LoadSchema([]byte(booksManifest), StrictMode)
	require.NoError(t, err)

	v := NewValidator(schema, StrictMode)
	errs := v.ValidateDocument([]byte(
		`<book xmlns="urn:books" isbn="not-an-isbn" revision="4"><title>Go</title></book>`))
	require.NotEmpty(t, errs)
	var verr *ValidationError
	require.ErrorAs(t, errs[0], &verr)
	assert.Equal(t, CodeFacetValid, verr.Code)
}

func TestManifestResolveName(t *testing.T) {
	m := &Manifest{TargetNamespace: "urn:t"}
	tests := []struct {
		in   string
		want QName
	}{
		{"xsd:string", XSDName("string")},
		{"xs:integer", XSDName("integer")},
		{"{urn:other}thing", QName{Namespace: "urn:other", Local: "thing"}},
		{"local", QName{Namespace: "urn:t", Local: "local"}},
	}
	for _, tt := range tests {
		if got := m.resolveName(tt.in); got != tt.want {
			t.Errorf("resolveName(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestManifestOccurs(t *testing.T) {
	two := 2
	occurs, err := manifestOccurs(&two, "unbounded")
	require.NoError(t, err)
	assert.Equal(t, Occurs{Min: 2, Max: Unbounded}, occurs)

	occurs, err = manifestOccurs(nil, "")
	require.NoError(t, err)
	assert.Equal(t, Once, occurs)

	// An absent maxOccurs follows the minimum.
	occurs, err = manifestOccurs(&two, "")
	require.NoError(t, err)
	assert.Equal(t, Occurs{Min: 2, Max: 2}, occurs)

	_, err = manifestOccurs(nil, "many")
	require.Error(t, err)

	// An explicit maxOccurs below minOccurs is a build error, not a repair.
	_, err = manifestOccurs(&two, "1")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "minOccurs")

	minus := -1
	_, err = manifestOccurs(&minus, "")
	require.Error(t, err)
}

func TestManifestUndefinedAttributeGroup(t *testing.T) {
	_, err := LoadSchema([]byte(`
targetNamespace: urn:t
types:
  - name: thingType
    complex:
      attributeGroups: [nowhere]
elements:
  - name: thing
    type: thingType
`), StrictMode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestManifestTypeWithoutVariant(t *testing.T) {
	_, err := LoadSchema([]byte(`
targetNamespace: urn:t
types:
  - name: emptyType
`), StrictMode)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestManifestExtendsRestrictsExclusive(t *testing.T) {
	_, err := LoadSchema([]byte(`
targetNamespace: urn:t
types:
  - name: badType
    complex:
      extends: "xsd:anyType"
      restricts: "xsd:anyType"
`), StrictMode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestManifestAttributesAreUnqualified(t *testing.T) {
	schema, err := LoadSchema([]byte(booksManifest), StrictMode)
	require.NoError(t, err)

	typ, ok := schema.LookupType(QName{Namespace: "urn:books", Local: "bookType"})
	require.True(t, ok)
	ct, ok := typ.(*ComplexType)
	require.True(t, ok)

	// Unprefixed instance attributes live in no namespace; locally declared
	// slots must match them directly.
	for _, name := range ct.Attributes.Order {
		assert.Empty(t, name.Namespace, "attribute %s declared with a namespace", name)
	}

	node, err := ParseNode([]byte(
		`<book xmlns="urn:books" isbn="0123456789" revision="1"><title>Go</title></book>`))
	require.NoError(t, err)
	v := NewValidator(schema, StrictMode)
	assert.Empty(t, v.Validate(node))
}
