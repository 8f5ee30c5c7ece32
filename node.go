package xsd

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentflare-ai/go-xmldom"
)

// Node is the markup tree consumed and produced by the pipeline: a qualified
// tag, ordered attributes, leading text, ordered children and per-child
// trailing text. Any concrete tree can be adapted to it; FromElement adapts
// a parsed xmldom element.
type Node struct {
	Name       QName
	Attributes []Attribute
	Text       string
	Children   []*Node
	Tail       string
}

// Attribute is one attribute slot on a node. Insertion order is preserved
// for serialization but carries no meaning.
type Attribute struct {
	Name  QName
	Value string
}

// NewNode returns a node with the given qualified tag.
func NewNode(name QName) *Node {
	return &Node{Name: name}
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name QName) (string, bool) {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	// Unprefixed attributes match on local name alone.
	if name.Namespace == "" {
		for _, a := range n.Attributes {
			if a.Name.Local == name.Local && a.Name.Namespace == "" {
				return a.Value, true
			}
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute.
func (n *Node) SetAttr(name QName, value string) {
	for i, a := range n.Attributes {
		if a.Name == name {
			n.Attributes[i].Value = value
			return
		}
	}
	n.Attributes = append(n.Attributes, Attribute{Name: name, Value: value})
}

// Append adds a child node.
func (n *Node) Append(child *Node) {
	n.Children = append(n.Children, child)
}

// IsNil reports whether the node carries an explicit xsi:nil marker.
func (n *Node) IsNil() bool {
	v, ok := n.Attr(QName{Namespace: XSINamespace, Local: "nil"})
	return ok && (v == "true" || v == "1")
}

// HasContent reports whether the node has child elements or non-whitespace
// character data.
func (n *Node) HasContent() bool {
	if len(n.Children) > 0 || strings.TrimSpace(n.Text) != "" {
		return true
	}
	for _, c := range n.Children {
		if strings.TrimSpace(c.Tail) != "" {
			return true
		}
	}
	return false
}

// TextContent returns the concatenation of all character data in document
// order, including descendant text.
func (n *Node) TextContent() string {
	var b strings.Builder
	b.WriteString(n.Text)
	for _, c := range n.Children {
		b.WriteString(c.TextContent())
		b.WriteString(c.Tail)
	}
	return b.String()
}

// Equal reports structural equality up to insignificant whitespace: equal
// tag, equal attribute set, equal non-whitespace text and recursively equal
// ordered children.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Name != other.Name || len(n.Children) != len(other.Children) {
		return false
	}
	if strings.TrimSpace(n.Text) != strings.TrimSpace(other.Text) {
		return false
	}
	if len(n.Attributes) != len(other.Attributes) {
		return false
	}
	for _, a := range n.Attributes {
		v, ok := other.Attr(a.Name)
		if !ok || v != a.Value {
			return false
		}
	}
	for i, c := range n.Children {
		if !c.Equal(other.Children[i]) {
			return false
		}
		if strings.TrimSpace(c.Tail) != strings.TrimSpace(other.Children[i].Tail) {
			return false
		}
	}
	return true
}

// FromElement adapts a parsed DOM element into the pipeline's node protocol.
// Text nodes before the first child element become the node's leading text;
// text nodes after a child element become that child's tail.
func FromElement(elem xmldom.Element) *Node {
	n := &Node{
		Name: QName{
			Namespace: string(elem.NamespaceURI()),
			Local:     string(elem.LocalName()),
		},
	}

	attrs := elem.Attributes()
	for i := uint(0); i < attrs.Length(); i++ {
		attr := attrs.Item(i)
		if attr == nil {
			continue
		}
		local := string(attr.LocalName())
		ns := string(attr.NamespaceURI())
		// Namespace declarations are not attributes of the data model.
		if ns == "http://www.w3.org/2000/xmlns/" || ns == "xmlns" || local == "xmlns" {
			continue
		}
		n.Attributes = append(n.Attributes, Attribute{
			Name:  QName{Namespace: ns, Local: local},
			Value: string(attr.NodeValue()),
		})
	}

	var last *Node
	nodes := elem.ChildNodes()
	for i := uint(0); i < nodes.Length(); i++ {
		node := nodes.Item(i)
		if node == nil {
			continue
		}
		switch node.NodeType() {
		case 3: // TEXT_NODE
			text := string(node.NodeValue())
			if last == nil {
				n.Text += text
			} else {
				last.Tail += text
			}
		case 1: // ELEMENT_NODE
			if el, ok := node.(xmldom.Element); ok {
				child := FromElement(el)
				n.Children = append(n.Children, child)
				last = child
			}
		}
	}
	return n
}

// FromDocument adapts a parsed DOM document's root element.
func FromDocument(doc xmldom.Document) (*Node, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	root := doc.DocumentElement()
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	return FromElement(root), nil
}

// ParseNode decodes markup text into a node tree.
func ParseNode(data []byte) (*Node, error) {
	decoder := xmldom.NewDecoderFromBytes(data)
	doc, err := decoder.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return FromDocument(doc)
}

// WriteXML serializes the node as markup text. Namespaces are emitted as
// default xmlns declarations where they change from the enclosing scope.
func (n *Node) WriteXML(w io.Writer) error {
	return n.writeXML(w, "")
}

func (n *Node) writeXML(w io.Writer, parentNS string) error {
	if _, err := fmt.Fprintf(w, "<%s", n.Name.Local); err != nil {
		return err
	}
	if n.Name.Namespace != parentNS {
		if _, err := fmt.Fprintf(w, " xmlns=%q", n.Name.Namespace); err != nil {
			return err
		}
	}
	for _, a := range n.Attributes {
		if _, err := fmt.Fprintf(w, " %s=%q", a.Name.Local, escapeText(a.Value)); err != nil {
			return err
		}
	}
	if n.Text == "" && len(n.Children) == 0 {
		_, err := io.WriteString(w, "/>")
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, escapeText(n.Text)); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.writeXML(w, n.Name.Namespace); err != nil {
			return err
		}
		if _, err := io.WriteString(w, escapeText(c.Tail)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "</%s>", n.Name.Local)
	return err
}

// String returns the serialized form, for diagnostics and tests.
func (n *Node) String() string {
	var b strings.Builder
	_ = n.WriteXML(&b)
	return b.String()
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
