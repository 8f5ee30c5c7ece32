package xsd

import (
	"strings"
	"testing"
)

func TestNodeAttr(t *testing.T) {
	n := NewNode(QName{Local: "item"})
	n.SetAttr(QName{Local: "id"}, "1")
	n.SetAttr(QName{Namespace: "urn:x", Local: "id"}, "2")

	if v, ok := n.Attr(QName{Local: "id"}); !ok || v != "1" {
		t.Fatalf("Attr(id) = %q, %v; want \"1\", true", v, ok)
	}
	if v, ok := n.Attr(QName{Namespace: "urn:x", Local: "id"}); !ok || v != "2" {
		t.Fatalf("Attr({urn:x}id) = %q, %v; want \"2\", true", v, ok)
	}
	if _, ok := n.Attr(QName{Local: "missing"}); ok {
		t.Fatal("Attr(missing) reported present")
	}

	n.SetAttr(QName{Local: "id"}, "3")
	if len(n.Attributes) != 2 {
		t.Fatalf("SetAttr replaced nothing: %d attributes", len(n.Attributes))
	}
	if v, _ := n.Attr(QName{Local: "id"}); v != "3" {
		t.Fatalf("after replace Attr(id) = %q, want \"3\"", v)
	}
}

func TestNodeIsNil(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"false", false},
		{"0", false},
		{"", false},
	}
	for _, tt := range tests {
		n := NewNode(QName{Local: "e"})
		if tt.value != "" {
			n.SetAttr(QName{Namespace: XSINamespace, Local: "nil"}, tt.value)
		}
		if got := n.IsNil(); got != tt.want {
			t.Errorf("IsNil with nil=%q = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestNodeTextContent(t *testing.T) {
	n := NewNode(QName{Local: "p"})
	n.Text = "one "
	b := NewNode(QName{Local: "b"})
	b.Text = "two"
	b.Tail = " three"
	n.Append(b)

	if got := n.TextContent(); got != "one two three" {
		t.Fatalf("TextContent = %q", got)
	}
}

func TestNodeHasContent(t *testing.T) {
	n := NewNode(QName{Local: "e"})
	if n.HasContent() {
		t.Fatal("empty node reported content")
	}
	n.Text = "  \n\t "
	if n.HasContent() {
		t.Fatal("whitespace-only text reported as content")
	}
	n.Append(NewNode(QName{Local: "c"}))
	if !n.HasContent() {
		t.Fatal("node with child element reported no content")
	}
}

func TestNodeEqualIgnoresInsignificantWhitespace(t *testing.T) {
	a := NewNode(QName{Namespace: "urn:x", Local: "root"})
	a.Text = "\n  "
	c1 := NewNode(QName{Local: "item"})
	c1.Text = "v"
	c1.Tail = "\n"
	a.Append(c1)
	a.SetAttr(QName{Local: "id"}, "1")

	b := NewNode(QName{Namespace: "urn:x", Local: "root"})
	c2 := NewNode(QName{Local: "item"})
	c2.Text = "v"
	b.Append(c2)
	b.SetAttr(QName{Local: "id"}, "1")

	if !a.Equal(b) {
		t.Fatal("nodes differing only in insignificant whitespace compared unequal")
	}

	c2.Text = "w"
	if a.Equal(b) {
		t.Fatal("nodes with different child text compared equal")
	}
}

func TestParseNode(t *testing.T) {
	data := []byte(`<root xmlns="urn:x" id="7">lead<item>v</item>tail</root>`)
	n, err := ParseNode(data)
	if err != nil {
		t.Fatalf("ParseNode: %v", err)
	}
	want := QName{Namespace: "urn:x", Local: "root"}
	if n.Name != want {
		t.Fatalf("root name = %v, want %v", n.Name, want)
	}
	if v, ok := n.Attr(QName{Local: "id"}); !ok || v != "7" {
		t.Fatalf("id attribute = %q, %v", v, ok)
	}
	if n.Text != "lead" {
		t.Fatalf("leading text = %q", n.Text)
	}
	if len(n.Children) != 1 || n.Children[0].Text != "v" {
		t.Fatalf("children = %+v", n.Children)
	}
	if n.Children[0].Tail != "tail" {
		t.Fatalf("child tail = %q", n.Children[0].Tail)
	}
}

func TestWriteXMLRoundTrip(t *testing.T) {
	n := NewNode(QName{Namespace: "urn:x", Local: "root"})
	n.SetAttr(QName{Local: "note"}, `a < b & "c"`)
	c := NewNode(QName{Namespace: "urn:x", Local: "item"})
	c.Text = "1 < 2"
	n.Append(c)

	var sb strings.Builder
	if err := n.WriteXML(&sb); err != nil {
		t.Fatalf("WriteXML: %v", err)
	}
	parsed, err := ParseNode([]byte(sb.String()))
	if err != nil {
		t.Fatalf("reparse: %v\nserialized: %s", err, sb.String())
	}
	if !n.Equal(parsed) {
		t.Fatalf("round trip changed the tree:\n%s\n%s", n, parsed)
	}
}
