package xsd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ContentItem is one decoded child slot in document order: the child's tag,
// its decoded value and the particle that matched it. Mixed character data
// appears as an item with a zero Name, a string value and a nil particle.
type ContentItem struct {
	Name     QName
	Value    any
	Particle *ElementParticle
}

// AttributeValue is one decoded attribute pair.
type AttributeValue struct {
	Name  QName
	Value any
}

// ElementData carries the decoded pieces of one element across the converter
// boundary: tag, simple-content value, ordered content triples and attribute
// pairs. Encoding hands the same shape back to the pipeline.
type ElementData struct {
	Name       QName
	Value      any // simple content, nil for element-only content
	Content    []ContentItem
	Attributes []AttributeValue
	Nil        bool
}

// Converter folds decoded element pieces into a native value and splits a
// native value back into element pieces. The pipeline calls it at every
// element boundary instead of hard-coding an output shape.
type Converter interface {
	DecodeElement(data *ElementData) any
	EncodeElement(name QName, value any) (*ElementData, error)
}

// DefaultConverter maps elements to string-keyed maps: attributes under a
// configurable prefix, simple content under a text key, repeated children
// gathered into order-preserving slices, mixed character data under numbered
// keys built from a cdata prefix.
type DefaultConverter struct {
	// AttrPrefix prefixes attribute keys. Empty drops attributes.
	AttrPrefix string
	// TextKey holds simple content when the element also carries attributes
	// or children.
	TextKey string
	// CDATAPrefix numbers mixed character data keys. Empty drops mixed text.
	CDATAPrefix string
	// UseLocalName keys children and attributes by local name instead of the
	// expanded qualified name.
	UseLocalName bool
}

// NewDefaultConverter returns the conventional mapping converter: "@" for
// attributes, "$" for text, mixed text dropped.
func NewDefaultConverter() *DefaultConverter {
	return &DefaultConverter{AttrPrefix: "@", TextKey: "$", UseLocalName: true}
}

func (c *DefaultConverter) key(name QName) string {
	if c.UseLocalName {
		return name.Local
	}
	return name.String()
}

// DecodeElement implements Converter. An element with neither attributes nor
// children collapses to its simple value; everything else becomes a map.
func (c *DefaultConverter) DecodeElement(data *ElementData) any {
	if data.Nil {
		return nil
	}
	hasAttrs := c.AttrPrefix != "" && len(data.Attributes) > 0
	if !hasAttrs && len(data.Content) == 0 {
		return data.Value
	}

	out := make(map[string]any)
	if hasAttrs {
		for _, a := range data.Attributes {
			out[c.AttrPrefix+c.key(a.Name)] = a.Value
		}
	}
	if data.Value != nil {
		out[c.TextKey] = data.Value
	}
	cdataIndex := 0
	for _, item := range data.Content {
		if item.Name.IsZero() {
			if c.CDATAPrefix == "" {
				continue
			}
			cdataIndex++
			out[c.CDATAPrefix+strconv.Itoa(cdataIndex)] = item.Value
			continue
		}
		key := c.key(item.Name)
		switch existing := out[key].(type) {
		case nil:
			out[key] = item.Value
		case []any:
			out[key] = append(existing, item.Value)
		default:
			out[key] = []any{existing, item.Value}
		}
	}
	return out
}

// EncodeElement implements Converter: the inverse mapping from a native
// value back to element pieces. Scalar values become simple content; maps
// are split into attributes, text and children. Map iteration order is made
// deterministic by sorting keys; the encoder reorders children to the
// declared model order afterwards.
func (c *DefaultConverter) EncodeElement(name QName, value any) (*ElementData, error) {
	data := &ElementData{Name: name}
	if value == nil {
		data.Nil = true
		return data, nil
	}
	fields, ok := value.(map[string]any)
	if !ok {
		data.Value = value
		return data, nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := fields[k]
		switch {
		case k == c.TextKey:
			data.Value = v
		case c.AttrPrefix != "" && strings.HasPrefix(k, c.AttrPrefix):
			data.Attributes = append(data.Attributes, AttributeValue{
				Name:  QName{Local: strings.TrimPrefix(k, c.AttrPrefix)},
				Value: v,
			})
		case c.CDATAPrefix != "" && strings.HasPrefix(k, c.CDATAPrefix):
			data.Content = append(data.Content, ContentItem{Value: fmt.Sprint(v)})
		default:
			childName := QName{Local: k}
			if !c.UseLocalName {
				childName = ParseQName(k)
			}
			if repeats, ok := v.([]any); ok {
				for _, item := range repeats {
					data.Content = append(data.Content, ContentItem{Name: childName, Value: item})
				}
			} else {
				data.Content = append(data.Content, ContentItem{Name: childName, Value: v})
			}
		}
	}
	return data, nil
}
