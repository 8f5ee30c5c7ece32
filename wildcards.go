package xsd

import "strings"

// ProcessContentsMode defines how wildcard-matched content is processed.
type ProcessContentsMode string

const (
	// StrictProcess requires a resolvable declaration for the matched name.
	StrictProcess ProcessContentsMode = "strict"
	// LaxProcess validates when a declaration is found, allows otherwise.
	LaxProcess ProcessContentsMode = "lax"
	// SkipProcess allows the content without further inspection.
	SkipProcess ProcessContentsMode = "skip"
)

// Namespace constraint modes for wildcards.
const (
	AnyNamespace      = "##any"
	OtherNamespace    = "##other"
	TargetNamespace   = "##targetNamespace"
	LocalNamespace    = "##local"
	listNamespaceMode = "list"
)

// NamespaceConstraint restricts which namespaces a wildcard admits.
type NamespaceConstraint struct {
	Mode       string   // ##any, ##other, ##targetNamespace, ##local, or "list"
	Namespaces []string // explicit namespaces when Mode is "list"
}

// ParseNamespaceConstraint parses a wildcard namespace attribute value.
// An empty value means ##any.
func ParseNamespaceConstraint(value string) *NamespaceConstraint {
	if value == "" {
		value = AnyNamespace
	}
	c := &NamespaceConstraint{Mode: value}
	if !strings.HasPrefix(value, "##") {
		c.Namespaces = strings.Fields(value)
		c.Mode = listNamespaceMode
	}
	return c
}

// Matches reports whether a namespace satisfies the constraint, resolving
// the relative modes against the schema's target namespace.
func (c *NamespaceConstraint) Matches(namespace, targetNamespace string) bool {
	switch c.Mode {
	case AnyNamespace:
		return true
	case OtherNamespace:
		return namespace != targetNamespace && namespace != ""
	case TargetNamespace:
		return namespace == targetNamespace
	case LocalNamespace:
		return namespace == ""
	case listNamespaceMode:
		for _, ns := range c.Namespaces {
			switch ns {
			case TargetNamespace:
				if namespace == targetNamespace {
					return true
				}
			case LocalNamespace:
				if namespace == "" {
					return true
				}
			default:
				if ns == namespace {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

// WildcardParticle is an "any" placeholder in a content model.
type WildcardParticle struct {
	Occurs
	Namespace       *NamespaceConstraint
	ProcessContents ProcessContentsMode
}

// NewWildcardParticle builds a wildcard particle; empty namespace means
// ##any, empty processContents means strict.
func NewWildcardParticle(namespace string, pc ProcessContentsMode, occurs Occurs) (*WildcardParticle, error) {
	if err := occurs.validate(); err != nil {
		return nil, &ParseError{Component: "any", Message: err.Error()}
	}
	if pc == "" {
		pc = StrictProcess
	}
	return &WildcardParticle{
		Occurs:          occurs,
		Namespace:       ParseNamespaceConstraint(namespace),
		ProcessContents: pc,
	}, nil
}

// IsEmptiable reports whether the wildcard can match zero children.
func (w *WildcardParticle) IsEmptiable() bool { return w.Min == 0 }

// AttributeWildcard is an anyAttribute slot on an attribute group.
type AttributeWildcard struct {
	Namespace       *NamespaceConstraint
	ProcessContents ProcessContentsMode
}

// NewAttributeWildcard builds an attribute wildcard with the same defaults
// as NewWildcardParticle.
func NewAttributeWildcard(namespace string, pc ProcessContentsMode) *AttributeWildcard {
	if pc == "" {
		pc = StrictProcess
	}
	return &AttributeWildcard{
		Namespace:       ParseNamespaceConstraint(namespace),
		ProcessContents: pc,
	}
}
