package xsd

import "fmt"

// Unbounded is the maxOccurs value for an unlimited particle.
const Unbounded = -1

// Particle is one child slot in a content model: an element declaration, a
// wildcard or a nested group, with an occurrence range.
type Particle interface {
	MinOccurs() int
	MaxOccurs() int
	IsOptional() bool
	IsEmptiable() bool
	IsSingle() bool
}

// Occurs carries a particle's occurrence bounds.
type Occurs struct {
	Min int
	Max int // Unbounded for no upper bound
}

// Once is the default occurrence range.
var Once = Occurs{Min: 1, Max: 1}

// Optional is the 0..1 occurrence range.
var Optional = Occurs{Min: 0, Max: 1}

func (o Occurs) MinOccurs() int { return o.Min }
func (o Occurs) MaxOccurs() int { return o.Max }

// IsOptional reports whether the particle may be absent.
func (o Occurs) IsOptional() bool { return o.Min == 0 }

// IsSingle reports whether the particle matches at most once.
func (o Occurs) IsSingle() bool { return o.Max == 1 }

// isOver reports whether count has reached the upper bound.
func (o Occurs) isOver(count int) bool {
	return o.Max != Unbounded && count >= o.Max
}

func (o Occurs) validate() error {
	if o.Min < 0 {
		return fmt.Errorf("minOccurs must be non-negative, got %d", o.Min)
	}
	if o.Max != Unbounded && o.Max < o.Min {
		return fmt.Errorf("maxOccurs %d is below minOccurs %d", o.Max, o.Min)
	}
	return nil
}

// ElementParticle is a named child declaration inside a content model.
type ElementParticle struct {
	Occurs
	Name     QName
	Type     QName // referenced type, resolved at schema build
	Nillable bool
	Default  string
	Fixed    string
	// SubstitutionGroup names the head element this one substitutes for.
	SubstitutionGroup QName

	typ Type
}

// NewElementParticle builds an element particle, enforcing its invariants:
// consistent occurrence bounds and mutually exclusive default/fixed.
func NewElementParticle(name QName, typeName QName, occurs Occurs) (*ElementParticle, error) {
	p := &ElementParticle{Occurs: occurs, Name: name, Type: typeName}
	if err := occurs.validate(); err != nil {
		return nil, &ParseError{Component: name.String(), Message: err.Error()}
	}
	return p, nil
}

// WithDefault sets the default text. Default and fixed are never both set.
func (p *ElementParticle) WithDefault(text string) (*ElementParticle, error) {
	if p.Fixed != "" {
		return nil, &ParseError{Component: p.Name.String(), Message: "default and fixed are mutually exclusive"}
	}
	p.Default = text
	return p, nil
}

// WithFixed sets the fixed text. Default and fixed are never both set.
func (p *ElementParticle) WithFixed(text string) (*ElementParticle, error) {
	if p.Default != "" {
		return nil, &ParseError{Component: p.Name.String(), Message: "default and fixed are mutually exclusive"}
	}
	p.Fixed = text
	return p, nil
}

// IsEmptiable reports whether the particle can match zero children.
func (p *ElementParticle) IsEmptiable() bool { return p.Min == 0 }

// ResolvedType returns the type bound during schema build, nil before.
func (p *ElementParticle) ResolvedType() Type { return p.typ }

// ModelGroupKind is the composition model of a group.
type ModelGroupKind string

const (
	SequenceGroup ModelGroupKind = "sequence"
	ChoiceGroup   ModelGroupKind = "choice"
	AllGroup      ModelGroupKind = "all"
)

// Group is a composite particle: a model kind combining an ordered list of
// sub-particles under its own occurrence bounds.
type Group struct {
	Occurs
	Kind      ModelGroupKind
	Particles []Particle
}

// NewGroup builds a group, enforcing occurrence bounds and the `all` group
// constraints: members must be element particles occurring at most once.
func NewGroup(kind ModelGroupKind, occurs Occurs, particles ...Particle) (*Group, error) {
	g := &Group{Occurs: occurs, Kind: kind, Particles: particles}
	if err := g.check(); err != nil {
		return nil, err
	}
	return g, nil
}

// Sequence builds a once-occurring sequence group.
func Sequence(particles ...Particle) *Group {
	return &Group{Occurs: Once, Kind: SequenceGroup, Particles: particles}
}

// Choice builds a once-occurring choice group.
func Choice(particles ...Particle) *Group {
	return &Group{Occurs: Once, Kind: ChoiceGroup, Particles: particles}
}

// All builds a once-occurring all group.
func All(particles ...Particle) *Group {
	return &Group{Occurs: Once, Kind: AllGroup, Particles: particles}
}

func (g *Group) check() error {
	if err := g.Occurs.validate(); err != nil {
		return &ParseError{Component: string(g.Kind), Message: err.Error()}
	}
	switch g.Kind {
	case SequenceGroup, ChoiceGroup:
	case AllGroup:
		for _, p := range g.Particles {
			ep, ok := p.(*ElementParticle)
			if !ok {
				return &ParseError{Component: "all",
					Message: "members of an all group must be top-level element particles"}
			}
			if !ep.IsSingle() {
				return &ParseError{Component: "all",
					Message: fmt.Sprintf("all group member %s must have maxOccurs <= 1", ep.Name)}
			}
		}
	default:
		return &ParseError{Component: string(g.Kind), Message: "unknown model group kind"}
	}
	for _, p := range g.Particles {
		if sub, ok := p.(*Group); ok {
			if err := sub.check(); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsEmptiable reports whether the group can match the empty child sequence:
// its own minOccurs is zero, or its model admits emptiness — a sequence whose
// every member is emptiable, or a choice with at least one emptiable
// alternative.
func (g *Group) IsEmptiable() bool {
	if g.Min == 0 {
		return true
	}
	switch g.Kind {
	case ChoiceGroup:
		for _, p := range g.Particles {
			if p.IsEmptiable() {
				return true
			}
		}
		return len(g.Particles) == 0
	default: // sequence, all
		for _, p := range g.Particles {
			if !p.IsEmptiable() {
				return false
			}
		}
		return true
	}
}
