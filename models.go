package xsd

import (
	"fmt"
	"strings"
)

// ChildMatch pairs one consumed child with the particle that claimed it.
// Element is set for named matches; Wildcard for wildcard matches. Exactly
// one of the two is non-nil.
type ChildMatch struct {
	Index    int
	Child    *Node
	Element  *ElementParticle
	Wildcard *WildcardParticle
}

// MatchContent walks a group's particle structure against an ordered child
// list. It returns one ChildMatch per consumed child, in child order, plus
// every structural error found: unmet minimum occurrences ("tag expected")
// and leftover children ("unexpected tag"). The matcher holds no state
// between calls and never backtracks across committed choices; ambiguous
// models are assumed to have been authored unambiguously.
func MatchContent(schema *Schema, group *Group, children []*Node) ([]ChildMatch, []error) {
	m := &matchState{schema: schema, children: children}
	m.matchGroup(group)
	for ; m.pos < len(m.children); m.pos++ {
		child := m.children[m.pos]
		m.errs = append(m.errs, &ValidationError{
			Code:      CodeTagUnexpected,
			Node:      child,
			Component: string(group.Kind),
			Reason:    fmt.Sprintf("unexpected tag %s", child.Name),
		})
	}
	return m.matches, m.errs
}

type matchState struct {
	schema   *Schema
	children []*Node
	pos      int
	matches  []ChildMatch
	errs     []error
}

func (m *matchState) current() *Node {
	if m.pos < len(m.children) {
		return m.children[m.pos]
	}
	return nil
}

func (m *matchState) consume(decl *ElementParticle, wild *WildcardParticle) {
	m.matches = append(m.matches, ChildMatch{
		Index:    m.pos,
		Child:    m.children[m.pos],
		Element:  decl,
		Wildcard: wild,
	})
	m.pos++
}

func (m *matchState) expectedError(names []QName) {
	expected := make([]string, len(names))
	for i, n := range names {
		expected[i] = n.String()
	}
	m.errs = append(m.errs, &ValidationError{
		Code:     CodeTagExpected,
		Node:     m.current(),
		Expected: expected,
		Reason:   fmt.Sprintf("tag expected: %s", strings.Join(expected, " | ")),
	})
}

// nameMatches reports whether a child tag satisfies an element particle,
// directly or through the particle's substitution group.
func (m *matchState) nameMatches(decl *ElementParticle, name QName) bool {
	if decl.Name == name {
		return true
	}
	if name.Namespace == "" && decl.Name.Local == name.Local &&
		(m.schema == nil || decl.Name.Namespace == m.schema.TargetNamespace) {
		return true
	}
	return m.schema != nil && m.schema.IsSubstitutableFor(name, decl.Name)
}

// wildcardMatches applies the namespace constraint and, for strict and lax
// processing, requires a resolvable declaration under strict.
func (m *matchState) wildcardMatches(w *WildcardParticle, name QName) bool {
	targetNS := ""
	if m.schema != nil {
		targetNS = m.schema.TargetNamespace
	}
	if !w.Namespace.Matches(name.Namespace, targetNS) {
		return false
	}
	if w.ProcessContents == StrictProcess {
		if m.schema == nil {
			return false
		}
		_, ok := m.schema.LookupElement(name)
		return ok
	}
	return true
}

// matchGroup runs a group as a repeating unit, honoring its own occurs.
func (m *matchState) matchGroup(g *Group) bool {
	count := 0
	for g.Max == Unbounded || count < g.Max {
		start := m.pos
		ok := m.matchGroupOnce(g, count < g.Min)
		if !ok {
			break
		}
		count++
		if m.pos == start {
			// An emptiable cycle consumed nothing; repeating it cannot make
			// progress.
			break
		}
	}
	return count >= g.Min
}

// matchGroupOnce runs one occurrence of the group. required marks whether the
// group is still below its own minimum; only then do unmet member minima
// produce errors.
func (m *matchState) matchGroupOnce(g *Group, required bool) bool {
	switch g.Kind {
	case SequenceGroup:
		return m.matchSequenceOnce(g, required)
	case ChoiceGroup:
		return m.matchChoiceOnce(g, required)
	case AllGroup:
		return m.matchAllOnce(g, required)
	}
	return false
}

func (m *matchState) matchSequenceOnce(g *Group, required bool) bool {
	start := m.pos
	failed := false
	for _, p := range g.Particles {
		if m.matchParticle(p) {
			continue
		}
		// A member fell short of its minimum. A repetition beyond the
		// group's own minimum that has consumed nothing simply ends; a
		// required or partially consumed cycle reports what would have
		// been accepted here.
		if !required && m.pos == start && !failed {
			return false
		}
		m.expectedError(expectedNames(p))
		failed = true
	}
	return !failed
}

func (m *matchState) matchChoiceOnce(g *Group, required bool) bool {
	child := m.current()
	if child != nil {
		for _, p := range g.Particles {
			if m.canStart(p, child.Name) {
				if !m.matchParticle(p) && required {
					m.expectedError(expectedNames(p))
				}
				return true
			}
		}
	}
	// No alternative accepts the next child. The choice is still satisfied
	// when some alternative matches the empty sequence.
	for _, p := range g.Particles {
		if p.IsEmptiable() {
			return true
		}
	}
	if required {
		m.expectedError(expectedNames(g))
		return true
	}
	return false
}

func (m *matchState) matchAllOnce(g *Group, required bool) bool {
	remaining := make([]*ElementParticle, 0, len(g.Particles))
	for _, p := range g.Particles {
		// check() guarantees all members are element particles.
		if decl, ok := p.(*ElementParticle); ok {
			remaining = append(remaining, decl)
		}
	}
	for {
		child := m.current()
		if child == nil {
			break
		}
		matched := -1
		for i, decl := range remaining {
			if m.nameMatches(decl, child.Name) {
				matched = i
				break
			}
		}
		if matched < 0 {
			break
		}
		m.consume(remaining[matched], nil)
		remaining = append(remaining[:matched], remaining[matched+1:]...)
	}
	ok := true
	for _, decl := range remaining {
		if decl.Min > 0 {
			if required {
				m.expectedError([]QName{decl.Name})
			}
			ok = false
		}
	}
	return ok || required
}

// matchParticle consumes occurrences of a particle at the cursor and reports
// whether its minimum was reached.
func (m *matchState) matchParticle(p Particle) bool {
	switch particle := p.(type) {
	case *ElementParticle:
		count := 0
		for particle.Max == Unbounded || count < particle.Max {
			child := m.current()
			if child == nil || !m.nameMatches(particle, child.Name) {
				break
			}
			m.consume(particle, nil)
			count++
		}
		return count >= particle.Min
	case *WildcardParticle:
		count := 0
		for particle.Max == Unbounded || count < particle.Max {
			child := m.current()
			if child == nil || !m.wildcardMatches(particle, child.Name) {
				break
			}
			m.consume(nil, particle)
			count++
		}
		return count >= particle.Min
	case *Group:
		return m.matchGroup(particle)
	}
	return false
}

// canStart reports whether a particle could claim the given tag as its first
// consumed child. Used by choice resolution, which commits without
// backtracking.
func (m *matchState) canStart(p Particle, name QName) bool {
	switch particle := p.(type) {
	case *ElementParticle:
		return particle.Max != 0 && m.nameMatches(particle, name)
	case *WildcardParticle:
		return particle.Max != 0 && m.wildcardMatches(particle, name)
	case *Group:
		if particle.Max == 0 {
			return false
		}
		switch particle.Kind {
		case SequenceGroup:
			for _, sub := range particle.Particles {
				if m.canStart(sub, name) {
					return true
				}
				if !sub.IsEmptiable() {
					return false
				}
			}
			return false
		default:
			for _, sub := range particle.Particles {
				if m.canStart(sub, name) {
					return true
				}
			}
			return false
		}
	}
	return false
}

// expectedNames lists the qualified names a particle would accept as its
// next child, for "tag expected" diagnostics.
func expectedNames(p Particle) []QName {
	switch particle := p.(type) {
	case *ElementParticle:
		return []QName{particle.Name}
	case *WildcardParticle:
		return []QName{{Local: "*"}}
	case *Group:
		var names []QName
		for _, sub := range particle.Particles {
			names = append(names, expectedNames(sub)...)
			if particle.Kind == SequenceGroup && !sub.IsEmptiable() {
				break
			}
		}
		return names
	}
	return nil
}
