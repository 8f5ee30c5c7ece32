package xsd

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternMatcher is the compiled matcher consumed by the pattern facet. The
// translation of the schema regex dialect into a matcher is an external
// collaborator; CompilePattern is the default one, backed by Go's regexp.
type PatternMatcher interface {
	Search(text string) bool
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (m *regexMatcher) Search(text string) bool {
	return m.re.MatchString(text)
}

// compiledPatterns memoizes resolver-less compilations; the same pattern
// text recurs across types and across repeated schema builds.
var compiledPatterns = newMemoCache(func(pattern string) (PatternMatcher, error) {
	return CompilePatternWith(pattern, nil)
})

// CompilePattern translates a schema-dialect pattern into a Go regexp-backed
// matcher. Schema patterns are implicitly anchored. Compilations are
// memoized per pattern text.
func CompilePattern(pattern string) (PatternMatcher, error) {
	return compiledPatterns.get(pattern)
}

// CompilePatternWith is CompilePattern with a resolver for named character
// blocks and categories.
func CompilePatternWith(pattern string, resolver CodePointResolver) (PatternMatcher, error) {
	translated, err := translatePattern(pattern, resolver)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile("^(?:" + translated + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &regexMatcher{re: re}, nil
}

// translatePattern rewrites the schema dialect's character-class shortcuts
// into Go regexp syntax.
func translatePattern(pattern string, resolver CodePointResolver) (string, error) {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '\\' || i+1 >= len(pattern) {
			b.WriteByte(c)
			continue
		}
		i++
		switch pattern[i] {
		case 'i':
			b.WriteString(`[_:A-Za-z]`)
		case 'I':
			b.WriteString(`[^_:A-Za-z]`)
		case 'c':
			b.WriteString(`[-._:A-Za-z0-9]`)
		case 'C':
			b.WriteString(`[^-._:A-Za-z0-9]`)
		case 'p', 'P':
			neg := pattern[i] == 'P'
			if i+1 >= len(pattern) || pattern[i+1] != '{' {
				return "", fmt.Errorf("invalid pattern %q: \\p needs a braced name", pattern)
			}
			end := strings.IndexByte(pattern[i+2:], '}')
			if end < 0 {
				return "", fmt.Errorf("invalid pattern %q: unterminated \\p class", pattern)
			}
			name := pattern[i+2 : i+2+end]
			i += 2 + end
			cls, err := namedClass(name, neg, resolver)
			if err != nil {
				return "", fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			b.WriteString(cls)
		default:
			b.WriteByte('\\')
			b.WriteByte(pattern[i])
		}
	}
	return b.String(), nil
}

// namedClass renders a named block or category as a regexp character class,
// preferring the resolver's code point set over Go's own unicode classes.
func namedClass(name string, negated bool, resolver CodePointResolver) (string, error) {
	if resolver != nil {
		if set, ok := resolver(name); ok {
			var b strings.Builder
			b.WriteByte('[')
			if negated {
				b.WriteByte('^')
			}
			for _, iv := range set.Ranges() {
				if iv[0] == iv[1] {
					fmt.Fprintf(&b, `\x{%04X}`, iv[0])
				} else {
					fmt.Fprintf(&b, `\x{%04X}-\x{%04X}`, iv[0], iv[1])
				}
			}
			b.WriteByte(']')
			return b.String(), nil
		}
	}
	// Block names use the schema's Is prefix; Go drops it.
	goName := strings.TrimPrefix(name, "Is")
	p := "p"
	if negated {
		p = "P"
	}
	return fmt.Sprintf(`\%s{%s}`, p, goName), nil
}
