package xsd

import (
	"slices"
	"testing"
)

func TestCompilePatternAnchoring(t *testing.T) {
	m, err := CompilePattern(`[0-9]{3}`)
	if err != nil {
		t.Fatalf("CompilePattern: %v", err)
	}
	tests := []struct {
		value string
		want  bool
	}{
		{"123", true},
		{"1234", false},
		{"x123", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := m.Search(tt.value); got != tt.want {
			t.Errorf("Search(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestCompilePatternMultiCharEscapes(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{`\i\c*`, "a-name", true},
		{`\i\c*`, "_x", true},
		{`\i\c*`, "1bad", false},
		{`\d+`, "42", true},
		{`\I`, "9", true},
		{`\C`, "x", false},
	}
	for _, tt := range tests {
		m, err := CompilePattern(tt.pattern)
		if err != nil {
			t.Fatalf("CompilePattern(%q): %v", tt.pattern, err)
		}
		if got := m.Search(tt.value); got != tt.want {
			t.Errorf("pattern %q on %q = %v, want %v", tt.pattern, tt.value, got, tt.want)
		}
	}
}

func TestCompilePatternNamedCategory(t *testing.T) {
	m, err := CompilePattern(`\p{Nd}+`)
	if err != nil {
		t.Fatalf("CompilePattern: %v", err)
	}
	if !m.Search("٠١٢") {
		t.Error("arabic-indic digits rejected by \\p{Nd}")
	}
	if m.Search("abc") {
		t.Error("letters accepted by \\p{Nd}")
	}

	// Block and script names carry the schema's Is prefix.
	m, err = CompilePattern(`\p{IsGreek}+`)
	if err != nil {
		t.Fatalf("CompilePattern: %v", err)
	}
	if !m.Search("αβγ") {
		t.Error("greek letters rejected by \\p{IsGreek}")
	}
	if m.Search("abc") {
		t.Error("latin letters accepted by \\p{IsGreek}")
	}
}

func TestCompilePatternWithResolver(t *testing.T) {
	vowels := NewUnicodeSubset([2]rune{'a', 'a'}, [2]rune{'e', 'e'}, [2]rune{'i', 'i'},
		[2]rune{'o', 'o'}, [2]rune{'u', 'u'})
	resolver := func(name string) (CodePointSet, bool) {
		if name == "Vowel" {
			return vowels, true
		}
		return nil, false
	}
	m, err := CompilePatternWith(`\p{Vowel}+`, resolver)
	if err != nil {
		t.Fatalf("CompilePatternWith: %v", err)
	}
	if !m.Search("eau") {
		t.Error("vowel run rejected")
	}
	if m.Search("xyz") {
		t.Error("consonants accepted")
	}

	m, err = CompilePatternWith(`\P{Vowel}+`, resolver)
	if err != nil {
		t.Fatalf("CompilePatternWith negated: %v", err)
	}
	if !m.Search("xyz") {
		t.Error("consonants rejected by negated class")
	}
	if m.Search("xaz") {
		t.Error("vowel accepted by negated class")
	}
}

func TestCompilePatternErrors(t *testing.T) {
	for _, pattern := range []string{`\p`, `\p{Nd`, `[a-`} {
		if _, err := CompilePattern(pattern); err == nil {
			t.Errorf("CompilePattern(%q) succeeded", pattern)
		}
	}
}

func TestUnicodeSubsetMerge(t *testing.T) {
	s := NewUnicodeSubset([2]rune{'f', 'a'}, [2]rune{'c', 'e'}, [2]rune{'x', 'z'})
	want := [][2]rune{{'a', 'f'}, {'x', 'z'}}
	if got := s.Ranges(); !slices.Equal(got, want) {
		t.Fatalf("Ranges = %v, want %v", got, want)
	}
	if s.Len() != 9 {
		t.Fatalf("Len = %d, want 9", s.Len())
	}
	for _, r := range []rune{'a', 'd', 'f', 'x', 'z'} {
		if !s.Contains(r) {
			t.Errorf("Contains(%q) = false", r)
		}
	}
	for _, r := range []rune{'g', 'w', '0'} {
		if s.Contains(r) {
			t.Errorf("Contains(%q) = true", r)
		}
	}

	var members []rune
	for r := range s.All() {
		members = append(members, r)
	}
	if len(members) != 9 || members[0] != 'a' || members[8] != 'z' {
		t.Fatalf("All yielded %q", string(members))
	}
}
