package safety

import (
	"regexp"
	"strings"
)

const (
	ReasonBadWord         = "bad_word"
	ReasonInjectionPhrase = "injection_phrase"
)

// Tokens are runs of ASCII letters, digits and the accented letters used in Spanish.
// Other scripts split tokens; see DESIGN.md before widening this.
var tokenPattern = regexp.MustCompile(`[a-z0-9áéíóúñ]+`)

// Verdict is the outcome of checking one input.
type Verdict struct {
	Safe   bool
	Reason string // ReasonBadWord or ReasonInjectionPhrase when !Safe
	Match  string // the offending word or phrase
}

// Filter decides whether user input may be forwarded to the model.
// It is immutable and safe to share.
type Filter struct {
	words   map[string]struct{}
	phrases []string
}

func NewFilter(lists *Lists) *Filter {
	if lists == nil {
		lists = DefaultLists()
	}
	return &Filter{
		words:   lists.Words,
		phrases: lists.Phrases,
	}
}

// ContainsBadWord reports the first token of text that is a bad word.
// Only whole tokens match, so "shell" does not trip "hell".
func (f *Filter) ContainsBadWord(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, ok := f.words[tok]; ok {
			return tok, true
		}
	}
	return "", false
}

// ContainsInjectionPhrase reports the first configured phrase found anywhere in text.
func (f *Filter) ContainsInjectionPhrase(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, p := range f.phrases {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

func (f *Filter) Check(text string) Verdict {
	if w, ok := f.ContainsBadWord(text); ok {
		return Verdict{Safe: false, Reason: ReasonBadWord, Match: w}
	}
	if p, ok := f.ContainsInjectionPhrase(text); ok {
		return Verdict{Safe: false, Reason: ReasonInjectionPhrase, Match: p}
	}
	return Verdict{Safe: true}
}

func (f *Filter) IsSafe(text string) bool {
	return f.Check(text).Safe
}
