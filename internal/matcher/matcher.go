// Package matcher maps spoken transcripts onto multiple-choice options.
package matcher

import (
	"strings"

	"github.com/gokatarajesh/quizwhiz/internal/quiz"
)

var numeralWords = map[string]string{
	"zero":  "0",
	"one":   "1",
	"two":   "2",
	"three": "3",
	"four":  "4",
	"five":  "5",
	"six":   "6",
	"seven": "7",
	"eight": "8",
	"nine":  "9",
	"ten":   "10",
}

var punctuation = strings.NewReplacer(
	".", "", ",", "", "!", "", "?", "", ";", "", ":", "", `"`, "", "'", "",
)

// Normalize trims, lowercases and strips sentence punctuation.
func Normalize(s string) string {
	return strings.TrimSpace(punctuation.Replace(strings.ToLower(strings.TrimSpace(s))))
}

// Digitize replaces a single spelled-out numeral (zero to ten) with its digits.
// Anything else is returned unchanged.
func Digitize(normalized string) string {
	if !singleToken(normalized) {
		return normalized
	}
	if digits, ok := numeralWords[normalized]; ok {
		return digits
	}
	return normalized
}

// Match returns the option the transcript most plausibly refers to.
func Match(transcript string, options []quiz.Option) (quiz.Option, bool) {
	normalized := Normalize(transcript)
	if normalized == "" || len(options) == 0 {
		return quiz.Option{}, false
	}

	candidates := []string{Digitize(normalized)}
	if candidates[0] != normalized {
		candidates = append(candidates, normalized)
	}

	for _, candidate := range candidates {
		if opt, ok := matchCandidate(candidate, options); ok {
			return opt, true
		}
	}
	return quiz.Option{}, false
}

func matchCandidate(candidate string, options []quiz.Option) (quiz.Option, bool) {
	for _, opt := range options {
		if Normalize(opt.Text) == candidate {
			return opt, true
		}
	}
	if !singleToken(candidate) {
		return quiz.Option{}, false
	}
	for _, opt := range options {
		if hasTokenPrefix(Normalize(opt.Text), candidate) {
			return opt, true
		}
	}
	return quiz.Option{}, false
}

// hasTokenPrefix reports whether text starts with token as a whole word,
// so "6" matches "6 apples" but not "60 apples".
func hasTokenPrefix(text, token string) bool {
	if !strings.HasPrefix(text, token) {
		return false
	}
	if len(text) == len(token) {
		return true
	}
	return !isWordByte(text[len(token)])
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

func singleToken(s string) bool {
	return s != "" && len(strings.Fields(s)) == 1
}
