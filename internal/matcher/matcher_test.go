package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quizwhiz/internal/quiz"
)

func opts(texts ...string) []quiz.Option {
	out := make([]quiz.Option, 0, len(texts))
	for i, text := range texts {
		out = append(out, quiz.Option{ID: string(rune('a' + i)), Text: text})
	}
	return out
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "paris", Normalize("  Paris! "))
	assert.Equal(t, "its a trap", Normalize(`"It's a trap."`))
	assert.Equal(t, "", Normalize("?!"))
}

func TestDigitize(t *testing.T) {
	assert.Equal(t, "6", Digitize("six"))
	assert.Equal(t, "10", Digitize("ten"))
	assert.Equal(t, "eleven", Digitize("eleven"))
	assert.Equal(t, "six apples", Digitize("six apples"))
}

func TestMatch(t *testing.T) {
	cases := []struct {
		name       string
		transcript string
		options    []quiz.Option
		wantText   string
		wantOK     bool
	}{
		{"exact case and punctuation insensitive", "paris.", opts("London", "Paris"), "Paris", true},
		{"multi word exact", "Mount Everest", opts("K2", "Mount Everest!"), "Mount Everest!", true},
		{"numeral word to digit", "six", opts("4", "6"), "6", true},
		{"numeral word to digit prefix", "Six", opts("60 apples", "6 apples"), "6 apples", true},
		{"digit does not match longer number", "6", opts("60 apples"), "", false},
		{"prefix on word boundary", "blue", opts("red whale", "blue whale"), "blue whale", true},
		{"prefix needs boundary", "blue", opts("blueberry"), "", false},
		{"original transcript retried after digitized", "one", opts("Zero", "One"), "One", true},
		{"multi word has no prefix fallback", "the blue", opts("the blue whale"), "", false},
		{"no options", "paris", nil, "", false},
		{"empty transcript", "   ", opts("a"), "", false},
		{"no match", "berlin", opts("London", "Paris"), "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Match(tc.transcript, tc.options)
			require.Equal(t, tc.wantOK, ok)
			if ok {
				assert.Equal(t, tc.wantText, got.Text)
			}
		})
	}
}

func TestMatchPrefersDigitizedExactOverPrefix(t *testing.T) {
	options := opts("6 legs", "6")
	got, ok := Match("six", options)
	require.True(t, ok)
	assert.Equal(t, "6", got.Text)
}
