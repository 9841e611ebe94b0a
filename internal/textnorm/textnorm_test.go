package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation to space", "Hello, World!", "hello world"},
		{"collapse runs", "a   b\t\tc", "a b c"},
		{"trim edges", "  padded  ", "padded"},
		{"underscore kept", "snake_case stays", "snake_case stays"},
		{"digits kept", "track 42", "track 42"},
		{"cjk kept", "你好，世界", "你好 世界"},
		{"apostrophe dropped", "don't stop", "don t stop"},
		{"empty", "", ""},
		{"only punctuation", "?!...", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Hello, World!", "  a  b  ", "你好，世界", "mixed: CASE_and 123!"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("  ?! "))
	assert.Equal(t, 1, WordCount("hello"))
	assert.Equal(t, 3, WordCount("one, two... three"))
}

func TestValidateQuality(t *testing.T) {
	ok, n := ValidateQuality("one two three", "", 3)
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	ok, n = ValidateQuality("one two", "", 3)
	assert.False(t, ok)
	assert.Equal(t, 2, n)

	// normalized form wins when present
	ok, n = ValidateQuality("ignored raw text here", "just two", 3)
	assert.False(t, ok)
	assert.Equal(t, 2, n)

	ok, _ = ValidateQuality("", "", 1)
	assert.False(t, ok)
}
