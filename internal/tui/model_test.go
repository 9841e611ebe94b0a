package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"subvec/internal/domain"
)

func TestHighlightMatches(t *testing.T) {
	out := highlightMatches("the quick brown fox", "quick fox")
	assert.Contains(t, out, "quick")
	assert.Contains(t, out, "fox")

	// no query means no markup
	assert.Equal(t, "plain text", highlightMatches("plain text", ""))
	assert.Equal(t, "", highlightMatches("", "query"))
}

func TestHighlightMatchesCaseInsensitive(t *testing.T) {
	out := highlightMatches("Hello World", "hello")
	assert.Contains(t, out, "Hello")
}

func TestEpisodeSuffix(t *testing.T) {
	// payloads decoded from JSON carry float64 numbers
	assert.Equal(t, " e2", episodeSuffix(map[string]any{"episode": float64(2)}))
	assert.Equal(t, " e2", episodeSuffix(map[string]any{"episode": 2}))
	assert.Equal(t, "", episodeSuffix(map[string]any{}))
	assert.Equal(t, "", episodeSuffix(map[string]any{"episode": "two"}))
}

func TestRenderCurrentResult(t *testing.T) {
	m := Model{
		results: []domain.SearchResult{{
			ID:    domain.NumericKey(1),
			Score: 0.875,
			Payload: map[string]any{
				"video_id": "show",
				"episode":  float64(3),
				"text":     "a memorable line",
			},
		}},
		lastQuery: "memorable",
	}
	out := m.renderCurrentResult()
	assert.Contains(t, out, "Result 1/1")
	assert.Contains(t, out, "0.875")
	assert.Contains(t, out, "show")
	assert.Contains(t, out, "e3")
	assert.True(t, strings.Contains(out, "memorable"))
}

func TestRenderNoResults(t *testing.T) {
	m := Model{}
	assert.Equal(t, "No results yet.", m.renderCurrentResult())
}

func TestToTokenSet(t *testing.T) {
	set := toTokenSet("The quick, the dead")
	assert.Len(t, set, 3)
	_, ok := set["quick"]
	assert.True(t, ok)
}
