package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilename(t *testing.T) {
	cases := []struct {
		in      string
		videoID string
		episode int
	}{
		{"show_01.srt", "show", 1},
		{"show_12.srt", "show", 12},
		{"my_show_3.srt", "my_show", 3},
		{"show.srt", "show", 1},
		{"show_abc.srt", "show_abc", 1},
		{"show_1_2.srt", "show_1", 2},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			videoID, episode := ParseFilename(tc.in)
			assert.Equal(t, tc.videoID, videoID)
			assert.Equal(t, tc.episode, episode)
		})
	}
}

const sampleSRT = `1
00:00:01,000 --> 00:00:02,000
Hello there!

2
00:00:03,500 --> 00:00:04,250
Second line,
continued here.
`

func TestParseSRT(t *testing.T) {
	entries := ParseSRT(sampleSRT, "show", 1)
	require.Len(t, entries, 2)

	assert.Equal(t, "show_1_1", entries[0].ID)
	assert.Equal(t, "show", entries[0].VideoID)
	assert.Equal(t, 1, entries[0].Episode)
	assert.Equal(t, 1, entries[0].Sequence)
	assert.Equal(t, 1000, entries[0].StartMs)
	assert.Equal(t, 2000, entries[0].EndMs)
	assert.Equal(t, "Hello there!", entries[0].Text)
	assert.Equal(t, "hello there", entries[0].NormalizedText)

	assert.Equal(t, "show_1_2", entries[1].ID)
	assert.Equal(t, 3500, entries[1].StartMs)
	assert.Equal(t, 4250, entries[1].EndMs)
	assert.Equal(t, "Second line, continued here.", entries[1].Text)
}

func TestParseSRTNoTrailingBlank(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,000\nlast block flushes"
	entries := ParseSRT(content, "show", 1)
	require.Len(t, entries, 1)
	assert.Equal(t, "last block flushes", entries[0].Text)
}

func TestParseSRTDiscardsIncompleteBlocks(t *testing.T) {
	content := `1
missing timing line here

2
00:00:03,000 --> 00:00:04,000
kept

3
00:00:05,000 --> 00:00:06,000

4
00:00:07,000 --> 00:00:08,000
also kept
`
	entries := ParseSRT(content, "show", 1)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Sequence)
	assert.Equal(t, 4, entries[1].Sequence)
}

func TestParseSRTCRLF(t *testing.T) {
	content := "1\r\n00:00:01,000 --> 00:00:02,000\r\nwindows line endings\r\n\r\n"
	entries := ParseSRT(content, "show", 1)
	require.Len(t, entries, 1)
	assert.Equal(t, "windows line endings", entries[0].Text)
}

func TestParseSRTEmpty(t *testing.T) {
	assert.Empty(t, ParseSRT("", "show", 1))
	assert.Empty(t, ParseSRT("\n\n\n", "show", 1))
}
