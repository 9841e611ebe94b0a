package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"subvec/internal/domain"
	"subvec/internal/textnorm"
)

var (
	timingRe   = regexp.MustCompile(`(\d{2}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2},\d{3})`)
	filenameRe = regexp.MustCompile(`^(.*?)(?:_(\d+))?$`)
)

// ParseFilename derives the video id and episode number from a subtitle
// filename. A trailing _<digits> suffix is the episode; without one the
// whole stem is the video id and the episode defaults to 1. Only the
// last such suffix counts: "my_show_3" is video "my_show", episode 3.
func ParseFilename(filename string) (videoID string, episode int) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	videoID = base
	episode = 1
	if m := filenameRe.FindStringSubmatch(base); m != nil {
		videoID = m[1]
		if m[2] != "" {
			if n, err := strconv.Atoi(m[2]); err == nil {
				episode = n
			}
		}
	}
	return videoID, episode
}

// parseTime converts an SRT timestamp HH:MM:SS,mmm to milliseconds.
// The caller guarantees the shape via timingRe.
func parseTime(t string) int {
	h, _ := strconv.Atoi(t[0:2])
	m, _ := strconv.Atoi(t[3:5])
	s, _ := strconv.Atoi(t[6:8])
	ms, _ := strconv.Atoi(t[9:12])
	return (h*3600+m*60+s)*1000 + ms
}

type parseState int

const (
	seekSequence parseState = iota
	seekTiming
	collectText
)

// ParseSRT turns raw subtitle file content into structured entries. One
// block is a sequence line, a timing line and one or more text lines,
// terminated by a blank line. Malformed lines are skipped and blocks
// missing any of the three pieces are discarded silently; only complete
// blocks become entries. A file not ending in a blank line still
// flushes its final block.
func ParseSRT(content, videoID string, episode int) []domain.SubtitleEntry {
	var entries []domain.SubtitleEntry

	state := seekSequence
	seq := -1
	startMs, endMs := -1, -1
	var textLines []string

	flush := func() {
		if seq >= 0 && startMs >= 0 && endMs >= 0 {
			text := strings.TrimSpace(strings.Join(textLines, " "))
			if text != "" {
				entries = append(entries, domain.SubtitleEntry{
					ID:             fmt.Sprintf("%s_%d_%d", videoID, episode, seq),
					VideoID:        videoID,
					Episode:        episode,
					Sequence:       seq,
					StartMs:        startMs,
					EndMs:          endMs,
					Text:           text,
					NormalizedText: textnorm.Normalize(text),
				})
			}
		}
		state = seekSequence
		seq, startMs, endMs = -1, -1, -1
		textLines = nil
	}

	lines := strings.Split(content, "\n")
	lines = append(lines, "") // implicit terminator for the last block
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			flush()
			continue
		}
		switch state {
		case seekSequence:
			if isDigits(line) {
				if n, err := strconv.Atoi(line); err == nil {
					seq = n
					state = seekTiming
				}
			}
		case seekTiming:
			if m := timingRe.FindStringSubmatch(line); m != nil {
				startMs = parseTime(m[1])
				endMs = parseTime(m[2])
				state = collectText
			}
		case collectText:
			textLines = append(textLines, line)
		}
	}
	return entries
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
