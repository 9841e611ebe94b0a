package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// SubtitleEntry is one parsed subtitle block. Immutable once built.
type SubtitleEntry struct {
	ID             string
	VideoID        string
	Episode        int
	Sequence       int
	StartMs        int
	EndMs          int
	Text           string
	NormalizedText string
}

// Payload returns the point payload stored alongside the entry's vector.
func (e SubtitleEntry) Payload() map[string]any {
	return map[string]any{
		"video_id":        e.VideoID,
		"episode":         e.Episode,
		"sequence":        e.Sequence,
		"start_ms":        e.StartMs,
		"end_ms":          e.EndMs,
		"text":            e.Text,
		"normalized_text": e.NormalizedText,
	}
}

// PointKey is an identifier accepted by the vector store: an unsigned
// integer or a canonical UUID string. It marshals to JSON as a number or
// a string accordingly.
type PointKey struct {
	num     uint64
	str     string
	numeric bool
}

// NumericKey builds an integer point key.
func NumericKey(n uint64) PointKey { return PointKey{num: n, numeric: true} }

// StringKey builds a UUID-string point key.
func StringKey(s string) PointKey { return PointKey{str: s} }

// IsNumeric reports whether the key is the integer form.
func (k PointKey) IsNumeric() bool { return k.numeric }

// Uint64 returns the integer form; zero for string keys.
func (k PointKey) Uint64() uint64 { return k.num }

func (k PointKey) String() string {
	if k.numeric {
		return strconv.FormatUint(k.num, 10)
	}
	return k.str
}

func (k PointKey) MarshalJSON() ([]byte, error) {
	if k.numeric {
		return []byte(strconv.FormatUint(k.num, 10)), nil
	}
	return json.Marshal(k.str)
}

func (k *PointKey) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		*k = NumericKey(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("point key is neither integer nor string: %s", data)
	}
	*k = StringKey(s)
	return nil
}

// Point is one stored (key, vector, payload) record.
type Point struct {
	ID      PointKey       `json:"id"`
	Vector  []float64      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// SearchResult is a matching point with its similarity score.
type SearchResult struct {
	ID      PointKey
	Score   float64
	Payload map[string]any
}

// Filter selects points whose payload field matches any of the values.
type Filter struct {
	Key string
	Any []string
}

// JobStatus is a snapshot of the ingestion job.
type JobStatus struct {
	Running  bool   `json:"running"`
	Total    int    `json:"total"`
	Upserted int    `json:"upserted"`
	Errors   int    `json:"errors"`
	Dir      string `json:"dir"`
}
