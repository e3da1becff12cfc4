package waveform

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"amply-waveform/internal/loudness"
)

// Document is the persisted JSON form of a Result.
type Document struct {
	Title           string          `json:"title"`
	Duration        float64         `json:"duration"`
	SampleRate      int             `json:"sampleRate"`
	Channels        int             `json:"channels"`
	BitDepth        int             `json:"bitDepth"`
	AnalysisMethod  Method          `json:"analysisMethod"`
	Timestamp       string          `json:"timestamp"`
	IntervalSeconds float64         `json:"intervalSeconds"`
	SourceFile      string          `json:"sourceFile,omitempty"`
	Stats           *loudness.Stats `json:"stats,omitempty"`
	Data            []float64       `json:"data"`
}

// NewDocument wraps r for persistence. Duration is len(samples) * interval.
func NewDocument(title, sourceFile string, r *Result) Document {
	return Document{
		Title:           title,
		Duration:        float64(len(r.Samples)) * r.Interval,
		SampleRate:      r.SampleRate,
		Channels:        r.Channels,
		BitDepth:        r.BitDepth,
		AnalysisMethod:  r.Method,
		Timestamp:       r.Timestamp.UTC().Format(time.RFC3339),
		IntervalSeconds: r.Interval,
		SourceFile:      sourceFile,
		Stats:           r.Stats,
		Data:            r.Samples,
	}
}

var audioSuffix = regexp.MustCompile(`(?i)\.(wav|mp3)$`)

// Title prefers the title tag embedded in data, then the base name of name
// without a .wav or .mp3 suffix.
func Title(name string, data []byte) string {
	if m, err := tag.ReadFrom(bytes.NewReader(data)); err == nil {
		if t := strings.TrimSpace(m.Title()); t != "" {
			return t
		}
	}
	return audioSuffix.ReplaceAllString(filepath.Base(name), "")
}

// Key is the storage key of a waveform document: <artist>/<title>.waveform.json,
// or <title>.waveform.json when artist is empty.
func Key(artist, title string) string {
	return KeyIn(artist, "", title)
}

// KeyIn is Key with the document placed below dir, a slash-separated relative
// folder. Slashes inside artist and title are replaced so neither adds a level.
func KeyIn(artist, dir, title string) string {
	var parts []string
	if artist != "" {
		parts = append(parts, keyPart(artist))
	}
	for _, seg := range strings.Split(dir, "/") {
		if seg != "" && seg != "." {
			parts = append(parts, seg)
		}
	}
	parts = append(parts, keyPart(title)+".waveform.json")
	return strings.Join(parts, "/")
}

func keyPart(s string) string {
	return strings.ReplaceAll(s, "/", "_")
}
