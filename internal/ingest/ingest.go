// Package ingest turns an uploaded audio file into a stored waveform document.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"amply-waveform/internal/store"
	"amply-waveform/internal/waveform"
)

type Request struct {
	Artist   string
	Dir      string // slash-separated folder between artist and title in the key
	Name     string
	Data     []byte
	Interval float64 // zero selects the analyzer's interval
}

type Outcome struct {
	Key      string
	Document waveform.Document
	Cached   bool
}

// Ingestor analyzes uploads and persists the documents. Store may be nil, in which
// case documents are only returned.
type Ingestor struct {
	Analyzer *waveform.Analyzer
	Store    *store.Store
}

func New(a *waveform.Analyzer, s *store.Store) *Ingestor {
	return &Ingestor{Analyzer: a, Store: s}
}

// Ingest analyzes req and stores the resulting document. Content already stored
// under the same key with the same interval is not analyzed again.
func (in *Ingestor) Ingest(ctx context.Context, req Request) (*Outcome, error) {
	interval := req.Interval
	if interval == 0 {
		interval = in.Analyzer.Interval
	}

	title := waveform.Title(req.Name, req.Data)
	key := waveform.KeyIn(req.Artist, req.Dir, title)

	sum := store.Checksum(req.Data)
	if in.Store != nil {
		if out, ok := in.cached(key, sum, interval); ok {
			log.Printf("ingest: %s unchanged, reusing %s", req.Name, out.Key)
			return out, nil
		}
	}

	res, err := in.Analyzer.AnalyzeInterval(ctx, req.Name, req.Data, interval)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", req.Name, err)
	}

	doc := waveform.NewDocument(title, filepath.Base(req.Name), res)

	if in.Store != nil {
		if err := in.Store.Put(key, sum, doc); err != nil {
			return nil, err
		}
		log.Printf("ingest: stored %s (%d bars, %s)", key, len(doc.Data), doc.AnalysisMethod)
	}
	return &Outcome{Key: key, Document: doc}, nil
}

func (in *Ingestor) cached(key string, sum uint64, interval float64) (*Outcome, bool) {
	stored, err := in.Store.SumForKey(key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("ingest: checksum lookup failed: %v", err)
		}
		return nil, false
	}
	if stored != sum {
		return nil, false
	}
	doc, err := in.Store.Get(key)
	if err != nil || doc.IntervalSeconds != interval {
		return nil, false
	}
	return &Outcome{Key: key, Document: *doc, Cached: true}, true
}

// IngestFile reads path and ingests it under artist.
func (in *Ingestor) IngestFile(ctx context.Context, artist, path string) (*Outcome, error) {
	return in.IngestFileIn(ctx, artist, "", path)
}

// IngestFileIn is IngestFile with the document keyed below dir.
func (in *Ingestor) IngestFileIn(ctx context.Context, artist, dir, path string) (*Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return in.Ingest(ctx, Request{Artist: artist, Dir: dir, Name: path, Data: data})
}
