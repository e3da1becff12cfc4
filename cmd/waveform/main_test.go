package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"amply-waveform/internal/ingest"
	"amply-waveform/internal/store"
	"amply-waveform/internal/waveform"
)

// silentWAV is a valid 16-bit mono 8 kHz WAV holding one second of silence.
func silentWAV() []byte {
	hdr := []byte("RIFF\x00\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x40\x1f\x00\x00\x80\x3e\x00\x00\x02\x00\x10\x00data\x80\x3e\x00\x00")
	return append(hdr, make([]byte, 16000)...)
}

func writeFiles(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCollectAudio(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string][]byte{
		"b.wav":         nil,
		"a/c.MP3":       nil,
		"a/readme.txt":  nil,
		"d.ogg":         nil,
		"e.waveform.js": nil,
	})
	got, err := collectAudio(root)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "a/c.MP3"),
		filepath.Join(root, "b.wav"),
		filepath.Join(root, "d.ogg"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRunBatch(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string][]byte{
		"one.wav": silentWAV(),
		"two.wav": silentWAV(),
	})
	st, err := store.Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	in := ingest.New(waveform.NewAnalyzer(&waveform.LUFSEstimator{}, 0.5), st)
	if err := runBatch(context.Background(), in, root, "band", 2); err != nil {
		t.Fatalf("runBatch: %v", err)
	}
	keys, _ := st.Keys("band/")
	if !reflect.DeepEqual(keys, []string{"band/one.waveform.json", "band/two.waveform.json"}) {
		t.Errorf("stored keys = %v", keys)
	}
}

func TestRunBatchReportsFailures(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string][]byte{
		"good.wav": silentWAV(),
		"bad.wav":  []byte("garbage"),
	})
	in := ingest.New(waveform.NewAnalyzer(&waveform.LUFSEstimator{}, 0.5), nil)
	err := runBatch(context.Background(), in, root, "", 2)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files failed") {
		t.Errorf("got %v", err)
	}

	if err := runBatch(context.Background(), in, t.TempDir(), "", 2); err == nil {
		t.Error("expected error for a directory without audio")
	}
}

func TestRelDir(t *testing.T) {
	root := filepath.Join("music", "lib")
	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(root, "song.wav"), ""},
		{filepath.Join(root, "a", "song.wav"), "a"},
		{filepath.Join(root, "a", "b", "song.wav"), "a/b"},
	}
	for _, tt := range tests {
		if got := relDir(root, tt.path); got != tt.want {
			t.Errorf("relDir(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRunBatchSameNameInSubfolders(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string][]byte{
		"song.wav":     silentWAV(),
		"a/song.wav":   silentWAV(),
		"b/c/song.wav": silentWAV(),
	})
	st, err := store.Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	in := ingest.New(waveform.NewAnalyzer(&waveform.LUFSEstimator{}, 0.5), st)
	if err := runBatch(context.Background(), in, root, "band", 3); err != nil {
		t.Fatalf("runBatch: %v", err)
	}
	keys, _ := st.Keys("")
	want := []string{"band/a/song.waveform.json", "band/b/c/song.waveform.json", "band/song.waveform.json"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("stored keys = %v, want %v", keys, want)
	}
}
