package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"amply-waveform/internal/audio"
	"amply-waveform/internal/ingest"
	"amply-waveform/internal/store"
	"amply-waveform/internal/waveform"
)

type api struct {
	ingestor  *ingest.Ingestor
	store     *store.Store
	maxUpload int64
}

type analyzeResponse struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	RequestID string             `json:"requestId"`
	Key       string             `json:"key,omitempty"`
	Cached    bool               `json:"cached,omitempty"`
	Waveform  *waveform.Document `json:"waveform,omitempty"`
}

type waveformResponse struct {
	Success  bool               `json:"success"`
	Message  string             `json:"message"`
	Key      string             `json:"key,omitempty"`
	Waveform *waveform.Document `json:"waveform,omitempty"`
}

type listResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Keys    []string `json:"keys"`
}

func (a *api) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", a.handleAnalyze)
	mux.HandleFunc("/api/waveform", a.handleWaveform)
	mux.HandleFunc("/api/waveforms", a.handleWaveforms)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return mux
}

func (a *api) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := uuid.NewString()

	if a.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		writeAnalyzeError(w, id, status, fmt.Sprintf("failed to read file: %v", err))
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !waveform.IsAudioFile(name) {
		log.Printf("server: [%s] skipping %s, not an audio file", id, name)
		writeAnalyzeError(w, id, http.StatusUnsupportedMediaType, "not an audio file: "+name)
		return
	}

	var interval float64
	if v := r.FormValue("interval"); v != "" {
		interval, err = strconv.ParseFloat(v, 64)
		if err != nil || interval <= 0 {
			writeAnalyzeError(w, id, http.StatusBadRequest, fmt.Sprintf("invalid interval %q", v))
			return
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeAnalyzeError(w, id, http.StatusBadRequest, fmt.Sprintf("failed to read file: %v", err))
		return
	}

	log.Printf("server: [%s] analyzing %s (%d bytes)", id, name, len(data))
	out, err := a.ingestor.Ingest(r.Context(), ingest.Request{
		Artist:   r.FormValue("artist"),
		Name:     name,
		Data:     data,
		Interval: interval,
	})
	if err != nil {
		log.Printf("server: [%s] %v", id, err)
		writeAnalyzeError(w, id, statusFor(err), err.Error())
		return
	}

	msg := "waveform generated"
	if out.Cached {
		msg = "waveform unchanged"
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Success:   true,
		Message:   msg,
		RequestID: id,
		Key:       out.Key,
		Cached:    out.Cached,
		Waveform:  &out.Document,
	})
}

func (a *api) handleWaveform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, waveformResponse{Message: "missing key"})
		return
	}
	doc, err := a.store.Get(key)
	if err != nil {
		writeJSON(w, statusFor(err), waveformResponse{Message: err.Error(), Key: key})
		return
	}
	writeJSON(w, http.StatusOK, waveformResponse{Success: true, Message: "ok", Key: key, Waveform: doc})
}

func (a *api) handleWaveforms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	keys, err := a.store.Keys(r.URL.Query().Get("prefix"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, listResponse{Message: err.Error(), Keys: []string{}})
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, Message: "ok", Keys: keys})
}

// statusFor maps analysis and store errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		formatErr *audio.FormatError
		emptyErr  *audio.EmptySampleError
		toolErr   *audio.DecodeToolError
	)
	switch {
	case errors.As(err, &formatErr), errors.As(err, &emptyErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &toolErr):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, waveform.ErrInvalidInterval):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func writeAnalyzeError(w http.ResponseWriter, id string, status int, msg string) {
	resp := analyzeResponse{
		Success:   false,
		Message:   msg,
		RequestID: id,
	}
	writeJSON(w, status, resp)
}
