package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"amply-waveform/internal/config"
	"amply-waveform/internal/ingest"
	"amply-waveform/internal/store"
)

func main() {
	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("server: %v", err)
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("server: %v", err)
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("server: %v", err)
	}
	defer st.Close()

	a := &api{
		ingestor:  ingest.New(cfg.Analyzer(), st),
		store:     st,
		maxUpload: cfg.MaxUpload,
	}

	log.Printf("server: %s analysis, %s transcoder, store %s", cfg.Method, cfg.Transcoder, cfg.DataDir)
	log.Printf("server: listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, a.routes()); err != nil {
		log.Printf("server: %v", err)
		st.Close()
		os.Exit(1)
	}
}
