package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"amply-waveform/internal/config"
	"amply-waveform/internal/ingest"
	"amply-waveform/internal/store"
	"amply-waveform/internal/watch"
	"amply-waveform/internal/waveform"
)

func main() {
	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal(err)
	}
	cfg.RegisterFlags(flag.CommandLine)
	dir := flag.String("dir", "", "analyze every audio file under this directory")
	watchDir := flag.String("watch", "", "analyze audio files as they appear in this directory")
	persist := flag.Bool("store", false, "store documents under -data")
	artist := flag.String("artist", "", "artist used in storage keys")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: waveform [flags] file...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if *dir == "" && *watchDir == "" && flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var st *store.Store
	if *persist {
		var err error
		if st, err = store.Open(cfg.DataDir); err != nil {
			log.Fatal(err)
		}
		defer st.Close()
	}
	in := ingest.New(cfg.Analyzer(), st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case *watchDir != "":
		err = watch.Run(ctx, *watchDir, func(ctx context.Context, path string) {
			out, err := in.IngestFile(ctx, *artist, path)
			if err != nil {
				log.Printf("watch: %v", err)
				return
			}
			log.Printf("watch: %s -> %s (%d bars)", path, out.Key, len(out.Document.Data))
		})
	case *dir != "":
		err = runBatch(ctx, in, *dir, *artist, cfg.Workers)
	default:
		err = runFiles(ctx, in, *artist, flag.Args())
	}
	if err != nil {
		log.Print(err)
		stop()
		if st != nil {
			st.Close()
		}
		os.Exit(1)
	}
}

// runFiles prints the document of each file as indented JSON.
func runFiles(ctx context.Context, in *ingest.Ingestor, artist string, paths []string) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, path := range paths {
		out, err := in.IngestFile(ctx, artist, path)
		if err != nil {
			return err
		}
		if err := enc.Encode(out.Document); err != nil {
			return err
		}
	}
	return nil
}

func collectAudio(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && waveform.IsAudioFile(path) {
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

// relDir is the slash-separated folder of path below root, empty at the top level.
// It keeps files of the same name in different folders on different keys.
func relDir(root, path string) string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// runBatch analyzes every audio file under root on a pool of workers and prints
// one summary line per file once all are done.
func runBatch(ctx context.Context, in *ingest.Ingestor, root, artist string, workers int) error {
	files, err := collectAudio(root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no audio files under %s", root)
	}

	p := mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
	bar := p.AddBar(int64(len(files)),
		mpb.PrependDecorators(
			decor.Name("Analyzing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)

	type result struct {
		path string
		out  *ingest.Outcome
		err  error
	}
	jobs := make(chan string, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if ctx.Err() != nil {
					results <- result{path: path, err: ctx.Err()}
					continue
				}
				out, err := in.IngestFileIn(ctx, artist, relDir(root, path), path)
				results <- result{path: path, out: out, err: err}
			}
		}()
	}
	for _, f := range files {
		jobs <- f
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var done []result
	failed := 0
	for r := range results {
		bar.Increment()
		if r.err != nil {
			failed++
		}
		done = append(done, r)
	}
	p.Wait()

	sort.Slice(done, func(i, j int) bool { return done[i].path < done[j].path })
	for _, r := range done {
		if r.err != nil {
			fmt.Printf("FAIL  %s: %v\n", r.path, r.err)
			continue
		}
		doc := r.out.Document
		cached := ""
		if r.out.Cached {
			cached = " (cached)"
		}
		fmt.Printf("ok    %s -> %s: %d bars, %.1fs, %s%s\n",
			r.path, r.out.Key, len(doc.Data), doc.Duration, doc.AnalysisMethod, cached)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return ctx.Err()
}
