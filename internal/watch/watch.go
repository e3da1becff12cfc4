// Package watch triggers analysis for audio files appearing in a directory.
package watch

import (
	"context"
	"fmt"
	"log"

	"github.com/fsnotify/fsnotify"

	"amply-waveform/internal/waveform"
)

const queueSize = 100

// Run watches dir until ctx is done and calls handle, one file at a time, for every
// audio file created in it. Files should be moved into dir once complete, since
// handle runs as soon as the create event arrives.
func Run(ctx context.Context, dir string, handle func(ctx context.Context, path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Printf("watch: watching %s", dir)

	jobs := make(chan string, queueSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case path, ok := <-jobs:
				if !ok {
					return
				}
				handle(ctx, path)
			case <-ctx.Done():
				return
			}
		}
	}()

	errs := watcher.Errors
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				close(jobs)
				<-done
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create && waveform.IsAudioFile(event.Name) {
				select {
				case jobs <- event.Name:
				case <-ctx.Done():
				}
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("watch: watcher error: %v", err)
		case <-ctx.Done():
			<-done
			log.Printf("watch: stopped watching %s", dir)
			return nil
		}
	}
}
