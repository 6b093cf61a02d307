package handlers

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reload sources reported to OnReload.
const (
	SourceFile   = "file"
	SourceSignal = "sighup"
	SourceHTTP   = "http"
)

const debounceDelay = 200 * time.Millisecond

// ReloadFunc is told about every reload attempt.
type ReloadFunc func(count int, source string, err error)

// Watch reloads the registry when the manifest changes on disk or the process
// receives SIGHUP, until ctx is cancelled.
func Watch(ctx context.Context, r *Registry, onReload ReloadFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors replace files by rename, so the directory is watched rather than the file.
	dir := filepath.Dir(r.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create plugin manifest dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	reload := func(source string) {
		n, err := r.Reload()
		if onReload != nil {
			onReload(n, source, err)
		}
	}

	target := filepath.Clean(r.Path())
	var debounce <-chan time.Time

	log.Printf("Plugins: watching %s", target)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			log.Println("Plugins: SIGHUP received")
			reload(SourceSignal)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				debounce = time.After(debounceDelay)
			}
		case <-debounce:
			debounce = nil
			reload(SourceFile)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Plugins: watcher error: %v", err)
		}
	}
}
