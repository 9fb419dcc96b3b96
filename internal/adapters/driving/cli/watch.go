package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/citeline/internal/logger"
)

// watchDebounce coalesces the bursts of write events editors produce.
const watchDebounce = 500 * time.Millisecond

var watchExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest documents as they appear",
	Long: `Watches a directory for new or modified .txt and .md files and ingests
each one into the index. The file name is used as the source ID, so
editing a file appends its new chunks alongside the old ones.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		if err := initServices(false); err != nil {
			return err
		}
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch target %s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", dir)

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
	)

	ingestFile := func(path string) {
		mu.Lock()
		delete(timers, path)
		mu.Unlock()

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Reading %s: %v", path, err)
			return
		}
		result, err := ingestService.Ingest(ctx, filepath.Base(path), string(data), map[string]any{"path": path})
		if err != nil {
			logger.Error("Ingesting %s: %v", path, err)
			return
		}
		cmd.Printf("Ingested %s: %d chunks\n", result.SourceID, result.ChunksAdded)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !watchExtensions[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}

			path := event.Name
			mu.Lock()
			if t, exists := timers[path]; exists {
				t.Reset(watchDebounce)
			} else {
				timers[path] = time.AfterFunc(watchDebounce, func() { ingestFile(path) })
			}
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}
