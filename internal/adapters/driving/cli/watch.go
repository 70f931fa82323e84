package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/tenderlens/tenderlens-cli/internal/logger"
	"github.com/tenderlens/tenderlens-cli/internal/render"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and analyze dropped documents",
	Long: `Watches a directory and runs the extraction pipeline on every
supported document that appears in it. Reports are written next to
each input file. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// settleDelay waits for a dropped file to finish writing before
// analysis starts.
const settleDelay = 500 * time.Millisecond

func runWatch(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	cmd.Printf("Watching %s for tender documents...\n", dir)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !supportedExt(event.Name) {
				continue
			}
			// Writes arrive in bursts; let the file settle, then analyze.
			time.Sleep(settleDelay)
			if err := analyzeWatched(cmd, event.Name); err != nil {
				logger.Warn("Analysis of %s failed: %v", event.Name, err)
				cmd.PrintErrf("error: %s: %v\n", filepath.Base(event.Name), err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// analyzeWatched runs the pipeline for one dropped file.
func analyzeWatched(cmd *cobra.Command, path string) error {
	ctx := context.Background()
	doc, err := docSource.LoadText(ctx, path)
	if err != nil {
		return err
	}

	report, err := analyzer.Analyze(ctx, doc)
	if err != nil {
		return err
	}

	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".report.md"
	if err := os.WriteFile(outPath, []byte(render.Markdown(report)), 0644); err != nil {
		return err
	}

	printSummary(cmd, report, outPath)
	return nil
}

// supportedExt reports whether the file looks like an input document.
// Generated reports are excluded so a write never triggers itself.
func supportedExt(path string) bool {
	if strings.HasSuffix(path, ".report.md") {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown", ".pdf", ".docx":
		return true
	}
	return false
}
