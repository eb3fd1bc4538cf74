package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the input tree and rerun the pipeline when submissions change",
	Long: `Watch each organization's input directory and rerun the full aggregation
pipeline when submission files are created or modified. Changes are debounced
so a batch of file drops triggers a single rerun.

Example:
  threat-aggregator watch --input ./data/input --debounce 5s`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 3*time.Second, "Quiet period before rerunning after a change")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	logger := log.New(os.Stderr, "[watch] ", log.LstdFlags)

	p, cleanup, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// Initial pass before watching.
	if _, err := p.Run(ctx); err != nil {
		logger.Printf("initial run failed: %v", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer w.Close()

	orgs, err := resolveOrgs(cfg)
	if err != nil {
		return err
	}
	for _, org := range orgs {
		dir := filepath.Join(cfg.Input.Dir, org)
		if err := w.Add(dir); err != nil {
			logger.Printf("watch add %s: %v", dir, err)
		}
	}

	logger.Printf("Watching %d organization directories under %s", len(orgs), cfg.Input.Dir)

	var pending bool
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			logger.Printf("Watch stopping")
			return ctx.Err()
		case ev := <-w.Events:
			if !strings.HasSuffix(strings.ToLower(ev.Name), ".json") {
				continue
			}
			if (ev.Op&fsnotify.Create) == 0 && (ev.Op&fsnotify.Write) == 0 {
				continue
			}
			// Debounce: restart the quiet-period timer on every change.
			if pending {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			pending = true
			timer.Reset(watchDebounce)
		case err := <-w.Errors:
			if err != nil {
				logger.Printf("watch error: %v", err)
			}
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			logger.Printf("Change detected, rerunning pipeline")
			if _, err := p.Run(ctx); err != nil && err != context.Canceled {
				logger.Printf("rerun failed: %v", err)
			}
		}
	}
}
