package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/threat-aggregator/internal/aggregate"
	"github.com/Ashfaaq98/threat-aggregator/internal/bus"
	"github.com/Ashfaaq98/threat-aggregator/internal/dedupe"
	"github.com/Ashfaaq98/threat-aggregator/internal/pipeline"
	"github.com/Ashfaaq98/threat-aggregator/internal/schema"
	"github.com/Ashfaaq98/threat-aggregator/internal/store"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the aggregation pipeline once over the input tree",
	Long: `Run one aggregation pass: read each organization's submissions, validate
and canonicalize them, deduplicate across organizations, aggregate into
reporting periods, build actor relationship mappings, and write the unified
dataset to the output directory.

Examples:
  # Aggregate all organizations under ./data/input with defaults
  threat-aggregator run

  # Explicit org order and aggregate strategy, weekly buckets
  threat-aggregator run --orgs org-a,org-b --strategy aggregate --period weekly`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	logger := log.New(os.Stderr, "[pipeline] ", log.LstdFlags)

	p, cleanup, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	fmt.Printf("Run %s completed\n", result.RunID)
	for entity, count := range result.Counts {
		fmt.Printf("  %-15s %d\n", entity, count)
	}
	fmt.Printf("  %-15s %d\n", "mappings", result.Mappings)
	if result.Stats.HasIssues() {
		fmt.Printf("Validation issues: %d errors, %d warnings (see validation-report.json)\n",
			len(result.Stats.Errors), len(result.Stats.Warnings))
	}
	fmt.Printf("Output written to %s\n", result.OutputDir)
	return nil
}

// buildPipeline assembles the pipeline and its collaborators from config.
// The returned cleanup closes the store and bus.
func buildPipeline(cfg Config, logger *log.Logger) (*pipeline.Pipeline, func(), error) {
	strategy, err := dedupe.ParseStrategy(cfg.Dedup.Strategy)
	if err != nil {
		return nil, nil, err
	}
	period, err := aggregate.ParsePeriod(cfg.Aggregation.Period)
	if err != nil {
		return nil, nil, err
	}
	orgs, err := resolveOrgs(cfg)
	if err != nil {
		return nil, nil, err
	}

	var st *store.Store
	if !cfg.Database.Disabled {
		st, err = store.NewStore(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
		}
	}

	eventBus := bus.NewBus(cfg.Redis.URL, logger)

	cleanup := func() {
		eventBus.Close()
		if st != nil {
			st.Close()
		}
	}

	p := pipeline.New(pipeline.Options{
		InputDir:  cfg.Input.Dir,
		OutputDir: cfg.Output.Dir,
		Orgs:      orgs,
		Strategy:  strategy,
		Period:    period,
		Schemas:   schema.NewProvider(cfg.Schema.Dir),
		Bus:       eventBus,
		Store:     st,
		Logger:    logger,
	})
	return p, cleanup, nil
}
