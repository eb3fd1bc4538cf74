package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/threat-aggregator/internal/ingest"
	"github.com/Ashfaaq98/threat-aggregator/internal/pipeline"
	"github.com/Ashfaaq98/threat-aggregator/internal/schema"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate submissions without running the pipeline",
	Long: `Validate every organization's submission files against the schema contract
and print the validation report. Nothing is deduplicated, aggregated, or
written to the output directory.

Example:
  threat-aggregator validate --input ./data/input --orgs org-a`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	logger := log.New(os.Stderr, "[validate] ", log.LstdFlags)

	orgs, err := resolveOrgs(cfg)
	if err != nil {
		return err
	}

	stats, err := validateOnly(ctx, cfg, orgs, logger)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))

	if len(stats.Errors) > 0 {
		return fmt.Errorf("%d validation errors", len(stats.Errors))
	}
	return nil
}

// validateOnly runs the extract and validate stages and returns the report.
func validateOnly(ctx context.Context, cfg Config, orgs []string, logger *log.Logger) (*pipeline.Stats, error) {
	reader := ingest.NewReader(ingest.Options{Dir: cfg.Input.Dir, Logger: logger})
	provider := schema.NewProvider(cfg.Schema.Dir)

	batches := reader.ReadOrgs(ctx, orgs)
	return pipeline.ValidateBatches(batches, provider)
}
