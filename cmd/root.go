package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	inputDir  string
	outputDir string
	orgList   []string
	strategy  string
	period    string
	schemaDir string
	dbPath    string
	redisURL  string
	noArchive bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "threat-aggregator",
	Short: "Cross-organization healthcare threat-intelligence aggregation pipeline",
	Long: `threat-aggregator ingests per-organization threat-intelligence submissions,
validates them against the shared schema contract, and emits a unified dataset.

Features:
- JSON Schema validation of submission records
- Canonicalization of heterogeneous field values into a fixed vocabulary
- Cross-organization deduplication (merge, latest, or aggregate strategy)
- Period-bucketed aggregation and cross-entity relationship mapping
- SQLite run archive and optional Redis Streams run events`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.threat-aggregator.yaml)")
	rootCmd.PersistentFlags().StringVar(&inputDir, "input", "./data/input", "Input directory containing one subdirectory per organization")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "./data/output", "Output directory for the aggregated dataset")
	rootCmd.PersistentFlags().StringSliceVar(&orgList, "orgs", nil, "Organization identifiers to process, in merge order (default: all input subdirectories)")
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", "merge", "Deduplication strategy (merge, latest, aggregate)")
	rootCmd.PersistentFlags().StringVar(&period, "period", "monthly", "Aggregation period (daily, weekly, monthly, quarterly, yearly)")
	rootCmd.PersistentFlags().StringVar(&schemaDir, "schema-dir", "", "Directory of schema overrides (defaults to embedded schemas)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./data/threat-aggregator.db", "SQLite run-archive path")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis", "", "Redis URL for run event publication (empty disables)")
	rootCmd.PersistentFlags().BoolVar(&noArchive, "no-archive", false, "Disable the SQLite run archive")

	// Bind flags to viper
	viper.BindPFlag("input.dir", rootCmd.PersistentFlags().Lookup("input"))
	viper.BindPFlag("output.dir", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("orgs", rootCmd.PersistentFlags().Lookup("orgs"))
	viper.BindPFlag("dedup.strategy", rootCmd.PersistentFlags().Lookup("strategy"))
	viper.BindPFlag("aggregation.period", rootCmd.PersistentFlags().Lookup("period"))
	viper.BindPFlag("schema.dir", rootCmd.PersistentFlags().Lookup("schema-dir"))
	viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("redis.url", rootCmd.PersistentFlags().Lookup("redis"))
	viper.BindPFlag("archive.disabled", rootCmd.PersistentFlags().Lookup("no-archive"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".threat-aggregator" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".threat-aggregator")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Set defaults
	viper.SetDefault("input.dir", "./data/input")
	viper.SetDefault("output.dir", "./data/output")
	viper.SetDefault("dedup.strategy", "merge")
	viper.SetDefault("aggregation.period", "monthly")
	viper.SetDefault("database.path", "./data/threat-aggregator.db")
	viper.SetDefault("redis.url", "")
}

// GetConfig returns the current configuration values
func GetConfig() Config {
	return Config{
		Input: DirConfig{
			Dir: viper.GetString("input.dir"),
		},
		Output: DirConfig{
			Dir: viper.GetString("output.dir"),
		},
		Orgs: viper.GetStringSlice("orgs"),
		Dedup: DedupConfig{
			Strategy: viper.GetString("dedup.strategy"),
		},
		Aggregation: AggregationConfig{
			Period: viper.GetString("aggregation.period"),
		},
		Schema: SchemaConfig{
			Dir: viper.GetString("schema.dir"),
		},
		Database: DatabaseConfig{
			Path:     viper.GetString("database.path"),
			Disabled: viper.GetBool("archive.disabled"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("redis.url"),
		},
	}
}

// Config represents the application configuration
type Config struct {
	Input       DirConfig         `mapstructure:"input"`
	Output      DirConfig         `mapstructure:"output"`
	Orgs        []string          `mapstructure:"orgs"`
	Dedup       DedupConfig       `mapstructure:"dedup"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Schema      SchemaConfig      `mapstructure:"schema"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
}

type DirConfig struct {
	Dir string `mapstructure:"dir"`
}

type DedupConfig struct {
	Strategy string `mapstructure:"strategy"`
}

type AggregationConfig struct {
	Period string `mapstructure:"period"`
}

type SchemaConfig struct {
	Dir string `mapstructure:"dir"`
}

type DatabaseConfig struct {
	Path     string `mapstructure:"path"`
	Disabled bool   `mapstructure:"disabled"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// resolveOrgs returns the configured org list, or every subdirectory of the
// input dir (sorted) when none is configured.
func resolveOrgs(cfg Config) ([]string, error) {
	if len(cfg.Orgs) > 0 {
		return cfg.Orgs, nil
	}
	entries, err := os.ReadDir(cfg.Input.Dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var orgs []string
	for _, e := range entries {
		if e.IsDir() {
			orgs = append(orgs, e.Name())
		}
	}
	if len(orgs) == 0 {
		return nil, fmt.Errorf("no organization directories found under %s", cfg.Input.Dir)
	}
	return orgs, nil
}
