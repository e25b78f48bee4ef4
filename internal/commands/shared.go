// Package commands wires configuration, fetching, caching, aggregation and
// rendering into the devpulse CLI commands.
package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/cache"
	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/fetch"
	"github.com/devpulse/devpulse/internal/types"
)

// reportFlags are the flags every report command shares.
type reportFlags struct {
	configPath string
	envFile    string
	dataDir    string
	months     int
	refetch    bool
	format     string
	outputDir  string
	noColor    bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to the YAML settings file (default devpulse.yaml)")
	cmd.Flags().StringVar(&f.envFile, "env-file", "", "Path to a .env file with credentials")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "data", "Directory holding monthly cache artifacts")
	cmd.Flags().IntVarP(&f.months, "months", "m", 0, "Number of months to analyze, ending at the current month")
	cmd.Flags().BoolVar(&f.refetch, "refetch", false, "Delete the requested months' cache artifacts and fetch them again")
	cmd.Flags().StringVarP(&f.format, "format", "f", "table", "Output format (table, csv, html, json)")
	cmd.Flags().StringVarP(&f.outputDir, "output", "o", "", "Directory for csv/html output (default from config)")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
}

// load resolves config and the month window the command operates on.
func (f *reportFlags) load() (*config.Config, []types.Month, error) {
	cfg, err := config.Load(f.configPath, f.envFile)
	if err != nil {
		return nil, nil, err
	}
	n := f.months
	if n <= 0 {
		n = cfg.Analysis.MonthsBack
	}
	return cfg, types.MonthsBack(time.Now(), n), nil
}

func (f *reportFlags) reportDir(cfg *config.Config) string {
	if f.outputDir != "" {
		return f.outputDir
	}
	return cfg.Output.Dir
}

// clientConfig maps the fetch settings onto a throttled client config.
// Headers are filled in by each source client.
func clientConfig(cfg *config.Config) fetch.ClientConfig {
	return fetch.ClientConfig{
		Delay: time.Duration(cfg.Fetch.RequestDelaySeconds) * time.Second,
		Retry: fetch.RetryPolicy{
			MaxRetries: cfg.Fetch.MaxRetries,
			BaseDelay:  time.Second,
			MaxDelay:   time.Minute,
		},
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// dropMonths deletes the requested months from a store ahead of a refetch.
func dropMonths(store *cache.Store, months []types.Month) error {
	for _, m := range months {
		if err := store.Remove(m); err != nil {
			return err
		}
	}
	return nil
}

// printJSON renders any report as indented JSON on stdout for scripting.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printPaths(paths []string) {
	for _, p := range paths {
		fmt.Println("wrote", p)
	}
}
