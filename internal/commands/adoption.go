package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/cache"
	"github.com/devpulse/devpulse/internal/calculator"
	"github.com/devpulse/devpulse/internal/output"
	"github.com/devpulse/devpulse/internal/report"
	"github.com/devpulse/devpulse/internal/sources/billing"
	"github.com/devpulse/devpulse/internal/types"
)

func NewAdoptionCommand() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "adoption",
		Short: "Team adoption: active, inactive and never-used seats",
		Long: `Joins the live team roster with cached usage events and reports who is
using the tool, who has gone quiet (30/60/90 days) and who never started.
The roster is always fetched live; only usage events are cached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, months, err := flags.load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateBilling(); err != nil {
				return err
			}
			ctx := cmd.Context()

			store := cache.New(flags.dataDir, "usage-events")
			if flags.refetch {
				if err := dropMonths(store, months); err != nil {
					return err
				}
			}

			bc := billing.NewClient(billing.Config{
				BaseURL:  cfg.Billing.BaseURL,
				APIKey:   cfg.Billing.APIKey,
				PageSize: cfg.Billing.PageSize,
			}, clientConfig(cfg))
			if err := cache.Ensure(ctx, store, months, bc.FetchMonthUsageEvents); err != nil {
				return err
			}
			members, err := bc.FetchTeamMembers(ctx)
			if err != nil {
				return err
			}

			loaded, err := cache.LoadRange[types.UsageEvent](store, months)
			if err != nil {
				return err
			}
			monthly := make([]calculator.MonthlyEvents, 0, len(loaded))
			for _, m := range loaded {
				monthly = append(monthly, calculator.MonthlyEvents{Month: m.Month, Events: m.Records})
			}

			metrics := calculator.Adoption(members, monthly, time.Now(), cfg.Analysis.TopN, cfg.Analysis.ActiveDormancy)
			rep := report.AssembleAdoption(months, metrics)

			switch flags.format {
			case "json":
				return printJSON(rep)
			case "csv":
				paths, err := output.WriteAdoptionCSV(flags.reportDir(cfg), rep)
				if err != nil {
					return err
				}
				printPaths(paths)
				return nil
			case "html":
				path, err := output.WriteAdoptionHTML(flags.reportDir(cfg), rep)
				if err != nil {
					return err
				}
				printPaths([]string{path})
				return nil
			default:
				fmt.Print(output.NewRenderer(flags.noColor).Adoption(rep))
				return nil
			}
		},
	}

	flags.register(cmd)
	return cmd
}
