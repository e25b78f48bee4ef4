package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/cache"
	"github.com/devpulse/devpulse/internal/calculator"
	"github.com/devpulse/devpulse/internal/output"
	"github.com/devpulse/devpulse/internal/report"
	"github.com/devpulse/devpulse/internal/sources/billing"
	"github.com/devpulse/devpulse/internal/types"
)

func NewBillingCommand() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "billing",
		Short: "AI tool spend by month, user and model",
		Long: `Fetches per-seat usage events for the analysis window (cached per
month), filters down to billable events and reports spend by month, by user
and by model, with month-over-month trends and deterministic rankings.`,
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

			loaded, err := cache.LoadRange[types.UsageEvent](store, months)
			if err != nil {
				return err
			}
			monthly := make([]calculator.MonthlyEvents, 0, len(loaded))
			for _, m := range loaded {
				monthly = append(monthly, calculator.MonthlyEvents{Month: m.Month, Events: m.Records})
			}

			metrics := calculator.Billing(monthly, cfg.Analysis.TopN)
			rep := report.AssembleBilling(months, metrics)

			switch flags.format {
			case "json":
				return printJSON(rep)
			case "csv":
				paths, err := output.WriteBillingCSV(flags.reportDir(cfg), rep)
				if err != nil {
					return err
				}
				printPaths(paths)
				return nil
			case "html":
				path, err := output.WriteBillingHTML(flags.reportDir(cfg), rep)
				if err != nil {
					return err
				}
				printPaths([]string{path})
				return nil
			default:
				fmt.Print(output.NewRenderer(flags.noColor).Billing(rep))
				return nil
			}
		},
	}

	flags.register(cmd)
	return cmd
}
