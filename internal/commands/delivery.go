package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/cache"
	"github.com/devpulse/devpulse/internal/calculator"
	"github.com/devpulse/devpulse/internal/output"
	"github.com/devpulse/devpulse/internal/report"
	"github.com/devpulse/devpulse/internal/sources/github"
	"github.com/devpulse/devpulse/internal/sources/jira"
	"github.com/devpulse/devpulse/internal/types"
)

func NewDeliveryCommand() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "delivery",
		Short: "Lead time, cycle time and review metrics from PRs and issues",
		Long: `Fetches pull requests and issue tracker tickets for the analysis window
(cached per month), matches PRs to tickets by the leading ticket key in the
PR title, and reports lead time, cycle time, bug resolution time and review
activity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, months, err := flags.load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateDelivery(); err != nil {
				return err
			}
			ctx := cmd.Context()

			prStore := cache.New(flags.dataDir, "pull-requests")
			issueStore := cache.New(flags.dataDir, "issues")
			if flags.refetch {
				if err := dropMonths(prStore, months); err != nil {
					return err
				}
				if err := dropMonths(issueStore, months); err != nil {
					return err
				}
			}

			gh := github.NewClient(github.Config{
				BaseURL:      cfg.GitHub.BaseURL,
				Token:        cfg.GitHub.Token,
				Owner:        cfg.GitHub.Owner,
				Repositories: cfg.GitHub.Repositories,
				PageSize:     cfg.GitHub.PageSize,
			}, clientConfig(cfg))
			if err := cache.Ensure(ctx, prStore, months, gh.FetchMonthPullRequests); err != nil {
				return err
			}

			jc := jira.NewClient(jira.Config{
				BaseURL:            cfg.Jira.BaseURL,
				Email:              cfg.Jira.Email,
				APIToken:           cfg.Jira.APIToken,
				ProjectKey:         cfg.Jira.ProjectKey,
				PageSize:           cfg.Jira.PageSize,
				InProgressStatuses: cfg.Jira.InProgressStatuses,
				DoneStatuses:       cfg.Jira.DoneStatuses,
			}, clientConfig(cfg))
			if err := cache.Ensure(ctx, issueStore, months, jc.FetchMonthIssues); err != nil {
				return err
			}

			prMonths, err := cache.LoadRange[types.PullRequest](prStore, months)
			if err != nil {
				return err
			}
			issueMonths, err := cache.LoadRange[types.Issue](issueStore, months)
			if err != nil {
				return err
			}

			var prs []types.PullRequest
			for _, m := range prMonths {
				prs = append(prs, m.Records...)
			}
			var issues []types.Issue
			for _, m := range issueMonths {
				issues = append(issues, m.Records...)
			}

			metrics := calculator.Delivery(calculator.DeliveryInput{
				PullRequests:    prs,
				Issues:          issues,
				CycleIssueTypes: cfg.Jira.IssueTypes,
				BugIssueTypes:   cfg.Jira.BugTypes,
			})
			rep := report.AssembleDelivery(months, metrics)

			switch flags.format {
			case "json":
				return printJSON(rep)
			case "csv":
				paths, err := output.WriteDeliveryCSV(flags.reportDir(cfg), rep)
				if err != nil {
					return err
				}
				printPaths(paths)
				return nil
			case "html":
				path, err := output.WriteDeliveryHTML(flags.reportDir(cfg), rep)
				if err != nil {
					return err
				}
				printPaths([]string{path})
				return nil
			default:
				fmt.Print(output.NewRenderer(flags.noColor).Delivery(rep))
				return nil
			}
		},
	}

	flags.register(cmd)
	return cmd
}
