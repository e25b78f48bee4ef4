package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/cache"
	"github.com/devpulse/devpulse/internal/monitor"
	"github.com/devpulse/devpulse/internal/output"
)

func NewStatusCommand() *cobra.Command {
	var (
		dataDir  string
		watch    bool
		interval int
		noColor  bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the cached months per source",
		Long: `Lists every cached month artifact with its record count, fetch time and
size. With --watch, keeps a live view open that refreshes on an interval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return monitor.Start(monitor.Options{
					Dir:      dataDir,
					Interval: time.Duration(interval) * time.Second,
					NoColor:  noColor,
				})
			}

			entries, err := cache.Inventory(dataDir)
			if err != nil {
				return err
			}
			fmt.Print(output.NewRenderer(noColor).Status(dataDir, entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "Directory holding monthly cache artifacts")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep a live view open (requires a TTY)")
	cmd.Flags().IntVar(&interval, "interval", 5, "Refresh interval in seconds for --watch")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}
