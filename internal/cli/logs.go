package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/aula/internal/config"
	"github.com/five82/aula/internal/logging"
	"github.com/five82/aula/internal/logtail"
)

func (c *commands) newLogsCmd() *cobra.Command {
	var lines int
	var level string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the client log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			minLevel, err := logging.ParseLevel(level)
			if err != nil {
				return err
			}
			cfg, err := config.Load(c.flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			tail, err := logtail.Tail(cfg.Log.File, lines, minLevel)
			if err != nil {
				return err
			}
			if len(tail) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries.")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, line := range tail {
				if !line.Parsed {
					fmt.Fprintln(out, styleDim.Render(line.Raw))
					continue
				}
				fmt.Fprintln(out, levelStyle(line.Entry.Level).Render(line.Text()))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "number of matching lines to show")
	cmd.Flags().StringVar(&level, "level", "info", "minimum level (trace, debug, info, warn, error)")
	return cmd
}
