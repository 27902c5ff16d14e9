package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/five82/kiwi/internal/app"
	"github.com/five82/kiwi/internal/config"
	"github.com/five82/kiwi/internal/logtail"
)

func newLogsCmd(opts *app.Options) *cobra.Command {
	var (
		lines int
		level string
		raw   bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			minLevel, err := zapcore.ParseLevel(level)
			if err != nil {
				return fmt.Errorf("parse level: %w", err)
			}

			// No validation: reading logs must work without a token.
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			entries, err := logtail.Read(cfg.LogFile, lines)
			if err != nil {
				return err
			}
			if !raw {
				entries = logtail.Format(entries, minLevel)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "no log entries in %s\n", cfg.LogFile)
				return nil
			}
			for _, line := range entries {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 200, "number of lines to read, 0 for all")
	cmd.Flags().StringVar(&level, "level", "info", "minimum level: debug, info, warn or error")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the JSON lines unformatted")
	return cmd
}
