package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/kiwi/internal/app"
)

// requestTimeout bounds each one-shot command against the store.
const requestTimeout = 15 * time.Second

// NewRootCmd builds the kiwi command tree. Without a subcommand it starts the
// TUI.
func NewRootCmd() *cobra.Command {
	opts := &app.Options{}

	root := &cobra.Command{
		Use:           "kiwi",
		Short:         "A terminal todo list backed by Airtable",
		Long:          "kiwi keeps a todo list in an Airtable table. Run it without arguments for the interactive view, or use the subcommands from scripts.",
		Version:       app.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), *opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/kiwi/config.toml)")
	flags.StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/kiwi/prefs.toml)")
	flags.BoolVar(&opts.Debug, "debug", false, "log at debug level")

	root.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newDoneCmd(opts),
		newEditCmd(opts),
		newRemoveCmd(opts),
		newLogsCmd(opts),
	)
	return root
}
