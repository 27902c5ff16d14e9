package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/kiwi/internal/app"
	"github.com/five82/kiwi/internal/coordinator"
)

func newAddCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			return withEnv(cmd.Context(), opts, false, func(ctx context.Context, env *app.Env) error {
				if err := env.Coordinator.Add(ctx, title); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %q\n", strings.TrimSpace(title))
				return nil
			})
		},
	}
}

func newDoneCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a todo completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEnv(cmd.Context(), opts, true, func(ctx context.Context, env *app.Env) error {
				if err := env.Coordinator.Complete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "completed %s\n", id)
				return nil
			})
		},
	}
}

func newEditCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <title...>",
		Short: "Change a todo's title",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, title := args[0], strings.Join(args[1:], " ")
			return withEnv(cmd.Context(), opts, true, func(ctx context.Context, env *app.Env) error {
				current, ok := env.Store.Snapshot().Find(id)
				if !ok {
					return fmt.Errorf("%s: %w", id, coordinator.ErrNotFound)
				}
				current.Title = title
				if err := env.Coordinator.Update(ctx, current); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", id)
				return nil
			})
		},
	}
}

func newRemoveCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEnv(cmd.Context(), opts, true, func(ctx context.Context, env *app.Env) error {
				if err := env.Coordinator.Delete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
				return nil
			})
		},
	}
}

// withEnv bootstraps the app and runs fn under requestTimeout. Writes against
// an existing id need the list loaded first, so load fetches it.
func withEnv(ctx context.Context, opts *app.Options, load bool, fn func(context.Context, *app.Env) error) error {
	env, err := app.Bootstrap(*opts)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if load {
		if err := env.Coordinator.Fetch(ctx, coordinator.DefaultQuery()); err != nil {
			return err
		}
	}
	return fn(ctx, env)
}
