package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/kiwi/internal/app"
	"github.com/five82/kiwi/internal/coordinator"
	"github.com/five82/kiwi/internal/todo"
)

func newListCmd(opts *app.Options) *cobra.Command {
	var (
		filter    string
		sortBy    string
		search    string
		sortField string
		direction string
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := todo.ParseFilter(filter)
			if err != nil {
				return err
			}
			s, err := todo.ParseSortOption(sortBy)
			if err != nil {
				return err
			}

			env, err := app.Bootstrap(*opts)
			if err != nil {
				return err
			}
			defer env.Close()

			snap, err := env.Fetch(cmd.Context(), coordinator.Query{
				SortField:     sortField,
				SortDirection: direction,
				Search:        search,
			}, requestTimeout)
			if err != nil {
				return err
			}

			printTodos(cmd.OutOrStdout(), todo.View(snap.Todos, f, s))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", string(todo.FilterAll), "all, active or completed")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", string(todo.SortCreatedDate), "createdDate, title or completed")
	cmd.Flags().StringVarP(&search, "search", "q", "", "only titles containing this text")
	cmd.Flags().StringVar(&sortField, "sort-field", "createdTime", "field the store sorts by")
	cmd.Flags().StringVar(&direction, "direction", "desc", "store sort direction, asc or desc")
	return cmd
}

func printTodos(w io.Writer, todos []todo.Todo) {
	if len(todos) == 0 {
		fmt.Fprintln(w, "No todos")
		return
	}

	rows := make([][]string, 0, len(todos))
	for _, t := range todos {
		done := " "
		if t.Completed {
			done = "x"
		}
		created := ""
		if !t.CreatedTime.IsZero() {
			created = t.CreatedTime.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{t.ID, done, t.Title, created})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "DONE", "TITLE", "CREATED").
		Rows(rows...)
	fmt.Fprintln(w, tbl.String())
}
