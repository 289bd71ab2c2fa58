package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/bindery/internal/app"
	"github.com/five82/bindery/internal/queueapi"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var query queueapi.SearchQuery
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search [QUERY...]",
		Short: "Search the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			query.Query = strings.TrimSpace(strings.Join(args, " "))
			if query.Query == "" && query.Author == "" && query.Title == "" && query.ISBN == "" {
				return fmt.Errorf("search needs a query or one of --author, --title, --isbn")
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				books, err := svc.Client.Search(cmd.Context(), query)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, books)
				}
				out := cmd.OutOrStdout()
				if len(books) == 0 {
					fmt.Fprintln(out, "No results.")
					return nil
				}
				rows := make([][]string, 0, len(books))
				for _, b := range books {
					rows = append(rows, []string{
						string(b.ID), string(b.Title), string(b.Author),
						string(b.Year), string(b.Format), string(b.Size),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Author", "Year", "Format", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&query.Author, "author", "", "Filter by author")
	flags.StringVar(&query.Title, "title", "", "Filter by title")
	flags.StringVar(&query.ISBN, "isbn", "", "Filter by ISBN")
	flags.StringVar(&query.Lang, "lang", "", "Filter by language")
	flags.StringVar(&query.Sort, "sort", "", "Sort order")
	flags.StringSliceVar(&query.Formats, "format", nil, "Allowed formats (repeatable)")
	flags.BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	return cmd
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info ID",
		Short: "Show catalog details for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				d, err := svc.Client.Info(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rows := [][]string{
					{"ID", string(d.ID)},
					{"Title", string(d.Title)},
					{"Author", string(d.Author)},
					{"Publisher", string(d.Publisher)},
					{"Year", string(d.Year)},
					{"Language", string(d.Language)},
					{"Format", string(d.Format)},
					{"Size", string(d.Size)},
				}
				for _, k := range slices.Sorted(maps.Keys(d.Info)) {
					rows = append(rows, []string{k, string(d.Info[k])})
				}
				filtered := rows[:0]
				for _, r := range rows {
					if strings.TrimSpace(r[1]) != "" {
						filtered = append(filtered, r)
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, filtered, nil))
				return nil
			})
		},
	}
}
