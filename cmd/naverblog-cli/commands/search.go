package commands

import (
	"errors"
	"log/slog"
	"naverblog-scraper/internal/scrapers/naverblog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	searchDates dateRange
	searchPages *int
	searchSave  *bool
)

func init() {
	searchDates = addDateFlags(searchCmd)
	searchPages = searchCmd.Flags().Int("pages", 1, "The number of result pages to list, 0 lists every page.")
	searchSave = searchCmd.Flags().Bool("save", false, "Write the listed items to the database.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword> [--pages n] [--save]",
	Short: "Lists the posts matching a keyword in a date range.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query, err := searchDates.query(args[0])
		if err != nil {
			return err
		}
		source, err := newPageSource()
		if err != nil {
			return err
		}

		search := naverblog.NewSearch(query, source)
		var items []naverblog.SearchItem
		total := 0
		for page := 1; *searchPages <= 0 || page <= *searchPages; page++ {
			result, err := search.Next(ctx)
			if errors.Is(err, naverblog.ErrSearchDone) {
				break
			}
			if err != nil {
				return err
			}
			total = result.TotalCount
			items = append(items, result.Items...)
			if !result.HasMore {
				break
			}
		}

		t := newTable()
		t.AppendHeader(table.Row{"Post", "Date", "Author", "Title"})
		for _, item := range items {
			t.AppendRow(table.Row{
				item.Key.String(),
				item.PublishedAt,
				deref(item.Author),
				truncate(deref(item.Title), 48),
			})
		}
		t.AppendFooter(table.Row{"", "", "Total", total})
		t.Render()

		if !*searchSave {
			return nil
		}
		out, closeStore, err := openStore(ctx, "")
		if err != nil {
			return err
		}
		defer closeStore()
		err = out.SaveSearchItems(ctx, query.Keyword, items)
		if err != nil {
			return err
		}
		slog.Info("saved search items", "keyword", query.Keyword, "count", len(items))
		return nil
	},
}
