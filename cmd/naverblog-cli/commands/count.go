package commands

import (
	"fmt"
	"naverblog-scraper/internal/scrapers/naverblog"

	"github.com/spf13/cobra"
)

var countDates dateRange

func init() {
	countDates = addDateFlags(countCmd)
	rootCmd.AddCommand(countCmd)
}

var countCmd = &cobra.Command{
	Use:   "count <keyword> [--start yyyy-mm-dd] [--end yyyy-mm-dd]",
	Short: "Prints the number of posts matching a keyword in a date range.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := countDates.query(args[0])
		if err != nil {
			return err
		}
		source, err := newPageSource()
		if err != nil {
			return err
		}

		total, err := naverblog.NewSearch(query, source).Total(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(total)
		return nil
	},
}
