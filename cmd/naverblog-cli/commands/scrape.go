package commands

import (
	"fmt"
	"log/slog"
	"naverblog-scraper/internal/scrapers/naverblog"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeDates       dateRange
	scrapeDb          *string
	scrapeComments    *bool
	scrapeVideos      *bool
	scrapeConcurrency *int
)

func init() {
	scrapeDates = addDateFlags(scrapeCmd)
	scrapeDb = scrapeCmd.Flags().String("db", "", "The database to write scrape results to, defaults to the configured one.")
	scrapeComments = scrapeCmd.Flags().Bool("comments", false, "Fetch the comment tree of every post.")
	scrapeVideos = scrapeCmd.Flags().Bool("videos", false, "Resolve the playable url of embedded videos.")
	scrapeConcurrency = scrapeCmd.Flags().Int("concurrency", 0, "Posts scraped at once, defaults to the configured value.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <keyword> [--db <path/to/output.db>] [--comments] [--videos]",
	Short: "Scrapes every post matching a keyword in a date range and writes them to a database.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query, err := scrapeDates.query(args[0])
		if err != nil {
			return err
		}
		source, err := newPageSource()
		if err != nil {
			return err
		}
		out, closeStore, err := openStore(ctx, *scrapeDb)
		if err != nil {
			return err
		}
		defer closeStore()

		concurrency := *scrapeConcurrency
		if concurrency <= 0 {
			concurrency = env.config.Concurrency
		}
		if concurrency < 0 {
			return fmt.Errorf("concurrency must not be negative, got %d", concurrency)
		}

		saved := 0
		failed := 0
		t1 := time.Now()
		err = env.scraper.Collect(
			ctx,
			naverblog.NewSearch(query, source),
			naverblog.CollectOptions{
				PostOptions: naverblog.PostOptions{
					ResolveVideos: *scrapeVideos,
					Comments:      *scrapeComments,
				},
				Concurrency: concurrency,
			},
			func(result naverblog.PostResult) error {
				if result.Err != nil {
					failed++
					slog.Warn("failed to scrape post", "key", result.Item.Key.String(), "err", result.Err)
					return nil
				}

				err := out.SaveSearchItems(ctx, query.Keyword, []naverblog.SearchItem{result.Item})
				if err != nil {
					return err
				}
				err = out.SavePost(ctx, result.Post.Record, time.Now())
				if err != nil {
					return err
				}
				if *scrapeComments {
					err = out.SaveComments(ctx, result.Item.Key, result.Post.Comments)
					if err != nil {
						return err
					}
				}
				saved++
				slog.Info("saved post", "key", result.Item.Key.String(), "saved", saved)
				return nil
			},
		)
		t2 := time.Now()

		t := newTable()
		t.AppendHeader(table.Row{"Saved", "Failed", "Requests", "Seconds"})
		t.AppendRow(table.Row{saved, failed, env.client.Requests(), int(t2.Sub(t1).Seconds())})
		t.Render()

		return err
	},
}
