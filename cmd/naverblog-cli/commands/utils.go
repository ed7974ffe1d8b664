package commands

import (
	"context"
	"fmt"
	"naverblog-scraper/internal/scrapers/naverblog"
	"naverblog-scraper/internal/store"
	"naverblog-scraper/lib/timezone"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

const dateLayout = "2006-01-02"

type dateRange struct {
	start *string
	end   *string
}

func addDateFlags(cmd *cobra.Command) dateRange {
	end := timezone.Now()
	start := end.AddDate(0, -1, 0)
	return dateRange{
		start: cmd.Flags().String("start", start.Format(dateLayout), "The first day to search, yyyy-mm-dd."),
		end:   cmd.Flags().String("end", end.Format(dateLayout), "The last day to search, yyyy-mm-dd."),
	}
}

func (r dateRange) query(keyword string) (naverblog.SearchQuery, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return naverblog.SearchQuery{}, fmt.Errorf("keyword must not be empty")
	}
	for _, value := range []string{*r.start, *r.end} {
		_, err := time.Parse(dateLayout, value)
		if err != nil {
			return naverblog.SearchQuery{}, fmt.Errorf("invalid date %q: %w", value, err)
		}
	}
	if *r.start > *r.end {
		return naverblog.SearchQuery{}, fmt.Errorf("start date %s is after end date %s", *r.start, *r.end)
	}
	return naverblog.SearchQuery{
		Keyword:   keyword,
		StartDate: *r.start,
		EndDate:   *r.end,
	}, nil
}

// parseKeyArg accepts a post url or "owner/post".
func parseKeyArg(arg string) (naverblog.PostKey, error) {
	return naverblog.ParsePostUrl(arg)
}

func openStore(ctx context.Context, path string) (store.Store, func(), error) {
	if path == "" {
		path = env.config.Database
	}
	s, database, err := store.Open(ctx, path)
	if err != nil {
		return store.Store{}, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return s, func() { database.Close() }, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
