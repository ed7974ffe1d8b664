package commands

import (
	"context"
	"fmt"
	"log/slog"
	"naverblog-scraper/internal/components/telemetry"
	"naverblog-scraper/internal/components/transport"
	"naverblog-scraper/internal/scrapers/naverblog"
	"naverblog-scraper/lib/configutil"
	"naverblog-scraper/lib/restyutil"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "naverblog-cli",
	Short: "naverblog-cli searches, scrapes and stores naver blog posts.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	SilenceUsage: true,
}

var (
	configPath *string
	dumpDir    *string
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "naverblog.json5", "The config file to read, a missing file means defaults.")
	dumpDir = rootCmd.PersistentFlags().String("dump", "", "A directory to write every http exchange to.")
}

// env holds what every command shares, it is filled in by setup.
var env struct {
	config  Config
	tel     telemetry.API
	client  *transport.Client
	scraper naverblog.Scraper
}

func setup() error {
	cfg, err := configutil.ReadWithDefaults(*configPath, defaultConfig())
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	env.config = cfg
	env.tel = telemetry.SlogAPI{}

	opts := cfg.Transport.options()
	opts.OnFailure = func(url string, err error) {
		slog.Debug("fetch failed", "url", url, "err", err)
	}
	if *dumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(*dumpDir)
		if err != nil {
			return fmt.Errorf("create dump directory: %w", err)
		}
		opts.Dump = output
	}

	env.client, err = transport.NewClient(opts, env.tel)
	if err != nil {
		return err
	}
	env.scraper, err = naverblog.NewScraper(env.client, env.tel, naverblog.Options{
		VideoEndpoint: cfg.VideoEndpoint,
	})
	return err
}

func newPageSource() (naverblog.PageSource, error) {
	switch env.config.Source {
	case "json", "":
		return naverblog.NewJSONPageSource(env.client, env.tel, ""), nil
	case "html":
		return naverblog.NewHTMLPageSource(env.client, env.tel, ""), nil
	}
	return nil, fmt.Errorf("unknown search source %q, expected json or html", env.config.Source)
}

func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}
