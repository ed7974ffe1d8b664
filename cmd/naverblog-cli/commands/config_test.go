package commands

import (
	"naverblog-scraper/internal/scrapers/naverblog"
	"naverblog-scraper/lib/configutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "naverblog.json5")
	err := os.WriteFile(path, []byte(`{
		source: "html",
		transport: { requests_per_second: 0.5, max_delay_ms: 2000 },
	}`), 0600)
	require.NoError(t, err)

	cfg, err := configutil.ReadWithDefaults(path, defaultConfig())
	require.NoError(t, err)
	require.Equal(t, "html", cfg.Source)
	require.Equal(t, 2, cfg.Concurrency)
	require.Equal(t, "naverblog.db", cfg.Database)

	opts := cfg.Transport.options()
	require.Equal(t, 0.5, opts.RequestsPerSecond)
	require.Equal(t, 2*time.Second, opts.MaxDelay)
	require.Equal(t, 300*time.Millisecond, opts.MinDelay)
	require.Equal(t, 20*time.Second, opts.Timeout)
	require.NotEmpty(t, opts.UserAgents)
}

func TestDateRangeQuery(t *testing.T) {
	start, end := "2024-01-01", "2024-01-31"
	r := dateRange{start: &start, end: &end}

	query, err := r.query(" busan ")
	require.NoError(t, err)
	require.Equal(t, naverblog.SearchQuery{Keyword: "busan", StartDate: start, EndDate: end}, query)

	end = "2023-12-31"
	_, err = r.query("busan")
	require.Error(t, err)

	end = "31/01/2024"
	_, err = r.query("busan")
	require.Error(t, err)
}

func TestParseKeyArg(t *testing.T) {
	key, err := parseKeyArg("owner/123")
	require.NoError(t, err)
	require.Equal(t, naverblog.PostKey{OwnerId: "owner", PostId: "123"}, key)

	key, err = parseKeyArg("https://blog.naver.com/PostView.naver?blogId=owner&logNo=123")
	require.NoError(t, err)
	require.Equal(t, "owner", key.OwnerId)

	_, err = parseKeyArg("owner")
	require.ErrorIs(t, err, naverblog.ErrInvalidKey)
}
