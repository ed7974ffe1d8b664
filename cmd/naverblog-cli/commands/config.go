package commands

import (
	"naverblog-scraper/internal/components/transport"
	"time"
)

type TransportConfig struct {
	TimeoutSeconds          float64  `json:"timeout_seconds"`
	RequestsPerSecond       float64  `json:"requests_per_second"`
	Burst                   int      `json:"burst"`
	MinDelayMs              int      `json:"min_delay_ms"`
	MaxDelayMs              int      `json:"max_delay_ms"`
	UserAgents              []string `json:"user_agents"`
	DisableCloudflareBypass bool     `json:"disable_cloudflare_bypass"`
}

type Config struct {
	Transport TransportConfig `json:"transport"`
	// Source is the search page source, "json" or "html".
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
	Database    string `json:"database"`
	// VideoEndpoint overrides the media service used to resolve videos.
	VideoEndpoint string `json:"video_endpoint"`
}

func defaultConfig() Config {
	d := transport.DefaultOptions()
	return Config{
		Transport: TransportConfig{
			TimeoutSeconds:    d.Timeout.Seconds(),
			RequestsPerSecond: d.RequestsPerSecond,
			Burst:             d.Burst,
			MinDelayMs:        int(d.MinDelay.Milliseconds()),
			MaxDelayMs:        int(d.MaxDelay.Milliseconds()),
			UserAgents:        d.UserAgents,
		},
		Source:      "json",
		Concurrency: 2,
		Database:    "naverblog.db",
	}
}

func (c TransportConfig) options() transport.Options {
	return transport.Options{
		Timeout:                 time.Duration(c.TimeoutSeconds * float64(time.Second)),
		RequestsPerSecond:       c.RequestsPerSecond,
		Burst:                   c.Burst,
		MinDelay:                time.Duration(c.MinDelayMs) * time.Millisecond,
		MaxDelay:                time.Duration(c.MaxDelayMs) * time.Millisecond,
		UserAgents:              c.UserAgents,
		DisableCloudflareBypass: c.DisableCloudflareBypass,
	}
}
