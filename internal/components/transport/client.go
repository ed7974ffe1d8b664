package transport

import (
	"context"
	"math/rand/v2"
	"naverblog-scraper/internal/assert"
	"naverblog-scraper/internal/components/telemetry"
	"naverblog-scraper/lib/restyutil"
	"net/http/cookiejar"
	"sync/atomic"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch = "client.fetch"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Options controls the pacing and identity of a Client. The zero value of any
// field falls back to the value in DefaultOptions.
type Options struct {
	Timeout time.Duration
	// RequestsPerSecond caps the steady request rate, Burst how many may go at once.
	RequestsPerSecond float64
	Burst             int
	// every request but the first waits a random duration in [MinDelay, MaxDelay).
	MinDelay time.Duration
	MaxDelay time.Duration
	// UserAgents are rotated round robin per request.
	UserAgents []string
	Headers    map[string]string
	// DisableCloudflareBypass keeps the stock round tripper, which leaves headers untouched.
	DisableCloudflareBypass bool

	// Delay replaces the randomized delay hook when set.
	Delay func(ctx context.Context) error
	// OnFailure is called with every failed fetch, after classification.
	OnFailure func(url string, err error)
	// Dump receives every raw exchange when set.
	Dump restyutil.Output
}

func DefaultOptions() Options {
	return Options{
		Timeout:           time.Second * 20,
		RequestsPerSecond: 2,
		Burst:             2,
		MinDelay:          time.Millisecond * 300,
		MaxDelay:          time.Millisecond * 800,
		UserAgents:        []string{defaultUserAgent},
		Headers: map[string]string{
			"Referer":         "https://section.blog.naver.com/",
			"Accept-Language": "ko-KR,ko;q=0.9,en;q=0.8",
		},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = d.RequestsPerSecond
	}
	if o.Burst <= 0 {
		o.Burst = d.Burst
	}
	if o.MaxDelay < o.MinDelay {
		o.MaxDelay = o.MinDelay
	}
	if len(o.UserAgents) == 0 {
		o.UserAgents = d.UserAgents
	}
	if o.Headers == nil {
		o.Headers = d.Headers
	}
	return o
}

// Client is the default Transport, a resty client behind a rate limiter.
type Client struct {
	http *resty.Client
	opts Options
	tel  telemetry.API

	requests atomic.Uint64
	failures atomic.Uint64
	uaIndex  atomic.Uint64
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("transport", tel)
	opts = opts.withDefaults()

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if !opts.DisableCloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeaders(opts.Headers)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetRetryCount(0)
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	c := &Client{
		http: httpClient,
		opts: opts,
		tel:  tel,
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		err := c.delay(req.Context())
		if err != nil {
			return err
		}
		err = limiter.Wait(req.Context())
		if err != nil {
			return err
		}
		req.SetHeader("User-Agent", c.nextUserAgent())
		return nil
	})

	telemetry.InstrumentResty(httpClient, tel)
	if opts.Dump != nil {
		restyutil.DumpResponses(httpClient, opts.Dump)
	}

	return c, nil
}

func (c *Client) nextUserAgent() string {
	i := c.uaIndex.Add(1) - 1
	return c.opts.UserAgents[i%uint64(len(c.opts.UserAgents))]
}

func (c *Client) delay(ctx context.Context) error {
	// the request counter is bumped before the hooks run, so 1 is the first request
	if c.requests.Load() <= 1 {
		return nil
	}
	if c.opts.Delay != nil {
		return c.opts.Delay(ctx)
	}
	if c.opts.MaxDelay <= 0 {
		return nil
	}

	wait := c.opts.MinDelay
	if spread := c.opts.MaxDelay - c.opts.MinDelay; spread > 0 {
		wait += rand.N(spread)
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Requests is the number of fetches attempted so far.
func (c *Client) Requests() uint64 {
	return c.requests.Load()
}

// Failures is the number of fetches that returned an error so far.
func (c *Client) Failures() uint64 {
	return c.failures.Load()
}

func (c *Client) Fetch(ctx context.Context, url string) (Response, error) {
	c.requests.Add(1)

	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		err = Classify(ctx, url, err)
		c.failures.Add(1)
		c.tel.ReportWarning(report_client_fetch, err, url)
		if c.opts.OnFailure != nil {
			c.opts.OnFailure(url, err)
		}
		return Response{}, err
	}

	finalUrl := url
	if res.RawResponse != nil && res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil {
		finalUrl = res.RawResponse.Request.URL.String()
	}

	return Response{
		Status: res.StatusCode(),
		Body:   res.Body(),
		URL:    finalUrl,
	}, nil
}
