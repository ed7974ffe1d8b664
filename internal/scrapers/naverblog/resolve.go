package naverblog

import (
	"bytes"
	"context"
	"fmt"
	"naverblog-scraper/internal/assert"
	"naverblog-scraper/internal/components/telemetry"
	"naverblog-scraper/internal/components/transport"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("naverblog.scrapers.naverblog")

const (
	report_resolver_resolve = "resolver.resolve"
)

const (
	DefaultMaxHops       = 10
	DefaultStubThreshold = 5000
)

// contentMarkers are the elements that only exist on a page holding the post
// itself, newest editor first.
var contentMarkers = []string{
	"div.se-main-container",
	"#postViewArea",
	"#post-view",
	"div.se_component_wrap",
}

var frameSelectors = []string{
	"iframe#mainFrame[src]",
	"iframe[src]",
	"frame[src]",
}

// IsRedirectStub is the default stub predicate. Stubs and real pages share a
// content type, so only the size tells them apart.
func IsRedirectStub(raw []byte) bool {
	return len(raw) < DefaultStubThreshold
}

func findContentMarker(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentMarkers {
		sel := doc.Find(selector).First()
		if sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

func findFrameSrc(doc *goquery.Document) (string, bool) {
	for _, selector := range frameSelectors {
		src, ok := doc.Find(selector).First().Attr("src")
		if ok && src != "" {
			return src, true
		}
	}
	return "", false
}

type ResolverOptions struct {
	// IsRedirectStub replaces the size based stub check when set.
	IsRedirectStub func(raw []byte) bool
	// MaxHops of 0 means DefaultMaxHops.
	MaxHops int
	// FrameBase is what relative frame references are joined against.
	FrameBase string
}

// Resolver follows frame redirects from an entry url to the page holding the post.
type Resolver struct {
	transport transport.Transport
	tel       telemetry.API
	isStub    func(raw []byte) bool
	maxHops   int
	frameBase *url.URL
}

func NewResolver(t transport.Transport, tel telemetry.API, opts ResolverOptions) (Resolver, error) {
	assert.NotNil(t)
	assert.NotNil(tel)
	assert.NotNegative("max hops", opts.MaxHops)

	if opts.IsRedirectStub == nil {
		opts.IsRedirectStub = IsRedirectStub
	}
	if opts.MaxHops == 0 {
		opts.MaxHops = DefaultMaxHops
	}
	if opts.FrameBase == "" {
		opts.FrameBase = desktopOrigin
	}
	frameBase, err := url.Parse(opts.FrameBase)
	if err != nil {
		return Resolver{}, err
	}

	return Resolver{
		transport: t,
		tel:       telemetry.NewScopedAPI("naverblog", tel),
		isStub:    opts.IsRedirectStub,
		maxHops:   opts.MaxHops,
		frameBase: frameBase,
	}, nil
}

// next decides where a fetched page points to. done is true when the page
// itself holds the post.
func (r Resolver) next(current string, res transport.Response, doc *goquery.Document) (next string, done bool, err error) {
	if findContentMarker(doc) != nil {
		return "", true, nil
	}

	if r.isStub(res.Body) {
		key, ok := KeyFromMarkup(res.Body)
		if !ok {
			key, err = ParsePostUrl(current)
			ok = err == nil
		}
		if ok && key.MobileUrl() != current {
			return key.MobileUrl(), false, nil
		}
	}

	src, ok := findFrameSrc(doc)
	if ok {
		ref, err := url.Parse(src)
		if err != nil {
			return "", false, fmt.Errorf("%w: bad frame reference %q: %w", ErrContentNotFound, src, err)
		}
		return r.frameBase.ResolveReference(ref).String(), false, nil
	}

	return "", false, fmt.Errorf("%w: %s", ErrContentNotFound, current)
}

// Resolve fetches entryUrl and follows redirect stubs and frames until it
// reaches a page with post content. It fails with ErrTooManyRedirects once
// more than the configured number of hops would be needed.
func (r Resolver) Resolve(ctx context.Context, entryUrl string) (ResolvedDocument, error) {
	ctx, span := tracer.Start(ctx, "Resolve", trace.WithAttributes(
		attribute.String("entry_url", entryUrl),
	))
	defer span.End()

	current := entryUrl
	for hops := 0; ; hops++ {
		if hops > r.maxHops {
			err := fmt.Errorf("%w: gave up after %d hops from %s", ErrTooManyRedirects, r.maxHops, entryUrl)
			span.SetStatus(codes.Error, err.Error())
			r.tel.ReportWarning(report_resolver_resolve, err)
			return ResolvedDocument{}, err
		}

		res, err := r.transport.Fetch(ctx, current)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			return ResolvedDocument{}, err
		}
		if !res.OK() {
			err := &StatusError{Url: current, Status: res.Status}
			span.SetStatus(codes.Error, err.Error())
			r.tel.ReportBroken(report_resolver_resolve, err)
			return ResolvedDocument{}, err
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
		if err != nil {
			r.tel.ReportBroken(
				report_resolver_resolve,
				fmt.Errorf("parse: %w", err),
				current,
			)
			span.SetStatus(codes.Error, "parse failed")
			return ResolvedDocument{}, err
		}

		next, done, err := r.next(current, res, doc)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			r.tel.ReportWarning(report_resolver_resolve, err)
			return ResolvedDocument{}, err
		}
		if done {
			canonical := res.URL
			if canonical == "" {
				canonical = current
			}
			span.SetAttributes(
				attribute.String("canonical_url", canonical),
				attribute.Int("hops", hops),
			)
			return ResolvedDocument{
				CanonicalUrl: canonical,
				Document:     doc,
				Raw:          res.Body,
				Hops:         hops,
			}, nil
		}

		r.tel.ReportDebug("follow redirect", current, next)
		span.AddEvent("redirect", trace.WithAttributes(attribute.String("url", next)))
		current = next
	}
}
