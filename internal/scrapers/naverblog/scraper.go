package naverblog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"naverblog-scraper/internal/assert"
	"naverblog-scraper/internal/components/telemetry"
	"naverblog-scraper/internal/components/transport"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	report_scraper_post     = "scraper.post"
	report_scraper_comments = "scraper.comments"
	report_scraper_collect  = "scraper.collect"
)

type Options struct {
	Resolver ResolverOptions
	// VideoEndpoint overrides DefaultVideoEndpoint.
	VideoEndpoint string
}

// Scraper runs the whole pipeline for a post: resolution, extraction, video
// enrichment and optionally its comments.
type Scraper struct {
	transport transport.Transport
	tel       telemetry.API
	resolver  Resolver
	extractor Extractor
	videos    VideoResolver
}

func NewScraper(t transport.Transport, tel telemetry.API, opts Options) (Scraper, error) {
	assert.NotNil(t)
	assert.NotNil(tel)

	resolver, err := NewResolver(t, tel, opts.Resolver)
	if err != nil {
		return Scraper{}, err
	}
	return Scraper{
		transport: t,
		tel:       telemetry.NewScopedAPI("naverblog", tel),
		resolver:  resolver,
		extractor: NewExtractor(tel),
		videos:    NewVideoResolver(t, tel, opts.VideoEndpoint),
	}, nil
}

func (s Scraper) Resolve(ctx context.Context, entryUrl string) (ResolvedDocument, error) {
	return s.resolver.Resolve(ctx, entryUrl)
}

func (s Scraper) ResolveVideo(ctx context.Context, videoId, accessKey string) (string, error) {
	return s.videos.ResolveVideo(ctx, videoId, accessKey)
}

type PostOptions struct {
	ResolveVideos bool
	Comments      bool
}

// ScrapedPost is a post with its comments, Comments is nil unless they were requested.
type ScrapedPost struct {
	Record   PostRecord
	Comments []Comment
}

// Post resolves and extracts a single post. A video that can't be resolved is
// reported and left without a ResolvedUrl, it never fails the post.
func (s Scraper) Post(ctx context.Context, key PostKey, opts PostOptions) (ScrapedPost, error) {
	ctx, span := tracer.Start(ctx, "Post", trace.WithAttributes(
		attribute.String("key", key.String()),
	))
	defer span.End()

	doc, err := s.resolver.Resolve(ctx, key.DesktopUrl())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return ScrapedPost{}, err
	}

	result := ScrapedPost{}
	g, gctx := errgroup.WithContext(ctx)

	if opts.Comments {
		g.Go(func() error {
			comments, err := s.Comments(gctx, key)
			if err != nil {
				return err
			}
			result.Comments = comments
			return nil
		})
	}

	record := s.extractor.ExtractContent(doc)
	record.Key = key
	record.Images, record.Videos = s.extractor.ExtractMedia(doc)

	if opts.ResolveVideos {
		for i, ref := range record.Videos {
			g.Go(func() error {
				enriched, err := s.videos.Enrich(gctx, ref)
				if err != nil {
					// already reported by the video resolver
					return nil
				}
				record.Videos[i] = enriched
				return nil
			})
		}
	}

	err = g.Wait()
	if ctx.Err() != nil {
		err = transport.Classify(ctx, key.DesktopUrl(), ctx.Err())
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return ScrapedPost{}, err
	}

	result.Record = record
	span.SetAttributes(
		attribute.Int("images", len(record.Images)),
		attribute.Int("videos", len(record.Videos)),
	)
	return result, nil
}

// Comments fetches the comment listing of a post and builds its tree.
func (s Scraper) Comments(ctx context.Context, key PostKey) ([]Comment, error) {
	link := key.CommentsUrl()
	body, err := fetchOK(ctx, s.transport, link)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			s.tel.ReportBroken(report_scraper_comments, err)
		}
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.tel.ReportBroken(report_scraper_comments, fmt.Errorf("parse: %w", err), link)
		return nil, err
	}
	return s.extractor.BuildComments(doc.Selection), nil
}

// PostResult is what Collect hands to its callback for every listed post,
// exactly one of Post and Err is set.
type PostResult struct {
	Item SearchItem
	Post *ScrapedPost
	Err  error
}

type CollectOptions struct {
	PostOptions
	// Concurrency is the number of posts scraped at once, 0 means 1.
	Concurrency int
}

// Collect walks every remaining page of search and scrapes the posts listed,
// calling fn once per post. Calls to fn never overlap. A post that fails is
// passed to fn with its error, only an error from fn, the search or the
// context stops the walk. Once stopped, fn is not called again.
func (s Scraper) Collect(ctx context.Context, search *Search, opts CollectOptions, fn func(PostResult) error) error {
	assert.NotNil(search)
	assert.NotNil(fn)
	assert.NotNegative("concurrency", opts.Concurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))

	var mutex sync.Mutex
	var collected atomic.Int64
	// guarded by mutex, set once fn returns an error
	stopped := false

	walkErr := search.All(gctx, func(item SearchItem) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		g.Go(func() error {
			post, err := s.Post(gctx, item.Key, opts.PostOptions)

			mutex.Lock()
			defer mutex.Unlock()
			if stopped || gctx.Err() != nil {
				return nil
			}

			result := PostResult{Item: item, Err: err}
			if err == nil {
				result.Post = &post
			} else {
				s.tel.ReportWarning(report_scraper_post, err, item.Key.String())
			}
			collected.Add(1)
			err = fn(result)
			if err != nil {
				stopped = true
			}
			return err
		})
		return nil
	})

	err := g.Wait()
	s.tel.ReportCount(report_scraper_collect, collected.Load())
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return transport.Classify(ctx, search.Query().Keyword, ctx.Err())
	}
	return walkErr
}
