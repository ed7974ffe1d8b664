package naverblog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"naverblog-scraper/internal/assert"
	"naverblog-scraper/internal/components/telemetry"
	"naverblog-scraper/internal/components/transport"
	"naverblog-scraper/lib/htmlutil"
	"naverblog-scraper/lib/textutil"
	"naverblog-scraper/lib/timezone"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_search_page = "search.page"
)

// ErrSearchDone is returned by Search.Next once the empty page has been returned.
var ErrSearchDone = errors.New("no more search pages")

// SearchQuery is a keyword search over a date range, dates are yyyy-mm-dd.
type SearchQuery struct {
	Keyword   string
	StartDate string
	EndDate   string
}

// SourcePage is a single page as a PageSource reads it.
type SourcePage struct {
	TotalCount int
	Items      []SearchItem
}

// PageSource fetches one 1-based page of search results.
type PageSource interface {
	FetchPage(ctx context.Context, query SearchQuery, page int) (SourcePage, error)
}

// Search is a lazy, restartable sequence of result pages. It is not safe for
// concurrent use.
type Search struct {
	query  SearchQuery
	source PageSource

	next  int
	done  bool
	total *int
}

func NewSearch(query SearchQuery, source PageSource) *Search {
	assert.NotEmptyStr(query.Keyword)
	assert.NotNil(source)
	return &Search{
		query:  query,
		source: source,
		next:   1,
	}
}

func (s *Search) Query() SearchQuery {
	return s.query
}

// Reset restarts the sequence at page 1 and forgets the total count.
func (s *Search) Reset() {
	s.next = 1
	s.done = false
	s.total = nil
}

func (s *Search) fetch(ctx context.Context, n int) (SourcePage, error) {
	ctx, span := tracer.Start(ctx, "SearchPage", trace.WithAttributes(
		attribute.String("keyword", s.query.Keyword),
		attribute.Int("page", n),
	))
	defer span.End()

	page, err := s.source.FetchPage(ctx, s.query, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch page failed")
		return SourcePage{}, err
	}
	span.SetAttributes(attribute.Int("items", len(page.Items)))
	return page, nil
}

// Total returns the total count, fetching the first page if it isn't known yet.
func (s *Search) Total(ctx context.Context) (int, error) {
	if s.total != nil {
		return *s.total, nil
	}
	first, err := s.fetch(ctx, 1)
	if err != nil {
		return 0, err
	}
	total := max(first.TotalCount, 0)
	s.total = &total
	return total, nil
}

// Page fetches page n. The total count always comes from page 1, which is
// fetched first if nothing has read it since the last Reset.
func (s *Search) Page(ctx context.Context, n int) (SearchResultPage, error) {
	if n < 1 {
		return SearchResultPage{}, fmt.Errorf("page index must be at least 1, got %d", n)
	}
	if n > 1 {
		_, err := s.Total(ctx)
		if err != nil {
			return SearchResultPage{}, err
		}
	}

	page, err := s.fetch(ctx, n)
	if err != nil {
		return SearchResultPage{}, err
	}
	if s.total == nil {
		total := max(page.TotalCount, 0)
		s.total = &total
	}

	return SearchResultPage{
		Index:      n,
		TotalCount: *s.total,
		Items:      page.Items,
		HasMore:    len(page.Items) > 0,
	}, nil
}

// Next returns the page after the last one returned. The first page with no
// items is returned with HasMore false, every call after that returns ErrSearchDone.
func (s *Search) Next(ctx context.Context) (SearchResultPage, error) {
	if s.done {
		return SearchResultPage{}, ErrSearchDone
	}
	page, err := s.Page(ctx, s.next)
	if err != nil {
		return SearchResultPage{}, err
	}
	s.next++
	if !page.HasMore {
		s.done = true
	}
	return page, nil
}

// All calls fn with every item of every remaining page in order, stopping
// early if fn returns an error.
func (s *Search) All(ctx context.Context, fn func(SearchItem) error) error {
	for {
		page, err := s.Next(ctx)
		if errors.Is(err, ErrSearchDone) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, item := range page.Items {
			err = fn(item)
			if err != nil {
				return err
			}
		}
	}
}

func fetchOK(ctx context.Context, t transport.Transport, link string) ([]byte, error) {
	res, err := t.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, &StatusError{Url: link, Status: res.Status}
	}
	return res.Body, nil
}

const (
	DefaultSearchPageUrl = "https://section.blog.naver.com/Search/Post.naver"
	DefaultSearchApiUrl  = "https://section.blog.naver.com/ajax/SearchList.naver"
)

// HTMLPageSource reads the rendered search result page.
type HTMLPageSource struct {
	transport transport.Transport
	tel       telemetry.API
	baseUrl   string
}

// NewHTMLPageSource creates an HTMLPageSource, an empty baseUrl means DefaultSearchPageUrl.
func NewHTMLPageSource(t transport.Transport, tel telemetry.API, baseUrl string) HTMLPageSource {
	assert.NotNil(t)
	assert.NotNil(tel)
	if baseUrl == "" {
		baseUrl = DefaultSearchPageUrl
	}
	return HTMLPageSource{
		transport: t,
		tel:       telemetry.NewScopedAPI("naverblog", tel),
		baseUrl:   baseUrl,
	}
}

func (s HTMLPageSource) pageUrl(query SearchQuery, page int) string {
	values := url.Values{}
	values.Set("pageNo", strconv.Itoa(page))
	values.Set("rangeType", "PERIOD")
	values.Set("orderBy", "recentdate")
	values.Set("startDate", query.StartDate)
	values.Set("endDate", query.EndDate)
	values.Set("keyword", query.Keyword)
	return s.baseUrl + "?" + values.Encode()
}

func (s HTMLPageSource) FetchPage(ctx context.Context, query SearchQuery, page int) (SourcePage, error) {
	link := s.pageUrl(query, page)
	body, err := fetchOK(ctx, s.transport, link)
	if err != nil {
		s.tel.ReportBroken(report_search_page, err, link)
		return SourcePage{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.tel.ReportBroken(report_search_page, fmt.Errorf("parse: %w", err), link)
		return SourcePage{}, err
	}
	// result links are relative to the blog host, not the search host
	base, err := url.Parse(desktopOrigin)
	if err != nil {
		return SourcePage{}, err
	}

	result := SourcePage{}
	result.TotalCount, _ = textutil.ParseCount(htmlutil.SelectionText(doc.Find(".search_number").First()))

	doc.Find("div.list_search_post").Each(func(_ int, item *goquery.Selection) {
		anchors := htmlutil.GetAnchors(base, item.Find("a.desc_inner"))
		if len(anchors) == 0 {
			anchors = htmlutil.GetAnchors(base, item.Find("a[href]"))
		}
		if len(anchors) == 0 {
			s.tel.ReportDebug("search item without link", link)
			return
		}
		key, err := ParsePostUrl(anchors[0].Url.String())
		if err != nil {
			s.tel.ReportDebug("search item without key", link, err)
			return
		}

		result.Items = append(result.Items, SearchItem{
			Key:         key,
			PublishedAt: htmlutil.SelectionText(item.Find("span.date").First()),
			Title:       optional(htmlutil.SelectionText(item.Find(".title").First())),
			Author:      optional(htmlutil.SelectionText(item.Find(".name_author").First())),
			BlogName:    optional(htmlutil.SelectionText(item.Find(".name_blog").First())),
			Snippet:     optional(htmlutil.SelectionText(item.Find(".text").First())),
		})
	})

	return result, nil
}

// JSONPageSource reads the search api the result page loads its list from.
type JSONPageSource struct {
	transport    transport.Transport
	tel          telemetry.API
	endpoint     string
	countPerPage int
}

// NewJSONPageSource creates a JSONPageSource, an empty endpoint means DefaultSearchApiUrl.
func NewJSONPageSource(t transport.Transport, tel telemetry.API, endpoint string) JSONPageSource {
	assert.NotNil(t)
	assert.NotNil(tel)
	if endpoint == "" {
		endpoint = DefaultSearchApiUrl
	}
	return JSONPageSource{
		transport:    t,
		tel:          telemetry.NewScopedAPI("naverblog", tel),
		endpoint:     endpoint,
		countPerPage: 7,
	}
}

func (s JSONPageSource) pageUrl(query SearchQuery, page int) string {
	values := url.Values{}
	values.Set("countPerPage", strconv.Itoa(s.countPerPage))
	values.Set("currentPage", strconv.Itoa(page))
	values.Set("endDate", query.EndDate)
	values.Set("keyword", query.Keyword)
	values.Set("orderBy", "recentdate")
	values.Set("startDate", query.StartDate)
	values.Set("type", "post")
	return s.endpoint + "?" + values.Encode()
}

// the api guards its json against script inclusion with this prefix
var jsonGuardRegex = regexp.MustCompile(`^\)\]\}',?\s*`)

type searchListResponse struct {
	Result struct {
		TotalCount int `json:"totalCount"`
		SearchList []struct {
			BlogId   string      `json:"domainIdOrBlogId"`
			LogNo    json.Number `json:"logNo"`
			AddDate  int64       `json:"addDate"`
			Title    string      `json:"title"`
			NickName string      `json:"nickName"`
			BlogName string      `json:"blogName"`
			Contents string      `json:"contents"`
		} `json:"searchList"`
	} `json:"result"`
}

func (s JSONPageSource) FetchPage(ctx context.Context, query SearchQuery, page int) (SourcePage, error) {
	link := s.pageUrl(query, page)
	body, err := fetchOK(ctx, s.transport, link)
	if err != nil {
		s.tel.ReportBroken(report_search_page, err, link)
		return SourcePage{}, err
	}

	body = jsonGuardRegex.ReplaceAll(bytes.TrimSpace(body), nil)
	var parsed searchListResponse
	err = json.Unmarshal(body, &parsed)
	if err != nil {
		err = fmt.Errorf("unmarshal search list: %w", err)
		s.tel.ReportBroken(report_search_page, err, link)
		return SourcePage{}, err
	}

	result := SourcePage{TotalCount: parsed.Result.TotalCount}
	for _, entry := range parsed.Result.SearchList {
		key, err := NewPostKey(entry.BlogId, entry.LogNo.String())
		if err != nil {
			s.tel.ReportDebug("search item without key", link, err)
			continue
		}

		publishedAt := ""
		if entry.AddDate > 0 {
			publishedAt = timezone.FromUnixMilli(entry.AddDate).Format("2006.01.02")
		}

		result.Items = append(result.Items, SearchItem{
			Key:         key,
			PublishedAt: publishedAt,
			Title:       optional(htmlutil.StripTags(entry.Title)),
			Author:      optional(strings.TrimSpace(entry.NickName)),
			BlogName:    optional(strings.TrimSpace(entry.BlogName)),
			Snippet:     optional(htmlutil.StripTags(entry.Contents)),
		})
	}

	return result, nil
}
