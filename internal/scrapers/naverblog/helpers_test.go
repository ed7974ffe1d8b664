package naverblog

import (
	"context"
	"naverblog-scraper/internal/components/telemetry"
	"naverblog-scraper/internal/components/transport"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// fakeTransport serves fixed responses by url, unknown urls are 404s.
type fakeTransport struct {
	mutex   sync.Mutex
	pages   map[string]transport.Response
	errs    map[string]error
	fetched []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		pages: map[string]transport.Response{},
		errs:  map[string]error{},
	}
}

func (f *fakeTransport) set(url string, status int, body string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.pages[url] = transport.Response{Status: status, Body: []byte(body), URL: url}
}

func (f *fakeTransport) fail(url string, err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.errs[url] = err
}

func (f *fakeTransport) Fetch(ctx context.Context, url string) (transport.Response, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.fetched = append(f.fetched, url)

	if ctx.Err() != nil {
		return transport.Response{}, transport.Classify(ctx, url, ctx.Err())
	}
	if err, ok := f.errs[url]; ok {
		return transport.Response{}, transport.Classify(ctx, url, err)
	}
	res, ok := f.pages[url]
	if !ok {
		return transport.Response{Status: 404, URL: url}, nil
	}
	return res, nil
}

func (f *fakeTransport) count(url string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	n := 0
	for _, fetched := range f.fetched {
		if fetched == url {
			n++
		}
	}
	return n
}

func resolvedFrom(t testing.TB, url, markup string) ResolvedDocument {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	return ResolvedDocument{
		CanonicalUrl: url,
		Document:     doc,
		Raw:          []byte(markup),
	}
}

func mustKey(t testing.TB, owner, post string) PostKey {
	key, err := NewPostKey(owner, post)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func strPtr(s string) *string {
	return &s
}

func newTestTel() *telemetry.MemoryAPI {
	return &telemetry.MemoryAPI{}
}
