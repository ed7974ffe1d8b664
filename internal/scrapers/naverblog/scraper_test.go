package naverblog

import (
	"context"
	"errors"
	"fmt"
	"naverblog-scraper/internal/components/transport"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func postPage(title string, videos string) string {
	return fmt.Sprintf(`<html><head><meta property="og:title" content="%s"></head><body>
		<span class="se_publishDate">2024. 1. 2. 12:00</span>
		<div class="se-main-container">
			<p>body of %s</p>
			<img data-lazy-src="https://postfiles.pstatic.net/%s.jpg?type=w80">
			%s
		</div>
		<em id="sympathyCount">3</em>
	</body></html>`, title, title, title, videos)
}

func TestScraperPost(t *testing.T) {
	fake := newFakeTransport()
	key := mustKey(t, "owner", "123")

	fake.set(key.DesktopUrl(), 200, postPage("first", `
		<div class="_naverVideo" vid="GOOD" key="k"></div>
		<div class="_naverVideo" vid="BAD" key="k"></div>
	`))
	fake.set(testVideoEndpoint+"/GOOD?key=k", 200, `{"videos":{"list":[{"size":1,"source":"https://video.test/good.mp4"}]}}`)
	fake.set(key.CommentsUrl(), 200, `<ul><li class="u_cbox_comment"><p>nice post</p></li></ul>`)

	tel := newTestTel()
	scraper, err := NewScraper(fake, tel, Options{VideoEndpoint: testVideoEndpoint})
	require.NoError(t, err)

	post, err := scraper.Post(context.Background(), key, PostOptions{ResolveVideos: true, Comments: true})
	require.NoError(t, err)

	record := post.Record
	require.Equal(t, key, record.Key)
	require.Equal(t, strPtr("first"), record.Title)
	require.Equal(t, strPtr("2024. 1. 2. 12:00"), record.PublishDate)
	require.Equal(t, 3, record.LikeCount)
	require.Equal(t, []ImageRef{{Url: "https://blogfiles.pstatic.net/first.jpg", Strategy: IMAGE_LAZY_SRC}}, record.Images)

	require.Len(t, record.Videos, 2)
	require.Equal(t, strPtr("https://video.test/good.mp4"), record.Videos[0].ResolvedUrl)
	require.Nil(t, record.Videos[1].ResolvedUrl)
	require.NotEmpty(t, tel.Reports("warning", report_video_resolve))

	require.Equal(t, []Comment{{Content: "nice post"}}, post.Comments)
}

func TestScraperPostWithoutEnrichment(t *testing.T) {
	fake := newFakeTransport()
	key := mustKey(t, "owner", "123")
	fake.set(key.DesktopUrl(), 200, postPage("first", `<div class="_naverVideo" vid="V" key="k"></div>`))

	scraper, err := NewScraper(fake, newTestTel(), Options{VideoEndpoint: testVideoEndpoint})
	require.NoError(t, err)

	post, err := scraper.Post(context.Background(), key, PostOptions{})
	require.NoError(t, err)
	require.Nil(t, post.Comments)
	require.Len(t, post.Record.Videos, 1)
	require.Nil(t, post.Record.Videos[0].ResolvedUrl)
	require.Equal(t, 0, fake.count(testVideoEndpoint+"/V?key=k"))
	require.Equal(t, 0, fake.count(key.CommentsUrl()))
}

func TestScraperPostFailures(t *testing.T) {
	fake := newFakeTransport()
	key := mustKey(t, "owner", "123")

	scraper, err := NewScraper(fake, newTestTel(), Options{})
	require.NoError(t, err)

	_, err = scraper.Post(context.Background(), key, PostOptions{})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))

	fake.set(key.DesktopUrl(), 200, postPage("first", ""))
	fake.set(key.CommentsUrl(), 500, "")
	_, err = scraper.Post(context.Background(), key, PostOptions{Comments: true})
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, key.CommentsUrl(), statusErr.Url)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = scraper.Post(ctx, key, PostOptions{})
	require.ErrorIs(t, err, transport.ErrCanceled)
}

func TestScraperCollect(t *testing.T) {
	fake := newFakeTransport()
	good := []PostKey{mustKey(t, "owner", "1"), mustKey(t, "owner", "2"), mustKey(t, "owner", "3")}
	missing := mustKey(t, "owner", "404")
	for _, key := range good {
		fake.set(key.DesktopUrl(), 200, postPage(key.PostId, ""))
	}

	source := &fakeSource{pages: map[int]SourcePage{
		1: {TotalCount: 4, Items: []SearchItem{{Key: good[0]}, {Key: missing}}},
		2: {TotalCount: 4, Items: []SearchItem{{Key: good[1]}, {Key: good[2]}}},
	}}

	scraper, err := NewScraper(fake, newTestTel(), Options{})
	require.NoError(t, err)

	var titles []string
	var failed []PostKey
	err = scraper.Collect(
		context.Background(),
		NewSearch(SearchQuery{Keyword: "busan"}, source),
		CollectOptions{Concurrency: 2},
		func(result PostResult) error {
			if result.Err != nil {
				failed = append(failed, result.Item.Key)
				return nil
			}
			titles = append(titles, *result.Post.Record.Title)
			return nil
		},
	)
	require.NoError(t, err)

	sort.Strings(titles)
	require.Equal(t, []string{"1", "2", "3"}, titles)
	require.Equal(t, []PostKey{missing}, failed)
}

func TestScraperCollectStopsOnCallbackError(t *testing.T) {
	fake := newFakeTransport()
	source := &fakeSource{pages: map[int]SourcePage{}}
	for page := 1; page <= 5; page++ {
		key := mustKey(t, "owner", fmt.Sprint(page))
		fake.set(key.DesktopUrl(), 200, postPage(key.PostId, ""))
		source.pages[page] = SourcePage{TotalCount: 5, Items: []SearchItem{{Key: key}}}
	}

	scraper, err := NewScraper(fake, newTestTel(), Options{})
	require.NoError(t, err)

	stop := errors.New("stop")
	calls := 0
	err = scraper.Collect(
		context.Background(),
		NewSearch(SearchQuery{Keyword: "busan"}, source),
		CollectOptions{Concurrency: 1},
		func(result PostResult) error {
			calls++
			return stop
		},
	)
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, calls)
}

func TestScraperCollectNoCallsAfterStopWithWorkers(t *testing.T) {
	fake := newFakeTransport()
	var items []SearchItem
	for i := 1; i <= 8; i++ {
		key := mustKey(t, "owner", fmt.Sprint(i))
		fake.set(key.DesktopUrl(), 200, postPage(key.PostId, ""))
		items = append(items, SearchItem{Key: key})
	}
	source := &fakeSource{pages: map[int]SourcePage{
		1: {TotalCount: 8, Items: items},
	}}

	scraper, err := NewScraper(fake, newTestTel(), Options{})
	require.NoError(t, err)

	stop := errors.New("stop")
	calls := 0
	err = scraper.Collect(
		context.Background(),
		NewSearch(SearchQuery{Keyword: "busan"}, source),
		CollectOptions{Concurrency: 4},
		func(result PostResult) error {
			calls++
			return stop
		},
	)
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, calls)
}
