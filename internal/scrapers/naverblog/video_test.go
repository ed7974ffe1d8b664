package naverblog

import (
	"context"
	"errors"
	"naverblog-scraper/internal/components/transport"
	"testing"

	"github.com/stretchr/testify/require"
)

const testVideoEndpoint = "https://video.test/play"

func TestResolveVideoLargestVariant(t *testing.T) {
	fake := newFakeTransport()
	fake.set(testVideoEndpoint+"/V1?key=K1", 200, `{"meta":{},"videos":{"list":[
		{"size":100,"source":"https://video.test/270p.mp4"},
		{"size":900,"source":"https://video.test/1080p.mp4"},
		{"size":500,"source":"https://video.test/720p.mp4"},
		{"size":900,"source":"https://video.test/1080p-copy.mp4"}
	]}}`)

	resolver := NewVideoResolver(fake, newTestTel(), testVideoEndpoint)
	source, err := resolver.ResolveVideo(context.Background(), "V1", "K1")
	require.NoError(t, err)
	require.Equal(t, "https://video.test/1080p.mp4", source)

	ref, err := resolver.Enrich(context.Background(), VideoRef{VideoId: "V1", AccessKey: "K1"})
	require.NoError(t, err)
	require.Equal(t, strPtr("https://video.test/1080p.mp4"), ref.ResolvedUrl)
}

func TestResolveVideoFailures(t *testing.T) {
	fake := newFakeTransport()
	fake.set(testVideoEndpoint+"/empty?key=k", 200, `{"videos":{"list":[]}}`)
	fake.set(testVideoEndpoint+"/broken?key=k", 200, `{"videos":`)
	fake.set(testVideoEndpoint+"/nosource?key=k", 200, `{"videos":{"list":[{"size":1}]}}`)
	fake.set(testVideoEndpoint+"/status?key=k", 403, `{}`)
	fake.fail(testVideoEndpoint+"/network?key=k", errors.New("connection refused"))

	tel := newTestTel()
	resolver := NewVideoResolver(fake, tel, testVideoEndpoint)

	for _, vid := range []string{"empty", "broken", "nosource", "status", "network", "missing"} {
		_, err := resolver.ResolveVideo(context.Background(), vid, "k")
		require.ErrorIs(t, err, ErrVideoLookupFailed, vid)
	}

	_, err := resolver.ResolveVideo(context.Background(), "network", "k")
	require.ErrorIs(t, err, transport.ErrNetwork)

	_, err = resolver.ResolveVideo(context.Background(), "status", "k")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, 403, statusErr.Status)

	ref := VideoRef{VideoId: "empty", AccessKey: "k"}
	enriched, err := resolver.Enrich(context.Background(), ref)
	require.Error(t, err)
	require.Nil(t, enriched.ResolvedUrl)

	require.NotEmpty(t, tel.Reports("warning", report_video_resolve))
}
