package naverblog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"naverblog-scraper/internal/assert"
	"naverblog-scraper/internal/components/telemetry"
	"naverblog-scraper/internal/components/transport"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_video_resolve = "video.resolve"
)

const DefaultVideoEndpoint = "https://apis.naver.com/rmcnmv/rmcnmv/vod/play/v2.0"

// VideoResolver looks up the playable url of an embedded video through the
// media service.
type VideoResolver struct {
	transport transport.Transport
	tel       telemetry.API
	endpoint  string
}

// NewVideoResolver creates a VideoResolver, an empty endpoint means DefaultVideoEndpoint.
func NewVideoResolver(t transport.Transport, tel telemetry.API, endpoint string) VideoResolver {
	assert.NotNil(t)
	assert.NotNil(tel)
	if endpoint == "" {
		endpoint = DefaultVideoEndpoint
	}
	return VideoResolver{
		transport: t,
		tel:       telemetry.NewScopedAPI("naverblog", tel),
		endpoint:  strings.TrimRight(endpoint, "/"),
	}
}

func (r VideoResolver) lookupUrl(videoId, accessKey string) string {
	return fmt.Sprintf(
		"%s/%s?key=%s",
		r.endpoint,
		url.PathEscape(videoId),
		url.QueryEscape(accessKey),
	)
}

type playResponse struct {
	Videos struct {
		List []struct {
			Size   int64  `json:"size"`
			Source string `json:"source"`
		} `json:"list"`
	} `json:"videos"`
}

// pickLargest returns the source of the largest variant, the first one listed
// wins a tie.
func pickLargest(res playResponse) (string, error) {
	list := res.Videos.List
	if len(list) == 0 {
		return "", errors.New("no variants listed")
	}
	best := 0
	for i := 1; i < len(list); i++ {
		if list[i].Size > list[best].Size {
			best = i
		}
	}
	if list[best].Source == "" {
		return "", errors.New("largest variant has no source")
	}
	return list[best].Source, nil
}

// ResolveVideo returns the source url of the largest variant of a video.
// Every failure is wrapped in ErrVideoLookupFailed.
func (r VideoResolver) ResolveVideo(ctx context.Context, videoId, accessKey string) (string, error) {
	ctx, span := tracer.Start(ctx, "ResolveVideo", trace.WithAttributes(
		attribute.String("video_id", videoId),
	))
	defer span.End()

	fail := func(cause error) (string, error) {
		err := fmt.Errorf("%w: %s: %w", ErrVideoLookupFailed, videoId, cause)
		span.SetStatus(codes.Error, err.Error())
		r.tel.ReportWarning(report_video_resolve, err)
		return "", err
	}

	lookup := r.lookupUrl(videoId, accessKey)
	res, err := r.transport.Fetch(ctx, lookup)
	if err != nil {
		return fail(err)
	}
	if !res.OK() {
		return fail(&StatusError{Url: lookup, Status: res.Status})
	}

	var parsed playResponse
	err = json.Unmarshal(res.Body, &parsed)
	if err != nil {
		return fail(fmt.Errorf("unmarshal: %w", err))
	}
	source, err := pickLargest(parsed)
	if err != nil {
		return fail(err)
	}
	return source, nil
}

// Enrich returns a copy of ref with ResolvedUrl filled in.
func (r VideoResolver) Enrich(ctx context.Context, ref VideoRef) (VideoRef, error) {
	source, err := r.ResolveVideo(ctx, ref.VideoId, ref.AccessKey)
	if err != nil {
		return ref, err
	}
	ref.ResolvedUrl = &source
	return ref, nil
}
