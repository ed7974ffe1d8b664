package naverblog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeImageUrl(t *testing.T) {
	cases := []struct {
		raw    string
		expect string
	}{
		{
			raw:    "https://postfiles.pstatic.net/20240102_1/photo.jpg?type=w80_blur",
			expect: "https://blogfiles.pstatic.net/20240102_1/photo.jpg",
		},
		{
			raw:    "https://postfiles.pstatic.net/a/%EC%82%AC%EC%A7%84.jpg?type=w966",
			expect: "https://blogfiles.pstatic.net/a/사진.jpg",
		},
		{
			// EUC-KR escapes of "가"
			raw:    "https://postfiles.pstatic.net/a/%B0%A1.jpg",
			expect: "https://blogfiles.pstatic.net/a/가.jpg",
		},
		{
			raw:    "https://blogfiles.pstatic.net/plain.png",
			expect: "https://blogfiles.pstatic.net/plain.png",
		},
		{
			// an escaped percent sign is decoded again on the next pass
			raw:    "https://postfiles.pstatic.net/a/100%2541.jpg?type=w80",
			expect: "https://blogfiles.pstatic.net/a/100A.jpg",
		},
	}

	for _, test := range cases {
		once := NormalizeImageUrl(test.raw)
		require.Equal(t, test.expect, once, test.raw)
		require.Equal(t, once, NormalizeImageUrl(once), test.raw)
	}
}

func TestNormalizeImageUrlIdempotent(t *testing.T) {
	inputs := []string{
		"https://postfiles.pstatic.net/%2525B0%2525A1.jpg?x=1",
		"https://postfiles.pstatic.net/100%.jpg",
		"https://postpostfiles.example/%3Fq%3D1",
		"",
		"%",
	}
	for _, raw := range inputs {
		once := NormalizeImageUrl(raw)
		require.Equal(t, once, NormalizeImageUrl(once), raw)
	}
}

func TestExtractMediaOrder(t *testing.T) {
	doc := resolvedFrom(t, chainUrl(0), `<html><body>
		<span class="_img" thumburl="https://thumb.example/first-in-document.jpg"></span>
		<img data-lazy-src="https://postfiles.pstatic.net/one.jpg?type=w80">
		<span class="_img" thumburl="https://thumb.example/second.jpg?keep=1"></span>
		<img data-lazy-src="https://postfiles.pstatic.net/two.jpg">
		<img data-lazy-src="https://postfiles.pstatic.net/one.jpg?type=w80">
	</body></html>`)

	images, videos := NewExtractor(newTestTel()).ExtractMedia(doc)
	require.Empty(t, videos)
	require.Equal(t, []ImageRef{
		{Url: "https://blogfiles.pstatic.net/one.jpg", Strategy: IMAGE_LAZY_SRC},
		{Url: "https://blogfiles.pstatic.net/two.jpg", Strategy: IMAGE_LAZY_SRC},
		{Url: "https://blogfiles.pstatic.net/one.jpg", Strategy: IMAGE_LAZY_SRC},
		{Url: "https://thumb.example/first-in-document.jpg", Strategy: IMAGE_THUMB_SPAN},
		{Url: "https://thumb.example/second.jpg?keep=1", Strategy: IMAGE_THUMB_SPAN},
	}, images)
}

func TestExtractMediaVideos(t *testing.T) {
	doc := resolvedFrom(t, chainUrl(0), `<html><body>
		<script class="__se_module_data" data-module-v2='{"type":"v2_video","data":{"vid":"V2","inkey":"K2"}}'></script>
		<div class="_naverVideo" vid="V1" key="K1"></div>
		<div class="_naverVideo" vid="V3"></div>
		<script class="__se_module_data" data-module='{"type":"v1_video","data":{"vid":"V4","inkey":"K4"}}'></script>
		<script class="__se_module_data" data-module-v2='{"type":"v2_image","data":{"src":"x.jpg"}}'></script>
		<script class="__se_module_data" data-module-v2='{not json'></script>
	</body></html>`)

	tel := newTestTel()
	images, videos := NewExtractor(tel).ExtractMedia(doc)
	require.Empty(t, images)
	require.Equal(t, []VideoRef{
		{VideoId: "V1", AccessKey: "K1", Source: VIDEO_INLINE_ATTRIBUTE},
		{VideoId: "V2", AccessKey: "K2", Source: VIDEO_SCRIPT_PAYLOAD},
		{VideoId: "V4", AccessKey: "K4", Source: VIDEO_SCRIPT_PAYLOAD},
	}, videos)

	// the inline video without a key and the malformed payload
	require.Len(t, tel.Reports("warning", report_extractor_media), 2)
}
