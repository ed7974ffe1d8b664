package naverblog

import (
	"encoding/json"
	"fmt"
	"naverblog-scraper/lib/htmlutil"
	"naverblog-scraper/lib/textutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	lazySrcSelector      = "[data-lazy-src]"
	thumbSpanSelector    = "span._img[thumburl]"
	inlineVideoSelector  = "._naverVideo"
	moduleScriptSelector = "script.__se_module_data"
)

// moduleAttrs holds the attribute the editor puts its module json in, by
// schema version, newest first.
var moduleAttrs = []string{"data-module-v2", "data-module"}

// NormalizeImageUrl turns a lazy-load image reference into its cdn url: the
// post host becomes the blog host, the query is dropped and escapes are decoded.
// The steps repeat until nothing changes, so normalizing twice is the same as once.
// That also decodes escaped escapes: a literal "%2541" ends up as "A", not "%41".
func NormalizeImageUrl(raw string) string {
	current := strings.TrimSpace(raw)
	for {
		next := strings.ReplaceAll(current, "://post", "://blog")
		if i := strings.IndexByte(next, '?'); i >= 0 {
			next = next[:i]
		}
		next = textutil.DecodePercent(next)
		if next == current {
			return next
		}
		current = next
	}
}

type imageStrategy func(doc *goquery.Document) []ImageRef

type videoStrategy func(e Extractor, doc *goquery.Document) []VideoRef

func lazySrcImages(doc *goquery.Document) []ImageRef {
	var images []ImageRef
	doc.Find(lazySrcSelector).Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("data-lazy-src", ""))
		if src == "" {
			return
		}
		images = append(images, ImageRef{
			Url:      NormalizeImageUrl(src),
			Strategy: IMAGE_LAZY_SRC,
		})
	})
	return images
}

func thumbSpanImages(doc *goquery.Document) []ImageRef {
	var images []ImageRef
	doc.Find(thumbSpanSelector).Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("thumburl", "")
		if src == "" {
			return
		}
		images = append(images, ImageRef{
			Url:      src,
			Strategy: IMAGE_THUMB_SPAN,
		})
	})
	return images
}

func inlineVideos(e Extractor, doc *goquery.Document) []VideoRef {
	var videos []VideoRef
	doc.Find(inlineVideoSelector).Each(func(_ int, s *goquery.Selection) {
		vid := strings.TrimSpace(s.AttrOr("vid", ""))
		key := strings.TrimSpace(s.AttrOr("key", ""))
		if vid == "" || key == "" {
			e.tel.ReportWarning(
				report_extractor_media,
				fmt.Errorf("inline video without vid or key"),
			)
			return
		}
		videos = append(videos, VideoRef{
			VideoId:   vid,
			AccessKey: key,
			Source:    VIDEO_INLINE_ATTRIBUTE,
		})
	})
	return videos
}

type editorModule struct {
	Type string `json:"type"`
	Data struct {
		Vid   string `json:"vid"`
		Inkey string `json:"inkey"`
	} `json:"data"`
}

func scriptPayloadVideos(e Extractor, doc *goquery.Document) []VideoRef {
	var videos []VideoRef
	doc.Find(moduleScriptSelector).Each(func(_ int, s *goquery.Selection) {
		payload, ok := htmlutil.FirstAttr(s, moduleAttrs...)
		if !ok {
			return
		}

		var module editorModule
		err := json.Unmarshal([]byte(payload), &module)
		if err != nil {
			e.tel.ReportWarning(
				report_extractor_media,
				fmt.Errorf("unmarshal editor module: %w", err),
			)
			return
		}
		// most modules are text, images, links and so on
		if module.Data.Vid == "" || module.Data.Inkey == "" {
			return
		}

		videos = append(videos, VideoRef{
			VideoId:   module.Data.Vid,
			AccessKey: module.Data.Inkey,
			Source:    VIDEO_SCRIPT_PAYLOAD,
		})
	})
	return videos
}

var imageStrategies = []imageStrategy{
	lazySrcImages,
	thumbSpanImages,
}

var videoStrategies = []videoStrategy{
	inlineVideos,
	scriptPayloadVideos,
}

// ExtractMedia runs every image and video strategy in order and concatenates what
// they find. Duplicates across strategies are kept.
func (e Extractor) ExtractMedia(doc ResolvedDocument) ([]ImageRef, []VideoRef) {
	var images []ImageRef
	for _, s := range imageStrategies {
		images = append(images, s(doc.Document)...)
	}
	var videos []VideoRef
	for _, s := range videoStrategies {
		videos = append(videos, s(e, doc.Document)...)
	}
	return images, videos
}
