package naverblog

import (
	"naverblog-scraper/internal/assert"
	"naverblog-scraper/internal/components/telemetry"
	"naverblog-scraper/lib/htmlutil"
	"naverblog-scraper/lib/textutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_extractor_content = "extractor.content"
	report_extractor_media   = "extractor.media"
	report_extractor_comment = "extractor.comment"
)

// Extractor reads posts, media and comments out of parsed pages. Every field is
// read on its own, a missing element only leaves that field empty.
type Extractor struct {
	tel telemetry.API
}

func NewExtractor(tel telemetry.API) Extractor {
	assert.NotNil(tel)
	return Extractor{tel: telemetry.NewScopedAPI("naverblog", tel)}
}

// a textStrategy reads one field out of a page, ok is false when the page
// doesn't have it in the form the strategy knows about.
type textStrategy func(doc *goquery.Document) (value string, ok bool)

type countStrategy func(doc *goquery.Document) (n int, ok bool)

func firstText(doc *goquery.Document, strategies []textStrategy) (string, bool) {
	for _, s := range strategies {
		value, ok := s(doc)
		if ok {
			return value, true
		}
	}
	return "", false
}

func firstCount(doc *goquery.Document, strategies []countStrategy) (int, bool) {
	for _, s := range strategies {
		n, ok := s(doc)
		if ok {
			return n, true
		}
	}
	return 0, false
}

func attrOf(selector, attr string) textStrategy {
	return func(doc *goquery.Document) (string, bool) {
		value, ok := doc.Find(selector).First().Attr(attr)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}
}

func textOf(selector string) textStrategy {
	return func(doc *goquery.Document) (string, bool) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		value := htmlutil.SelectionText(sel)
		return value, value != ""
	}
}

func countOf(selector string) countStrategy {
	return func(doc *goquery.Document) (int, bool) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return 0, false
		}
		return textutil.ParseCount(htmlutil.SelectionText(sel))
	}
}

func labeledCountOf(selector, label string) countStrategy {
	return func(doc *goquery.Document) (int, bool) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return 0, false
		}
		return textutil.ParseLabeledCount(htmlutil.SelectionText(sel), label)
	}
}

// sumOf adds up every counter matching selector, for posts that split their
// likes over several reactions. A total of 0 counts as not found.
func sumOf(selector string) countStrategy {
	return func(doc *goquery.Document) (int, bool) {
		total := 0
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			n, ok := textutil.ParseCount(htmlutil.SelectionText(sel))
			if ok {
				total += n
			}
		})
		return total, total > 0
	}
}

// anyLabeledCountOf scans every element matching selector in document order
// for the first one with a `label N` text.
func anyLabeledCountOf(selector, label string) countStrategy {
	return func(doc *goquery.Document) (int, bool) {
		n, found := 0, false
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			n, found = textutil.ParseLabeledCount(htmlutil.SelectionText(sel), label)
			return !found
		})
		return n, found
	}
}

var titleStrategies = []textStrategy{
	attrOf(`meta[property="og:title"]`, "content"),
	textOf("title"),
}

// newer editor first, then the legacy layout
var publishDateStrategies = []textStrategy{
	textOf("span.se_publishDate"),
	textOf("p._postAddDate"),
}

var likeCountStrategies = []countStrategy{
	countOf("#sympathyCount"),
	countOf("span.u_likeit_list_count._count"),
	countOf("span.u_likeit_text._count"),
	sumOf("span.u_likeit_list_count._count"),
}

var commentCountStrategies = []countStrategy{
	countOf("#floating_bottom_commentCount"),
	countOf("#commentCount"),
	labeledCountOf("a.btn_comment", "댓글"),
	labeledCountOf("span.comment_wrap", "댓글"),
	anyLabeledCountOf("a, button, span", "댓글"),
}

// ExtractContent fills in everything but media on a PostRecord. The key is read from
// the canonical url, or the page markup if the url doesn't carry one.
func (e Extractor) ExtractContent(doc ResolvedDocument) PostRecord {
	record := PostRecord{CanonicalUrl: doc.CanonicalUrl}

	key, err := ParsePostUrl(doc.CanonicalUrl)
	if err == nil {
		record.Key = key
	} else if key, ok := KeyFromMarkup(doc.Raw); ok {
		record.Key = key
	}

	if title, ok := firstText(doc.Document, titleStrategies); ok {
		record.Title = &title
	}

	if marker := findContentMarker(doc.Document); marker != nil {
		contentHtml, err := marker.Html()
		if err != nil {
			e.tel.ReportWarning(
				report_extractor_content,
				err,
				doc.CanonicalUrl,
			)
		} else {
			contentText := htmlutil.SelectionText(marker)
			record.ContentHtml = &contentHtml
			record.ContentText = &contentText
		}
	}

	if date, ok := firstText(doc.Document, publishDateStrategies); ok {
		record.PublishDate = &date
	}

	record.LikeCount, _ = firstCount(doc.Document, likeCountStrategies)
	record.CommentCount, _ = firstCount(doc.Document, commentCountStrategies)

	return record
}
