package naverblog

import (
	"github.com/PuerkitoBio/goquery"
)

// ResolvedDocument is the end of a redirect chain, the page that actually holds
// the post. It belongs to the Resolve call that produced it, extractors only read it.
type ResolvedDocument struct {
	CanonicalUrl string
	Document     *goquery.Document
	Raw          []byte
	// Hops is the number of redirects followed to get here.
	Hops int
}

type ImageStrategy int

const (
	IMAGE_LAZY_SRC ImageStrategy = iota
	IMAGE_THUMB_SPAN
)

func (s ImageStrategy) String() string {
	switch s {
	case IMAGE_LAZY_SRC:
		return "lazy_src"
	case IMAGE_THUMB_SPAN:
		return "thumb_span"
	}
	return "unknown"
}

type ImageRef struct {
	Url      string
	Strategy ImageStrategy
}

type VideoSource int

const (
	VIDEO_INLINE_ATTRIBUTE VideoSource = iota
	VIDEO_SCRIPT_PAYLOAD
)

func (s VideoSource) String() string {
	switch s {
	case VIDEO_INLINE_ATTRIBUTE:
		return "inline_attribute"
	case VIDEO_SCRIPT_PAYLOAD:
		return "script_payload"
	}
	return "unknown"
}

type VideoRef struct {
	VideoId   string
	AccessKey string
	Source    VideoSource
	// ResolvedUrl is only ever filled in by VideoResolver.
	ResolvedUrl *string
}

// PostRecord is a single extracted post. Optional fields are nil when the page
// had no element for them.
type PostRecord struct {
	Key          PostKey
	CanonicalUrl string
	Title        *string
	ContentHtml  *string
	ContentText  *string
	PublishDate  *string
	LikeCount    int
	CommentCount int
	Images       []ImageRef
	Videos       []VideoRef
}

// SearchItem is one listed post in a search result page, everything besides
// Key and PublishedAt depends on what the listing exposes.
type SearchItem struct {
	Key         PostKey
	PublishedAt string
	Title       *string
	Author      *string
	BlogName    *string
	Snippet     *string
}

type SearchResultPage struct {
	// Index is 1-based.
	Index      int
	TotalCount int
	Items      []SearchItem
	HasMore    bool
}

type Comment struct {
	Content     string
	PublishedAt *string
	AuthorId    *string
	Replies     []Comment
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
