package naverblog

import (
	"cmp"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	desktopOrigin = "https://blog.naver.com"
	mobileOrigin  = "https://m.blog.naver.com"
)

// PostKey identifies a post, it is comparable and ordered by owner then post.
type PostKey struct {
	OwnerId string
	PostId  string
}

var (
	ownerIdRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)
	postIdRegex  = regexp.MustCompile(`^\d{1,20}$`)
)

func NewPostKey(ownerId, postId string) (PostKey, error) {
	ownerId = strings.TrimSpace(ownerId)
	postId = strings.TrimSpace(postId)
	if !ownerIdRegex.MatchString(ownerId) {
		return PostKey{}, fmt.Errorf("%w: owner id %q", ErrInvalidKey, ownerId)
	}
	if !postIdRegex.MatchString(postId) {
		return PostKey{}, fmt.Errorf("%w: post id %q", ErrInvalidKey, postId)
	}
	return PostKey{OwnerId: ownerId, PostId: postId}, nil
}

func (k PostKey) Compare(other PostKey) int {
	if c := cmp.Compare(k.OwnerId, other.OwnerId); c != 0 {
		return c
	}
	// equal length digit strings order the same as their numbers
	if c := cmp.Compare(len(k.PostId), len(other.PostId)); c != 0 {
		return c
	}
	return cmp.Compare(k.PostId, other.PostId)
}

func (k PostKey) String() string {
	return k.OwnerId + "/" + k.PostId
}

func (k PostKey) query() string {
	values := url.Values{}
	values.Set("blogId", k.OwnerId)
	values.Set("logNo", k.PostId)
	return values.Encode()
}

// DesktopUrl is the public url of the post, the one that wraps it in frames.
func (k PostKey) DesktopUrl() string {
	return fmt.Sprintf("%s/%s/%s", desktopOrigin, url.PathEscape(k.OwnerId), url.PathEscape(k.PostId))
}

// MobileUrl is the frameless mobile view of the post.
func (k PostKey) MobileUrl() string {
	return mobileOrigin + "/PostView.naver?" + k.query()
}

func (k PostKey) CommentsUrl() string {
	return mobileOrigin + "/CommentList.naver?" + k.query()
}

// ParsePostUrl reads a PostKey out of any of the url shapes a post is reachable
// through: /{owner}/{post} on either host, or PostView with blogId & logNo.
func ParsePostUrl(raw string) (PostKey, error) {
	link, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return PostKey{}, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	host := strings.ToLower(link.Hostname())
	if host != "" && host != "blog.naver.com" && !strings.HasSuffix(host, ".blog.naver.com") {
		return PostKey{}, fmt.Errorf("%w: unexpected host %q", ErrInvalidKey, host)
	}

	query := link.Query()
	if query.Has("blogId") && query.Has("logNo") {
		return NewPostKey(query.Get("blogId"), query.Get("logNo"))
	}

	segments := strings.Split(strings.Trim(link.Path, "/"), "/")
	if len(segments) == 2 {
		return NewPostKey(segments[0], segments[1])
	}
	return PostKey{}, fmt.Errorf("%w: no post in %q", ErrInvalidKey, raw)
}

var (
	markupOwnerRegex = regexp.MustCompile(`blogId\s*(?:=|:|%3D)\s*['"]?([A-Za-z0-9_-]{1,50})`)
	markupPostRegex  = regexp.MustCompile(`logNo\s*(?:=|:|%3D)\s*['"]?(\d{1,20})`)
)

// KeyFromMarkup pattern matches blogId and logNo out of raw markup, as found in
// redirect stubs, either as script variables or inside query strings.
func KeyFromMarkup(raw []byte) (PostKey, bool) {
	owner := markupOwnerRegex.FindSubmatch(raw)
	post := markupPostRegex.FindSubmatch(raw)
	if owner == nil || post == nil {
		return PostKey{}, false
	}
	key, err := NewPostKey(string(owner[1]), string(post[1]))
	if err != nil {
		return PostKey{}, false
	}
	return key, true
}
