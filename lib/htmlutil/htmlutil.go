package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText returns the concatenated text of all the text nodes under node,
// script and style contents are skipped.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer

	stack := []*html.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}

		switch n.Type {
		case html.TextNode:
			buffer.WriteString(n.Data)
			continue
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				continue
			}
		}

		// children are pushed in reverse so they pop in document order
		for child := n.LastChild; child != nil; child = child.PrevSibling {
			stack = append(stack, child)
		}
	}

	return buffer.String()
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || c == '\n' || c == '\t' {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText strips non-printable runes and collapses runs of whitespace.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// SelectionText is CleanText over every node in the selection.
func SelectionText(sel *goquery.Selection) string {
	var out strings.Builder
	for i, n := range sel.Nodes {
		if i > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(GetText(n))
	}
	return CleanText(out.String())
}

// StripTags removes markup from an html fragment, leaving only its text.
func StripTags(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return CleanText(doc.Text())
}

// FirstAttr returns the value of the first attribute in `names` that is
// present and non-empty on the first node of the selection.
func FirstAttr(sel *goquery.Selection, names ...string) (string, bool) {
	for _, name := range names {
		value, ok := sel.Attr(name)
		if ok && strings.TrimSpace(value) != "" {
			return value, true
		}
	}
	return "", false
}

type Anchor struct {
	Name string
	Url  *url.URL
}

// GetAnchors resolves the href of every node in the selection against base,
// anchors with unparsable or missing hrefs are skipped.
func GetAnchors(base *url.URL, sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = strings.TrimSpace(a.Val)
				break
			}
		}
		if href == "" {
			continue
		}

		link, err := url.Parse(href)
		if err != nil {
			continue
		}
		if base != nil {
			link = base.ResolveReference(link)
		}

		anchors = append(anchors, Anchor{
			Name: CleanText(GetText(n)),
			Url:  link,
		})
	}
	return anchors
}
