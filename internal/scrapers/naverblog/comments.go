package naverblog

import (
	"fmt"
	"naverblog-scraper/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	commentItemSelector = "li.u_cbox_comment"
	// MaxCommentDepth bounds the depth of a built comment tree, replies nested
	// deeper than this are hoisted to the deepest allowed level.
	MaxCommentDepth = 50
)

var commentAuthorAttrs = []string{"data-user-id", "data-author-id"}

type commentNode struct {
	comment  Comment
	parent   int
	depth    int
	children []int
}

// ownedFirst returns the first match of selector that belongs to item itself
// and not to a reply nested inside it.
func ownedFirst(item *goquery.Selection, selector string) *goquery.Selection {
	return item.Find(selector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		closest := s.Closest(commentItemSelector)
		return closest.Length() > 0 && closest.Nodes[0] == item.Nodes[0]
	}).First()
}

func ownedText(item *goquery.Selection, selectors ...string) (string, bool) {
	for _, selector := range selectors {
		sel := ownedFirst(item, selector)
		if sel.Length() > 0 {
			return htmlutil.SelectionText(sel), true
		}
	}
	return "", false
}

func readComment(item *goquery.Selection) Comment {
	content, _ := ownedText(item, ".u_cbox_contents", "p")
	comment := Comment{Content: content}
	if date, ok := ownedText(item, ".u_cbox_date", "span"); ok {
		comment.PublishedAt = optional(date)
	}
	if author, ok := htmlutil.FirstAttr(item, commentAuthorAttrs...); ok {
		comment.AuthorId = &author
	}
	return comment
}

// BuildComments rebuilds the comment tree out of a listing where replies are
// comment items nested inside other comment items. Only top level comments are
// returned, with their replies attached.
func (e Extractor) BuildComments(listing *goquery.Selection) []Comment {
	var nodes []commentNode
	var roots []int
	index := map[*html.Node]int{}

	listing.Find(commentItemSelector).Each(func(_ int, item *goquery.Selection) {
		node := commentNode{
			comment: readComment(item),
			parent:  -1,
			depth:   1,
		}

		// items come in document order, so an enclosing item is always indexed already
		for p := item.Nodes[0].Parent; p != nil; p = p.Parent {
			if i, ok := index[p]; ok {
				node.parent = i
				break
			}
		}

		if node.parent >= 0 {
			hoisted := false
			for nodes[node.parent].depth >= MaxCommentDepth {
				node.parent = nodes[node.parent].parent
				hoisted = true
			}
			node.depth = nodes[node.parent].depth + 1
			if hoisted {
				e.tel.ReportWarning(
					report_extractor_comment,
					fmt.Errorf("comment nested deeper than %d, attached at depth %d", MaxCommentDepth, node.depth),
				)
			}
		}

		i := len(nodes)
		index[item.Nodes[0]] = i
		nodes = append(nodes, node)
		if node.parent < 0 {
			roots = append(roots, i)
		} else {
			nodes[node.parent].children = append(nodes[node.parent].children, i)
		}
	})

	// children always come after their parent, so building back to front
	// finishes every subtree before the node that holds it
	built := make([]Comment, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		comment := nodes[i].comment
		for _, child := range nodes[i].children {
			comment.Replies = append(comment.Replies, built[child])
		}
		built[i] = comment
	}

	var comments []Comment
	for _, i := range roots {
		comments = append(comments, built[i])
	}
	return comments
}
