package naverblog

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestBuildCommentsDepthTwo(t *testing.T) {
	doc := resolvedFrom(t, chainUrl(0), `<ul class="u_cbox_list">
		<li class="u_cbox_comment" data-user-id="alice">
			<p class="u_cbox_contents">top level</p>
			<span class="u_cbox_date">2024.01.02. 10:00</span>
			<ul class="u_cbox_reply">
				<li class="u_cbox_comment" data-author-id="bob">
					<p>a reply</p>
					<span>2024.01.02. 11:00</span>
				</li>
			</ul>
		</li>
		<li class="u_cbox_comment">
			<p>second top level</p>
		</li>
	</ul>`)

	comments := NewExtractor(newTestTel()).BuildComments(doc.Document.Selection)
	expect := []Comment{
		{
			Content:     "top level",
			PublishedAt: strPtr("2024.01.02. 10:00"),
			AuthorId:    strPtr("alice"),
			Replies: []Comment{
				{
					Content:     "a reply",
					PublishedAt: strPtr("2024.01.02. 11:00"),
					AuthorId:    strPtr("bob"),
				},
			},
		},
		{Content: "second top level"},
	}
	if diff := cmp.Diff(expect, comments); diff != "" {
		t.Fatalf("comment tree mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCommentsEmpty(t *testing.T) {
	doc := resolvedFrom(t, chainUrl(0), `<div class="u_cbox"><p>no comments yet</p></div>`)
	require.Empty(t, NewExtractor(newTestTel()).BuildComments(doc.Document.Selection))
}

func nestedListing(depth int) string {
	var b strings.Builder
	for i := 0; i < depth; i++ {
		b.WriteString(`<ul><li class="u_cbox_comment"><p>level</p>`)
	}
	for i := 0; i < depth; i++ {
		b.WriteString(`</li></ul>`)
	}
	return b.String()
}

func treeStats(comments []Comment) (count, maxDepth int) {
	type entry struct {
		comment Comment
		depth   int
	}
	var stack []entry
	for _, c := range comments {
		stack = append(stack, entry{comment: c, depth: 1})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		maxDepth = max(maxDepth, top.depth)
		for _, reply := range top.comment.Replies {
			stack = append(stack, entry{comment: reply, depth: top.depth + 1})
		}
	}
	return count, maxDepth
}

func TestBuildCommentsDepthCap(t *testing.T) {
	tel := newTestTel()
	doc := resolvedFrom(t, chainUrl(0), nestedListing(MaxCommentDepth+10))

	comments := NewExtractor(tel).BuildComments(doc.Document.Selection)
	count, depth := treeStats(comments)
	require.Equal(t, MaxCommentDepth+10, count)
	require.Equal(t, MaxCommentDepth, depth)
	require.Len(t, tel.Reports("warning", report_extractor_comment), 10)
}

func TestBuildCommentsWithinCap(t *testing.T) {
	tel := newTestTel()
	doc := resolvedFrom(t, chainUrl(0), nestedListing(MaxCommentDepth))

	comments := NewExtractor(tel).BuildComments(doc.Document.Selection)
	count, depth := treeStats(comments)
	require.Equal(t, MaxCommentDepth, count)
	require.Equal(t, MaxCommentDepth, depth)
	require.Empty(t, tel.Reports("warning", report_extractor_comment))
}
