package commands

import (
	"fmt"
	"naverblog-scraper/internal/scrapers/naverblog"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(commentsCmd)
}

type commentLine struct {
	comment naverblog.Comment
	depth   int
}

func printComments(comments []naverblog.Comment) {
	var stack []commentLine
	for i := len(comments) - 1; i >= 0; i-- {
		stack = append(stack, commentLine{comment: comments[i]})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fmt.Printf(
			"%s- %s [%s %s]\n",
			strings.Repeat("  ", top.depth),
			top.comment.Content,
			deref(top.comment.AuthorId),
			deref(top.comment.PublishedAt),
		)

		replies := top.comment.Replies
		for i := len(replies) - 1; i >= 0; i-- {
			stack = append(stack, commentLine{comment: replies[i], depth: top.depth + 1})
		}
	}
}

var commentsCmd = &cobra.Command{
	Use:   "comments <url | owner/post>",
	Short: "Prints the comment tree of a post.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}
		comments, err := env.scraper.Comments(cmd.Context(), key)
		if err != nil {
			return err
		}
		printComments(comments)
		return nil
	},
}
