package commands

import (
	"fmt"
	"log/slog"
	"naverblog-scraper/internal/scrapers/naverblog"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	postVideos   *bool
	postComments *bool
	postSave     *bool
)

func init() {
	postVideos = postCmd.Flags().Bool("videos", false, "Resolve the playable url of embedded videos.")
	postComments = postCmd.Flags().Bool("comments", false, "Fetch the comment tree too.")
	postSave = postCmd.Flags().Bool("save", false, "Write the post to the database.")
	rootCmd.AddCommand(postCmd)
}

var postCmd = &cobra.Command{
	Use:   "post <url | owner/post> [--videos] [--comments] [--save]",
	Short: "Scrapes a single post and prints what was extracted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		key, err := parseKeyArg(args[0])
		if err != nil {
			return err
		}

		post, err := env.scraper.Post(ctx, key, naverblog.PostOptions{
			ResolveVideos: *postVideos,
			Comments:      *postComments,
		})
		if err != nil {
			return err
		}
		record := post.Record

		t := newTable()
		t.AppendRows([]table.Row{
			{"Key", record.Key.String()},
			{"Url", record.CanonicalUrl},
			{"Title", deref(record.Title)},
			{"Published", deref(record.PublishDate)},
			{"Likes", record.LikeCount},
			{"Comments", record.CommentCount},
			{"Content", truncate(deref(record.ContentText), 80)},
		})
		for _, image := range record.Images {
			t.AppendRow(table.Row{fmt.Sprintf("Image (%s)", image.Strategy), image.Url})
		}
		for _, video := range record.Videos {
			t.AppendRow(table.Row{fmt.Sprintf("Video (%s)", video.Source), fmt.Sprintf("%s %s", video.VideoId, deref(video.ResolvedUrl))})
		}
		t.Render()

		if *postComments {
			printComments(post.Comments)
		}

		if !*postSave {
			return nil
		}
		out, closeStore, err := openStore(ctx, "")
		if err != nil {
			return err
		}
		defer closeStore()
		err = out.SavePost(ctx, record, time.Now())
		if err != nil {
			return err
		}
		if *postComments {
			err = out.SaveComments(ctx, key, post.Comments)
			if err != nil {
				return err
			}
		}
		slog.Info("saved post", "key", key.String())
		return nil
	},
}
