package store

import (
	"context"
	"naverblog-scraper/internal/scrapers/naverblog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) Store {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	store, database, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	return store
}

func ptr(s string) *string {
	return &s
}

func TestStorePost(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := naverblog.PostKey{OwnerId: "owner", PostId: "123"}

	_, ok, err := store.Post(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	record := naverblog.PostRecord{
		Key:          key,
		CanonicalUrl: key.MobileUrl(),
		Title:        ptr("title"),
		ContentText:  ptr("text"),
		LikeCount:    4,
		CommentCount: 2,
		Images: []naverblog.ImageRef{
			{Url: "https://blogfiles.pstatic.net/a.jpg", Strategy: naverblog.IMAGE_LAZY_SRC},
			{Url: "https://thumb.example/b.jpg", Strategy: naverblog.IMAGE_THUMB_SPAN},
		},
		Videos: []naverblog.VideoRef{
			{VideoId: "V1", AccessKey: "K1", Source: naverblog.VIDEO_SCRIPT_PAYLOAD, ResolvedUrl: ptr("https://video.test/v1.mp4")},
			{VideoId: "V2", AccessKey: "K2", Source: naverblog.VIDEO_INLINE_ATTRIBUTE},
		},
	}
	err = store.SavePost(ctx, record, time.Unix(1704164400, 0))
	require.NoError(t, err)

	stored, ok, err := store.Post(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(record, stored); diff != "" {
		t.Fatalf("stored post mismatch (-want +got):\n%s", diff)
	}

	// saving again replaces media instead of appending
	record.Images = record.Images[:1]
	record.Videos = nil
	record.Title = nil
	err = store.SavePost(ctx, record, time.Unix(1704164500, 0))
	require.NoError(t, err)

	stored, _, err = store.Post(ctx, key)
	require.NoError(t, err)
	require.Len(t, stored.Images, 1)
	require.Empty(t, stored.Videos)
	require.Nil(t, stored.Title)
}

func TestStoreComments(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := naverblog.PostKey{OwnerId: "owner", PostId: "123"}

	comments := []naverblog.Comment{
		{
			Content:  "first",
			AuthorId: ptr("alice"),
			Replies: []naverblog.Comment{
				{Content: "reply one", PublishedAt: ptr("2024.01.02.")},
				{
					Content: "reply two",
					Replies: []naverblog.Comment{{Content: "nested"}},
				},
			},
		},
		{Content: "second"},
	}
	err := store.SaveComments(ctx, key, comments)
	require.NoError(t, err)

	stored, err := store.Comments(ctx, key)
	require.NoError(t, err)
	if diff := cmp.Diff(comments, stored); diff != "" {
		t.Fatalf("stored comments mismatch (-want +got):\n%s", diff)
	}

	err = store.SaveComments(ctx, key, comments[1:])
	require.NoError(t, err)
	stored, err = store.Comments(ctx, key)
	require.NoError(t, err)
	require.Equal(t, comments[1:], stored)

	other, err := store.Comments(ctx, naverblog.PostKey{OwnerId: "owner", PostId: "9"})
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestStoreSearchItems(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	items := []naverblog.SearchItem{
		{Key: naverblog.PostKey{OwnerId: "b", PostId: "1"}, PublishedAt: "2024.01.03", Title: ptr("b")},
		{Key: naverblog.PostKey{OwnerId: "a", PostId: "100"}, PublishedAt: "2024.01.02"},
		{Key: naverblog.PostKey{OwnerId: "a", PostId: "99"}, PublishedAt: "2024.01.01", Author: ptr("someone")},
	}
	err := store.SaveSearchItems(ctx, "busan", items)
	require.NoError(t, err)
	err = store.SaveSearchItems(ctx, "busan", items[:1])
	require.NoError(t, err)

	stored, err := store.SearchItems(ctx, "busan")
	require.NoError(t, err)
	require.Equal(t, []naverblog.SearchItem{items[2], items[1], items[0]}, stored)

	none, err := store.SearchItems(ctx, "seoul")
	require.NoError(t, err)
	require.Empty(t, none)
}
