// Package store persists scraped posts, comments and search listings to sqlite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"naverblog-scraper/internal/scrapers/naverblog"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open opens (or creates) the sqlite database at path and applies the schema.
func Open(ctx context.Context, path string) (Store, *sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, nil, err
	}
	// every connection to ":memory:" is its own database
	database.SetMaxOpenConns(1)

	_, err = database.ExecContext(ctx, "pragma foreign_keys = on")
	if err != nil {
		database.Close()
		return Store{}, nil, err
	}
	_, err = database.ExecContext(ctx, Schema)
	if err != nil {
		database.Close()
		return Store{}, nil, fmt.Errorf("apply schema: %w", err)
	}
	return NewStore(database), database, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// SavePost replaces everything stored for the post's key with record.
func (s Store) SavePost(ctx context.Context, record naverblog.PostRecord, scrapedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	key := record.Key
	_, err = tx.ExecContext(
		ctx,
		`insert into post (owner_id, post_id, canonical_url, title, content_html, content_text, publish_date, like_count, comment_count, scraped_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		on conflict (owner_id, post_id) do update set
			canonical_url = excluded.canonical_url,
			title = excluded.title,
			content_html = excluded.content_html,
			content_text = excluded.content_text,
			publish_date = excluded.publish_date,
			like_count = excluded.like_count,
			comment_count = excluded.comment_count,
			scraped_at = excluded.scraped_at`,
		key.OwnerId, key.PostId, record.CanonicalUrl,
		nullable(record.Title), nullable(record.ContentHtml), nullable(record.ContentText), nullable(record.PublishDate),
		record.LikeCount, record.CommentCount, scrapedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert post %s: %w", key, err)
	}

	for _, table := range []string{"post_image", "post_video"} {
		_, err = tx.ExecContext(ctx, "delete from "+table+" where owner_id = ? and post_id = ?", key.OwnerId, key.PostId)
		if err != nil {
			return err
		}
	}

	for i, image := range record.Images {
		_, err = tx.ExecContext(
			ctx,
			"insert into post_image (owner_id, post_id, position, url, strategy) values (?, ?, ?, ?, ?)",
			key.OwnerId, key.PostId, i, image.Url, int64(image.Strategy),
		)
		if err != nil {
			return fmt.Errorf("insert image: %w", err)
		}
	}
	for i, video := range record.Videos {
		_, err = tx.ExecContext(
			ctx,
			"insert into post_video (owner_id, post_id, position, video_id, access_key, source, resolved_url) values (?, ?, ?, ?, ?, ?, ?)",
			key.OwnerId, key.PostId, i, video.VideoId, video.AccessKey, int64(video.Source), nullable(video.ResolvedUrl),
		)
		if err != nil {
			return fmt.Errorf("insert video: %w", err)
		}
	}

	return tx.Commit()
}

// SaveComments replaces the stored comment tree of a post.
func (s Store) SaveComments(ctx context.Context, key naverblog.PostKey, comments []naverblog.Comment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "delete from comment where owner_id = ? and post_id = ?", key.OwnerId, key.PostId)
	if err != nil {
		return err
	}

	type pending struct {
		comment  naverblog.Comment
		parent   *int64
		position int
	}
	var stack []pending
	for i := len(comments) - 1; i >= 0; i-- {
		stack = append(stack, pending{comment: comments[i], position: i})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var parent any
		if top.parent != nil {
			parent = *top.parent
		}
		res, err := tx.ExecContext(
			ctx,
			"insert into comment (owner_id, post_id, parent_id, position, content, published_at, author_id) values (?, ?, ?, ?, ?, ?, ?)",
			key.OwnerId, key.PostId, parent, top.position, top.comment.Content,
			nullable(top.comment.PublishedAt), nullable(top.comment.AuthorId),
		)
		if err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}

		replies := top.comment.Replies
		for i := len(replies) - 1; i >= 0; i-- {
			stack = append(stack, pending{comment: replies[i], parent: &id, position: i})
		}
	}

	return tx.Commit()
}

// SaveSearchItems records the listing of a search, items already listed under
// the keyword are updated.
func (s Store) SaveSearchItems(ctx context.Context, keyword string, items []naverblog.SearchItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range items {
		_, err = tx.ExecContext(
			ctx,
			`insert into search_item (keyword, owner_id, post_id, published_at, title, author, blog_name, snippet)
			values (?, ?, ?, ?, ?, ?, ?, ?)
			on conflict (keyword, owner_id, post_id) do update set
				published_at = excluded.published_at,
				title = excluded.title,
				author = excluded.author,
				blog_name = excluded.blog_name,
				snippet = excluded.snippet`,
			keyword, item.Key.OwnerId, item.Key.PostId, item.PublishedAt,
			nullable(item.Title), nullable(item.Author), nullable(item.BlogName), nullable(item.Snippet),
		)
		if err != nil {
			return fmt.Errorf("upsert search item %s: %w", item.Key, err)
		}
	}

	return tx.Commit()
}

// Post reads back a stored post, ok is false if it was never saved.
func (s Store) Post(ctx context.Context, key naverblog.PostKey) (record naverblog.PostRecord, ok bool, err error) {
	var title, contentHtml, contentText, publishDate sql.NullString
	row := s.db.QueryRowContext(
		ctx,
		`select canonical_url, title, content_html, content_text, publish_date, like_count, comment_count
		from post where owner_id = ? and post_id = ?`,
		key.OwnerId, key.PostId,
	)
	err = row.Scan(
		&record.CanonicalUrl, &title, &contentHtml, &contentText, &publishDate,
		&record.LikeCount, &record.CommentCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return naverblog.PostRecord{}, false, nil
	}
	if err != nil {
		return naverblog.PostRecord{}, false, err
	}
	record.Key = key
	record.Title = fromNull(title)
	record.ContentHtml = fromNull(contentHtml)
	record.ContentText = fromNull(contentText)
	record.PublishDate = fromNull(publishDate)

	record.Images, err = s.images(ctx, key)
	if err != nil {
		return naverblog.PostRecord{}, false, err
	}
	record.Videos, err = s.videos(ctx, key)
	if err != nil {
		return naverblog.PostRecord{}, false, err
	}
	return record, true, nil
}

func (s Store) images(ctx context.Context, key naverblog.PostKey) ([]naverblog.ImageRef, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"select url, strategy from post_image where owner_id = ? and post_id = ? order by position",
		key.OwnerId, key.PostId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []naverblog.ImageRef
	for rows.Next() {
		var image naverblog.ImageRef
		err = rows.Scan(&image.Url, &image.Strategy)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

func (s Store) videos(ctx context.Context, key naverblog.PostKey) ([]naverblog.VideoRef, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"select video_id, access_key, source, resolved_url from post_video where owner_id = ? and post_id = ? order by position",
		key.OwnerId, key.PostId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []naverblog.VideoRef
	for rows.Next() {
		var video naverblog.VideoRef
		var resolved sql.NullString
		err = rows.Scan(&video.VideoId, &video.AccessKey, &video.Source, &resolved)
		if err != nil {
			return nil, err
		}
		video.ResolvedUrl = fromNull(resolved)
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// Comments reads back the stored comment tree of a post.
func (s Store) Comments(ctx context.Context, key naverblog.PostKey) ([]naverblog.Comment, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select id, parent_id, content, published_at, author_id from comment
		where owner_id = ? and post_id = ? order by id`,
		key.OwnerId, key.PostId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type node struct {
		comment  naverblog.Comment
		children []int
	}
	var nodes []node
	var roots []int
	index := map[int64]int{}

	// ids are assigned in pre-order, a parent is always read before its replies
	for rows.Next() {
		var id int64
		var parent sql.NullInt64
		var content string
		var publishedAt, authorId sql.NullString
		err = rows.Scan(&id, &parent, &content, &publishedAt, &authorId)
		if err != nil {
			return nil, err
		}

		i := len(nodes)
		index[id] = i
		nodes = append(nodes, node{comment: naverblog.Comment{
			Content:     content,
			PublishedAt: fromNull(publishedAt),
			AuthorId:    fromNull(authorId),
		}})

		p, ok := index[parent.Int64]
		if parent.Valid && ok {
			nodes[p].children = append(nodes[p].children, i)
		} else {
			roots = append(roots, i)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	built := make([]naverblog.Comment, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		comment := nodes[i].comment
		for _, child := range nodes[i].children {
			comment.Replies = append(comment.Replies, built[child])
		}
		built[i] = comment
	}
	var comments []naverblog.Comment
	for _, i := range roots {
		comments = append(comments, built[i])
	}
	return comments, nil
}

// SearchItems lists the stored items of a keyword ordered by key.
func (s Store) SearchItems(ctx context.Context, keyword string) ([]naverblog.SearchItem, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select owner_id, post_id, published_at, title, author, blog_name, snippet
		from search_item where keyword = ? order by owner_id, length(post_id), post_id`,
		keyword,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []naverblog.SearchItem
	for rows.Next() {
		var item naverblog.SearchItem
		var title, author, blogName, snippet sql.NullString
		err = rows.Scan(
			&item.Key.OwnerId, &item.Key.PostId, &item.PublishedAt,
			&title, &author, &blogName, &snippet,
		)
		if err != nil {
			return nil, err
		}
		item.Title = fromNull(title)
		item.Author = fromNull(author)
		item.BlogName = fromNull(blogName)
		item.Snippet = fromNull(snippet)
		items = append(items, item)
	}
	return items, rows.Err()
}
