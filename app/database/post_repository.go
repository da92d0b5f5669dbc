package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ PostRepository = (*SQLPostRepository)(nil)

// SQLPostRepository handles database operations for posts.
type SQLPostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *SQLPostRepository {
	return &SQLPostRepository{db: db}
}

// Upsert stores a post keyed by its unique content identifier. A post
// pushed again under the same identifier overwrites in place; there is
// never more than one row per identifier.
func (r *SQLPostRepository) Upsert(post Post) error {
	_, err := r.db.Exec(`
		INSERT INTO posts (id, url, feed_url, title, content, author, published_at, raw_entry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			url = excluded.url,
			feed_url = excluded.feed_url,
			title = excluded.title,
			content = excluded.content,
			author = excluded.author,
			published_at = excluded.published_at,
			raw_entry = excluded.raw_entry,
			updated_at = CURRENT_TIMESTAMP
	`, post.ID, post.Url, post.FeedUrl, post.Title, post.Content, post.Author,
		post.PublishedAt.UTC(), post.RawEntry)

	if err != nil {
		return fmt.Errorf("failed to upsert post: %w", err)
	}

	return nil
}

func (r *SQLPostRepository) Get(id string) (*Post, error) {
	var post Post
	err := r.db.QueryRow(`
		SELECT id, url, feed_url, title, content, author, published_at, raw_entry, created_at, updated_at
		FROM posts
		WHERE id = ?
	`, id).Scan(
		&post.ID, &post.Url, &post.FeedUrl, &post.Title, &post.Content,
		&post.Author, &post.PublishedAt, &post.RawEntry,
		&post.CreatedAt, &post.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return &post, nil
}

// GetRecent returns the newest posts ordered by publish date.
func (r *SQLPostRepository) GetRecent(limit int) ([]Post, error) {
	rows, err := r.db.Query(`
		SELECT id, url, feed_url, title, content, author, published_at, raw_entry, created_at, updated_at
		FROM posts
		ORDER BY published_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// DeleteByFeedUrl removes posts belonging to the feed, at most limit rows,
// and reports how many went away. Deleting an already-empty feed is fine.
func (r *SQLPostRepository) DeleteByFeedUrl(feedUrl string, limit int) (int, error) {
	result, err := r.db.Exec(`
		DELETE FROM posts
		WHERE id IN (SELECT id FROM posts WHERE feed_url = ? LIMIT ?)
	`, feedUrl, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to delete posts for feed: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted posts: %w", err)
	}

	return int(deleted), nil
}

func (r *SQLPostRepository) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get post count: %w", err)
	}
	return count, nil
}

func (r *SQLPostRepository) GetCountByFeedUrl(feedUrl string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM posts WHERE feed_url = ?", feedUrl).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get post count for feed: %w", err)
	}
	return count, nil
}

// GetPostsForExtraction returns posts whose readable content has not been
// fetched yet.
func (r *SQLPostRepository) GetPostsForExtraction(limit int) ([]PostForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT id, url
		FROM posts
		WHERE extraction_status = 'pending' AND url != ''
		ORDER BY published_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts for extraction: %w", err)
	}
	defer rows.Close()

	var posts []PostForExtraction
	for rows.Next() {
		var post PostForExtraction
		if err := rows.Scan(&post.ID, &post.Url); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

func (r *SQLPostRepository) UpdateExtractedContent(id string, content string, extractedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE posts
		SET content = ?, extraction_status = 'success', extraction_error = '',
		    extracted_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, content, extractedAt.UTC(), id)

	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}

func (r *SQLPostRepository) UpdateExtractionStatus(id string, status string, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE posts
		SET extraction_status = ?, extraction_error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, errorMsg, id)

	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}

	return nil
}

func scanPosts(rows *sql.Rows) ([]Post, error) {
	var posts []Post
	for rows.Next() {
		var post Post
		err := rows.Scan(
			&post.ID, &post.Url, &post.FeedUrl, &post.Title, &post.Content,
			&post.Author, &post.PublishedAt, &post.RawEntry,
			&post.CreatedAt, &post.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}
