package database

import (
	"database/sql"
	"fmt"
)

var _ SubscriptionRepository = (*SQLSubscriptionRepository)(nil)

// SQLSubscriptionRepository handles database operations for subscriptions.
type SQLSubscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) *SQLSubscriptionRepository {
	return &SQLSubscriptionRepository{db: db}
}

// Upsert inserts or updates the subscription keyed by its URL. Re-adding
// an existing URL updates the record in place; created_at is set once and
// never touched again.
func (r *SQLSubscriptionRepository) Upsert(sub Subscription) error {
	_, err := r.db.Exec(`
		INSERT INTO subscriptions (url, hub, source_url, subscriber, author)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			hub = excluded.hub,
			source_url = excluded.source_url,
			subscriber = excluded.subscriber,
			author = excluded.author,
			updated_at = CURRENT_TIMESTAMP
	`, sub.Url, sub.Hub, sub.SourceUrl, sub.Subscriber, sub.Author)

	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	return nil
}

func (r *SQLSubscriptionRepository) Get(url string) (*Subscription, error) {
	var sub Subscription
	err := r.db.QueryRow(`
		SELECT url, hub, source_url, subscriber, author, created_at, updated_at
		FROM subscriptions
		WHERE url = ?
	`, url).Scan(
		&sub.Url, &sub.Hub, &sub.SourceUrl, &sub.Subscriber, &sub.Author,
		&sub.CreatedAt, &sub.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

func (r *SQLSubscriptionRepository) Exists(url string) (bool, error) {
	var one int
	err := r.db.QueryRow("SELECT 1 FROM subscriptions WHERE url = ? LIMIT 1", url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check subscription existence: %w", err)
	}
	return true, nil
}

func (r *SQLSubscriptionRepository) Delete(url string) error {
	_, err := r.db.Exec("DELETE FROM subscriptions WHERE url = ?", url)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// List returns subscriptions ordered by URL, at most limit of them.
func (r *SQLSubscriptionRepository) List(limit int) ([]Subscription, error) {
	rows, err := r.db.Query(`
		SELECT url, hub, source_url, subscriber, author, created_at, updated_at
		FROM subscriptions
		ORDER BY url
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var sub Subscription
		err := rows.Scan(
			&sub.Url, &sub.Hub, &sub.SourceUrl, &sub.Subscriber, &sub.Author,
			&sub.CreatedAt, &sub.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription row: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}

	return subs, nil
}

func (r *SQLSubscriptionRepository) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM subscriptions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get subscription count: %w", err)
	}
	return count, nil
}
