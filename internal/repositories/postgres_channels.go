package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/streamtube/backend/internal/db"
	"github.com/streamtube/backend/internal/models"
)

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// subscription edges.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Subscribe inserts a subscriber->channel edge. A duplicate pair reports
// ErrConflict; a dangling user reference reports ErrNotFound.
func (r *PostgresSubscriptionRepository) Subscribe(ctx context.Context, sub models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, sub.ID, sub.Subscriber, sub.Channel, sub.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// Unsubscribe removes the subscriber->channel edge.
func (r *PostgresSubscriptionRepository) Unsubscribe(ctx context.Context, subscriberID, channelID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// IsSubscribed reports whether the subscriber->channel edge exists.
func (r *PostgresSubscriptionRepository) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM subscriptions
            WHERE subscriber_id = $1 AND channel_id = $2
        )
    `, subscriberID, channelID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("select subscription: %w", err)
	}

	return exists, nil
}

// PostgresChannelRepository executes the relationship-aggregation queries.
type PostgresChannelRepository struct {
	pool db.Pool
}

// NewPostgresChannelRepository constructs a channel repository backed by PostgreSQL.
func NewPostgresChannelRepository(pool db.Pool) *PostgresChannelRepository {
	return &PostgresChannelRepository{pool: pool}
}

// ChannelProfile aggregates subscriber counts and the viewer's subscription
// state for a channel. Only public-safe fields are projected.
func (r *PostgresChannelRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, ErrNotFound
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// The viewer is a nullable uuid parameter so it carries a single SQL type;
	// anonymous viewers pass NULL and are never subscribed.
	var viewer *string
	if viewerID != "" {
		viewer = &viewerID
	}

	row := conn.QueryRow(ctx, `
        SELECT
            u.username,
            u.full_name,
            u.email,
            u.avatar_url,
            u.cover_image_url,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id)    AS subscribers,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to,
            ($2::uuid IS NOT NULL AND EXISTS (
                SELECT 1 FROM subscriptions s
                WHERE s.subscriber_id = $2::uuid AND s.channel_id = u.id
            )) AS is_subscribed
        FROM users u
        WHERE u.username = $1
    `, username, viewer)

	var profile models.ChannelProfile
	err = row.Scan(
		&profile.Username,
		&profile.FullName,
		&profile.Email,
		&profile.AvatarURL,
		&profile.CoverImageURL,
		&profile.SubscriberCount,
		&profile.SubscribedTo,
		&profile.IsSubscribed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}

	return profile, nil
}

// WatchHistory expands the user's history into videos with owner summaries,
// preserving the stored insertion order. An empty history yields an empty
// slice, not an error.
func (r *PostgresChannelRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT
            v.id, v.title, v.thumbnail_url, v.video_url, v.duration_seconds, v.created_at,
            o.full_name, o.username, o.avatar_url
        FROM watch_history h
        JOIN videos v ON v.id = h.video_id
        JOIN users o  ON o.id = v.owner_id
        WHERE h.user_id = $1
        ORDER BY h.seq
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	history := []models.VideoWithOwner{}
	for rows.Next() {
		var entry models.VideoWithOwner
		if err := rows.Scan(
			&entry.ID,
			&entry.Title,
			&entry.ThumbnailURL,
			&entry.VideoURL,
			&entry.Duration,
			&entry.CreatedAt,
			&entry.Owner.FullName,
			&entry.Owner.Username,
			&entry.Owner.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return history, nil
}

// AppendWatchHistory records a watch event at the end of the user's history.
func (r *PostgresChannelRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, NOW())
    `, userID, videoID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert watch history entry: %w", err)
	}

	return nil
}

var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
var _ ChannelRepository = (*PostgresChannelRepository)(nil)
