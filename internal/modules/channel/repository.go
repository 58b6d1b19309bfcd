package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Repository = (*PostgresChannelRepository)(nil)

// PostgresChannelRepository is a PostgreSQL implementation of the Repository
// interface defined by the domain layer
type PostgresChannelRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresChannelRepository creates a new PostgresChannelRepository
func NewPostgresChannelRepository(pool *pgxpool.Pool) *PostgresChannelRepository {
	return &PostgresChannelRepository{pool: pool}
}

// GetProfile loads a channel page in a single round trip. The subscribed-to
// count is computed against the profile owner's outgoing subscriptions, and
// IsSubscribed against the (optional) viewer's incoming one
func (r *PostgresChannelRepository) GetProfile(ctx context.Context, username string, viewerID *uuid.UUID) (*Profile, error) {
	query := `
		SELECT
			u.id,
			u.username,
			u.full_name,
			u.email,
			u.avatar_url,
			u.cover_image_url,
			(SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id)    AS subscribers_count,
			(SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channels_subscribed_to_count,
			CASE
				WHEN $2::uuid IS NULL THEN false
				ELSE EXISTS (
					SELECT 1 FROM subscriptions s
					WHERE s.channel_id = u.id AND s.subscriber_id = $2
				)
			END AS is_subscribed
		FROM users u
		WHERE u.username = lower($1)
	`

	var p Profile
	err := r.pool.QueryRow(ctx, query, username, viewerID).Scan(
		&p.ID,
		&p.Username,
		&p.FullName,
		&p.Email,
		&p.AvatarURL,
		&p.CoverImageURL,
		&p.SubscribersCount,
		&p.ChannelsSubscribedToCount,
		&p.IsSubscribed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to fetch channel profile: %w", err)
	}

	return &p, nil
}

// FindChannelIDByUsername resolves a channel handle to the owning user id
func (r *PostgresChannelRepository) FindChannelIDByUsername(ctx context.Context, username string) (uuid.UUID, error) {
	query := `SELECT id FROM users WHERE username = lower($1)`

	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, query, username).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrChannelNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve channel username: %w", err)
	}

	return id, nil
}

// Subscribe creates the subscription row. A duplicate insert hits the
// composite primary key and maps to ErrAlreadySubscribed
func (r *PostgresChannelRepository) Subscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error {
	query := `INSERT INTO subscriptions (subscriber_id, channel_id) VALUES ($1, $2)`

	if _, err := r.pool.Exec(ctx, query, subscriberID, channelID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadySubscribed
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// Unsubscribe removes the subscription row
func (r *PostgresChannelRepository) Unsubscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error {
	query := `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`

	tag, err := r.pool.Exec(ctx, query, subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionAbsent
	}

	return nil
}

// ListWatchHistory joins each watched video with its owner, most recent first
func (r *PostgresChannelRepository) ListWatchHistory(ctx context.Context, userID uuid.UUID, limit int) ([]WatchEntry, error) {
	query := `
		SELECT
			v.id, v.title, v.thumbnail_url, v.duration_secs, v.views, v.created_at,
			o.username, o.full_name, o.avatar_url,
			wh.watched_at
		FROM watch_history wh
		JOIN videos v ON v.id = wh.video_id
		JOIN users o  ON o.id = v.owner_id
		WHERE wh.user_id = $1
		ORDER BY wh.watched_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query watch history: %w", err)
	}
	defer rows.Close()

	var entries []WatchEntry
	for rows.Next() {
		var e WatchEntry
		if err := rows.Scan(
			&e.Video.ID,
			&e.Video.Title,
			&e.Video.ThumbnailURL,
			&e.Video.DurationSecs,
			&e.Video.Views,
			&e.Video.CreatedAt,
			&e.Video.Owner.Username,
			&e.Video.Owner.FullName,
			&e.Video.Owner.AvatarURL,
			&e.WatchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan watch history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed during watch history rows iteration: %w", err)
	}

	return entries, nil
}

// RecordView upserts the watch history row (re-watching bumps the timestamp)
// and increments the video's view counter
func (r *PostgresChannelRepository) RecordView(ctx context.Context, userID, videoID uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, videoID)
	if err != nil {
		return fmt.Errorf("failed to increment video views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVideoNotFound
	}

	upsert := `
		INSERT INTO watch_history (user_id, video_id, watched_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id, video_id)
		DO UPDATE SET watched_at = now()
	`
	if _, err := tx.Exec(ctx, upsert, userID, videoID); err != nil {
		return fmt.Errorf("failed to record watch history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
