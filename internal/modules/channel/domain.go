package channel

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrChannelNotFound    = errors.New("channel does not exist")
	ErrVideoNotFound      = errors.New("video does not exist")
	ErrSelfSubscription   = errors.New("cannot subscribe to your own channel")
	ErrAlreadySubscribed  = errors.New("already subscribed to this channel")
	ErrSubscriptionAbsent = errors.New("not subscribed to this channel")
)

// Profile is a channel page as seen by a viewer: the owner's public fields plus
// the subscription aggregates. IsSubscribed is always false for anonymous viewers
type Profile struct {
	ID                        uuid.UUID `json:"id"`
	Username                  string    `json:"username"`
	FullName                  string    `json:"full_name"`
	Email                     string    `json:"email"`
	AvatarURL                 string    `json:"avatar_url"`
	CoverImageURL             string    `json:"cover_image_url"`
	SubscribersCount          int64     `json:"subscribers_count"`
	ChannelsSubscribedToCount int64     `json:"channels_subscribed_to_count"`
	IsSubscribed              bool      `json:"is_subscribed"`
}

// VideoOwner is the subset of a user shown next to a video
type VideoOwner struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// VideoSummary is the listing shape of a video
type VideoSummary struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	ThumbnailURL string     `json:"thumbnail_url"`
	DurationSecs int        `json:"duration_secs"`
	Views        int64      `json:"views"`
	CreatedAt    time.Time  `json:"created_at"`
	Owner        VideoOwner `json:"owner"`
}

// WatchEntry is one row of a user's watch history, most recent first
type WatchEntry struct {
	Video     VideoSummary `json:"video"`
	WatchedAt time.Time    `json:"watched_at"`
}

// Repository is the persistence collaborator for channel aggregates
type Repository interface {
	GetProfile(ctx context.Context, username string, viewerID *uuid.UUID) (*Profile, error)
	FindChannelIDByUsername(ctx context.Context, username string) (uuid.UUID, error)
	Subscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error
	Unsubscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error
	ListWatchHistory(ctx context.Context, userID uuid.UUID, limit int) ([]WatchEntry, error)
	RecordView(ctx context.Context, userID, videoID uuid.UUID) error
}
