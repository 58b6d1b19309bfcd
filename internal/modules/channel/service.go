package channel

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const defaultHistoryLimit = 50

// Service encapsulates the application's business logic (use cases) for the channel module
type Service struct {
	repo Repository
}

// NewService creates a new instance of the channel Service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetProfile is the use case for fetching a channel page. viewerID is nil for
// anonymous viewers, in which case IsSubscribed is always false
func (s *Service) GetProfile(ctx context.Context, username string, viewerID *uuid.UUID) (*Profile, error) {
	if username == "" {
		return nil, ErrChannelNotFound
	}

	profile, err := s.repo.GetProfile(ctx, username, viewerID)
	if err != nil {
		return nil, err
	}

	return profile, nil
}

// Subscribe is the use case for following a channel by its handle
func (s *Service) Subscribe(ctx context.Context, subscriberID uuid.UUID, channelUsername string) error {
	channelID, err := s.repo.FindChannelIDByUsername(ctx, channelUsername)
	if err != nil {
		return err
	}

	if channelID == subscriberID {
		return ErrSelfSubscription
	}

	return s.repo.Subscribe(ctx, subscriberID, channelID)
}

// Unsubscribe is the use case for unfollowing a channel by its handle
func (s *Service) Unsubscribe(ctx context.Context, subscriberID uuid.UUID, channelUsername string) error {
	channelID, err := s.repo.FindChannelIDByUsername(ctx, channelUsername)
	if err != nil {
		return err
	}

	return s.repo.Unsubscribe(ctx, subscriberID, channelID)
}

// WatchHistory is the use case for listing the viewer's watch history
func (s *Service) WatchHistory(ctx context.Context, userID uuid.UUID) ([]WatchEntry, error) {
	entries, err := s.repo.ListWatchHistory(ctx, userID, defaultHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list watch history: %w", err)
	}

	return entries, nil
}

// RecordView is the use case for appending a video to the viewer's history
func (s *Service) RecordView(ctx context.Context, userID, videoID uuid.UUID) error {
	return s.repo.RecordView(ctx, userID, videoID)
}
