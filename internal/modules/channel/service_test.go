package channel

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannelRepo struct {
	channels map[string]uuid.UUID
	subs     map[[2]uuid.UUID]bool
	history  map[uuid.UUID][]WatchEntry
	views    map[uuid.UUID]int64

	lastProfileViewer *uuid.UUID
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{
		channels: make(map[string]uuid.UUID),
		subs:     make(map[[2]uuid.UUID]bool),
		history:  make(map[uuid.UUID][]WatchEntry),
		views:    make(map[uuid.UUID]int64),
	}
}

func (f *fakeChannelRepo) addChannel(username string) uuid.UUID {
	id := uuid.New()
	f.channels[username] = id
	return id
}

func (f *fakeChannelRepo) GetProfile(ctx context.Context, username string, viewerID *uuid.UUID) (*Profile, error) {
	f.lastProfileViewer = viewerID
	id, ok := f.channels[username]
	if !ok {
		return nil, ErrChannelNotFound
	}

	p := &Profile{ID: id, Username: username}
	for key, active := range f.subs {
		if !active {
			continue
		}
		if key[1] == id {
			p.SubscribersCount++
			if viewerID != nil && key[0] == *viewerID {
				p.IsSubscribed = true
			}
		}
		if key[0] == id {
			p.ChannelsSubscribedToCount++
		}
	}
	return p, nil
}

func (f *fakeChannelRepo) FindChannelIDByUsername(ctx context.Context, username string) (uuid.UUID, error) {
	id, ok := f.channels[username]
	if !ok {
		return uuid.Nil, ErrChannelNotFound
	}
	return id, nil
}

func (f *fakeChannelRepo) Subscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error {
	key := [2]uuid.UUID{subscriberID, channelID}
	if f.subs[key] {
		return ErrAlreadySubscribed
	}
	f.subs[key] = true
	return nil
}

func (f *fakeChannelRepo) Unsubscribe(ctx context.Context, subscriberID, channelID uuid.UUID) error {
	key := [2]uuid.UUID{subscriberID, channelID}
	if !f.subs[key] {
		return ErrSubscriptionAbsent
	}
	delete(f.subs, key)
	return nil
}

func (f *fakeChannelRepo) ListWatchHistory(ctx context.Context, userID uuid.UUID, limit int) ([]WatchEntry, error) {
	entries := f.history[userID]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f *fakeChannelRepo) RecordView(ctx context.Context, userID, videoID uuid.UUID) error {
	if _, ok := f.views[videoID]; !ok {
		return ErrVideoNotFound
	}
	f.views[videoID]++
	f.history[userID] = append([]WatchEntry{{
		Video:     VideoSummary{ID: videoID},
		WatchedAt: time.Now().UTC(),
	}}, f.history[userID]...)
	return nil
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	repo := newFakeChannelRepo()
	channelID := repo.addChannel("creator")
	viewer := uuid.New()
	svc := NewService(repo)

	require.NoError(t, svc.Subscribe(context.Background(), viewer, "creator"))
	assert.True(t, repo.subs[[2]uuid.UUID{viewer, channelID}])

	err := svc.Subscribe(context.Background(), viewer, "creator")
	require.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestSubscribe_OwnChannel(t *testing.T) {
	t.Parallel()

	repo := newFakeChannelRepo()
	ownerID := repo.addChannel("creator")
	svc := NewService(repo)

	err := svc.Subscribe(context.Background(), ownerID, "creator")
	require.ErrorIs(t, err, ErrSelfSubscription)
	assert.Empty(t, repo.subs, "no subscription row may be written")
}

func TestSubscribe_UnknownChannel(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeChannelRepo())

	err := svc.Subscribe(context.Background(), uuid.New(), "nobody")
	require.ErrorIs(t, err, ErrChannelNotFound)
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()

	repo := newFakeChannelRepo()
	repo.addChannel("creator")
	viewer := uuid.New()
	svc := NewService(repo)

	require.NoError(t, svc.Subscribe(context.Background(), viewer, "creator"))
	require.NoError(t, svc.Unsubscribe(context.Background(), viewer, "creator"))

	err := svc.Unsubscribe(context.Background(), viewer, "creator")
	require.ErrorIs(t, err, ErrSubscriptionAbsent)
}

func TestGetProfile_AnonymousViewer(t *testing.T) {
	t.Parallel()

	repo := newFakeChannelRepo()
	repo.addChannel("creator")
	subscriber := uuid.New()
	svc := NewService(repo)

	require.NoError(t, svc.Subscribe(context.Background(), subscriber, "creator"))

	p, err := svc.GetProfile(context.Background(), "creator", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.SubscribersCount)
	assert.False(t, p.IsSubscribed)
	assert.Nil(t, repo.lastProfileViewer)
}

func TestGetProfile_SubscribedViewer(t *testing.T) {
	t.Parallel()

	repo := newFakeChannelRepo()
	repo.addChannel("creator")
	viewer := uuid.New()
	svc := NewService(repo)

	require.NoError(t, svc.Subscribe(context.Background(), viewer, "creator"))

	p, err := svc.GetProfile(context.Background(), "creator", &viewer)
	require.NoError(t, err)
	assert.True(t, p.IsSubscribed)
	assert.Equal(t, int64(1), p.SubscribersCount)
	assert.Equal(t, int64(0), p.ChannelsSubscribedToCount)
}

func TestGetProfile_EmptyUsername(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeChannelRepo())

	_, err := svc.GetProfile(context.Background(), "", nil)
	require.ErrorIs(t, err, ErrChannelNotFound)
}

func TestRecordViewAndWatchHistory(t *testing.T) {
	t.Parallel()

	repo := newFakeChannelRepo()
	viewer := uuid.New()
	first := uuid.New()
	second := uuid.New()
	repo.views[first] = 0
	repo.views[second] = 0
	svc := NewService(repo)

	require.NoError(t, svc.RecordView(context.Background(), viewer, first))
	require.NoError(t, svc.RecordView(context.Background(), viewer, second))

	entries, err := svc.WatchHistory(context.Background(), viewer)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second, entries[0].Video.ID, "most recent view comes first")
	assert.Equal(t, first, entries[1].Video.ID)
}

func TestRecordView_UnknownVideo(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeChannelRepo())

	err := svc.RecordView(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrVideoNotFound)
}
