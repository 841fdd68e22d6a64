package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/internal/domain/mocks"
	"github.com/signalforge/signalforge/pkg/logger"
)

type ingestFixture struct {
	svc            *IngestService
	resolver       *mocks.MockIdentityResolver
	identityRepo   *mocks.MockIdentityRepository
	eventRepo      *mocks.MockEventRepository
	signalComputer *mocks.MockSignalComputer
	syncScheduler  *mocks.MockSyncScheduler
}

func newIngestFixture(t *testing.T) *ingestFixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &ingestFixture{
		resolver:       mocks.NewMockIdentityResolver(ctrl),
		identityRepo:   mocks.NewMockIdentityRepository(ctrl),
		eventRepo:      mocks.NewMockEventRepository(ctrl),
		signalComputer: mocks.NewMockSignalComputer(ctrl),
		syncScheduler:  mocks.NewMockSyncScheduler(ctrl),
	}
	f.svc = NewIngestService(f.resolver, f.identityRepo, f.eventRepo, f.signalComputer, f.syncScheduler, 0, 0, logger.NewTestLogger(t))
	return f
}

func TestIngest_Track(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	identity := identityWithEmail("uid-1", "u@x.com")

	// The event is stored before resolution touches any identity state.
	var stored *domain.Event
	insert := f.eventRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event *domain.Event) (bool, error) {
			stored = event
			assert.Nil(t, event.UnifiedUserID)
			return false, nil
		})
	resolve := f.resolver.EXPECT().Resolve(gomock.Any(), "ws1", gomock.Any()).
		Return(&domain.ResolveResult{UnifiedUserID: "uid-1", Created: true}, nil).
		After(insert)
	f.eventRepo.EXPECT().AssignUser(gomock.Any(), "ws1", gomock.Any(), "uid-1").Return(nil).After(resolve)

	f.identityRepo.EXPECT().GetByID(gomock.Any(), nil, "ws1", "uid-1").Return(identity, nil)
	f.signalComputer.EXPECT().ApplyEvent(gomock.Any(), identity, gomock.Any()).Return(nil)
	f.eventRepo.EXPECT().UpdateStatus(gomock.Any(), "ws1", gomock.Any(), domain.EventStatusProcessed).Return(nil)
	f.syncScheduler.EXPECT().ScheduleIfNeeded(gomock.Any(), "ws1", identity, gomock.Any()).
		Return(1, domain.ReasonFirstSync, nil)

	resp, err := f.svc.Track(ctx, &domain.TrackRequest{
		WorkspaceID: "ws1",
		EventType:   domain.EventTypeCart,
		EventName:   "add_to_cart",
		Email:       "u@x.com",
		AnonymousID: "anon-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "uid-1", resp.UnifiedUserID)
	assert.True(t, resp.IsNewUser)
	assert.False(t, resp.Duplicate)
	assert.NotEmpty(t, resp.EventID)

	require.NotNil(t, stored)
	assert.Equal(t, resp.EventID, stored.ID)
	require.NotNil(t, stored.UnifiedUserID)
	assert.Equal(t, "uid-1", *stored.UnifiedUserID)
	assert.NotEmpty(t, stored.DedupeKey)
}

func TestIngest_Track_Duplicate(t *testing.T) {
	f := newIngestFixture(t)

	f.eventRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(true, nil)

	// No resolution, no signal computation, no scheduling: a replay must
	// not touch identity state, and the fixture's mocks would fail the
	// test on any unexpected call.
	resp, err := f.svc.Track(context.Background(), &domain.TrackRequest{
		WorkspaceID: "ws1",
		EventType:   domain.EventTypeOrder,
		EventName:   "order_completed",
		Email:       "u@x.com",
		DedupeKey:   "order-42",
	})
	require.NoError(t, err)

	assert.True(t, resp.Duplicate)
	assert.Empty(t, resp.EventID)
	assert.Empty(t, resp.UnifiedUserID)
}

func TestIngest_Track_DownstreamFailureDoesNotFailRequest(t *testing.T) {
	f := newIngestFixture(t)

	f.eventRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(false, nil)
	f.resolver.EXPECT().Resolve(gomock.Any(), "ws1", gomock.Any()).
		Return(&domain.ResolveResult{UnifiedUserID: "uid-1"}, nil)
	f.eventRepo.EXPECT().AssignUser(gomock.Any(), "ws1", gomock.Any(), "uid-1").Return(nil)
	f.identityRepo.EXPECT().GetByID(gomock.Any(), nil, "ws1", "uid-1").
		Return(nil, errors.New("connection reset"))

	resp, err := f.svc.Track(context.Background(), &domain.TrackRequest{
		WorkspaceID: "ws1",
		EventType:   domain.EventTypePageView,
		EventName:   "page_view",
		AnonymousID: "anon-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.EventID)
}

func TestIngest_Track_RejectsMissingEventType(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.svc.Track(context.Background(), &domain.TrackRequest{
		WorkspaceID: "ws1",
		AnonymousID: "anon-1",
	})
	require.Error(t, err)
	assert.IsType(t, domain.ValidationError{}, err)
}

func TestIngest_Identify(t *testing.T) {
	f := newIngestFixture(t)

	identity := identityWithEmail("uid-1", "u@x.com")

	f.resolver.EXPECT().Resolve(gomock.Any(), "ws1", gomock.Any()).
		Return(&domain.ResolveResult{UnifiedUserID: "uid-1", Merged: true}, nil)
	f.eventRepo.EXPECT().RelinkAnonymousEvents(gomock.Any(), nil, "ws1", "anon-1", "uid-1").Return(int64(4), nil)
	f.identityRepo.EXPECT().GetByID(gomock.Any(), nil, "ws1", "uid-1").Return(identity, nil)
	f.syncScheduler.EXPECT().ScheduleIfNeeded(gomock.Any(), "ws1", identity, nil).
		Return(1, domain.ReasonFirstSync, nil)

	resp, err := f.svc.Identify(context.Background(), &domain.IdentifyRequest{
		WorkspaceID: "ws1",
		AnonymousID: "anon-1",
		Email:       "u@x.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "uid-1", resp.UnifiedUserID)
	assert.True(t, resp.IdentityMerged)
	assert.Equal(t, int64(4), resp.EventsLinked)
	assert.Equal(t, 1, resp.SyncJobsCreated)
}

func TestIngest_Identify_RelinkFailureIsNonFatal(t *testing.T) {
	f := newIngestFixture(t)

	identity := identityWithEmail("uid-1", "u@x.com")

	f.resolver.EXPECT().Resolve(gomock.Any(), "ws1", gomock.Any()).
		Return(&domain.ResolveResult{UnifiedUserID: "uid-1"}, nil)
	f.eventRepo.EXPECT().RelinkAnonymousEvents(gomock.Any(), nil, "ws1", "anon-1", "uid-1").
		Return(int64(0), errors.New("deadlock detected"))
	f.identityRepo.EXPECT().GetByID(gomock.Any(), nil, "ws1", "uid-1").Return(identity, nil)
	f.syncScheduler.EXPECT().ScheduleIfNeeded(gomock.Any(), "ws1", identity, nil).Return(0, "", nil)

	resp, err := f.svc.Identify(context.Background(), &domain.IdentifyRequest{
		WorkspaceID: "ws1",
		AnonymousID: "anon-1",
		Email:       "u@x.com",
	})
	require.NoError(t, err)
	assert.Zero(t, resp.EventsLinked)
}

func TestIngest_Track_OversizedPropertiesRejected(t *testing.T) {
	f := newIngestFixture(t)

	big := make([]byte, domain.MaxPropertyBytes+1)
	for i := range big {
		big[i] = 'a'
	}
	payload := []byte(`{"note":"` + string(big) + `"}`)

	now := time.Now().UTC()
	_, err := f.svc.Track(context.Background(), &domain.TrackRequest{
		WorkspaceID: "ws1",
		EventType:   domain.EventTypeCustom,
		EventName:   "note_added",
		AnonymousID: "anon-1",
		Properties:  payload,
		Timestamp:   &now,
	})
	require.Error(t, err)
	assert.IsType(t, domain.PayloadTooLargeError{}, err)
}
