package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/internal/domain/mocks"
	"github.com/signalforge/signalforge/pkg/logger"
)

type maintenanceFixture struct {
	svc             *MaintenanceService
	identityRepo    *mocks.MockIdentityRepository
	eventRepo       *mocks.MockEventRepository
	destinationRepo *mocks.MockDestinationRepository
	signalComputer  *mocks.MockSignalComputer
	syncScheduler   *mocks.MockSyncScheduler
	klaviyoClient   *mocks.MockKlaviyoClient
}

func newMaintenanceFixture(t *testing.T) *maintenanceFixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &maintenanceFixture{
		identityRepo:    mocks.NewMockIdentityRepository(ctrl),
		eventRepo:       mocks.NewMockEventRepository(ctrl),
		destinationRepo: mocks.NewMockDestinationRepository(ctrl),
		signalComputer:  mocks.NewMockSignalComputer(ctrl),
		syncScheduler:   mocks.NewMockSyncScheduler(ctrl),
		klaviyoClient:   mocks.NewMockKlaviyoClient(ctrl),
	}
	f.svc = NewMaintenanceService(f.identityRepo, f.eventRepo, f.destinationRepo, f.signalComputer, f.syncScheduler, f.klaviyoClient, logger.NewTestLogger(t))
	return f
}

// expectQuietWorkspace wires every per-workspace step to an empty result so a
// test can focus on a single step.
func (f *maintenanceFixture) expectQuietWorkspace(workspaceID string) {
	f.eventRepo.EXPECT().ListAbandonmentCandidates(gomock.Any(), workspaceID, domain.EventTypeCheckout, gomock.Any(), maintenanceBatchSize).Return(nil, nil).AnyTimes()
	f.eventRepo.EXPECT().ListAbandonmentCandidates(gomock.Any(), workspaceID, domain.EventTypeCart, gomock.Any(), maintenanceBatchSize).Return(nil, nil).AnyTimes()
	f.signalComputer.EXPECT().DecayScores(gomock.Any(), workspaceID, maintenanceBatchSize).Return(0, nil).AnyTimes()
	f.signalComputer.EXPECT().RecomputeBatch(gomock.Any(), workspaceID, maintenanceBatchSize).Return(0, nil).AnyTimes()
	f.eventRepo.EXPECT().BackfillUnlinkedEvents(gomock.Any(), workspaceID, gomock.Any()).Return(int64(0), nil).AnyTimes()
	f.identityRepo.EXPECT().ListRecentlyUpdated(gomock.Any(), workspaceID, gomock.Any(), maintenanceBatchSize).Return(nil, nil).AnyTimes()
}

func TestMaintenance_DetectsCheckoutAbandonment(t *testing.T) {
	f := newMaintenanceFixture(t)

	disabled := klaviyoDestination()
	disabled.Enabled = false
	f.destinationRepo.EXPECT().List(gomock.Any()).Return([]*domain.Destination{disabled}, nil)

	identity := identityWithEmail("uid-1", "u@x.com")

	f.eventRepo.EXPECT().ListAbandonmentCandidates(gomock.Any(), "ws1", domain.EventTypeCheckout, gomock.Any(), maintenanceBatchSize).
		Return([]string{"uid-1"}, nil)
	f.eventRepo.EXPECT().ListAbandonmentCandidates(gomock.Any(), "ws1", domain.EventTypeCart, gomock.Any(), maintenanceBatchSize).
		Return(nil, nil)
	f.identityRepo.EXPECT().GetByID(gomock.Any(), nil, "ws1", "uid-1").Return(identity, nil)

	var synthesized *domain.Event
	f.eventRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event *domain.Event) (bool, error) {
			synthesized = event
			return false, nil
		})
	f.signalComputer.EXPECT().ApplyEvent(gomock.Any(), identity, gomock.Any()).Return(nil)
	f.syncScheduler.EXPECT().ScheduleIfNeeded(gomock.Any(), "ws1", identity, gomock.Any()).Return(1, domain.ReasonCheckoutAbandoned, nil)

	f.signalComputer.EXPECT().DecayScores(gomock.Any(), "ws1", maintenanceBatchSize).Return(0, nil)
	f.signalComputer.EXPECT().RecomputeBatch(gomock.Any(), "ws1", maintenanceBatchSize).Return(0, nil)
	f.eventRepo.EXPECT().BackfillUnlinkedEvents(gomock.Any(), "ws1", gomock.Any()).Return(int64(0), nil)
	f.identityRepo.EXPECT().ListRecentlyUpdated(gomock.Any(), "ws1", gomock.Any(), maintenanceBatchSize).Return(nil, nil)

	report := f.svc.RunCycle(context.Background())

	assert.Equal(t, 1, report.AbandonmentsDetected)
	assert.Empty(t, report.Errors)

	require.NotNil(t, synthesized)
	assert.Equal(t, domain.EventTypeCheckoutAbandoned, synthesized.EventType)
	assert.Equal(t, "maintenance", synthesized.Source)
	require.NotNil(t, synthesized.UnifiedUserID)
	assert.Equal(t, "uid-1", *synthesized.UnifiedUserID)
	// One verdict per user per day
	expectedKey := fmt.Sprintf("checkout_abandoned|uid-1|%s", time.Now().UTC().Format("2006-01-02"))
	assert.Equal(t, expectedKey, synthesized.DedupeKey)
}

func TestMaintenance_DuplicateAbandonmentNotRecounted(t *testing.T) {
	f := newMaintenanceFixture(t)

	disabled := klaviyoDestination()
	disabled.Enabled = false
	f.destinationRepo.EXPECT().List(gomock.Any()).Return([]*domain.Destination{disabled}, nil)

	identity := identityWithEmail("uid-1", "u@x.com")

	f.eventRepo.EXPECT().ListAbandonmentCandidates(gomock.Any(), "ws1", domain.EventTypeCheckout, gomock.Any(), maintenanceBatchSize).
		Return([]string{"uid-1"}, nil)
	f.eventRepo.EXPECT().ListAbandonmentCandidates(gomock.Any(), "ws1", domain.EventTypeCart, gomock.Any(), maintenanceBatchSize).
		Return(nil, nil)
	f.identityRepo.EXPECT().GetByID(gomock.Any(), nil, "ws1", "uid-1").Return(identity, nil)
	// Already detected earlier today; no signals, no scheduling.
	f.eventRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(true, nil)

	f.signalComputer.EXPECT().DecayScores(gomock.Any(), "ws1", maintenanceBatchSize).Return(0, nil)
	f.signalComputer.EXPECT().RecomputeBatch(gomock.Any(), "ws1", maintenanceBatchSize).Return(0, nil)
	f.eventRepo.EXPECT().BackfillUnlinkedEvents(gomock.Any(), "ws1", gomock.Any()).Return(int64(0), nil)
	f.identityRepo.EXPECT().ListRecentlyUpdated(gomock.Any(), "ws1", gomock.Any(), maintenanceBatchSize).Return(nil, nil)

	report := f.svc.RunCycle(context.Background())
	assert.Zero(t, report.AbandonmentsDetected)
}

func TestMaintenance_PollsEngagement(t *testing.T) {
	f := newMaintenanceFixture(t)

	destination := klaviyoDestination()
	f.destinationRepo.EXPECT().List(gomock.Any()).Return([]*domain.Destination{destination}, nil)
	f.expectQuietWorkspace("ws1")

	occurred := time.Now().UTC().Add(-time.Hour)
	f.klaviyoClient.EXPECT().ListEngagement(gomock.Any(), destination.Settings, gomock.Any()).
		Return([]*domain.EngagementEvent{
			{Email: "u@x.com", Kind: "open", OccurredAt: occurred},
			{Email: "", Kind: "click", OccurredAt: occurred},
			{Email: "u@x.com", Kind: "subscribe", OccurredAt: occurred},
		}, nil)

	identity := identityWithEmail("uid-1", "u@x.com")
	f.identityRepo.EXPECT().GetByEmail(gomock.Any(), nil, "ws1", "u@x.com").Return(identity, nil)

	var ingested *domain.Event
	f.eventRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event *domain.Event) (bool, error) {
			ingested = event
			return false, nil
		})
	f.signalComputer.EXPECT().ApplyEvent(gomock.Any(), identity, gomock.Any()).Return(nil)

	report := f.svc.RunCycle(context.Background())

	// The missing-email and unmapped-kind engagements are dropped.
	assert.Equal(t, 1, report.EngagementsIngested)
	require.NotNil(t, ingested)
	assert.Equal(t, domain.EventTypeEmailOpen, ingested.EventType)
	assert.Equal(t, "engagement_poll", ingested.Source)
	assert.True(t, ingested.EventTime.Equal(occurred))
}

func TestMaintenance_StepFailureDoesNotAbortCycle(t *testing.T) {
	f := newMaintenanceFixture(t)

	disabled := klaviyoDestination()
	disabled.Enabled = false
	f.destinationRepo.EXPECT().List(gomock.Any()).Return([]*domain.Destination{disabled}, nil)

	f.eventRepo.EXPECT().ListAbandonmentCandidates(gomock.Any(), "ws1", domain.EventTypeCheckout, gomock.Any(), maintenanceBatchSize).Return(nil, nil)
	f.eventRepo.EXPECT().ListAbandonmentCandidates(gomock.Any(), "ws1", domain.EventTypeCart, gomock.Any(), maintenanceBatchSize).Return(nil, nil)
	f.signalComputer.EXPECT().DecayScores(gomock.Any(), "ws1", maintenanceBatchSize).Return(0, errors.New("query timeout"))
	f.signalComputer.EXPECT().RecomputeBatch(gomock.Any(), "ws1", maintenanceBatchSize).Return(3, nil)
	f.eventRepo.EXPECT().BackfillUnlinkedEvents(gomock.Any(), "ws1", gomock.Any()).Return(int64(2), nil)
	f.identityRepo.EXPECT().ListRecentlyUpdated(gomock.Any(), "ws1", gomock.Any(), maintenanceBatchSize).Return(nil, nil)

	report := f.svc.RunCycle(context.Background())

	// The broken step is reported, the later steps still ran.
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "score decay")
	assert.Equal(t, 3, report.IdentitiesRecomputed)
	assert.Equal(t, int64(2), report.EventsBackfilled)
}

func TestMaintenance_ScheduleOutstanding(t *testing.T) {
	f := newMaintenanceFixture(t)

	disabled := klaviyoDestination()
	disabled.Enabled = false
	f.destinationRepo.EXPECT().List(gomock.Any()).Return([]*domain.Destination{disabled}, nil)

	f.eventRepo.EXPECT().ListAbandonmentCandidates(gomock.Any(), "ws1", gomock.Any(), gomock.Any(), maintenanceBatchSize).Return(nil, nil).Times(2)
	f.signalComputer.EXPECT().DecayScores(gomock.Any(), "ws1", maintenanceBatchSize).Return(0, nil)
	f.signalComputer.EXPECT().RecomputeBatch(gomock.Any(), "ws1", maintenanceBatchSize).Return(0, nil)
	f.eventRepo.EXPECT().BackfillUnlinkedEvents(gomock.Any(), "ws1", gomock.Any()).Return(int64(0), nil)

	touched := identityWithEmail("uid-1", "u@x.com")
	f.identityRepo.EXPECT().ListRecentlyUpdated(gomock.Any(), "ws1", gomock.Any(), maintenanceBatchSize).
		Return([]*domain.UnifiedIdentity{touched}, nil)
	f.syncScheduler.EXPECT().ScheduleIfNeeded(gomock.Any(), "ws1", touched, nil).Return(1, domain.ReasonFirstSync, nil)

	report := f.svc.RunCycle(context.Background())
	assert.Equal(t, 1, report.SyncJobsScheduled)
}

func TestMaintenance_AbortsWhenDestinationsUnlistable(t *testing.T) {
	f := newMaintenanceFixture(t)

	f.destinationRepo.EXPECT().List(gomock.Any()).Return(nil, errors.New("connection refused"))

	report := f.svc.RunCycle(context.Background())
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "list destinations")
}
