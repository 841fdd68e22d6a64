package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/internal/repository/testutil"
)

func destinationRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "workspace_id", "kind", "enabled", "settings",
		"last_sync_at", "last_error", "created_at", "updated_at",
	}).AddRow(
		"dest-1", "ws1", domain.DestinationKindKlaviyo, true, []byte(`{"api_key":"pk_test"}`),
		nil, nil, now, now,
	)
}

func TestDestinationRepository_GetEnabled(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDestinationRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery(`SELECT (.+) FROM destinations WHERE workspace_id = \$1 AND kind = \$2 AND enabled = TRUE`).
		WithArgs("ws1", domain.DestinationKindKlaviyo).
		WillReturnRows(destinationRows(now))

	destination, err := repo.GetEnabled(context.Background(), "ws1", domain.DestinationKindKlaviyo)
	require.NoError(t, err)
	assert.Equal(t, "dest-1", destination.ID)
	assert.Equal(t, "pk_test", destination.Settings.APIKey)
	assert.Empty(t, destination.Misconfigured())

	mock.ExpectQuery(`SELECT (.+) FROM destinations WHERE workspace_id = \$1 AND kind = \$2 AND enabled = TRUE`).
		WithArgs("ws2", domain.DestinationKindKlaviyo).
		WillReturnError(sql.ErrNoRows)

	destination, err = repo.GetEnabled(context.Background(), "ws2", domain.DestinationKindKlaviyo)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Nil(t, destination)
}

func TestDestinationRepository_Upsert(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDestinationRepository(db)
	now := time.Now().UTC()

	destination := &domain.Destination{
		ID:          "dest-1",
		WorkspaceID: "ws1",
		Kind:        domain.DestinationKindKlaviyo,
		Enabled:     true,
		Settings:    domain.DestinationSettings{APIKey: "pk_test"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectExec(`INSERT INTO destinations`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Upsert(context.Background(), destination))
}

func TestDestinationRepository_UpdateSyncStatus(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDestinationRepository(db)
	now := time.Now().UTC()
	errMsg := "klaviyo: 401 unauthorized"

	// Recording a failure keeps last_sync_at and stores the error
	mock.ExpectExec(`UPDATE destinations`).
		WithArgs("ws1", "dest-1", nil, &errMsg).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateSyncStatus(context.Background(), "ws1", "dest-1", nil, &errMsg))

	// Recording a success advances last_sync_at and clears the error
	mock.ExpectExec(`UPDATE destinations`).
		WithArgs("ws1", "dest-1", &now, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateSyncStatus(context.Background(), "ws1", "dest-1", &now, nil))
}
