package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/internal/repository/testutil"
)

func TestIdentityLinkRepository_Upsert(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewIdentityLinkRepository(db)
	now := time.Now().UTC()

	link := &domain.IdentityLink{
		ID:            "link-1",
		WorkspaceID:   "ws1",
		UnifiedUserID: "uid-1",
		IdentityType:  domain.IdentityTypeEmail,
		IdentityValue: "u@x.com",
		Source:        "identify",
		Confidence:    domain.ConfidenceDeclared,
		CreatedAt:     now,
	}

	mock.ExpectExec(`INSERT INTO identity_links`).
		WithArgs(
			"link-1", "ws1", "uid-1", domain.IdentityTypeEmail, "u@x.com",
			"identify", domain.ConfidenceDeclared, now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Upsert(context.Background(), nil, link))

	// Invalid links never reach the database
	bad := &domain.IdentityLink{WorkspaceID: "ws1"}
	err := repo.Upsert(context.Background(), nil, bad)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityLinkRepository_ListByUser(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewIdentityLinkRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	rows := sqlmock.NewRows([]string{
		"id", "workspace_id", "unified_user_id", "identity_type", "identity_value",
		"source", "confidence", "created_at",
	}).
		AddRow("link-1", "ws1", "uid-1", domain.IdentityTypeAnonymous, "anon-1", "server", domain.ConfidenceObserved, now).
		AddRow("link-2", "ws1", "uid-1", domain.IdentityTypeEmail, "u@x.com", "identify", domain.ConfidenceDeclared, now)

	mock.ExpectQuery(`SELECT (.+) FROM identity_links WHERE workspace_id = \$1 AND unified_user_id = \$2`).
		WithArgs("ws1", "uid-1").
		WillReturnRows(rows)

	links, err := repo.ListByUser(context.Background(), "ws1", "uid-1")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, domain.IdentityTypeAnonymous, links[0].IdentityType)
	assert.Equal(t, "u@x.com", links[1].IdentityValue)
}
