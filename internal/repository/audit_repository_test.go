package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/models"
)

func newAuditRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAuditRepositoryCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	repo := NewAuditRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO proposal_audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	actor := "reviewer@campus"
	log := &models.AuditLog{
		Action:     models.AuditActionProposalApprove,
		ProposalID: 7,
		Actor:      &actor,
		ToStatus:   string(models.ProposalStatusApproved),
		Snapshot:   []byte(`{"id":7}`),
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), log))
	require.NotEmpty(t, log.ID)
	require.False(t, log.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListByProposal(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	repo := NewAuditRepository(db)
	rows := sqlmock.NewRows([]string{"id", "action", "proposal_id", "actor", "from_status", "to_status", "snapshot", "created_at"}).
		AddRow("log-2", "PROPOSAL_DECLINE", 3, nil, "Pending", "Declined", []byte(`{}`), time.Now()).
		AddRow("log-1", "PROPOSAL_SUBMIT", 3, "student@campus", nil, "Pending", []byte(`{}`), time.Now().Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, action, proposal_id")).
		WithArgs(int64(3), 50).
		WillReturnRows(rows)

	logs, err := repo.ListByProposal(context.Background(), 3, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, "log-2", logs[0].ID)
	require.Nil(t, logs[0].Actor)
	require.Equal(t, "student@campus", *logs[1].Actor)
	require.NoError(t, mock.ExpectationsWereMet())
}
