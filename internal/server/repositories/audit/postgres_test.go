package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var ts = time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC)

func TestInsert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO audit_logs \(log_id, action, user_id, user_name, timestamp, details\)`).
		WithArgs("l1", "save_entry", "u1", "Ana", ts, []byte(`{"day":10,"timeSlot":"10:00"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).WillReturnError(errors.New("down"))

	ev := &models.AuditEvent{
		LogID: "l1", Action: models.ActionSaveEntry, UserID: "u1", UserName: "Ana", Timestamp: ts,
		Details: map[string]any{"day": 10, "timeSlot": "10:00"},
	}
	require.NoError(t, repo.Insert(context.Background(), ev))

	err := repo.Insert(context.Background(), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: down")
}

func TestInsert_UnmarshalableDetails(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	err := repo.Insert(context.Background(), &models.AuditEvent{Details: map[string]any{"bad": make(chan int)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal details")
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	cols := []string{"log_id", "action", "user_id", "user_name", "timestamp", "details"}
	mock.ExpectQuery(`FROM audit_logs WHERE action = \$1 ORDER BY timestamp DESC LIMIT \$2`).
		WithArgs("override_used", 5).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("l1", "override_used", "u1", "", ts, []byte(`{"overrideId":"o1"}`)))
	mock.ExpectQuery(`FROM audit_logs ORDER BY timestamp DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(cols))

	got, err := repo.List(context.Background(), models.ActionOverrideUsed, 5)
	require.NoError(t, err)
	want := []models.AuditEvent{{
		LogID: "l1", Action: "override_used", UserID: "u1", Timestamp: ts,
		Details: map[string]any{"overrideId": "o1"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}

	got, err = repo.List(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
