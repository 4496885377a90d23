package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/detectlab/sigma2xql/internal/batch"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestBeginRun(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO conversion_runs`).
		WithArgs("cortex_xdm", "/rules").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := s.BeginRun(context.Background(), "cortex_xdm", "/rules")
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if id != 7 {
		t.Fatalf("run id: %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordResultSuccess(t *testing.T) {
	s, mock := newMock(t)
	res := batch.Result{
		Path:    "rules/a.yml",
		RuleID:  "good-1",
		Title:   "Good Rule",
		Level:   "high",
		Query:   `datamodel dataset = xdr_data | filter EventID = 4624`,
		Elapsed: 1500 * time.Microsecond,
	}
	mock.ExpectExec(`INSERT INTO conversion_results`).
		WithArgs(int64(7), res.Path, res.RuleID, res.Title, res.Level, res.Query, nil, 0, int64(1500)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.RecordResult(context.Background(), 7, res); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordResultFailure(t *testing.T) {
	s, mock := newMock(t)
	res := batch.Result{
		Path:   "rules/b.yml",
		RuleID: "bad-1",
		Err:    errors.New("rule \"bad-1\": unsupported comparison"),
	}
	mock.ExpectExec(`INSERT INTO conversion_results`).
		WithArgs(int64(7), res.Path, res.RuleID, "", "", "", res.Err.Error(), 0, int64(0)).
		WillReturnResult(sqlmock.NewResult(2, 1))

	if err := s.RecordResult(context.Background(), 7, res); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFinishRun(t *testing.T) {
	s, mock := newMock(t)
	sum := batch.Summary{Total: 3, Converted: 2, Failed: 1}
	mock.ExpectExec(`UPDATE conversion_runs`).
		WithArgs(int64(7), 3, 2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.FinishRun(context.Background(), 7, sum); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunMigrationsExecutesInOrder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "0002_later.sql"), []byte("CREATE INDEX b ON t(x);"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "0001_first.sql"), []byte("CREATE TABLE t (x INT);\nCREATE INDEX a ON t(x);"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, mock := newMock(t)
	mock.ExpectExec(`CREATE TABLE t`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX a`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX b`).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.RunMigrations(dir); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
