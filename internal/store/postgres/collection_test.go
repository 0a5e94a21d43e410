package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/domain"
)

type doc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestCollection_InsertAndFindByID(t *testing.T) {
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	col := NewCollection[doc](m, "widgets")
	ctx := context.Background()

	m.ExpectExec(`INSERT INTO widgets \(id, doc, created_at, updated_at\) VALUES \(\$1,\$2,\$3,\$4\)`).
		WithArgs("w1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, col.Insert(ctx, "w1", doc{ID: "w1", Name: "gadget"}))

	rows := pgxmock.NewRows([]string{"doc"}).AddRow([]byte(`{"id":"w1","name":"gadget"}`))
	m.ExpectQuery(`SELECT doc FROM widgets WHERE id=\$1`).WithArgs("w1").WillReturnRows(rows)
	got, err := col.FindByID(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, "gadget", got.Name)

	require.NoError(t, m.ExpectationsWereMet())
}

func TestCollection_FindByID_NotFound(t *testing.T) {
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	col := NewCollection[doc](m, "widgets")
	m.ExpectQuery(`SELECT doc FROM widgets WHERE id=\$1`).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err = col.FindByID(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestCollection_UpdateOne_NoRowsAffectedIsNotFound(t *testing.T) {
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	col := NewCollection[doc](m, "widgets")
	m.ExpectExec(`UPDATE widgets SET doc=\$2, updated_at=\$3 WHERE id=\$1`).
		WithArgs("missing", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = col.UpdateOne(context.Background(), "missing", doc{ID: "missing"})
	require.Error(t, err)
	require.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestCollection_Find_WithFilterSortLimit(t *testing.T) {
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	col := NewCollection[doc](m, "widgets")
	rows := pgxmock.NewRows([]string{"doc"}).
		AddRow([]byte(`{"id":"w1","name":"a"}`)).
		AddRow([]byte(`{"id":"w2","name":"b"}`))
	m.ExpectQuery(`SELECT doc FROM widgets WHERE doc @> \$1 ORDER BY doc->>'updatedAt' DESC LIMIT 10 OFFSET 5`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(rows)

	got, err := col.Find(context.Background(), map[string]any{"userId": "u1"}, FindOptions{
		SortBy: "doc->>'updatedAt'", Desc: true, Limit: 10, Skip: 5,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestCollection_CountDocuments(t *testing.T) {
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	col := NewCollection[doc](m, "widgets")
	rows := pgxmock.NewRows([]string{"count"}).AddRow(3)
	m.ExpectQuery(`SELECT count\(\*\) FROM widgets WHERE doc @> \$1`).WithArgs(pgxmock.AnyArg()).WillReturnRows(rows)

	n, err := col.CountDocuments(context.Background(), map[string]any{"status": "active"})
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestCollection_Delete(t *testing.T) {
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	col := NewCollection[doc](m, "widgets")
	m.ExpectExec(`DELETE FROM widgets WHERE id=\$1`).WithArgs("w1").WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, col.Delete(context.Background(), "w1"))
}

func TestCollection_AtomicFindAndModify_MutatesAndCommits(t *testing.T) {
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	col := NewCollection[doc](m, "widgets")
	m.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	rows := pgxmock.NewRows([]string{"id", "doc"}).AddRow("w1", []byte(`{"id":"w1","name":"a"}`))
	m.ExpectQuery(`SELECT id, doc FROM widgets WHERE doc @> \$1 ORDER BY created_at ASC LIMIT 1 FOR UPDATE SKIP LOCKED`).
		WithArgs(pgxmock.AnyArg()).WillReturnRows(rows)
	m.ExpectExec(`UPDATE widgets SET doc=\$2, updated_at=\$3 WHERE id=\$1`).
		WithArgs("w1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	m.ExpectCommit()

	got, found, err := col.AtomicFindAndModify(context.Background(), map[string]any{"status": "pending"}, func(d *doc) bool {
		d.Name = "claimed"
		return true
	})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "claimed", got.Name)
}

func TestCollection_AtomicFindAndModify_NoMatchRollsBack(t *testing.T) {
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	col := NewCollection[doc](m, "widgets")
	m.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	m.ExpectQuery(`SELECT id, doc FROM widgets WHERE doc @> \$1 ORDER BY created_at ASC LIMIT 1 FOR UPDATE SKIP LOCKED`).
		WithArgs(pgxmock.AnyArg()).WillReturnError(pgx.ErrNoRows)
	m.ExpectRollback()

	_, found, err := col.AtomicFindAndModify(context.Background(), map[string]any{"status": "pending"}, func(d *doc) bool {
		t.Fatal("mutate must not be called when nothing matched")
		return false
	})
	require.NoError(t, err)
	require.False(t, found)
}
