package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/domain"
)

func TestCVRepo_CreateFindUpdate(t *testing.T) {
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	repo := NewCVRepo(m)
	ctx := context.Background()
	cv := domain.CV{ID: "cv1", UserID: "u1", Title: "My CV", Status: domain.CVDraft}

	m.ExpectExec(`INSERT INTO cvs`).WithArgs("cv1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	id, err := repo.Create(ctx, cv)
	require.NoError(t, err)
	require.Equal(t, "cv1", id)

	rows := pgxmock.NewRows([]string{"doc"}).AddRow([]byte(`{"id":"cv1","userId":"u1","title":"My CV"}`))
	m.ExpectQuery(`SELECT doc FROM cvs WHERE id=\$1`).WithArgs("cv1").WillReturnRows(rows)
	got, err := repo.FindByID(ctx, "cv1")
	require.NoError(t, err)
	require.Equal(t, "My CV", got.Title)

	m.ExpectExec(`UPDATE cvs SET doc=\$2, updated_at=\$3 WHERE id=\$1`).
		WithArgs("cv1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.Update(ctx, cv))
}

func TestCVRepo_SetActiveVersion(t *testing.T) {
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	repo := NewCVRepo(m)
	m.ExpectExec(`UPDATE cvs SET doc = jsonb_set\(doc, '\{activeVersionId\}', to_jsonb\(\$2::text\)\), updated_at=\$3 WHERE id=\$1`).
		WithArgs("cv1", "v2", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SetActiveVersion(context.Background(), "cv1", "v2"))
}

func TestCVRepo_SetActiveVersion_NotFound(t *testing.T) {
	m, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer m.Close()

	repo := NewCVRepo(m)
	m.ExpectExec(`UPDATE cvs SET doc = jsonb_set`).
		WithArgs("missing", "v2", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.SetActiveVersion(context.Background(), "missing", "v2")
	require.Error(t, err)
	require.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}
