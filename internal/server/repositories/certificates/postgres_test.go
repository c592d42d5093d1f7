package certificates

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var cols = []string{"id", "certificate_id", "file_ref", "file_name", "category_id", "category_name", "category_slug",
	"recipient_id", "recipient_name", "recipient_email", "publisher_id", "is_claimed", "claimed_at",
	"created_at", "updated_at"}

func certRow(id, certID string, categoryID driver.Value, claimed bool, claimedAt driver.Value) []driver.Value {
	return []driver.Value{id, certID, "certificates/2024/3/1/x.png", "award.png", categoryID, "Workshop", "workshop",
		"acc-1", "Ada Lovelace", "ada@example.com", "pub-1", claimed, claimedAt, ts, ts}
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func newCert() *models.Certificate {
	catID := "cat-1"
	return &models.Certificate{
		CertificateID: "ID64", FileRef: "ref", FileName: "award.png",
		CategoryID: &catID, CategoryName: "Workshop", CategorySlug: "workshop",
		RecipientID: "acc-1", RecipientName: "Ada Lovelace", RecipientEmail: "ada@example.com",
		PublisherID: "pub-1",
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+certificates\s*\(certificate_id,.*publisher_id\)\s*VALUES\s*\(\$1,.*\$10\)\s*` +
		`ON\s+CONFLICT\s+\(certificate_id\)\s+DO\s+NOTHING\s+RETURNING\s+id,\s*is_claimed,\s*created_at,\s*updated_at\s*$`
	mock.ExpectQuery(q).
		WithArgs("ID64", "ref", "award.png", "cat-1", "Workshop", "workshop", "acc-1", "Ada Lovelace", "ada@example.com", "pub-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_claimed", "created_at", "updated_at"}).AddRow("c-1", false, ts, ts))

	got, err := repo.Create(context.Background(), newCert())
	require.NoError(t, err)
	assert.Equal(t, "c-1", got.ID)
	assert.False(t, got.IsClaimed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_IDCollision(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+certificates`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_claimed", "created_at", "updated_at"}))
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+certificates`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "certificates_certificate_id_key"})

	_, err := repo.Create(context.Background(), newCert())
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = repo.Create(context.Background(), newCert())
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+certificates`).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "certificates_category_id_fkey"})

	_, err := repo.Create(context.Background(), newCert())
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrConflict)
	assert.True(t, regexp.MustCompile(`^db error: `).MatchString(err.Error()))
}

func TestGetByCertificateID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*certificate_id,.*FROM\s+certificates\s+WHERE\s+certificate_id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("ID64").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(certRow("c-1", "ID64", nil, true, ts)...))
	mock.ExpectQuery(q).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByCertificateID(context.Background(), "ID64")
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID, "deleted category leaves a NULL reference")
	assert.Equal(t, "Workshop", got.CategoryName)
	require.NotNil(t, got.ClaimedAt)
	assert.True(t, got.IsClaimed)

	_, err = repo.GetByCertificateID(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+certificates\s+WHERE\s+id\s*=\s*\$1\s*$`).WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(certRow("c-1", "ID64", "cat-1", false, nil)...))

	got, err := repo.GetByID(context.Background(), "c-1")
	require.NoError(t, err)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, "cat-1", *got.CategoryID)
	assert.Nil(t, got.ClaimedAt)
}

func TestListByCategorySlug(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT.*FROM\s+certificates\s+WHERE\s+category_slug\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC\s*$`
	mock.ExpectQuery(q).WithArgs("workshop").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(certRow("c-2", "B", "cat-1", false, nil)...).
			AddRow(certRow("c-1", "A", "cat-1", false, nil)...))

	got, err := repo.ListByCategorySlug(context.Background(), "workshop")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].CertificateID)
}

func TestListByRecipient_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*WHERE\s+recipient_id\s*=\s*\$1`).WithArgs("acc-1").
		WillReturnError(errors.New("db err"))

	_, err := repo.ListByRecipient(context.Background(), "acc-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestClaim(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+certificates\s+SET\s+is_claimed\s*=\s*TRUE,\s*claimed_at\s*=\s*\$2,\s*updated_at\s*=\s*\$2\s+` +
		`WHERE\s+certificate_id\s*=\s*\$1\s+AND\s+is_claimed\s*=\s*FALSE\s+RETURNING\s+id,`
	mock.ExpectQuery(q).WithArgs("ID64", ts).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(certRow("c-1", "ID64", "cat-1", true, ts)...))
	mock.ExpectQuery(q).WithArgs("ID64", ts).WillReturnRows(sqlmock.NewRows(cols))

	got, err := repo.Claim(context.Background(), "ID64", ts)
	require.NoError(t, err)
	assert.True(t, got.IsClaimed)

	_, err = repo.Claim(context.Background(), "ID64", ts)
	assert.ErrorIs(t, err, common.ErrConflict)
}
