package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestGormFindByEmail_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProfileRepository(gormDB)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "name", "avatar_url", "password_hash", "provider", "created_at", "updated_at"}).
		AddRow("u-1", "jane@example.com", "Jane", "", "hash", "email", now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles"`)).
		WillReturnRows(rows)

	p, err := repo.FindByEmail(context.Background(), "  Jane@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.ID)
	assert.Equal(t, "Jane", p.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormFindByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProfileRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	p, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)
	assert.Nil(t, p)
}

func TestMemoryProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryProfileRepository()

	require.NoError(t, repo.Create(ctx, &models.Profile{ID: "u-1", Email: "A@b.com", Name: "A"}))
	assert.ErrorIs(t, repo.Create(ctx, &models.Profile{ID: "u-2", Email: "a@b.com"}), repository.ErrProfileExists)

	p, err := repo.FindByEmail(ctx, "a@B.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.ID)

	p.Email = "new@b.com"
	require.NoError(t, repo.Update(ctx, p))

	_, err = repo.FindByEmail(ctx, "a@b.com")
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	p, err = repo.FindByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "new@b.com", p.Email)

	assert.ErrorIs(t, repo.Update(ctx, &models.Profile{ID: "nope"}), repository.ErrProfileNotFound)
}
