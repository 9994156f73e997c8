package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortly/internal/database"
)

type URLRepositoryTestSuite struct {
	suite.Suite
	errUnknown error
	columns    []string
	mock       sqlmock.Sqlmock
	repo       *URLRepository
}

func (suite *URLRepositoryTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.columns = []string{
		"id", "short_code", "custom_alias", "original_url",
		"owner_id", "click_count", "last_accessed", "created_at",
	}
}

func (suite *URLRepositoryTestSuite) SetupSubTest() {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		suite.T().Fatalf("Failed to create mock database: %v", err)
	}
	suite.T().Cleanup(func() {
		mockDB.Close()
	})

	db := sqlx.NewDb(mockDB, "sqlmock")
	suite.T().Cleanup(func() {
		db.Close()
	})

	suite.mock = mock
	suite.repo = NewURLRepository(db)
}

func (suite *URLRepositoryTestSuite) TearDownSubTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *URLRepositoryTestSuite) TestCreate() {
	suite.Run("short code exists", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc-12", "", "https://example.com", "").
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		url, err := suite.repo.Create(context.Background(), "abc-12", "", "https://example.com", "")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrShortCodeExists)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc-12", "", "https://example.com", "").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.Create(context.Background(), "abc-12", "", "https://example.com", "")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "abc-12", nil, "https://example.com", nil, 0, nil, time.Time{})

		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc-12", "", "https://example.com", "").
			WillReturnRows(rows)

		url, err := suite.repo.Create(context.Background(), "abc-12", "", "https://example.com", "")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("abc-12", url.ShortCode)
		suite.Empty(url.CustomAlias)
		suite.Empty(url.OwnerID)
		suite.Zero(url.ClickCount)
	})

	suite.Run("success with alias and owner", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "my-alias", "my-alias", "https://example.com", "user-1", 0, nil, time.Time{})

		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("my-alias", "my-alias", "https://example.com", "user-1").
			WillReturnRows(rows)

		url, err := suite.repo.Create(context.Background(), "my-alias", "my-alias", "https://example.com", "user-1")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("my-alias", url.ShortCode)
		suite.Equal("my-alias", url.CustomAlias)
		suite.Equal("user-1", url.OwnerID)
	})
}

func (suite *URLRepositoryTestSuite) TestRegisterClick() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`UPDATE urls`).
			WithArgs("abc-12").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.RegisterClick(context.Background(), "abc-12")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`UPDATE urls`).
			WithArgs("abc-12").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.RegisterClick(context.Background(), "abc-12")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		now := time.Now()
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "abc-12", nil, "https://example.com", nil, 5, now, time.Time{})

		suite.mock.ExpectQuery(`UPDATE urls`).
			WithArgs("abc-12").
			WillReturnRows(rows)

		url, err := suite.repo.RegisterClick(context.Background(), "abc-12")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal(int64(5), url.ClickCount)
		suite.Equal(now, url.LastAccessed)
	})
}

func (suite *URLRepositoryTestSuite) TestListByOwner() {
	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT \* FROM urls`).
			WithArgs("user-1").
			WillReturnError(suite.errUnknown)

		urls, err := suite.repo.ListByOwner(context.Background(), "user-1")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(urls)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(2, "def-34", nil, "https://example.org", "user-1", 0, nil, time.Time{}).
			AddRow(1, "abc-12", nil, "https://example.com", "user-1", 3, nil, time.Time{})

		suite.mock.ExpectQuery(`SELECT \* FROM urls`).
			WithArgs("user-1").
			WillReturnRows(rows)

		urls, err := suite.repo.ListByOwner(context.Background(), "user-1")

		suite.NoError(err)
		suite.Len(urls, 2)
		suite.Equal("def-34", urls[0].ShortCode)
		suite.Equal("abc-12", urls[1].ShortCode)
	})
}

func (suite *URLRepositoryTestSuite) TestDelete() {
	suite.Run("url not found", func() {
		suite.mock.ExpectExec(`DELETE FROM urls`).
			WithArgs(int64(1), "user-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := suite.repo.Delete(context.Background(), 1, "user-1")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrURLNotFound)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectExec(`DELETE FROM urls`).
			WithArgs(int64(1), "user-1").
			WillReturnError(suite.errUnknown)

		err := suite.repo.Delete(context.Background(), 1, "user-1")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("success", func() {
		suite.mock.ExpectExec(`DELETE FROM urls`).
			WithArgs(int64(1), "user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := suite.repo.Delete(context.Background(), 1, "user-1")

		suite.NoError(err)
	})
}

func TestURLRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(URLRepositoryTestSuite))
}
