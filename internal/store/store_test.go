package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storatrack-backend/internal/db"
	"storatrack-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: conn,
	}), db.GormConfig(logger.Silent))
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_Company(t *testing.T) {
	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedName     string
		expectedErr      error
	}{
		{
			name: "Company found",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "companies" WHERE "companies"."id" = \$1 ORDER BY "companies"."id" LIMIT \$[0-9]+`).
					WithArgs(7, 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "default_base_cost", "default_daily_cost", "tax_percent", "tax_inclusive", "currency"}).
						AddRow(7, "Acme", "100.0000", "10.0000", "22.00", true, "UYU"))
			},
			expectedName: "Acme",
		},
		{
			name: "Company missing",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "companies" WHERE "companies"."id" = \$1`).
					WithArgs(7, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB)
			tc.mockExpectations(mock)

			tenant, err := s.Company(context.Background(), 7)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedName, tenant.Name)
				assert.True(t, tenant.TaxPercent.Equal(decimal.NewFromInt(22)))
				assert.True(t, tenant.TaxInclusive)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_ActiveCompanyIDs(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "companies" WHERE is_active = $1 ORDER BY id`)).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(4))

	ids, err := s.ActiveCompanyIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SaveClosing(t *testing.T) {
	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      error
	}{
		{
			name: "Period already closed is never overwritten",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "monthly_reports" WHERE company_id = \$1 AND year = \$2 AND month = \$3`).
					WithArgs(3, 2024, 5).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
				mock.ExpectRollback()
			},
			expectedErr: ErrConflict,
		},
		{
			name: "New snapshot is inserted",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "monthly_reports"`).
					WithArgs(3, 2024, 5).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "monthly_reports"`)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
				mock.ExpectCommit()
			},
		},
		{
			name: "Count failure aborts",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "monthly_reports"`).
					WithArgs(Any{}, Any{}, Any{}).
					WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			expectedErr: errors.New("connection reset"),
		},
		{
			name: "Concurrent close loses on the unique index",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "monthly_reports"`).
					WithArgs(3, 2024, 5).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "monthly_reports"`)).
					WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
				mock.ExpectRollback()
			},
			expectedErr: ErrConflict,
		},
		{
			name: "Untranslated insert failure with a committed rival",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "monthly_reports"`).
					WithArgs(3, 2024, 5).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "monthly_reports"`)).
					WillReturnError(errors.New("UNIQUE constraint failed: monthly_reports.company_id"))
				mock.ExpectRollback()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "monthly_reports"`).
					WithArgs(3, 2024, 5).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			},
			expectedErr: ErrConflict,
		},
		{
			name: "Insert failure without a rival stays an error",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "monthly_reports"`).
					WithArgs(3, 2024, 5).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "monthly_reports"`)).
					WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "monthly_reports"`).
					WithArgs(3, 2024, 5).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
			},
			expectedErr: errors.New("failed to save monthly report: disk full"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB)
			tc.mockExpectations(mock)

			report := &model.MonthlyReport{
				CompanyID: 3, Year: 2024, Month: 5, Currency: "UYU",
				IsClosed: true, ClosedBy: "tester", RunID: "run-1",
			}
			err := s.SaveClosing(context.Background(), report)
			switch {
			case tc.expectedErr == nil:
				assert.NoError(t, err)
				assert.Equal(t, int64(11), report.ID)
			case errors.Is(tc.expectedErr, ErrConflict):
				assert.ErrorIs(t, err, ErrConflict)
			default:
				assert.ErrorContains(t, err, tc.expectedErr.Error())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
