package db

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"storatrack-backend/config"
	"storatrack-backend/internal/model"
)

func TestInit_SQLite(t *testing.T) {
	log, hook := test.NewNullLogger()
	db, err := Init(&config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      "file:dbinit?mode=memory&cache=shared",
		LogLevel: "silent",
	}, log)
	require.NoError(t, err)

	for _, table := range []any{&model.Company{}, &model.Device{}, &model.DeviceMovement{}, &model.MonthlyReport{}, &model.CostCalculation{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.NotEmpty(t, hook.AllEntries())
}

func TestInit_UnknownDriver(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := Init(&config.DatabaseConfig{Driver: "oracle"}, log)
	assert.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, logLevel("SILENT"))
	assert.Equal(t, logger.Info, logLevel("info"))
	assert.Equal(t, logger.Warn, logLevel(""))
}
