package db

import (
	"testing"

	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestEntry(t *testing.T, dsn string) *sink {
	t.Helper()
	svc := &config.ServiceConfig{
		Name:    "db",
		Options: map[string]any{"driver": DriverSQLite, "dsn": dsn},
		Targets: map[string]any{"default": []any{}},
	}
	entry, err := Build(svc, logger.NewLogger("test", logger.LevelError))
	require.NoError(t, err)
	t.Cleanup(func() { entry.Closer.Close() })
	return entry.Closer.(*sink)
}

func TestDeliverInsertsRow(t *testing.T) {
	s := buildTestEntry(t, "file::memory:?cache=shared&_db=TestDeliverInsertsRow")
	ctx := &model.ServiceCtx{Log: logger.NewLogger("test", logger.LevelError)}
	item := &model.Item{Service: "db", Target: "default", Section: "handler", Topic: "a/b", Title: "t", Message: "hello"}
	assert.True(t, s.deliver(ctx, item))

	var count int64
	require.NoError(t, s.db.Model(&Message{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestBuildRejectsUnknownDriver(t *testing.T) {
	svc := &config.ServiceConfig{Name: "db", Options: map[string]any{"driver": "oracle"}}
	_, err := Build(svc, logger.NewLogger("test", logger.LevelError))
	require.Error(t, err)
}

func TestBuildDefaultsToInMemorySQLite(t *testing.T) {
	svc := &config.ServiceConfig{Name: "db", Targets: map[string]any{"default": []any{}}}
	entry, err := Build(svc, logger.NewLogger("test", logger.LevelError))
	require.NoError(t, err)
	defer entry.Closer.Close()
	assert.True(t, entry.HasTarget("default"))
}
