package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverAppendsToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outbox.log")

	ctx := &model.ServiceCtx{Log: logger.NewLogger("test", logger.LevelError)}
	item := &model.Item{Message: "first", Target: "outbox", Addrs: []any{path}}
	require.True(t, deliver(ctx, item))

	item2 := &model.Item{Message: "second", Target: "outbox", Addrs: []any{path}}
	require.True(t, deliver(ctx, item2))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestDeliverMissingAddrsFails(t *testing.T) {
	ctx := &model.ServiceCtx{Log: logger.NewLogger("test", logger.LevelError)}
	item := &model.Item{Message: "x", Target: "missing"}
	assert.False(t, deliver(ctx, item))
}

func TestBuildDecodesTruncateOption(t *testing.T) {
	svc := &config.ServiceConfig{
		Name:    "file",
		Options: map[string]any{"truncate": true},
		Targets: map[string]any{"outbox": []any{"/tmp/x.log"}},
	}
	entry, err := Build(svc, logger.NewLogger("test", logger.LevelError))
	require.NoError(t, err)
	assert.Equal(t, true, entry.Config["truncate"])
}
