package lifecycle

import (
	"testing"

	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Defaults: config.Defaults{
			Hostname:     "localhost",
			Port:         1883,
			NumWorkers:   1,
			CleanSession: true,
		},
		Handlers: []*config.HandlerConfig{
			{Section: "s1", Topic: "a/b", Targets: "log:info"},
		},
	}
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, r.Register(&registry.Entry{
		Name:       "log",
		Deliver:    func(ctx *model.ServiceCtx, item *model.Item) bool { return true },
		TargetKeys: map[string]struct{}{"info": {}},
	}))
	return r
}

func TestNewWiresEngineSuccessfully(t *testing.T) {
	log := logger.NewLogger("lifecycle-test", logger.LevelError)
	e, err := New(testConfig(), testRegistry(t), nil, log)
	require.NoError(t, err)
	require.NotNil(t, e)
	require.Len(t, e.table.Handlers, 1)
}

func TestNewFailsWithNoUsableHandlers(t *testing.T) {
	log := logger.NewLogger("lifecycle-test", logger.LevelError)
	cfg := testConfig()
	cfg.Handlers = nil
	_, err := New(cfg, testRegistry(t), nil, log)
	require.Error(t, err)
}

func TestShutdownIsSafeWithoutConnect(t *testing.T) {
	log := logger.NewLogger("lifecycle-test", logger.LevelError)
	e, err := New(testConfig(), testRegistry(t), nil, log)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		e.Shutdown()
	})
}
