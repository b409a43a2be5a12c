package broker

import (
	"errors"
	"testing"

	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/handler"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeFiltersTakesMaxQoSPerFilter(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(&registry.Entry{
		Name:    "log",
		Deliver: func(ctx *model.ServiceCtx, item *model.Item) bool { return true },
	}))
	log := logger.NewLogger("test", logger.LevelError)

	table, err := handler.Build([]*config.HandlerConfig{
		{Section: "a", Topic: "x/y", QoS: 0, Targets: "log:info"},
		{Section: "b", Topic: "x/y", QoS: 2, Targets: "log:info"},
		{Section: "c", Topic: "z", QoS: 1, Targets: "log:info"},
	}, nil, reg, "", log)
	require.NoError(t, err)

	filters := SubscribeFilters(table)
	assert.Equal(t, byte(2), filters["x/y"])
	assert.Equal(t, byte(1), filters["z"])
	assert.Len(t, filters, 2)
}

func TestClassifyConnectErrorKnownReasons(t *testing.T) {
	cases := map[string]string{
		"Connection Refused: Bad Protocol Version":      "refused (1)",
		"Connection Refused: Client Identifier Rejected": "refused (2)",
		"Connection Refused: Server Unavailable":         "refused (3)",
		"Connection Refused: Bad Username or Password":   "refused (4)",
		"Connection Refused: Not Authorized":             "refused (5)",
	}
	for msg, wantPrefix := range cases {
		got := classifyConnectError(errors.New(msg))
		assert.Contains(t, got, wantPrefix)
	}
}

func TestClassifyConnectErrorUnknown(t *testing.T) {
	got := classifyConnectError(errors.New("network unreachable"))
	assert.Contains(t, got, "unknown error")
}

func TestNewBuildsOptionsFromDefaults(t *testing.T) {
	def := &config.Defaults{
		Hostname:     "localhost",
		Port:         1883,
		ClientID:     "mqttwarn-test",
		LWT:          "clients/mqttwarn/state",
		CleanSession: true,
		Transport:    "tcp",
	}
	b := New(def, logger.NewLogger("broker-test", logger.LevelError))
	require.NotNil(t, b)
	assert.Equal(t, "clients/mqttwarn/state", b.lwtTopic)
	assert.Equal(t, DefaultReconnectInterval, b.reconnectInterval)
}
