package sample

import (
	"testing"

	"github.com/rskv-p/mqttwarn/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLoud(t *testing.T) {
	assert.True(t, IsLoud("t", []byte("HELP ME")))
	assert.False(t, IsLoud("t", []byte("help me")))
	assert.False(t, IsLoud("t", []byte("123")))
}

func TestAddSeverity(t *testing.T) {
	data := map[string]any{}
	AddSeverity("sensors/room/crit", data)
	assert.Equal(t, "critical", data["severity"])

	data2 := map[string]any{}
	AddSeverity("sensors/room/temp", data2)
	assert.Equal(t, "info", data2["severity"])
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	in := map[string]any{"a": 1}
	out := Merge("t", in)
	assert.Equal(t, "mqttwarn_hooks.sample", out["source"])
	_, hasSource := in["source"]
	assert.False(t, hasSource)
}

func TestFanOut(t *testing.T) {
	pairs := FanOut("sec", "t", nil)
	require.Len(t, pairs, 1)
	assert.Equal(t, "log", pairs[0].Service)
	assert.Equal(t, "info", pairs[0].TargetKey)
}

func TestUpper(t *testing.T) {
	assert.Equal(t, "HELLO", Upper("hello", nil))
	assert.Equal(t, 5, Upper(5, nil))
}

func TestRegisteredInHooks(t *testing.T) {
	_, err := hooks.LookupFilter(namespace+":isloud", nil)
	require.NoError(t, err)
	_, err = hooks.LookupCron(namespace+":heartbeat()", nil)
	require.NoError(t, err, "trailing () marker must be stripped")
}
