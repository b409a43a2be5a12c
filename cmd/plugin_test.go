package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pluginTestConfig = `
[defaults]
hostname = localhost

[config:log]
module  = log
targets = {info: [log, info]}
`

func TestRunPluginDeliversToConfiguredService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mqttwarn.ini")
	require.NoError(t, os.WriteFile(path, []byte(pluginTestConfig), 0644))

	err := runPlugin(path, "log", `{"target":"info","topic":"a/b","message":"hello"}`)
	assert.NoError(t, err)
}

func TestRunPluginUnknownServiceFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mqttwarn.ini")
	require.NoError(t, os.WriteFile(path, []byte(pluginTestConfig), 0644))

	err := runPlugin(path, "missing", `{"target":"info","message":"x"}`)
	assert.Error(t, err)
}

func TestRunPluginBadJSONFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mqttwarn.ini")
	require.NoError(t, os.WriteFile(path, []byte(pluginTestConfig), 0644))

	err := runPlugin(path, "log", `{not json`)
	assert.Error(t, err)
}
