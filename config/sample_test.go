package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleParsesCleanly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mqttwarn.ini")
	require.NoError(t, os.WriteFile(path, []byte(Sample), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Defaults.Hostname)
	for _, name := range []string{"log", "file", "pipe", "httpsink", "smtp", "db", "wsfeed"} {
		require.Contains(t, cfg.Services, name)
		assert.NotEmpty(t, cfg.Services[name].Module, "service %s must declare module", name)
	}
	assert.NotEmpty(t, cfg.Handlers)
	assert.NotNil(t, cfg.Failover)
	require.Len(t, cfg.Cron, 1)
}
