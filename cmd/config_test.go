package cmd

import (
	"testing"

	"github.com/rskv-p/mqttwarn/config"
	"github.com/stretchr/testify/assert"
)

func TestConfigSampleCommandPrintsSample(t *testing.T) {
	err := configSampleCmd.RunE(configSampleCmd, nil)
	assert.NoError(t, err)
	assert.NotEmpty(t, config.Sample)
}
