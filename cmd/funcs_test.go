package cmd

import (
	"strings"
	"testing"

	"github.com/rskv-p/mqttwarn/hooks/sample"
	"github.com/stretchr/testify/assert"
)

func TestSampleSourceLooksLikeGoPackage(t *testing.T) {
	assert.True(t, strings.HasPrefix(sample.Source, "// Package sample"))
	assert.Contains(t, sample.Source, "package sample")
}
