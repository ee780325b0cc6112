package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadZone(t *testing.T) {
	assert.Equal(t, "Europe/Oslo", LoadZone("").String())
	assert.Equal(t, "UTC", LoadZone("UTC").String())
	assert.Equal(t, "Europe/Oslo", LoadZone("Not/AZone").String(), "bad names fall back to the default")
}

func TestToLocal(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	// 12:00 UTC in August is 14:00 in Oslo (CEST).
	utc := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	local := ToLocal(utc, oslo)
	assert.Equal(t, 14, local.Hour())
	assert.True(t, utc.Equal(local), "conversion preserves the instant")
}
