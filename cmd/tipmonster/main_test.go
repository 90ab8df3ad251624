package main

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watsonpaul80/tipping-monster/internal/logger"
)

func TestParseDate(t *testing.T) {
	d, err := parseDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDate("01/06/2025")
	assert.Error(t, err)
}

func TestYesterdayToday(t *testing.T) {
	y := yesterday()
	assert.Equal(t, 0, y.Hour())
	assert.Equal(t, 24*time.Hour, today().Sub(y))
}

func TestOverrideConfig(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	audit = logger.NewAuditLogger(l)

	cmd := &cobra.Command{Use: "test"}
	var flagVal float64
	cmd.Flags().Float64Var(&flagVal, "ceiling", 0, "")

	target := 21.0
	overrideConfig(cmd, "ceiling", "nap.ceiling", &target, 0.0)
	assert.Equal(t, 21.0, target, "unchanged flag leaves config alone")

	require.NoError(t, cmd.Flags().Set("ceiling", "15"))
	overrideConfig(cmd, "ceiling", "nap.ceiling", &target, flagVal)
	assert.Equal(t, 15.0, target)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "tipmonster dev")
}
