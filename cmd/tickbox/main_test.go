package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, debug bytes.Buffer
	a := &app{debugOut: &debug}

	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), debug.String(), err
}

func TestRunPrintsResultsLine(t *testing.T) {
	out, debug, err := execute(t, "run", "--ticks", "3", "--no-report", "--match-id", "cli")
	require.NoError(t, err)

	assert.Equal(t, "0 0 TIE\n", out)
	assert.Equal(t, strings.Repeat("Hello World!\n", 6), debug, "both players mirror their lines")
}

func TestRunPrintsReport(t *testing.T) {
	out, _, err := execute(t, "run", "--ticks", "2", "--match-id", "cli", "--gc-pause-metrics")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "0 0 TIE\n"))
	assert.Contains(t, out, "# Match Report")
	assert.Contains(t, out, "- **Match:** cli")
	assert.Contains(t, out, "- **Completed Ticks:** 2")
	assert.Contains(t, out, "### System")
	assert.Contains(t, out, "### gameLogSystem")
	assert.Contains(t, out, "## GC Pause Durations")
}

func TestRunRejectsUnknownProfile(t *testing.T) {
	_, _, err := execute(t, "run", "--ticks", "1", "--profile", "gpu")
	assert.ErrorContains(t, err, "unknown profile mode")
}

func TestRunFailsOnBadConfig(t *testing.T) {
	t.Setenv("TICKBOX_LOG_LEVEL", "loud")
	_, _, err := execute(t, "run")
	assert.Error(t, err)
}

func TestServeNeedsSecret(t *testing.T) {
	t.Setenv("TICKBOX_SECRET_KEY", "")
	_, _, err := execute(t, "serve")
	assert.ErrorContains(t, err, "secret key cannot be empty")
}
