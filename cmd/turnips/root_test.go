package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	defer func() {
		flagLastWeek = ""
		flagJSON = false
	}()
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRunForecast_DocumentedExample(t *testing.T) {
	stdout, _, err := runCLI(t, "--last-week", "largespike", "95", "102", "127")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Analysis:")
	assert.Contains(t, stdout, "Random: 92%")
	assert.Contains(t, stdout, "SmallSpike: 8%")
	assert.NotContains(t, stdout, "LargeSpike")
	assert.NotContains(t, stdout, "Decreasing")
}

func TestRunForecast_MissingPrices(t *testing.T) {
	stdout, _, err := runCLI(t, "90", "?", ".", "48", "43")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Analysis:")
}

func TestRunForecast_JSON(t *testing.T) {
	stdout, _, err := runCLI(t, "--json", "95", "102", "127")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"pattern": "random"`)
	assert.Contains(t, stdout, `"probability"`)
}

func TestRunForecast_Inconsistent(t *testing.T) {
	_, stderr, err := runCLI(t, "100", "200")
	require.Error(t, err)
	assert.Contains(t, stderr, "did not match any known pattern")
}

func TestRunForecast_BadArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"base not a number", []string{"abc"}},
		{"price not a number", []string{"100", "12x"}},
		{"bad last week", []string{"--last-week", "spiky", "100"}},
		{"base out of range", []string{"42", "100"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
