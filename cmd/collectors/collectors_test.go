package collectors

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/identity-leak/internal/config"
	"github.com/scan-io-git/identity-leak/internal/errors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	Init(&config.Config{}, nil)
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	err := runCollectorsCommand(cmd, args)
	return buf.String(), err
}

func TestCollectorsTable(t *testing.T) {
	repository, jsonOutput = "", false
	out, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `github\s+true`, out)
	assert.Regexp(t, `commits\s+false\s+no repository configured`, out)
}

func TestCollectorsJSON(t *testing.T) {
	repository, jsonOutput = ".", true
	t.Cleanup(func() { repository, jsonOutput = "", false })

	out, err := run(t)
	require.NoError(t, err)

	var views []entryView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	byName := map[string]entryView{}
	for _, v := range views {
		byName[v.Name] = v
	}
	assert.True(t, byName["commits"].Enabled)
	assert.False(t, byName["file"].Enabled)
}

func TestCollectorsRejectsArguments(t *testing.T) {
	_, err := run(t, "extra")
	assert.Equal(t, errors.ExitInvalidArgs, errors.ExitCode(err))
}
