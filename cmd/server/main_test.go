package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/event-manager/internal/config"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	if args == nil {
		args = []string{}
	}
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func TestWrongArgumentCountPrintsUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"8080", "extra"}} {
		out, err := execute(t, "", args...)
		require.NoError(t, err)
		assert.Equal(t, usage+"\n", out)
	}
}

func TestInvalidPortFails(t *testing.T) {
	_, err := execute(t, "", "http")
	assert.ErrorIs(t, err, config.ErrInvalidPort)
}

func TestExitCommandStopsServer(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "emServer.log")
	t.Setenv("EMSERVER_LOG_FILE", logPath)
	t.Setenv("EMSERVER_HOST", "127.0.0.1")

	_, err := execute(t, "status\nexit\n", "0")
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "EXIT command is typed: server is shutdown")
	assert.Contains(t, string(data), "server stopped")
}
