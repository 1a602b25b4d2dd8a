package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.ListenAddr(8080))
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
host: 127.0.0.1
log_file: /tmp/events.log
admin_listen: 127.0.0.1:9090
`), 0o600))

	t.Setenv("EMSERVER_ADMIN_LISTEN", "0.0.0.0:9191")
	t.Setenv("EMSERVER_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "/tmp/events.log", cfg.LogFile)
	assert.Equal(t, "0.0.0.0:9191", cfg.AdminListen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "EXIT", cfg.ExitCommand)
	assert.Equal(t, "127.0.0.1:5000", cfg.ListenAddr(5000))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"8080", 8080, false},
		{"0", 0, false},
		{"65535", 65535, false},
		{"65536", 0, true},
		{"-1", 0, true},
		{"http", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePort(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPort)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
