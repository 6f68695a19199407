package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOMEBASE_JWT_SECRET", "s3cret")
	t.Setenv("HOMEBASE_SERVER_PORT", "9090")
	t.Setenv("HOMEBASE_SCHEDULER_SPEC", "@every 1m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "@every 1m", cfg.Scheduler.Spec)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.False(t, cfg.PushEnabled())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "homebase.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  mode: debug
database:
  driver: mongo
  uri: mongodb://db:27017
  name: hb
log:
  format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mongo", cfg.Database.Driver)
	assert.Equal(t, "hb", cfg.Database.Name)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DevSecret, cfg.JWTSecret(), "debug mode falls back to the dev secret")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:    ServerConfig{Port: 8080, Mode: "release"},
			Database:  DatabaseConfig{Driver: "sqlite", Path: "x.db"},
			JWT:       JWTConfig{Secret: "s", ExpireHours: 1},
			Scheduler: SchedulerConfig{Enabled: true, Spec: "@every 1m"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing secret in release", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: true},
		{name: "missing secret in debug", mutate: func(c *Config) { c.JWT.Secret = ""; c.Server.Mode = "debug" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: true},
		{name: "mongo without uri", mutate: func(c *Config) { c.Database.Driver = "mongo" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "bad mode", mutate: func(c *Config) { c.Server.Mode = "prod" }, wantErr: true},
		{name: "scheduler without spec", mutate: func(c *Config) { c.Scheduler.Spec = "" }, wantErr: true},
		{name: "disabled scheduler without spec", mutate: func(c *Config) { c.Scheduler.Spec = ""; c.Scheduler.Enabled = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
