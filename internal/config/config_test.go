package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
terrain:
  occlusion: same_tile
sim:
  tick_rate: 10
generator:
  seed: 7
  radius: 1
eventbus:
  url: nats://localhost:4222
server:
  rest_port: 9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "same_tile", cfg.Terrain.Occlusion)
	assert.Equal(t, 100*time.Millisecond, cfg.Sim.TickInterval())
	assert.Equal(t, int64(7), cfg.Generator.Seed)
	assert.Equal(t, int32(1), cfg.Generator.Radius)
	assert.Equal(t, int32(24), cfg.Generator.Amplitude, "незаданные поля берутся из Default")
	assert.Equal(t, "TERRAIN_EVENTS", cfg.EventBus.Stream)
	assert.Equal(t, 9000, cfg.Server.GetRESTPort())
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "sim: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "generator:\n  radius: -1\n"))
	assert.Error(t, err)
}

func TestPortEnvFallback(t *testing.T) {
	var s ServerConfig

	t.Setenv("VOXEL_METRICS_PORT", "")
	assert.Equal(t, 2112, s.GetMetricsPort())

	t.Setenv("VOXEL_METRICS_PORT", "9100")
	assert.Equal(t, 9100, s.GetMetricsPort())

	t.Setenv("VOXEL_METRICS_PORT", "oops")
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.MetricsPort = 3000
	assert.Equal(t, 3000, s.GetMetricsPort(), "значение из конфига приоритетнее env")
}

func TestTickIntervalDefault(t *testing.T) {
	assert.Equal(t, 50*time.Millisecond, SimConfig{}.TickInterval())
}

func TestServerAuthSettings(t *testing.T) {
	path := writeConfig(t, `
server:
  jwt_secret: 0123456789abcdef-secret
  cors_origins:
    - http://localhost:3000
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef-secret"), cfg.Server.GetJWTSecret())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)

	_, err = Load(writeConfig(t, "server:\n  jwt_secret: short\n"))
	assert.Error(t, err, "короткий секрет отклоняется")
}

func TestJWTSecretEnvFallback(t *testing.T) {
	var s ServerConfig

	t.Setenv("VOXEL_JWT_SECRET", "")
	assert.Nil(t, s.GetJWTSecret(), "без секрета правка отключена")

	t.Setenv("VOXEL_JWT_SECRET", "from-env-secret-value")
	assert.Equal(t, []byte("from-env-secret-value"), s.GetJWTSecret())

	s.JWTSecret = "from-config-secret-value"
	assert.Equal(t, []byte("from-config-secret-value"), s.GetJWTSecret())
}
