package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Terrain   TerrainConfig   `yaml:"terrain"`
	Sim       SimConfig       `yaml:"sim"`
	Generator GeneratorConfig `yaml:"generator"`
	Server    ServerConfig    `yaml:"server"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type TerrainConfig struct {
	// Occlusion политика скрытия граней: any_solid или same_tile
	Occlusion string `yaml:"occlusion"`
}

type SimConfig struct {
	TickRate int `yaml:"tick_rate"` // Тиков в секунду
}

// TickInterval длительность одного тика
func (s SimConfig) TickInterval() time.Duration {
	rate := s.TickRate
	if rate <= 0 {
		rate = 20
	}
	return time.Second / time.Duration(rate)
}

type GeneratorConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Seed       int64   `yaml:"seed"`
	Radius     int32   `yaml:"radius"` // В колоннах чанков вокруг начала координат
	BaseHeight int32   `yaml:"base_height"`
	Amplitude  int32   `yaml:"amplitude"`
	NoiseScale float64 `yaml:"noise_scale"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // Пусто - шина в памяти
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  bool   `yaml:"file"` // Писать ли в logs/
}

type ServerConfig struct {
	RESTPort    int      `yaml:"rest_port"`
	MetricsPort int      `yaml:"metrics_port"`
	JWTSecret   string   `yaml:"jwt_secret"`   // Пусто - правка через инспектор отключена
	CORSOrigins []string `yaml:"cors_origins"` // Разрешённые значения Origin
}

// GetJWTSecret возвращает секрет JWT: config -> env VOXEL_JWT_SECRET
func (s *ServerConfig) GetJWTSecret() []byte {
	if s.JWTSecret != "" {
		return []byte(s.JWTSecret)
	}
	if env := os.Getenv("VOXEL_JWT_SECRET"); env != "" {
		return []byte(env)
	}
	return nil
}

// GetRESTPort возвращает порт инспектора с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "VOXEL_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "VOXEL_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{Occlusion: "any_solid"},
		Sim:     SimConfig{TickRate: 20},
		Generator: GeneratorConfig{
			Enabled:    true,
			Seed:       12345,
			Radius:     2,
			BaseHeight: 0,
			Amplitude:  24,
			NoiseScale: 0.05,
		},
		EventBus: EventBusConfig{
			Stream:    "TERRAIN_EVENTS",
			Retention: 24,
			Buffer:    1024,
		},
		Telemetry: TelemetryConfig{ServiceName: "voxel-terrain"},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Validate проверяет значения, которые нельзя исправить молча
func (c *Config) Validate() error {
	if c.Sim.TickRate < 0 {
		return fmt.Errorf("sim.tick_rate must be positive, got %d", c.Sim.TickRate)
	}
	if c.Generator.Radius < 0 {
		return fmt.Errorf("generator.radius must not be negative, got %d", c.Generator.Radius)
	}
	if s := c.Server.JWTSecret; s != "" && len(s) < 16 {
		return fmt.Errorf("server.jwt_secret must be at least 16 bytes, got %d", len(s))
	}
	if c.Generator.Amplitude < 0 {
		return fmt.Errorf("generator.amplitude must not be negative, got %d", c.Generator.Amplitude)
	}
	return nil
}

// Load читает YAML файл конфигурации поверх Default().
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return Default(), nil // конфиг не задан - использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
