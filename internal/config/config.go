package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AdminRole is always allowed and is never part of the configurable role set.
const AdminRole = "admin"

const ConfigPathEnvVar = "CONFIG_PATH"

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	DB   DBConfig   `koanf:"db"`
	HTTP HTTPConfig `koanf:"http"`
	GRPC GRPCConfig `koanf:"grpc"`
	Auth AuthConfig `koanf:"auth"`
	Log  LogConfig  `koanf:"log"`
}

type HTTPConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	CORSOrigins  []string      `koanf:"cors_origins"`
	// Попыток входа в минуту с одного IP; 0 отключает лимит.
	LoginRate int `koanf:"login_rate"`
}

type GRPCConfig struct {
	Addr string `koanf:"addr"`
}

type AuthConfig struct {
	JWTSecret  string        `koanf:"jwt_secret"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
	// Роли персонала (без admin).
	Roles []string `koanf:"roles"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// IsRole сообщает, входит ли роль в настроенный набор (admin сюда не входит).
func (a AuthConfig) IsRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// StaffRoles возвращает роли, которым разрешено оформлять заказы: настроенные + admin.
func (a AuthConfig) StaffRoles() []string {
	out := make([]string, 0, len(a.Roles)+1)
	out = append(out, a.Roles...)
	return append(out, AdminRole)
}

func Default() *Config {
	return &Config{
		DB: DBConfig{
			Driver:          DriverPostgres,
			Host:            "postgres",
			Port:            5432,
			User:            "orders",
			Password:        "orders",
			Name:            "orders_db",
			SSLMode:         "disable",
			TimeZone:        "Europe/Rome",
			Path:            "orders.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifeTime: 30,
		},
		HTTP: HTTPConfig{
			Addr:         ":8000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			CORSOrigins:  []string{"*"},
			LoginRate:    10,
		},
		GRPC: GRPCConfig{Addr: ":50051"},
		Auth: AuthConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: time.Hour,
			Roles:      []string{"sagra", "bar", "punto giovani"},
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load собирает конфиг: дефолты -> yaml-файл (если есть) -> переменные окружения.
// .env подхватывается, если лежит рядом с бинарником.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	// списки из окружения приходят строкой через запятую
	for _, key := range []string{"auth.roles", "http.cors_origins"} {
		if s, ok := k.Get(key).(string); ok {
			if err := k.Set(key, splitList(s)); err != nil {
				return nil, fmt.Errorf("parse %s: %w", key, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.DB.validate(); err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("invalid auth config: JWT_SECRET must be set")
	}
	if len(c.Auth.Roles) == 0 {
		return fmt.Errorf("invalid auth config: at least one role is required")
	}
	if c.Auth.IsRole(AdminRole) {
		return fmt.Errorf("invalid auth config: %q is reserved", AdminRole)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKeys: переменная окружения -> путь в конфиге. Остальные переменные игнорируются.
var envKeys = map[string]string{
	"DB_DRIVER":                "db.driver",
	"DB_HOST":                  "db.host",
	"DB_PORT":                  "db.port",
	"DB_USER":                  "db.user",
	"DB_PASSWORD":              "db.password",
	"DB_NAME":                  "db.name",
	"DB_SSLMODE":               "db.sslmode",
	"DB_TIMEZONE":              "db.timezone",
	"DB_PATH":                  "db.path",
	"DB_MAX_OPEN_CONNS":        "db.max_open_conns",
	"DB_MAX_IDLE_CONNS":        "db.max_idle_conns",
	"DB_CONN_MAX_LIFETIME_MIN": "db.conn_max_lifetime_min",
	"HTTP_ADDR":                "http.addr",
	"HTTP_CORS_ORIGINS":        "http.cors_origins",
	"HTTP_LOGIN_RATE":          "http.login_rate",
	"GRPC_ADDR":                "grpc.addr",
	"JWT_SECRET":               "auth.jwt_secret",
	"JWT_ACCESS_TTL":           "auth.access_ttl",
	"JWT_REFRESH_TTL":          "auth.refresh_ttl",
	"AUTH_ROLES":               "auth.roles",
	"LOG_LEVEL":                "log.level",
	"LOG_FORMAT":               "log.format",
}

func envKey(key string) string {
	return envKeys[key]
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
