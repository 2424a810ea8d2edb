// Package config carga la configuración del servicio desde YAML con
// overrides por variables de entorno.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProfileSettings es la configuración de producto (ASPSP profile) aplicable
// a una instancia. Los períodos se expresan en milisegundos en el YAML, como
// los expone el perfil del banco.
type ProfileSettings struct {
	NotConfirmedExpirationMs   int64    `yaml:"not_confirmed_expiration_ms"`
	RedirectURLExpirationMs    int64    `yaml:"redirect_url_expiration_ms"`
	AuthorisationExpirationMs  int64    `yaml:"authorisation_expiration_ms"`
	MaxConsentValidityDays     int      `yaml:"max_consent_validity_days"`
	AvailableBookingStatuses   []string `yaml:"available_booking_statuses"`
	TrustedBeneficiariesEnable bool     `yaml:"trusted_beneficiaries_supported"`
	MultilevelScaEnable        bool     `yaml:"multilevel_sca_supported"`
}

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		MetricsAddr        string   `yaml:"metrics_addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // "postgres" | "memory"
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // "memory" | "redis"
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Auth struct {
		// TokenSecret firma/verifica los service tokens HS256 del API
		// interno. Override: CONSENTD_API_TOKEN_SECRET.
		TokenSecret string `yaml:"token_secret"`
		// Disabled desactiva la autenticación (solo dev).
		Disabled bool `yaml:"disabled"`
	} `yaml:"auth"`

	Profile struct {
		// DefaultInstance es el tenant asumido cuando el request no trae
		// X-Instance-ID.
		DefaultInstance string `yaml:"default_instance"`

		Default   ProfileSettings            `yaml:"default"`
		Instances map[string]ProfileSettings `yaml:"instances"`
	} `yaml:"profile"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load lee el YAML de path y aplica overrides de entorno.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := envStr("CONSENTD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := envStr("CONSENTD_METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
	if v := envStr("CONSENTD_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := envStr("CONSENTD_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := envStr("CONSENTD_CACHE_KIND"); v != "" {
		c.Cache.Kind = v
	}
	if v := envStr("CONSENTD_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := envStr("CONSENTD_API_TOKEN_SECRET"); v != "" {
		c.Auth.TokenSecret = v
	}
	if v := envStr("APP_ENV"); v != "" {
		c.App.Env = v
	}
	if v := envStr("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := envStr("CONSENTD_AUTH_DISABLED"); v != "" {
		c.Auth.Disabled = envBool("CONSENTD_AUTH_DISABLED", c.Auth.Disabled)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = ":9090"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Profile.DefaultInstance == "" {
		c.Profile.DefaultInstance = "default"
	}
	d := &c.Profile.Default
	if d.NotConfirmedExpirationMs == 0 {
		d.NotConfirmedExpirationMs = 24 * 60 * 60 * 1000 // 24h
	}
	if d.RedirectURLExpirationMs == 0 {
		d.RedirectURLExpirationMs = 10 * 60 * 1000 // 10m
	}
	if d.AuthorisationExpirationMs == 0 {
		d.AuthorisationExpirationMs = 24 * 60 * 60 * 1000
	}
	if len(d.AvailableBookingStatuses) == 0 {
		d.AvailableBookingStatuses = []string{"booked"}
	}
}

// MemoryCacheTTL parsea el TTL por defecto del cache en memoria.
func (c *Config) MemoryCacheTTL() time.Duration {
	if d, err := time.ParseDuration(c.Cache.Memory.DefaultTTL); err == nil && d > 0 {
		return d
	}
	return 5 * time.Minute
}

func envStr(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
