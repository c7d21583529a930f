/*
config.go - Application configuration

PURPOSE:
  Loads settings from an optional config.yaml and SOLAR_* environment
  variables (viper). Only two values matter to the engine itself: the
  storage target and the utility-rate table with its default rate. The rest
  configures the HTTP shell, logging and the optional rollup cache.

ENVIRONMENT:
  Nested keys map to SOLAR_<SECTION>_<KEY>, e.g.
    SOLAR_DATABASE_PATH=/var/lib/solar.db
    SOLAR_RATES_DEFAULT=0.80
    SOLAR_REDIS_ENABLED=true

SEE ALSO:
  - rates/table.go: Built from Rates
  - logger/logger.go: Built from Logger
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/warp/solar-engine/logger"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   logger.Config  `mapstructure:"logger"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Rates    RatesConfig    `mapstructure:"rates"`
	Clock    ClockConfig    `mapstructure:"clock"`
	Tenant   TenantConfig   `mapstructure:"tenant"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	RollupTTL time.Duration `mapstructure:"rollup_ttl"`
}

// RatesConfig is the regional utility-rate table (currency per kWh).
type RatesConfig struct {
	Default float64            `mapstructure:"default"`
	Regions map[string]float64 `mapstructure:"regions"`
}

type ClockConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured zone used for day/month/year windows.
func (c ClockConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

type TenantConfig struct {
	Capability string `mapstructure:"capability"`
}

// Load reads configFile (or config.yaml from the search path) plus env.
// A missing config file is not an error; defaults and env still apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("SOLAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := cfg.Clock.Location(); err != nil {
		return nil, fmt.Errorf("invalid clock.timezone: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})

	v.SetDefault("database.path", "solar.db")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.rollup_ttl", 72*time.Hour)

	v.SetDefault("clock.timezone", "UTC")
	v.SetDefault("tenant.capability", "solar")

	v.SetDefault("rates.default", DefaultRate)
	v.SetDefault("rates.regions", DefaultRegionRates())
}

// DefaultRate applies when a region has no entry (BRL/kWh).
const DefaultRate = 0.75

// DefaultRegionRates is the built-in residential tariff table by state (BRL/kWh).
func DefaultRegionRates() map[string]float64 {
	return map[string]float64{
		"AC": 0.78, "AL": 0.74, "AM": 0.79, "AP": 0.70, "BA": 0.72,
		"CE": 0.65, "DF": 0.69, "ES": 0.68, "GO": 0.71, "MA": 0.73,
		"MG": 0.80, "MS": 0.77, "MT": 0.81, "PA": 0.85, "PB": 0.66,
		"PE": 0.70, "PI": 0.76, "PR": 0.64, "RJ": 0.88, "RN": 0.67,
		"RO": 0.75, "RR": 0.62, "RS": 0.71, "SC": 0.60, "SE": 0.66,
		"SP": 0.69, "TO": 0.78,
	}
}
