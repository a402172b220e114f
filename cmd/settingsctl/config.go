package main

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates the settingsctl configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Store   StoreConfig   `mapstructure:"store"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
	Export  ExportConfig  `mapstructure:"export"`
}

type StorageConfig struct {
	// Driver is one of sqlite, postgres or memory.
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type StoreConfig struct {
	Name   string `mapstructure:"name"`
	Origin string `mapstructure:"origin"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type ExportConfig struct {
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{Driver: "sqlite", DSN: "settings.db"},
		Store:   StoreConfig{Name: "settings", Origin: "settingsctl"},
		Cache:   CacheConfig{TTL: time.Hour},
		Log:     LogConfig{Level: "info"},
		Export:  ExportConfig{Format: "json"},
	}
}

// LoadConfig reads configuration from path, or from settingsctl.{yaml,toml,json}
// in the working directory when path is empty, and from the environment.
// Environment variables use the prefix "SETTINGS" with dots replaced by
// underscores, so "storage.dsn" becomes "SETTINGS_STORAGE_DSN".
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("settingsctl")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("SETTINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	return cfg, nil
}

// bindEnvs registers every key of cfg so viper consults the environment
// while unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
