package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/de-tools/line-report/pkg/models/domain"
)

const EnvPrefix = "LINE_REPORT"

type Settings struct {
	Server  ServerSettings  `mapstructure:"server"`
	Backend BackendSettings `mapstructure:"backend"`
	Archive ArchiveSettings `mapstructure:"archive"`
	Log     LogSettings     `mapstructure:"log"`
}

type ServerSettings struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type BackendSettings struct {
	URL            string        `mapstructure:"url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	// Profiles is an optional ini file of named backends; Profile selects one.
	Profiles string `mapstructure:"profiles"`
	Profile  string `mapstructure:"profile"`
}

type ArchiveSettings struct {
	Path string `mapstructure:"path"`
	// Retain caps archived collections per surface; zero keeps everything.
	Retain int `mapstructure:"retain"`
}

type LogSettings struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("backend.url", "http://127.0.0.1:5000")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.max_concurrency", 8)
	v.SetDefault("backend.profiles", "")
	v.SetDefault("backend.profile", "")
	v.SetDefault("archive.path", "line-report.db")
	v.SetDefault("archive.retain", 200)
	v.SetDefault("log.level", "info")
}

// LoadSettings reads an optional yaml file on top of the defaults.
// LINE_REPORT_* environment variables override both, e.g. LINE_REPORT_BACKEND_URL.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if s.Archive.Retain < 0 {
		return nil, fmt.Errorf("archive.retain must not be negative")
	}
	if s.Backend.Timeout < 0 {
		return nil, fmt.Errorf("backend.timeout must not be negative")
	}
	return &s, nil
}

// ResolveBackend picks the named profile when one is configured and falls back
// to backend.url otherwise. An explicit name overrides backend.profile.
func (s *Settings) ResolveBackend(ctx context.Context, name string) (domain.BackendProfile, error) {
	if name == "" {
		name = s.Backend.Profile
	}
	if name == "" {
		return domain.BackendProfile{Name: "default", URL: s.Backend.URL, Timeout: s.Backend.Timeout}, nil
	}
	if s.Backend.Profiles == "" {
		return domain.BackendProfile{}, fmt.Errorf("profile %s requested but backend.profiles is not set", name)
	}

	registry, err := NewRegistry(s.Backend.Profiles, s.Backend.Timeout)
	if err != nil {
		return domain.BackendProfile{}, fmt.Errorf("failed to load backend profiles: %w", err)
	}
	return registry.GetProfile(ctx, name)
}
