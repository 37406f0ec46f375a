package config

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/ini.v1"

	"github.com/de-tools/line-report/pkg/models/domain"
)

// Registry reads backend profiles from an ini file:
//
//	[line-a]
//	url     = http://10.0.0.5:5000
//	timeout = 10s
type Registry interface {
	GetProfiles(ctx context.Context) ([]domain.BackendProfile, error)
	GetProfile(ctx context.Context, name string) (domain.BackendProfile, error)
}

type cfgRegistry struct {
	cfg            *ini.File
	defaultTimeout time.Duration
}

func NewRegistry(path string, defaultTimeout time.Duration) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg, defaultTimeout: defaultTimeout}, nil
}

func (cr *cfgRegistry) GetProfiles(ctx context.Context) ([]domain.BackendProfile, error) {
	var profiles []domain.BackendProfile
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		profile, err := cr.toProfile(section)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, name string) (domain.BackendProfile, error) {
	section, err := cr.cfg.GetSection(name)
	if err != nil {
		return domain.BackendProfile{}, fmt.Errorf("profile %s not found", name)
	}
	return cr.toProfile(section)
}

func (cr *cfgRegistry) toProfile(section *ini.Section) (domain.BackendProfile, error) {
	url := section.Key("url").String()
	if url == "" {
		return domain.BackendProfile{}, fmt.Errorf("profile %s has no url", section.Name())
	}

	timeout := cr.defaultTimeout
	if section.HasKey("timeout") {
		d, err := section.Key("timeout").Duration()
		if err != nil {
			return domain.BackendProfile{}, fmt.Errorf("profile %s: invalid timeout: %w", section.Name(), err)
		}
		timeout = d
	}

	return domain.BackendProfile{
		Name:    section.Name(),
		URL:     url,
		Timeout: timeout,
	}, nil
}
