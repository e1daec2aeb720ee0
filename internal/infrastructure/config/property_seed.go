package config

import (
	"errors"
	"fmt"
	"os"

	"villa-portal-service/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// PropertySeed is the YAML document read from PROPERTY_SEED_FILE
type PropertySeed struct {
	Property entity.Property `yaml:"property"`
}

// LoadPropertySeed reads and normalizes the property seed file.
// An empty path means no seed and returns (nil, nil).
func LoadPropertySeed(path, defaultSlug, defaultTimezone string) (*entity.Property, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read property seed: %w", err)
	}

	var seed PropertySeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse property seed: %w", err)
	}

	p := seed.Property
	if p.Name == "" {
		return nil, errors.New("property seed: name is required")
	}
	if p.Slug == "" {
		p.Slug = defaultSlug
	}
	if p.Timezone == "" {
		p.Timezone = defaultTimezone
	}
	if p.CheckInTime == "" {
		p.CheckInTime = "14:00"
	}
	if p.CheckOutTime == "" {
		p.CheckOutTime = "11:00"
	}
	return &p, nil
}
