package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/plancore/pkg/config"
	"github.com/openfroyo/plancore/pkg/descriptor"
)

// loadDomain returns the validated descriptor table in path. A bare file holds
// only a descriptor.SolutionConfig; otherwise path is a full plancore config.
func loadDomain(path string, bare bool) (*descriptor.SolutionConfig, error) {
	if !bare {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		if cfg.Domain == nil {
			return nil, fmt.Errorf("config %s has no domain section", path)
		}
		return cfg.Domain, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor %s: %w", path, err)
	}
	var domain descriptor.SolutionConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&domain); err != nil {
		return nil, fmt.Errorf("failed to decode descriptor %s: %w", path, err)
	}
	if err := descriptor.ValidateConfig(&domain); err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", path, err)
	}

	log.Debug().Str("path", path).Str("solution", domain.Name).Msg("Loaded descriptor")
	return &domain, nil
}
