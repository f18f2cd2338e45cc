package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/barisgudul/therapy-backend/internal/data/repos"
	types "github.com/barisgudul/therapy-backend/internal/domain"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
)

//go:embed prompt_seeds.yaml
var promptSeedsYAML []byte

type promptSeedFile struct {
	Prompts []promptSeed `yaml:"prompts"`
}

type promptSeed struct {
	Name     string         `yaml:"name"`
	Version  int            `yaml:"version"`
	Content  string         `yaml:"content"`
	Metadata map[string]any `yaml:"metadata"`
}

// SeedPrompts inserts the shipped default templates for any name the
// registry has no active row for. Existing rows are never touched, so
// operator-edited prompts survive restarts.
func SeedPrompts(ctx context.Context, log *logger.Logger, promptRepo repos.PromptRepo) error {
	seedLog := log.With("service", "PromptSeed")

	var file promptSeedFile
	if err := yaml.Unmarshal(promptSeedsYAML, &file); err != nil {
		return fmt.Errorf("parse prompt seeds: %w", err)
	}

	for _, seed := range file.Prompts {
		existing, err := promptRepo.GetActiveByName(ctx, nil, seed.Name)
		if err != nil {
			return fmt.Errorf("check prompt %q: %w", seed.Name, err)
		}
		if existing != nil {
			continue
		}

		metadata := datatypes.JSON("{}")
		if len(seed.Metadata) > 0 {
			encoded, mErr := json.Marshal(seed.Metadata)
			if mErr != nil {
				return fmt.Errorf("encode prompt %q metadata: %w", seed.Name, mErr)
			}
			metadata = datatypes.JSON(encoded)
		}

		version := seed.Version
		if version <= 0 {
			version = 1
		}
		row := &types.Prompt{
			Name:     seed.Name,
			Content:  seed.Content,
			Version:  version,
			Metadata: metadata,
			Active:   true,
		}
		if err := promptRepo.Create(ctx, nil, row); err != nil {
			return fmt.Errorf("seed prompt %q: %w", seed.Name, err)
		}
		seedLog.Info("seeded prompt template", "name", seed.Name, "version", version)
	}
	return nil
}
