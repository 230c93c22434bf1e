package automation

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/realnickp/BackyardBobbys-sub000/internal/automation/repository"
)

//go:embed automations.yaml
var seedYAML []byte

type seedFile struct {
	Rules []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Active      bool   `yaml:"active"`
	} `yaml:"rules"`
}

// Seed upserts the default rule set. Safe to run on every startup: existing
// rows keep their operator-set active toggle.
func Seed(ctx context.Context, repo *repository.Repository) error {
	var file seedFile
	if err := yaml.Unmarshal(seedYAML, &file); err != nil {
		return fmt.Errorf("parse automation seed: %w", err)
	}

	for _, rule := range file.Rules {
		if err := repo.SeedRule(ctx, rule.Name, rule.Description, rule.Active); err != nil {
			return fmt.Errorf("seed rule %s: %w", rule.Name, err)
		}
	}
	return nil
}
