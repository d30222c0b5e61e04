package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/e-mutai/pesa-smart-guide/entities"
)

// FileSource reads a YAML catalog of the form
//
//	funds:
//	  - id: fund1
//	    name: Money Market Fund
//	    risk: Low
//	    ...
type FileSource struct {
	Path string
}

type catalogFile struct {
	Funds []entities.Fund `yaml:"funds"`
}

func (FileSource) Name() string { return "file" }

func (s FileSource) LoadCatalog(_ context.Context) ([]entities.Fund, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Funds))
	for _, f := range file.Funds {
		if f.ID == "" {
			return nil, fmt.Errorf("parse catalog: fund %q without id", f.Name)
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("parse catalog: duplicate fund id %s", f.ID)
		}
		seen[f.ID] = true
	}
	if err := checkFunds(file.Funds); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return file.Funds, nil
}
