package plan

import (
	"context"
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlSource loads the tier catalog from a YAML file on every Load call so
// catalog edits take effect on the next resolver construction.
type yamlSource struct {
	path string
}

// NewYAMLSource returns a Source that reads the catalog from the given file.
//
// Expected shape:
//
//	plans:
//	  pilot:
//	    mode: trial
//	    max_cases_total: 25
//	    max_jobs_per_hour: 2
//	  standard:
//	    mode: subscription
//	    case_credits_per_period: 40
//
// Fields omitted from an entry fall back to the built-in defaults for that
// tier ID (or, for unknown IDs, to the standard tier) when resolved.
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

type catalogFile struct {
	Plans map[string]Profile `yaml:"plans"`
}

func (s *yamlSource) Load(ctx context.Context) (map[string]Profile, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Join(ErrCatalogFileNotFound, err)
		}
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Join(ErrFailedToParseCatalogFile, err)
	}
	if len(file.Plans) == 0 {
		return nil, ErrInvalidCatalog
	}

	profiles := make(map[string]Profile, len(file.Plans))
	for id, p := range file.Plans {
		p.ID = id
		profiles[id] = p
	}
	return profiles, nil
}
