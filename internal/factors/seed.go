package factors

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Factors []seedFactor `yaml:"factors"`
}

type seedFactor struct {
	Category string  `yaml:"category"`
	Unit     string  `yaml:"unit"`
	Factor   float64 `yaml:"factor"`
	Source   string  `yaml:"source"`
	Year     int     `yaml:"year"`
	Region   string  `yaml:"region"`
	Notes    string  `yaml:"notes"`
}

// LoadSeedFile reads emission factor reference rows from a yaml seed file.
func LoadSeedFile(path string) ([]EmissionFactor, error) {
	if path == "" {
		return nil, errors.New("factors: empty seed path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, err
	}
	if len(seed.Factors) == 0 {
		return nil, errors.New("factors: seed file contains no factors")
	}
	rows := make([]EmissionFactor, 0, len(seed.Factors))
	for _, f := range seed.Factors {
		row := EmissionFactor{
			Category: f.Category,
			Unit:     f.Unit,
			Factor:   f.Factor,
			Source:   f.Source,
			Year:     f.Year,
			Region:   f.Region,
			Notes:    f.Notes,
		}
		if err := row.Validate(); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
