package config

import (
	"os"

	"github.com/potencialpi/sentiment-cx/internal/errors"

	"gopkg.in/yaml.v3"
)

// Labels maps variable keys to display names. It only affects presentation.
type Labels map[string]string

type labelsFile struct {
	Labels map[string]string `yaml:"labels"`
}

// LoadLabels reads a YAML file of the form
//
//	labels:
//	  nps: Net Promoter Score
//
// An empty path yields empty Labels.
func LoadLabels(path string) (Labels, error) {
	if path == "" {
		return Labels{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err, "failed to read labels file")
	}
	return ParseLabels(data)
}

// ParseLabels decodes label YAML
func ParseLabels(data []byte) (Labels, error) {
	var file labelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err, "failed to parse labels file")
	}
	labels := Labels{}
	for key, name := range file.Labels {
		if name != "" {
			labels[key] = name
		}
	}
	return labels, nil
}

// Label returns the display name for key, or key itself
func (l Labels) Label(key string) string {
	if name, ok := l[key]; ok {
		return name
	}
	return key
}
