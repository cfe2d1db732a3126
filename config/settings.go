package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings is the on-disk configuration shared by tmm_browser and tmmtool.
type Settings struct {
	Addr     string `yaml:"addr"`
	Dir      string `yaml:"dir"`
	Web      string `yaml:"web"`
	Encoding string `yaml:"encoding"`
	Workers  int    `yaml:"workers"`
}

func DefaultSettings() Settings {
	return Settings{
		Addr:     ":8000",
		Web:      "web",
		Encoding: DefaultEncoding.String(),
		Workers:  runtime.NumCPU(),
	}
}

// LoadSettings reads a yaml file on top of DefaultSettings.
// Keys missing from the file keep their defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, errors.Wrapf(err, "Failed to read settings %q", path)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, "Failed to parse settings %q", path)
	}
	return s, nil
}

// Override replaces fields with non-empty values from o (command line flags).
func (s *Settings) Override(o Settings) {
	if o.Addr != "" {
		s.Addr = o.Addr
	}
	if o.Dir != "" {
		s.Dir = o.Dir
	}
	if o.Web != "" {
		s.Web = o.Web
	}
	if o.Encoding != "" {
		s.Encoding = o.Encoding
	}
	if o.Workers > 0 {
		s.Workers = o.Workers
	}
}

// Apply pushes process-wide settings (text encoding) into effect.
func (s *Settings) Apply() error {
	if s.Encoding == "" {
		return nil
	}
	return SetEncoding(s.Encoding)
}
