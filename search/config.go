package search

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the hints file looked up when no path is given.
const DefaultConfigFile = ".bulkgrep.yaml"

var ErrInvalidConfig = errors.New("invalid configuration")

// Severity of a hint. The zero value is SeverityWarning.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityInfo
	SeverityOff
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityOff:
		return "off"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "info":
		return SeverityInfo, nil
	case "off":
		return SeverityOff, nil
	}
	return 0, fmt.Errorf("%w: unknown severity %q", ErrInvalidConfig, s)
}

func (s Severity) MarshalYAML() (any, error) {
	return s.String(), nil
}

func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseSeverity(value.Value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Hint is a named pattern reported with a message when it matches.
type Hint struct {
	Name     string   `yaml:"name"`
	Pattern  string   `yaml:"pattern"`
	Message  string   `yaml:"message,omitempty"`
	Severity Severity `yaml:"severity"`
}

// Config represents the overall configuration with a name and a list of hints.
type Config struct {
	Name  string `yaml:"name"`
	Hints []Hint `yaml:"hints"`
}

// Enabled returns the hints whose severity is not off.
func (c Config) Enabled() []Hint {
	var hints []Hint
	for _, h := range c.Hints {
		if h.Severity != SeverityOff {
			hints = append(hints, h)
		}
	}
	return hints
}

func (c Config) validate() error {
	seen := make(map[string]bool, len(c.Hints))
	for i, h := range c.Hints {
		if h.Name == "" {
			return fmt.Errorf("%w: hint %d has no name", ErrInvalidConfig, i)
		}
		if strings.TrimSpace(h.Pattern) == "" {
			return fmt.Errorf("%w: hint %q has no pattern", ErrInvalidConfig, h.Name)
		}
		if seen[h.Name] {
			return fmt.Errorf("%w: duplicate hint %q", ErrInvalidConfig, h.Name)
		}
		seen[h.Name] = true
	}
	return nil
}

// DefaultConfig is written by `bulkgrep init`.
func DefaultConfig() Config {
	return Config{
		Name: "bulkgrep",
		Hints: []Hint{
			{
				Name:     "equals-call",
				Pattern:  "$a.equals($b)",
				Message:  "use == for comparable values",
				Severity: SeverityWarning,
			},
			{
				Name:     "self-assignment",
				Pattern:  "$x = $x",
				Message:  "assignment has no effect",
				Severity: SeverityError,
			},
			{
				Name:     "empty-if",
				Pattern:  "if $c {}",
				Message:  "empty branch",
				Severity: SeverityInfo,
			},
			{
				Name:     "sprintf-string",
				Pattern:  `fmt.Sprintf("%s", $x)`,
				Message:  "use the value directly or call String",
				Severity: SeverityWarning,
			},
			{
				Name:     "errors-new-sprintf",
				Pattern:  "errors.New(fmt.Sprintf($args$))",
				Message:  "use fmt.Errorf",
				Severity: SeverityWarning,
			},
		},
	}
}

// LoadConfig reads a hints file.
func LoadConfig(path string) (Config, error) {
	var config Config

	f, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	if err := config.validate(); err != nil {
		return config, err
	}
	return config, nil
}

// WriteConfig writes config to path, failing if the file exists.
func WriteConfig(path string, config Config) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(config); err != nil {
		f.Close()
		return fmt.Errorf("error encoding config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
