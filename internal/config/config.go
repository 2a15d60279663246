package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/data-curator/pkg/core/allocator"
)

// Collaborator backends
const (
	BackendHeuristic = "heuristic"
	BackendGenAI     = "genai"
)

const (
	configBaseName   = "curator_config"
	phaseStartLayout = "2006-01-02"
)

// ServerConfig configures the HTTP backend used by the browser tool
type ServerConfig struct {
	Address        string   `yaml:"address" validate:"required"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" validate:"dive,required"`
}

// CollaboratorConfig selects and tunes the AI collaborator
type CollaboratorConfig struct {
	Backend   string        `yaml:"backend" validate:"required,oneof=heuristic genai"`
	Model     string        `yaml:"model,omitempty"`
	APIKeyEnv string        `yaml:"apiKeyEnv,omitempty" validate:"required_if=Backend genai"`
	Timeout   time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
}

// SheetsConfig locates the three entity tabs in a Google spreadsheet
type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheetID" validate:"required"`
	ClientsTab    string `yaml:"clientsTab" validate:"required"`
	WorkersTab    string `yaml:"workersTab" validate:"required"`
	TasksTab      string `yaml:"tasksTab" validate:"required"`
}

// PhaseConfig maps phase numbers onto calendar dates
type PhaseConfig struct {
	RRule string `yaml:"rrule" validate:"required"`
	Start string `yaml:"start" validate:"required,datetime=2006-01-02"`
}

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Collaborator CollaboratorConfig `yaml:"collaborator"`
	Weights      *allocator.Weights `yaml:"weights,omitempty"`
	Sheets       *SheetsConfig      `yaml:"sheets,omitempty"`
	Phases       *PhaseConfig       `yaml:"phases,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// DefaultWeights returns the configured starting weights, or the built-in defaults
func (c *Config) DefaultWeights() allocator.Weights {
	if c.Weights == nil {
		return allocator.DefaultWeights()
	}
	return *c.Weights
}

// PhaseStart parses the configured phase calendar start date
func (c *Config) PhaseStart() (time.Time, error) {
	if c.Phases == nil {
		return time.Time{}, fmt.Errorf("no phase calendar configured")
	}
	start, err := time.Parse(phaseStartLayout, c.Phases.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid phase start date: %w", err)
	}
	return start, nil
}

// Load loads and validates the configuration from curator_config.yaml
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads curator_config.<env>.yaml, falling back to curator_config.yaml.
// Each name is looked for in the current directory first, then in the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	names := []string{configBaseName + ".yaml"}
	if env != "" {
		names = append([]string{configBaseName + "." + env + ".yaml"}, names...)
	}

	configPath, err := findFile(names...)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks the phase rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Weights != nil {
		if err := cfg.Weights.Validate(); err != nil {
			return fmt.Errorf("invalid weights: %w", err)
		}
	}

	if cfg.Phases != nil {
		if _, err := rrule.StrToRRule(cfg.Phases.RRule); err != nil {
			return fmt.Errorf("invalid rrule in phases: %w", err)
		}
	}

	return nil
}

// findFile returns the first of names found in the current directory,
// then the first found in the home directory
func findFile(names ...string) (string, error) {
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	for _, name := range names {
		homePath := filepath.Join(homeDir, name)
		if _, err := os.Stat(homePath); err == nil {
			return homePath, nil
		}
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", names[0])
}
