package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Categories []string   `yaml:"categories"`
	Labels     Labels     `yaml:"labels"`
	Consensus  Consensus  `yaml:"consensus"`
	Evaluation Evaluation `yaml:"evaluation"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

// Labels defines the recognized label vocabulary. Raw values outside
// Canonical and Synonyms normalize to the missing sentinel.
type Labels struct {
	Canonical []string          `yaml:"canonical"`
	Synonyms  map[string]string `yaml:"synonyms"`
}

// Consensus controls how majority-vote verdicts feed into evaluation.
// Strategy "conservative" excludes uncertain verdicts from accuracy
// denominators; "half_credit" counts them as half correct, half incorrect.
type Consensus struct {
	Strategy string `yaml:"strategy"`
}

type Evaluation struct {
	// SkipCategories lists categories excluded from model evaluation
	// (they still participate in agreement calculation).
	SkipCategories []string `yaml:"skip_categories"`
	// ProblemThreshold is the per-post error rate above which a post is
	// flagged as a problem post.
	ProblemThreshold float64 `yaml:"problem_threshold"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Recognized consensus strategies.
const (
	ConsensusConservative = "conservative"
	ConsensusHalfCredit   = "half_credit"
)

// ConfigDir returns the XDG config directory for agreekit.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "agreekit")
}

// DataDir returns the XDG data directory for agreekit.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "agreekit")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/agreekit/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'agreekit init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Categories: []string{"overall", "theme", "objects", "sentiment", "contentQuality", "contentIntent"},
		Labels: Labels{
			Canonical: []string{"positive", "negative"},
			Synonyms: map[string]string{
				"pos":       "positive",
				"neg":       "negative",
				"correct":   "positive",
				"incorrect": "negative",
				"up":        "positive",
				"down":      "negative",
			},
		},
		Consensus: Consensus{Strategy: ConsensusConservative},
		Evaluation: Evaluation{
			SkipCategories:   []string{"overall"},
			ProblemThreshold: 0.5,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, cfg.validate()
}

// validate rejects configurations the engines cannot run with.
func (c *Config) validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("config: at least one category must be defined")
	}
	if len(c.Labels.Canonical) == 0 {
		return fmt.Errorf("config: label vocabulary must not be empty")
	}
	switch c.Consensus.Strategy {
	case ConsensusConservative, ConsensusHalfCredit:
	default:
		return fmt.Errorf("config: unknown consensus strategy %q", c.Consensus.Strategy)
	}
	if c.Evaluation.ProblemThreshold < 0 || c.Evaluation.ProblemThreshold > 1 {
		return fmt.Errorf("config: problem_threshold must be in [0,1], got %v", c.Evaluation.ProblemThreshold)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
