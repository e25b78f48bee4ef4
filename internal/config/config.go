// Package config resolves tool settings from a YAML file plus credentials
// from the environment (optionally seeded by a .env file). Components never
// read the environment themselves; they receive these structs.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/devpulse/devpulse/internal/types"
)

const DefaultConfigFile = "devpulse.yaml"

type Config struct {
	GitHub   GitHubConfig   `yaml:"github"`
	Jira     JiraConfig     `yaml:"jira"`
	Billing  BillingConfig  `yaml:"billing"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Output   OutputConfig   `yaml:"output"`
}

type GitHubConfig struct {
	BaseURL      string   `yaml:"base_url"`
	Owner        string   `yaml:"owner"`
	Repositories []string `yaml:"repositories"`
	PageSize     int      `yaml:"page_size"`
	Token        string   `yaml:"-"`
}

type JiraConfig struct {
	BaseURL            string   `yaml:"base_url"`
	ProjectKey         string   `yaml:"project_key"`
	PageSize           int      `yaml:"page_size"`
	InProgressStatuses []string `yaml:"in_progress_statuses"`
	DoneStatuses       []string `yaml:"done_statuses"`
	IssueTypes         []string `yaml:"issue_types"`
	BugTypes           []string `yaml:"bug_types"`
	Email              string   `yaml:"-"`
	APIToken           string   `yaml:"-"`
}

type BillingConfig struct {
	BaseURL  string `yaml:"base_url"`
	PageSize int    `yaml:"page_size"`
	APIKey   string `yaml:"-"`
}

type FetchConfig struct {
	RequestDelaySeconds int `yaml:"request_delay_seconds"`
	MaxRetries          int `yaml:"max_retries"`
}

type AnalysisConfig struct {
	MonthsBack     int `yaml:"months_back"`
	TopN           int `yaml:"top_n"`
	ActiveDormancy int `yaml:"active_dormancy_days"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

func defaults() *Config {
	return &Config{
		GitHub: GitHubConfig{
			BaseURL:  "https://api.github.com",
			PageSize: 100,
		},
		Jira: JiraConfig{
			PageSize:           100,
			InProgressStatuses: []string{"In Progress"},
			DoneStatuses:       []string{"Done"},
			IssueTypes:         []string{"Story", "Sub-task"},
			BugTypes:           []string{"Bug"},
		},
		Billing: BillingConfig{
			BaseURL:  "https://api.cursor.com",
			PageSize: 100,
		},
		Fetch: FetchConfig{
			RequestDelaySeconds: 3,
			MaxRetries:          5,
		},
		Analysis: AnalysisConfig{
			MonthsBack:     3,
			TopN:           5,
			ActiveDormancy: 30,
		},
		Output: OutputConfig{
			Dir: "reports",
		},
	}
}

// Load reads the YAML file at path (defaults applied first) and pulls
// credentials from the environment. envFile, when non-empty, is loaded into
// the environment beforehand; a missing ./.env is not an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := defaults()
	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// run on defaults
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	cfg.Jira.Email = os.Getenv("JIRA_EMAIL")
	cfg.Jira.APIToken = os.Getenv("JIRA_API_TOKEN")
	cfg.Billing.APIKey = os.Getenv("CURSOR_API_KEY")
	return cfg, nil
}

// ValidateDelivery checks the settings the delivery report needs.
func (c *Config) ValidateDelivery() error {
	if c.GitHub.Token == "" {
		return types.ValidationError{Field: "GITHUB_TOKEN", Message: "required for pull request fetching"}
	}
	if c.GitHub.Owner == "" {
		return types.ValidationError{Field: "github.owner", Message: "required"}
	}
	if len(c.GitHub.Repositories) == 0 {
		return types.ValidationError{Field: "github.repositories", Message: "at least one repository required"}
	}
	if c.Jira.BaseURL == "" {
		return types.ValidationError{Field: "jira.base_url", Message: "required"}
	}
	if c.Jira.ProjectKey == "" {
		return types.ValidationError{Field: "jira.project_key", Message: "required"}
	}
	if c.Jira.Email == "" || c.Jira.APIToken == "" {
		return types.ValidationError{Field: "JIRA_EMAIL/JIRA_API_TOKEN", Message: "required for issue fetching"}
	}
	return nil
}

// ValidateBilling checks the settings the billing and adoption reports need.
func (c *Config) ValidateBilling() error {
	if c.Billing.BaseURL == "" {
		return types.ValidationError{Field: "billing.base_url", Message: "required"}
	}
	if c.Billing.APIKey == "" {
		return types.ValidationError{Field: "CURSOR_API_KEY", Message: "required for usage event fetching"}
	}
	return nil
}
