// Load YAML config
// Override with env vars
// Provide default values
// Validate once at startup; the engine only ever sees a valid Config

package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	//Search criteria (consumed by source adapters)
	Keywords      []string `yaml:"keywords"`
	Locations     []string `yaml:"locations"`
	JobSources    []string `yaml:"job_sources"`
	PagesToScrape int      `yaml:"pages_to_scrape"`

	//Application pacing
	AutoApply                bool `yaml:"auto_apply"`
	MaxApplicationsPerDay    int  `yaml:"max_applications_per_day"`
	DelayBetweenApplications int  `yaml:"delay_between_applications"` //seconds
	MaxRetries               int  `yaml:"max_retries"`

	//Filters
	ExcludeKeywords     []string `yaml:"exclude_keywords"`
	RequiredKeywords    []string `yaml:"required_keywords"`
	MinSalary           int      `yaml:"min_salary"`
	ExcludeCompanies    []string `yaml:"exclude_companies"`
	DuplicateStrictness string   `yaml:"duplicate_strictness"` //exact | normalized | fuzzy

	//Resume
	BaseResumePath     string `yaml:"base_resume_path"`
	ResumeTemplatePath string `yaml:"resume_template_path"`
	ResumeOutputDir    string `yaml:"resume_output_dir"`

	//Paths
	DatabasePath string `yaml:"database_path"`

	//Reporting (optional, disabled when token empty)
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

// Load reads the YAML config at path, layers env var overrides on top and
// fills defaults. Call godotenv.Load before this to pick up a .env file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("could not read config %s: %w", path, err)
		}
		//missing file is fine, defaults apply
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	}

	//Override with env vars
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}
	if dbPath := os.Getenv("JOBPILOT_DB"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.JobSources) == 0 {
		c.JobSources = []string{"indeed"}
	}
	if c.PagesToScrape == 0 {
		c.PagesToScrape = 5
	}
	if c.MaxApplicationsPerDay == 0 {
		c.MaxApplicationsPerDay = 20
	}
	if c.DelayBetweenApplications == 0 {
		c.DelayBetweenApplications = 3
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.DuplicateStrictness == "" {
		c.DuplicateStrictness = "normalized"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/jobs.db"
	}
	if c.ResumeOutputDir == "" {
		c.ResumeOutputDir = "data/resumes"
	}
}

func (c *Config) Validate() error {
	if c.MaxApplicationsPerDay < 0 {
		return fmt.Errorf("max_applications_per_day must not be negative, got %d", c.MaxApplicationsPerDay)
	}
	if c.DelayBetweenApplications < 0 {
		return fmt.Errorf("delay_between_applications must not be negative, got %d", c.DelayBetweenApplications)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.MinSalary < 0 {
		return fmt.Errorf("min_salary must not be negative, got %d", c.MinSalary)
	}
	switch c.DuplicateStrictness {
	case "exact", "normalized", "fuzzy":
	default:
		return fmt.Errorf("duplicate_strictness must be exact, normalized or fuzzy, got %q", c.DuplicateStrictness)
	}
	for _, src := range c.JobSources {
		switch src {
		case "indeed", "glassdoor", "linkedin":
		default:
			return fmt.Errorf("unknown job source %q", src)
		}
	}
	return nil
}
