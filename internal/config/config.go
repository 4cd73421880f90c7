// Package config provides hierarchical configuration management for landfall
// using koanf. Configuration is loaded with priority: environment variables >
// project config (.landfall/config.yml) > user config (~/.config/landfall/config.yml)
// > defaults. Legacy JSON project configs are still read, with a migration warning.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the landfall pipeline configuration.
type Config struct {
	// APIKey authenticates against the LLM provider. Required for
	// synthesis. Set via LANDFALL_API_KEY; never logged.
	APIKey string `koanf:"api_key" validate:"-"`

	// Model is the primary synthesis model in provider/model form.
	Model string `koanf:"model" validate:"required"`

	// FallbackModels are tried in order after the primary model fails.
	FallbackModels []string `koanf:"fallback_models"`

	// APIURL is an OpenAI-compatible chat-completions endpoint.
	APIURL string `koanf:"api_url" validate:"required"`

	// Audience selects the built-in prompt template voice:
	// general, developer, end-user, enterprise.
	Audience string `koanf:"audience"`

	// PromptTemplate points at an explicit template file. Empty means
	// the .landfall/prompt.md convention path, then the built-in.
	PromptTemplate string `koanf:"prompt_template"`

	ProductName        string `koanf:"product_name"`
	ProductDescription string `koanf:"product_description"`
	VoiceGuide         string `koanf:"voice_guide"`

	// ChangelogSource is auto, changelog, release-body, or prs.
	ChangelogSource string `koanf:"changelog_source"`
	ChangelogFile   string `koanf:"changelog_file"`
	ReleaseBodyFile string `koanf:"release_body_file"`
	PRChangelogFile string `koanf:"pr_changelog_file"`

	// Repository is the owner/repo slug for release and issue calls.
	Repository   string `koanf:"repository"`
	GitHubToken  string `koanf:"github_token" validate:"-"`
	GitHubAPIURL string `koanf:"github_api_url"`
	BaseBranch   string `koanf:"base_branch"`

	// Timeout bounds each provider request, in seconds.
	Timeout int `koanf:"timeout" validate:"min=1,max=600"`
	// Retries is the transient-failure retry count per candidate.
	Retries int `koanf:"retries" validate:"min=0,max=10"`
	// RetryBackoff is the base backoff in seconds, doubled per attempt.
	RetryBackoff float64 `koanf:"retry_backoff" validate:"min=0"`

	// SynthesisRequired escalates any synthesis failure to a hard
	// workflow failure instead of the default report-and-continue.
	SynthesisRequired  bool `koanf:"synthesis_required"`
	OpenIssueOnFailure bool `koanf:"open_issue_on_failure"`

	// Artifact outputs. Path templates may contain {version}.
	NotesFile     string `koanf:"notes_file"`
	PlaintextFile string `koanf:"plaintext_file"`
	HTMLFile      string `koanf:"html_file"`
	JSONFeedFile  string `koanf:"json_feed_file"`

	// RSS feed outputs.
	RSSFeedFile    string `koanf:"rss_feed_file"`
	RSSMaxEntries  int    `koanf:"rss_max_entries" validate:"min=0"`
	UpdateRelease  bool   `koanf:"update_release"`
	OutputFile     string `koanf:"output_file"`
	LogLevel       string `koanf:"log_level"`
	WorkflowName   string `koanf:"workflow_name"`
	WorkflowRunURL string `koanf:"workflow_run_url"`
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path
	// (default: .landfall/config.yml).
	ProjectConfigPath string
	// WarningWriter receives migration warnings (default: os.Stderr).
	WarningWriter io.Writer
	// SkipWarnings suppresses migration warnings.
	SkipWarnings bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults.
func Load(projectConfigPath string) (*Config, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")
	warningWriter := opts.WarningWriter
	if warningWriter == nil {
		warningWriter = os.Stderr
	}

	for key, value := range Defaults() {
		k.Set(key, value)
	}

	if err := loadUserConfig(k); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(k, opts.ProjectConfigPath, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("LANDFALL_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadUserConfig(k *koanf.Koanf) error {
	userPath, err := UserConfigPath()
	if err != nil {
		return nil
	}
	if !fileExists(userPath) {
		return nil
	}
	if err := k.Load(file.Provider(userPath), yaml.Parser()); err != nil {
		return fmt.Errorf("loading user config %s: %w", userPath, err)
	}
	return nil
}

func loadProjectConfig(k *koanf.Koanf, customPath string, warningWriter io.Writer, skipWarnings bool) error {
	yamlPath := ProjectConfigPath()
	if customPath != "" {
		yamlPath = customPath
	}
	legacyPath := LegacyProjectConfigPath()

	if fileExists(yamlPath) {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading project config %s: %w", yamlPath, err)
		}
		return nil
	}

	if customPath == "" && fileExists(legacyPath) {
		if err := k.Load(file.Provider(legacyPath), json.Parser()); err != nil {
			return fmt.Errorf("loading legacy project config %s: %w", legacyPath, err)
		}
		if !skipWarnings {
			fmt.Fprintf(warningWriter, "Warning: Using deprecated JSON config at %s\n", legacyPath)
			fmt.Fprintf(warningWriter, "  Convert it to %s (YAML) to silence this warning.\n\n", ProjectConfigPath())
		}
	}
	return nil
}

// envTransform converts environment variable names to config keys.
// Example: LANDFALL_FALLBACK_MODELS -> fallback_models.
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "LANDFALL_"))
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Models returns the full candidate chain: primary model first, then
// fallbacks, with blanks and duplicates removed.
func (c *Config) Models() []string {
	seen := make(map[string]bool)
	var models []string
	for _, model := range append([]string{c.Model}, c.FallbackModels...) {
		trimmed := strings.TrimSpace(model)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		models = append(models, trimmed)
	}
	return models
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// BackoffDuration returns the base retry backoff as a duration.
func (c *Config) BackoffDuration() time.Duration {
	return time.Duration(c.RetryBackoff * float64(time.Second))
}
