package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	pipelineerrors "github.com/misty-step/landfall/internal/errors"
)

var repositoryRE = regexp.MustCompile(`^[^/\s]+/[^/\s]+$`)

var validAudiences = map[string]bool{
	"general":    true,
	"developer":  true,
	"end-user":   true,
	"enterprise": true,
}

var validSources = map[string]bool{
	"auto":         true,
	"changelog":    true,
	"release-body": true,
	"prs":          true,
}

// ValidateConfig checks configuration values against their constraints
// and returns a configuration error with remediation hints on failure.
func ValidateConfig(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, fieldErr := range validationErrors {
				return pipelineerrors.NewConfigurationError(
					fmt.Sprintf("config field %q %s", toSnakeCase(fieldErr.Field()), formatFieldError(fieldErr)),
					"Check .landfall/config.yml and LANDFALL_* environment variables",
				)
			}
		}
		return pipelineerrors.NewConfigurationError(err.Error())
	}

	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return pipelineerrors.NewConfigurationError(
			"api_url must start with http:// or https://",
			"Set api_url to an OpenAI-compatible chat-completions endpoint",
		)
	}
	if cfg.Audience != "" && !validAudiences[cfg.Audience] {
		return pipelineerrors.NewConfigurationError(
			fmt.Sprintf("unknown audience %q", cfg.Audience),
			"Use one of: general, developer, end-user, enterprise",
		)
	}
	if cfg.ChangelogSource != "" && !validSources[cfg.ChangelogSource] {
		return pipelineerrors.NewConfigurationError(
			fmt.Sprintf("unknown changelog_source %q", cfg.ChangelogSource),
			"Use one of: auto, changelog, release-body, prs",
		)
	}
	if cfg.Repository != "" && !repositoryRE.MatchString(cfg.Repository) {
		return pipelineerrors.NewConfigurationError(
			fmt.Sprintf("repository %q must be in owner/repo form", cfg.Repository),
		)
	}
	return nil
}

// RequireAPIKey returns a configuration error when no provider
// credential is set. Called by commands that reach the provider, so
// offline commands keep working without one.
func RequireAPIKey(cfg *Config) error {
	if strings.TrimSpace(cfg.APIKey) != "" {
		return nil
	}
	return pipelineerrors.NewConfigurationError(
		"no provider API key configured",
		"Set the LANDFALL_API_KEY environment variable",
		"Or add api_key to .landfall/config.yml (not recommended for shared repos)",
	)
}

// RequireGitHub returns a configuration error when the GitHub token or
// repository slug is missing.
func RequireGitHub(cfg *Config) error {
	if strings.TrimSpace(cfg.GitHubToken) == "" {
		return pipelineerrors.NewConfigurationError(
			"no GitHub token configured",
			"Set the LANDFALL_GITHUB_TOKEN environment variable",
		)
	}
	if strings.TrimSpace(cfg.Repository) == "" {
		return pipelineerrors.NewConfigurationError(
			"no repository configured",
			"Set repository to the owner/repo slug in .landfall/config.yml or LANDFALL_REPOSITORY",
		)
	}
	return nil
}

func formatFieldError(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fieldErr.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fieldErr.Tag())
	}
}

// toSnakeCase converts a CamelCase field name to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
