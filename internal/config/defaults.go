package config

// Defaults returns the default configuration values.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"model":           "anthropic/claude-sonnet-4.5",
		"fallback_models": []string{"openai/gpt-4o", "google/gemini-2.5-pro"},
		"api_url":         "https://openrouter.ai/api/v1/chat/completions",
		"audience":        "general",
		// changelog_source: auto walks changelog > release-body > prs and
		// uses the first non-empty source.
		"changelog_source":  "auto",
		"changelog_file":    "CHANGELOG.md",
		"release_body_file": "",
		"pr_changelog_file": "",
		"github_api_url":    "https://api.github.com",
		"base_branch":       "main",
		"timeout":           120,
		"retries":           2,
		"retry_backoff":     1.0,
		// synthesis_required: false keeps releases shipping even when
		// notes synthesis fails; failures are reported, not fatal.
		"synthesis_required":    false,
		"open_issue_on_failure": true,
		"notes_file":            "release-notes/{version}.md",
		"plaintext_file":        "",
		"html_file":             "",
		"json_feed_file":        "release-notes/feed.json",
		"rss_feed_file":         "",
		"rss_max_entries":       50,
		"update_release":        true,
		"output_file":           "",
		"log_level":             "info",
	}
}

// ConfigTemplate returns a fully commented config template that helps
// users understand all available options.
func ConfigTemplate() string {
	return `# Landfall Configuration
# Priority: LANDFALL_* env vars > .landfall/config.yml > ~/.config/landfall/config.yml > defaults

# Provider settings
# api_key: ""                          # Usually set via LANDFALL_API_KEY instead
model: anthropic/claude-sonnet-4.5     # Primary synthesis model (provider/model)
fallback_models:                       # Tried in order after the primary fails
  - openai/gpt-4o
  - google/gemini-2.5-pro
api_url: https://openrouter.ai/api/v1/chat/completions
timeout: 120                           # Per-request timeout in seconds
retries: 2                             # Transient-failure retries per model
retry_backoff: 1.0                     # Base backoff seconds, doubled per attempt

# Voice settings
audience: general                      # general | developer | end-user | enterprise
# prompt_template: ""                  # Explicit template path (else .landfall/prompt.md, else built-in)
# product_name: ""                     # Defaults to the repository name
# product_description: ""
# voice_guide: ""

# Changelog source
changelog_source: auto                 # auto | changelog | release-body | prs
changelog_file: CHANGELOG.md
# release_body_file: ""
# pr_changelog_file: ""

# GitHub settings
# repository: owner/repo               # Usually taken from the workflow context
# github_token: ""                     # Usually set via LANDFALL_GITHUB_TOKEN
github_api_url: https://api.github.com
base_branch: main

# Failure policy
synthesis_required: false              # true fails the workflow on synthesis failure
open_issue_on_failure: true            # Open a tracking issue on non-config failures

# Artifacts ({version} is interpolated)
notes_file: release-notes/{version}.md
# plaintext_file: release-notes/{version}.txt
# html_file: release-notes/{version}.html
json_feed_file: release-notes/feed.json
# rss_feed_file: release-notes/feed.xml
rss_max_entries: 50
update_release: true                   # Prepend notes to the GitHub release body

log_level: info                        # debug | info | warn | error
`
}
