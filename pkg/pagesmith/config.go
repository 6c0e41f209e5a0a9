/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pagesmith

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/NissesSenap/pagesmith/pkg/api"
)

// Generator strategies.
const (
	ProviderTemplate = "template"
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
)

// Config holds all configuration for pagesmith. It is loaded once at start
// and passed by value afterwards.
type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`

	// Shared secret every build request must carry.
	Secret string `envconfig:"APP_SECRET"`

	// GitHub account that owns the published repositories. Either a token
	// or a GitHub App installation authenticates the publisher.
	GitHubToken          string        `envconfig:"GITHUB_TOKEN"`
	GitHubUsername       string        `envconfig:"GITHUB_USERNAME"`
	GitHubAppID          int64         `envconfig:"GITHUB_APP_ID"`
	GitHubInstallationID int64         `envconfig:"GITHUB_INSTALLATION_ID"`
	GitHubPrivateKeyPath string        `envconfig:"GITHUB_PRIVATE_KEY_PATH"`
	GitHubAPIURL         string        `envconfig:"GITHUB_API_URL" default:"https://api.github.com/"`
	GitHubWebHost        string        `envconfig:"GITHUB_WEB_HOST" default:"github.com"`
	GitHubTimeout        time.Duration `envconfig:"GITHUB_TIMEOUT" default:"30s"`
	PagesDomain          string        `envconfig:"PAGES_DOMAIN" default:"github.io"`
	GitAuthorName        string        `envconfig:"GIT_AUTHOR_NAME" default:"pagesmith"`
	GitAuthorEmail       string        `envconfig:"GIT_AUTHOR_EMAIL" default:"pagesmith@users.noreply.github.com"`

	// Content generation.
	LLMProvider   string        `envconfig:"LLM_PROVIDER" default:"template"`
	LLMModel      string        `envconfig:"LLM_MODEL"`
	LLMTimeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string        `envconfig:"GEMINI_BASE_URL"`
	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`

	AttachmentTimeout time.Duration `envconfig:"ATTACHMENT_TIMEOUT" default:"30s"`

	// Evaluation callbacks.
	CallbackSecret    string        `envconfig:"CALLBACK_SECRET"`
	NotifyMaxAttempts int           `envconfig:"NOTIFY_MAX_ATTEMPTS" default:"5"`
	NotifyBackoffUnit time.Duration `envconfig:"NOTIFY_BACKOFF_UNIT" default:"1s"`
	NotifyTimeout     time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`

	// Request handling.
	ResponseMode       string `envconfig:"RESPONSE_MODE" default:"async"`
	Workers            int    `envconfig:"WORKERS" default:"2"`
	QueueSize          int    `envconfig:"QUEUE_SIZE" default:"32"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("processing environment: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration. Missing GitHub credentials are not
// an error; see Warnings.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderTemplate:
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q: must be one of template, gemini, openai", c.LLMProvider)
	}

	switch c.ResponseMode {
	case api.ModeAsync, api.ModeSync:
	default:
		return fmt.Errorf("invalid RESPONSE_MODE %q: must be async or sync", c.ResponseMode)
	}

	if c.NotifyMaxAttempts < 4 || c.NotifyMaxAttempts > 6 {
		return fmt.Errorf("NOTIFY_MAX_ATTEMPTS must be between 4 and 6, got %d", c.NotifyMaxAttempts)
	}
	if c.NotifyBackoffUnit <= 0 {
		return errors.New("NOTIFY_BACKOFF_UNIT must be positive")
	}
	if c.Workers < 1 {
		return errors.New("WORKERS must be >= 1")
	}
	if c.QueueSize < 1 {
		return errors.New("QUEUE_SIZE must be >= 1")
	}

	appFlagsSet := c.GitHubAppID != 0 || c.GitHubInstallationID != 0 || c.GitHubPrivateKeyPath != ""
	if appFlagsSet && (c.GitHubAppID == 0 || c.GitHubInstallationID == 0 || c.GitHubPrivateKeyPath == "") {
		return errors.New("GITHUB_APP_ID, GITHUB_INSTALLATION_ID and GITHUB_PRIVATE_KEY_PATH must all be set together")
	}
	return nil
}

// UsesGitHubApp reports whether the publisher authenticates as an App
// installation instead of with a token.
func (c *Config) UsesGitHubApp() bool {
	return c.GitHubAppID != 0 && c.GitHubInstallationID != 0 && c.GitHubPrivateKeyPath != ""
}

// Warnings lists non-fatal configuration problems to be logged at start.
func (c *Config) Warnings() []string {
	var w []string
	if c.Secret == "" {
		w = append(w, "APP_SECRET is empty; every build request will be rejected")
	}
	if c.GitHubToken == "" && !c.UsesGitHubApp() {
		w = append(w, "no GitHub credentials configured; publishing will fail")
	}
	if c.GitHubUsername == "" {
		w = append(w, "GITHUB_USERNAME is empty; repository and pages URLs cannot be derived")
	}
	return w
}
