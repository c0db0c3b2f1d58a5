package bedtime

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config carries every knob the service and CLI read from the
// environment. A .env file is honored when present.
type Config struct {
	// Provider selects the generation gateway: openai, claude or gemini.
	Provider string `envconfig:"STORY_PROVIDER" default:"openai"`
	// Model overrides the provider's default text model.
	Model string `envconfig:"STORY_MODEL"`

	OpenAIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicKey string `envconfig:"ANTHROPIC_API_KEY"`
	GeminiKey    string `envconfig:"GEMINI_API_KEY"`

	// PosterBackend selects the image backend: dalle, horde or local.
	PosterBackend string `envconfig:"POSTER_BACKEND" default:"dalle"`
	HordeKey      string `envconfig:"HORDE_API_KEY"`
	SDWebUIURL    string `envconfig:"SD_WEBUI_URL"`

	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`
	OutputDir  string `envconfig:"OUTPUT_DIR" default:"stories"`
}

// LoadConfig reads configuration from the environment, preferring an
// optional .env file for local development.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}

// NewGenerator builds the configured generation gateway.
func (cfg Config) NewGenerator(ctx context.Context) (Generator, error) {
	switch cfg.Provider {
	case "claude":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return NewClaudeClient(cfg.AnthropicKey), nil
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set")
		}
		return NewGeminiClient(ctx, cfg.GeminiKey, cfg.Model)
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		return NewOpenAIClient(cfg.OpenAIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown story provider %q", cfg.Provider)
	}
}

// NewImageClient builds the configured poster backend. Returns nil with
// no error when the backend's credentials are absent, so callers can
// treat posters as an optional feature.
func (cfg Config) NewImageClient() (ImageClient, error) {
	switch cfg.PosterBackend {
	case "horde":
		return NewHordeClient(cfg.HordeKey), nil
	case "local":
		if cfg.SDWebUIURL == "" {
			return nil, nil
		}
		return NewLocalClient(cfg.SDWebUIURL), nil
	case "dalle":
		if cfg.OpenAIKey == "" {
			return nil, nil
		}
		return NewDallEClient(NewOpenAIClient(cfg.OpenAIKey, cfg.Model).Client()), nil
	default:
		return nil, fmt.Errorf("unknown poster backend %q", cfg.PosterBackend)
	}
}
