package provider

import (
	"net/http"
	"time"

	"github.com/vidsum/vidsum/internal/config"
	"github.com/vidsum/vidsum/internal/logger"
)

// New builds the registry from configuration. Only providers with the
// minimum configuration to be usable are registered at all; the rest
// simply never appear in the priority walk.
func New(cfg *config.Config, log logger.Logger) Registry {
	client := &http.Client{Timeout: 2 * time.Minute}

	providers := make(map[string]Provider)

	if cfg.Providers.OllamaHost != "" {
		providers["ollama"] = newOllama(cfg.Providers.OllamaHost, cfg.Providers.OllamaModel, client)
	}
	if len(cfg.Providers.GeminiAPIKeys) > 0 {
		providers["gemini"] = newGemini(cfg.Providers.GeminiAPIKeys, cfg.Providers.GeminiModel, client)
	}
	if cfg.Providers.OpenAIAPIKey != "" {
		providers["openai"] = newOpenAI(cfg.Providers.OpenAIAPIKey, cfg.Providers.OpenAIModel, client)
	}
	if cfg.Providers.AnthropicAPIKey != "" {
		providers["anthropic"] = newAnthropic(cfg.Providers.AnthropicAPIKey, cfg.Providers.AnthropicModel, client)
	}

	return &implRegistry{
		providers:   providers,
		priority:    cfg.Providers.Priority,
		timeout:     time.Duration(cfg.Providers.ProbeTimeoutSecs) * time.Second,
		logger:      log,
		descriptors: make(map[string]Descriptor),
	}
}
