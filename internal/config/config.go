package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Server      ServerConfig      `yaml:"server"`
	Paths       PathsConfig       `yaml:"paths"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type AcquisitionConfig struct {
	YtdlpBinary        string `yaml:"ytdlp_binary"`
	FFmpegBinary       string `yaml:"ffmpeg_binary"`
	FFprobeBinary      string `yaml:"ffprobe_binary"`
	BrowserCommand     string `yaml:"browser_command"`
	MaxRetries         int    `yaml:"max_retries"`
	BackoffBaseSeconds int    `yaml:"backoff_base_seconds"`
	BackoffMaxSeconds  int    `yaml:"backoff_max_seconds"`
	ProbeTimeoutSecs   int    `yaml:"probe_timeout_seconds"`
}

type WhisperConfig struct {
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
}

type ProvidersConfig struct {
	Priority         []string `yaml:"priority"`
	ProbeTimeoutSecs int      `yaml:"probe_timeout_seconds"`
	OllamaHost       string   `yaml:"ollama_host"`
	OllamaModel      string   `yaml:"ollama_model"`
	GeminiAPIKeys    []string `yaml:"gemini_api_keys"`
	GeminiModel      string   `yaml:"gemini_model"`
	OpenAIAPIKey     string   `yaml:"openai_api_key"`
	OpenAIModel      string   `yaml:"openai_model"`
	AnthropicAPIKey  string   `yaml:"anthropic_api_key"`
	AnthropicModel   string   `yaml:"anthropic_model"`
}

type PipelineConfig struct {
	MaxSegments       int  `yaml:"max_segments"`
	WindowSeconds     int  `yaml:"window_seconds"`
	SummaryMaxTokens  int  `yaml:"summary_max_tokens"`
	MinTimeoutMinutes int  `yaml:"min_timeout_minutes"`
	AllowPartial      bool `yaml:"allow_partial"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type PathsConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Temp   string `yaml:"temp"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates a yaml configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Whisper.ModelPath == "" {
		return fmt.Errorf("whisper.model_path is required")
	}
	if c.Whisper.BinaryPath == "" {
		return fmt.Errorf("whisper.binary_path is required")
	}

	if c.Whisper.Language == "" {
		c.Whisper.Language = "en"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 8
	}

	if c.Acquisition.YtdlpBinary == "" {
		c.Acquisition.YtdlpBinary = "yt-dlp"
	}
	if c.Acquisition.FFmpegBinary == "" {
		c.Acquisition.FFmpegBinary = "ffmpeg"
	}
	if c.Acquisition.FFprobeBinary == "" {
		c.Acquisition.FFprobeBinary = "ffprobe"
	}
	if c.Acquisition.MaxRetries == 0 {
		c.Acquisition.MaxRetries = 3
	}
	if c.Acquisition.BackoffBaseSeconds == 0 {
		c.Acquisition.BackoffBaseSeconds = 2
	}
	if c.Acquisition.BackoffMaxSeconds == 0 {
		c.Acquisition.BackoffMaxSeconds = 30
	}
	if c.Acquisition.ProbeTimeoutSecs == 0 {
		c.Acquisition.ProbeTimeoutSecs = 10
	}

	if len(c.Providers.Priority) == 0 {
		c.Providers.Priority = []string{"ollama", "gemini", "openai", "anthropic"}
	}
	if c.Providers.ProbeTimeoutSecs == 0 {
		c.Providers.ProbeTimeoutSecs = 5
	}
	if c.Providers.OllamaHost == "" {
		c.Providers.OllamaHost = "localhost:11434"
	}
	if c.Providers.OllamaModel == "" {
		c.Providers.OllamaModel = "llama3.1:8b"
	}
	if c.Providers.GeminiModel == "" {
		c.Providers.GeminiModel = "gemini-2.5-flash"
	}
	if c.Providers.OpenAIModel == "" {
		c.Providers.OpenAIModel = "gpt-4o-mini"
	}
	if c.Providers.AnthropicModel == "" {
		c.Providers.AnthropicModel = "claude-3-5-haiku-latest"
	}

	// API keys may come from the environment instead of the file
	if len(c.Providers.GeminiAPIKeys) == 0 {
		if v := os.Getenv("GEMINI_API_KEYS"); v != "" {
			c.Providers.GeminiAPIKeys = splitList(v)
		}
	}
	if c.Providers.OpenAIAPIKey == "" {
		c.Providers.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Providers.AnthropicAPIKey == "" {
		c.Providers.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Providers.OllamaHost = v
	}

	if c.Pipeline.MaxSegments == 0 {
		c.Pipeline.MaxSegments = 5
	}
	if c.Pipeline.WindowSeconds == 0 {
		c.Pipeline.WindowSeconds = 60
	}
	if c.Pipeline.SummaryMaxTokens == 0 {
		c.Pipeline.SummaryMaxTokens = 300
	}
	if c.Pipeline.MinTimeoutMinutes == 0 {
		c.Pipeline.MinTimeoutMinutes = 10
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "vidsum.runs"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output is required")
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "data/temp"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
