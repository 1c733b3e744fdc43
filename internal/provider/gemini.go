package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const geminiModelsURL = "https://generativelanguage.googleapis.com/v1beta/models"

type geminiProvider struct {
	mu         sync.Mutex
	apiKeys    []string
	currentKey int

	model  string
	client *http.Client
}

func newGemini(apiKeys []string, model string, client *http.Client) Provider {
	return &geminiProvider{
		apiKeys: apiKeys,
		model:   model,
		client:  client,
	}
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) CheckAvailability(ctx context.Context) error {
	if len(p.apiKeys) == 0 {
		return fmt.Errorf("no API keys configured")
	}
	_, err := p.ListModels(ctx)
	return err
}

type geminiModelsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (p *geminiProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geminiModelsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-goog-api-key", p.currentAPIKey())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini models: status %d", resp.StatusCode)
	}

	var models geminiModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, fmt.Errorf("decode models: %w", err)
	}

	out := make([]ModelInfo, 0, len(models.Models))
	for _, m := range models.Models {
		out = append(out, ModelInfo{Name: strings.TrimPrefix(m.Name, "models/")})
	}
	return out, nil
}

// Generate calls Gemini, rotating API keys on 429 / quota errors.
func (p *geminiProvider) Generate(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	if model == "" {
		model = p.model
	}

	attempts := len(p.apiKeys)
	if attempts == 0 {
		return "", fmt.Errorf("no API keys configured")
	}
	var lastErr error

	for range attempts {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.currentAPIKey(),
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			p.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			errMsg := err.Error()
			if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "RESOURCE_EXHAUSTED") {
				p.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			if text.Len() > 0 {
				return text.String(), nil
			}
		}

		return "", fmt.Errorf("empty response from gemini")
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (p *geminiProvider) currentAPIKey() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.apiKeys) == 0 {
		return ""
	}
	return p.apiKeys[p.currentKey]
}

func (p *geminiProvider) rotateKey() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.apiKeys) > 0 {
		p.currentKey = (p.currentKey + 1) % len(p.apiKeys)
	}
}
