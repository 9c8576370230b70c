package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	appcfg "github.com/councildigest/core/internal/config"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
)

// GenerateOptions carries per-call sampling parameters.
type GenerateOptions struct {
	MaxNewTokens int
	Temperature  float64
	TopP         float64
}

// Generator is the generation capability consumed by the synthesizer.
// Implementations may be slow or fail; callers bound each call with a
// context deadline.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	ModelID() string
}

var errNoEnabledProvider = errors.New("no enabled AI provider")

// ProviderGenerator is the production Generator backed by a configured
// provider. Constructed once at startup and shared read-only.
type ProviderGenerator struct {
	provider appcfg.AIProvider
	modelID  string
}

// NewGenerator resolves the configured provider and model assignment.
func NewGenerator(cfg appcfg.AIConfig) (*ProviderGenerator, error) {
	provider := selectProvider(cfg)
	if provider == nil {
		return nil, errNoEnabledProvider
	}
	modelID := strings.TrimSpace(provider.DefaultModel)
	if modelID == "" {
		return nil, fmt.Errorf("provider %q has no default model", provider.ID)
	}
	return &ProviderGenerator{provider: *provider, modelID: modelID}, nil
}

func (g *ProviderGenerator) ModelID() string { return g.modelID }

// Generate issues one completion call against the configured provider.
func (g *ProviderGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if opts.MaxNewTokens <= 0 {
		opts.MaxNewTokens = 256
	}

	if isOpenAICompatibleProviderType(g.provider.Type) {
		return g.callChatCompletions(ctx, prompt, opts)
	}

	model, err := g.buildLanguageModel()
	if err != nil {
		return "", err
	}
	resp, err := jetai.GenerateText(
		ctx,
		[]jetapi.Message{&jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)}},
		jetai.WithModel(model),
		jetai.WithMaxOutputTokens(opts.MaxNewTokens),
	)
	if err != nil {
		return "", err
	}
	return extractTextFromResponse(resp)
}

func (g *ProviderGenerator) buildLanguageModel() (jetapi.LanguageModel, error) {
	apiKey := strings.TrimSpace(g.provider.APIKey)
	if apiKey == "" {
		return nil, errors.New("AI provider api key is empty")
	}
	endpoint := strings.TrimSpace(g.provider.Endpoint)

	if isAnthropicProviderType(g.provider.Type) {
		clientOpts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			clientOpts = append(clientOpts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
		}
		client := anthropicclient.NewClient(clientOpts...)
		return jetanthropic.NewLanguageModel(g.modelID, jetanthropic.WithClient(client)), nil
	}

	clientOpts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		openaioption.WithMaxRetries(0),
	}
	if normalized := normalizeOpenAIBaseURL(endpoint); normalized != "" {
		clientOpts = append(clientOpts, openaioption.WithBaseURL(normalized))
	}
	client := openaiclient.NewClient(clientOpts...)
	return jetopenai.NewLanguageModel(g.modelID, jetopenai.WithClient(client)), nil
}

// callChatCompletions talks to OpenAI-compatible endpoints directly; this
// is the path used for self-hosted OLMo-style inference servers, which
// accept temperature/top_p pass-through.
func (g *ProviderGenerator) callChatCompletions(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if strings.TrimSpace(g.provider.APIKey) == "" {
		return "", errors.New("AI provider api key is empty")
	}

	endpoint := normalizeOpenAICompatibleEndpoint(g.provider.Endpoint)

	payload := map[string]interface{}{
		"model": g.modelID,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": opts.MaxNewTokens,
	}
	if opts.Temperature > 0 {
		payload["temperature"] = opts.Temperature
	}
	if opts.TopP > 0 {
		payload["top_p"] = opts.TopP
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(g.provider.APIKey))
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("openai-compatible error: %s", strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if result.Error != nil && strings.TrimSpace(result.Error.Message) != "" {
		return "", fmt.Errorf("openai-compatible error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("empty response from AI")
	}
	return result.Choices[0].Message.Content, nil
}

func extractTextFromResponse(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", errors.New("empty response from AI")
	}

	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}

	text := full.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from AI")
	}
	return text, nil
}

func selectProvider(cfg appcfg.AIConfig) *appcfg.AIProvider {
	var providerID string
	var overrideModel string
	if cfg.SummaryModel != nil {
		providerID = strings.TrimSpace(cfg.SummaryModel.ProviderID)
		overrideModel = strings.TrimSpace(cfg.SummaryModel.Model)
	}

	pick := func(provider appcfg.AIProvider) *appcfg.AIProvider {
		selected := provider
		if overrideModel != "" {
			selected.DefaultModel = overrideModel
		}
		return &selected
	}

	if providerID != "" {
		for _, provider := range cfg.Providers {
			if !provider.Enabled {
				continue
			}
			if strings.TrimSpace(provider.ID) != providerID {
				continue
			}
			return pick(provider)
		}
	}

	for _, provider := range cfg.Providers {
		if !provider.Enabled {
			continue
		}
		return pick(provider)
	}

	return nil
}

func normalizeProviderType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	t = strings.ReplaceAll(t, " ", "")
	return t
}

func isOpenAICompatibleProviderType(raw string) bool {
	t := normalizeProviderType(raw)
	return t == "openai-compatible" || t == "openaicompatible"
}

func isAnthropicProviderType(raw string) bool {
	return normalizeProviderType(raw) == "anthropic"
}

func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}

	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		if path == "" {
			path = "/v1"
		} else {
			path += "/v1"
		}
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}

func normalizeOpenAICompatibleEndpoint(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return "https://api.openai.com"
	}

	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		cleaned := strings.TrimRight(base, "/")
		cleaned = strings.TrimSuffix(cleaned, "/v1")
		return cleaned
	}

	path := strings.TrimRight(parsed.Path, "/")
	path = strings.TrimSuffix(path, "/v1")
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}
