package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperjump/mitsukeru/internal/models"
)

// OpenAIConfig holds settings for the LLM-backed provider.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAI scores candidates with a chat-completion call against an
// OpenAI-compatible API. Determinism is delegated to the API (temperature 0);
// the orchestrator's timeout and fallback still apply.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates the LLM-backed provider.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{client: openai.NewClientWithConfig(clientCfg), model: model}
}

// Name implements Provider.
func (o *OpenAI) Name() string { return "openai" }

// Score implements Provider.
func (o *OpenAI) Score(ctx context.Context, query models.Query, candidates []models.ScoredResult, user *UserContext) ([]models.ScoredResult, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You re-rank storefront search results. Reply with a JSON object " +
					`{"boosts": {"<id>": <float>}} assigning each candidate a boost in [0, 0.5].`,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(query, candidates, user),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("rerank completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("rerank completion: empty response")
	}

	var parsed struct {
		Boosts map[string]float64 `json:"boosts"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("rerank completion: malformed response: %w", err)
	}

	out := make([]models.ScoredResult, len(candidates))
	copy(out, candidates)
	for i := range out {
		out[i].Score += parsed.Boosts[out[i].Document.ID]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func buildPrompt(query models.Query, candidates []models.ScoredResult, user *UserContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", query.Raw)
	if len(query.Entities) > 0 {
		fmt.Fprintf(&b, "Entities: %s\n", strings.Join(query.Entities, ", "))
	}
	if user != nil && len(user.Categories) > 0 {
		fmt.Fprintf(&b, "Preferred categories: %s\n", strings.Join(user.Categories, ", "))
	}
	b.WriteString("Candidates:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- id=%s title=%q category=%q brand=%q\n",
			c.Document.ID, c.Document.Title, c.Document.Category, c.Document.Brand)
	}
	return b.String()
}
