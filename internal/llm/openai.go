package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"PoolProPlatform/pkg/logger"
)

// Producer генерирует внешний план лечения по запросу диагностики
type Producer interface {
	Produce(ctx context.Context, req DiagnoseRequest) (*PlanResult, error)
}

// chatClient абстракция над клиентом OpenAI для тестируемости
type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProducer реализация Producer поверх OpenAI chat completions.
// При недоступном или невалидном ответе возвращает консервативный fallback-план
type OpenAIProducer struct {
	client chatClient
	model  string
	log    logger.Logger
}

// NewOpenAIProducer создает producer; при пустом ключе API клиент не создается
// и все запросы сразу получают fallback-план
func NewOpenAIProducer(apiKey, model string, log logger.Logger) *OpenAIProducer {
	var client chatClient
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}
	return &OpenAIProducer{
		client: client,
		model:  model,
		log:    log,
	}
}

// Produce генерирует план лечения. Ошибка не возвращается: любая проблема
// с внешним генератором дает явно помеченный fallback с предупреждением
func (p *OpenAIProducer) Produce(ctx context.Context, req DiagnoseRequest) (*PlanResult, error) {
	if p.client == nil {
		p.log.Debug("LLM key not configured, returning fallback plan",
			logger.String("pool_id", req.PoolID))
		return &PlanResult{
			Plan:   BuildFallbackPlan(req.Symptoms),
			Source: "fallback",
		}, nil
	}

	plan, err := p.generate(ctx, req)
	if err != nil {
		p.log.Warn("LLM generation failed, returning fallback plan",
			logger.String("pool_id", req.PoolID),
			logger.Error(err))
		return &PlanResult{
			Plan:    BuildFallbackPlan(req.Symptoms),
			Source:  "fallback",
			Warning: "LLM response unavailable or invalid; returned conservative fallback plan.",
		}, nil
	}

	return &PlanResult{Plan: plan, Source: "llm"}, nil
}

// generate выполняет запрос к модели и валидирует форму ответа
func (p *OpenAIProducer) generate(ctx context.Context, req DiagnoseRequest) (*Plan, error) {
	userPrompt, err := buildUserPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	// Модели иногда оборачивают JSON в markdown-ограждение
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var plan Plan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("generated plan failed validation: %w", err)
	}

	return &plan, nil
}

// buildUserPrompt сериализует симптомы и контекст бассейна в пользовательский промпт
func buildUserPrompt(req DiagnoseRequest) (string, error) {
	contextJSON, err := json.Marshal(req.Context)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("Symptoms: ")
	if req.Symptoms != "" {
		sb.WriteString(req.Symptoms)
	} else {
		sb.WriteString("(none reported)")
	}
	sb.WriteString("\nPool context JSON: ")
	sb.Write(contextJSON)
	return sb.String(), nil
}
