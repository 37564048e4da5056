package chatclient

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/launchonomy/orchestrator/internal/communicator"
)

// ChatCompletionsAPI captures the subset of the OpenAI SDK used by
// OpenAIBackend, so tests can substitute a fake without a live API key.
type ChatCompletionsAPI interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIBackend implements Backend on top of the OpenAI Chat Completions API.
type OpenAIBackend struct {
	api ChatCompletionsAPI
}

// NewOpenAIBackend builds a Backend from an existing chat completions client
// (typically &client.Chat.Completions from openai.NewClient).
func NewOpenAIBackend(api ChatCompletionsAPI) *OpenAIBackend {
	return &OpenAIBackend{api: api}
}

// NewOpenAIBackendFromAPIKey constructs a Backend using the default OpenAI
// HTTP client configured with apiKey.
func NewOpenAIBackendFromAPIKey(apiKey string) *OpenAIBackend {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return NewOpenAIBackend(&client.Chat.Completions)
}

func (b *OpenAIBackend) Name() string { return "openai" }

// Complete translates messages into a ChatCompletionNewParams request and
// maps the response back into a CompletionResult.
func (b *OpenAIBackend) Complete(ctx context.Context, messages []communicator.Message, model string) (CompletionResult, error) {
	if len(messages) == 0 {
		return CompletionResult{}, &BackendError{Provider: "openai", Category: CategoryValidation, Message: "messages are required"}
	}
	if model == "" {
		return CompletionResult{}, &BackendError{Provider: "openai", Category: CategoryValidation, Message: "model is required"}
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: encodeOpenAIMessages(messages),
	}

	resp, err := b.api.New(ctx, params)
	if err != nil {
		return CompletionResult{}, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return CompletionResult{}, &BackendError{Provider: "openai", Category: CategorySystem, Message: "no choices in response"}
	}
	return CompletionResult{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

func encodeOpenAIMessages(messages []communicator.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func classifyOpenAIError(err error) *BackendError {
	be := &BackendError{Provider: "openai", Category: CategorySystem, Cause: err}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		be.HTTPStatus = apiErr.StatusCode
		be.Code = apiErr.Code
		be.Message = apiErr.Message
		switch apiErr.StatusCode {
		case 401, 403:
			// Authentication/authorization failures will not resolve by
			// retrying the same request, so treat them like validation.
			be.Category = CategoryValidation
		case 429:
			be.Category = CategoryRateLimit
		case 400, 404, 422:
			be.Category = CategoryValidation
		case 408, 504:
			be.Category = CategoryTimeout
		default:
			if apiErr.StatusCode >= 500 {
				be.Category = CategorySystem
			}
		}
	}
	return be
}
