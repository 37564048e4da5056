package chatclient

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/launchonomy/orchestrator/internal/communicator"
)

// MessagesAPI captures the subset of the Anthropic SDK used by
// AnthropicBackend, matched by *sdk.MessageService so tests can substitute a
// fake without a live API key.
type MessagesAPI interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicBackend implements Backend on top of the Anthropic Messages API.
type AnthropicBackend struct {
	msg       MessagesAPI
	maxTokens int
}

// NewAnthropicBackend builds a Backend from an existing Messages client.
// maxTokens is required by the Messages API on every request and has no
// built-in default, unlike OpenAI and Bedrock.
func NewAnthropicBackend(msg MessagesAPI, maxTokens int) *AnthropicBackend {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicBackend{msg: msg, maxTokens: maxTokens}
}

// NewAnthropicBackendFromAPIKey constructs a Backend using the default
// Anthropic HTTP client configured with apiKey.
func NewAnthropicBackendFromAPIKey(apiKey string, maxTokens int) *AnthropicBackend {
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicBackend(&client.Messages, maxTokens)
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

// Complete translates messages into a MessageNewParams request and maps the
// response back into a CompletionResult.
func (b *AnthropicBackend) Complete(ctx context.Context, messages []communicator.Message, model string) (CompletionResult, error) {
	if model == "" {
		return CompletionResult{}, &BackendError{Provider: "anthropic", Category: CategoryValidation, Message: "model is required"}
	}
	conversation, system, err := encodeAnthropicMessages(messages)
	if err != nil {
		return CompletionResult{}, &BackendError{Provider: "anthropic", Category: CategoryValidation, Message: err.Error()}
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(b.maxTokens),
		Messages:  conversation,
	}
	if len(system) > 0 {
		params.System = system
	}

	msg, err := b.msg.New(ctx, params)
	if err != nil {
		return CompletionResult{}, classifyAnthropicError(err)
	}

	var content string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			content += block.Text
		}
	}
	return CompletionResult{
		Content: content,
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

func encodeAnthropicMessages(messages []communicator.Message) ([]sdk.MessageParam, []sdk.TextBlockParam, error) {
	conversation := make([]sdk.MessageParam, 0, len(messages))
	system := make([]sdk.TextBlockParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			if m.Content != "" {
				system = append(system, sdk.TextBlockParam{Text: m.Content})
			}
		case "assistant":
			conversation = append(conversation, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("at least one user/assistant message is required")
	}
	return conversation, system, nil
}

func classifyAnthropicError(err error) *BackendError {
	be := &BackendError{Provider: "anthropic", Category: CategorySystem, Cause: err}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		be.HTTPStatus = apiErr.StatusCode
		be.Message = apiErr.Error()
		switch apiErr.StatusCode {
		case 401, 403:
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
