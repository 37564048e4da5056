package chatclient

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/launchonomy/orchestrator/internal/communicator"
)

// ConverseAPI captures the subset of the Bedrock runtime client used by
// BedrockBackend, matched by *bedrockruntime.Client so tests can substitute a
// fake without live AWS credentials.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockBackend implements Backend on top of the Bedrock Converse API.
type BedrockBackend struct {
	runtime ConverseAPI
}

// NewBedrockBackend builds a Backend from an existing Bedrock runtime client.
func NewBedrockBackend(runtime ConverseAPI) *BedrockBackend {
	return &BedrockBackend{runtime: runtime}
}

func (b *BedrockBackend) Name() string { return "bedrock" }

// Complete translates messages into a ConverseInput request and maps the
// response back into a CompletionResult.
func (b *BedrockBackend) Complete(ctx context.Context, messages []communicator.Message, model string) (CompletionResult, error) {
	if model == "" {
		return CompletionResult{}, &BackendError{Provider: "bedrock", Category: CategoryValidation, Message: "model is required"}
	}
	conversation, system, err := encodeBedrockMessages(messages)
	if err != nil {
		return CompletionResult{}, &BackendError{Provider: "bedrock", Category: CategoryValidation, Message: err.Error()}
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(model),
		Messages: conversation,
	}
	if len(system) > 0 {
		input.System = system
	}

	output, err := b.runtime.Converse(ctx, input)
	if err != nil {
		return CompletionResult{}, classifyBedrockError(err)
	}
	return translateBedrockResponse(output)
}

func encodeBedrockMessages(messages []communicator.Message) ([]brtypes.Message, []brtypes.SystemContentBlock, error) {
	conversation := make([]brtypes.Message, 0, len(messages))
	system := make([]brtypes.SystemContentBlock, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			if m.Content != "" {
				system = append(system, &brtypes.SystemContentBlockMemberText{Value: m.Content})
			}
		case "assistant":
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		default:
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		}
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("at least one user/assistant message is required")
	}
	return conversation, system, nil
}

func translateBedrockResponse(output *bedrockruntime.ConverseOutput) (CompletionResult, error) {
	if output == nil {
		return CompletionResult{}, &BackendError{Provider: "bedrock", Category: CategorySystem, Message: "response is nil"}
	}
	var content string
	if msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if v, ok := block.(*brtypes.ContentBlockMemberText); ok {
				content += v.Value
			}
		}
	}
	var usage Usage
	if output.Usage != nil {
		usage = Usage{
			InputTokens:  int(ptrInt32(output.Usage.InputTokens)),
			OutputTokens: int(ptrInt32(output.Usage.OutputTokens)),
		}
	}
	return CompletionResult{Content: content, Usage: usage}, nil
}

func ptrInt32(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}

// classifyBedrockError mirrors the teacher's isRateLimited check, extended to
// the full {rate_limit, timeout, validation, system} taxonomy.
func classifyBedrockError(err error) *BackendError {
	be := &BackendError{Provider: "bedrock", Category: CategorySystem, Cause: err}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		be.Code = apiErr.ErrorCode()
		be.Message = apiErr.ErrorMessage()
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			be.Category = CategoryRateLimit
		case "ValidationException", "AccessDeniedException", "UnrecognizedClientException":
			be.Category = CategoryValidation
		case "ModelTimeoutException":
			be.Category = CategoryTimeout
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		be.HTTPStatus = respErr.HTTPStatusCode()
		if respErr.HTTPStatusCode() == 429 {
			be.Category = CategoryRateLimit
		}
	}
	return be
}
