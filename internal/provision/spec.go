package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/launchonomy/orchestrator/internal/communicator"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// JSONAsker is the subset of Communicator the pipeline needs to drive the
// tool-creation specialist persona.
type JSONAsker interface {
	GetJSON(ctx context.Context, agent, prompt, errMsg string, retryLog *communicator.RetryLog) (any, float64, error)
}

// DefaultFallbackPort is the local port used in the fallback stub's
// placeholder webhook URL when no port is configured.
const DefaultFallbackPort = 5678

// toolSpecSchema constrains what counts as a well-formed AI-generated tool
// spec before it is trusted enough to submit to consensus.
const toolSpecSchema = `{
  "type": "object",
  "required": ["description", "type", "endpoint_details"],
  "properties": {
    "description": {"type": "string", "minLength": 1},
    "type": {"type": "string"},
    "endpoint_details": {
      "type": "object",
      "required": ["url", "method"],
      "properties": {
        "url": {"type": "string", "minLength": 1},
        "method": {"type": "string", "minLength": 1}
      }
    }
  }
}`

var compiledToolSpecSchema = mustCompileToolSpecSchema()

func mustCompileToolSpecSchema() *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(toolSpecSchema), &doc); err != nil {
		panic(fmt.Sprintf("provision: invalid embedded tool spec schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("tool-spec.json", doc); err != nil {
		panic(fmt.Sprintf("provision: adding tool spec schema resource: %v", err))
	}
	schema, err := c.Compile("tool-spec.json")
	if err != nil {
		panic(fmt.Sprintf("provision: compiling tool spec schema: %v", err))
	}
	return schema
}

// GenerateToolSpec asks the tool-creation specialist persona for a JSON tool
// specification for name, validates it against the shared tool spec schema,
// and tags it source "ai-generated-real" on success. Any failure (no asker
// configured, LLM error, non-object reply, or schema validation failure)
// falls back to FallbackStub instead of propagating an error — a missing
// tool must never block the workflow step that asked for it.
func GenerateToolSpec(ctx context.Context, asker JSONAsker, name string, missionContext string, fallbackPort int) (map[string]any, float64, error) {
	if asker == nil {
		return FallbackStub(name, fallbackPort), 0, nil
	}

	prompt := buildToolSpecPrompt(name, missionContext)
	var log communicator.RetryLog
	parsed, cost, err := asker.GetJSON(ctx, "ToolCreationSpecialist", prompt, "expected a tool specification JSON object", &log)
	if err != nil {
		return FallbackStub(name, fallbackPort), cost, nil
	}
	spec, ok := parsed.(map[string]any)
	if !ok {
		return FallbackStub(name, fallbackPort), cost, nil
	}
	if err := compiledToolSpecSchema.Validate(spec); err != nil {
		return FallbackStub(name, fallbackPort), cost, nil
	}
	spec["source"] = "ai-generated-real"
	return spec, cost, nil
}

func buildToolSpecPrompt(name, missionContext string) string {
	return fmt.Sprintf(
		"You are a tool creation specialist. Create a complete, functional tool specification for %q.\n\n"+
			"Mission context: %s\n\n"+
			"Reply with a single JSON object with these keys: description (string), type (the string "+
			"\"webhook\"), endpoint_details ({url, method}), authentication ({type, required_credentials, "+
			"setup_instructions}), request_schema (JSON schema object), response_schema (JSON schema "+
			"object), usage_examples (array of {description, request, expected_response}), cost_estimate "+
			"(string), setup_time (string).",
		name, missionContext,
	)
}

// FallbackStub builds the deterministic stub spec emitted when spec
// generation or validation fails: a placeholder local webhook URL, no
// authentication, a generic request/response schema, source "fallback-stub",
// and requires_manual_setup set so downstream tooling surfaces it as
// incomplete.
func FallbackStub(name string, fallbackPort int) map[string]any {
	if fallbackPort <= 0 {
		fallbackPort = DefaultFallbackPort
	}
	slug := slugify(name)
	return map[string]any{
		"description": fmt.Sprintf("Fallback stub for tool: %s - requires manual configuration", name),
		"type":        "webhook",
		"endpoint_details": map[string]any{
			"url":    fmt.Sprintf("http://localhost:%d/webhook-test/%s-placeholder", fallbackPort, slug),
			"method": "POST",
		},
		"authentication": map[string]any{"type": "none"},
		"request_schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_description": map[string]any{"type": "string"},
				"data":             map[string]any{"type": "object"},
			},
			"required": []any{"task_description"},
		},
		"response_schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status": map[string]any{"type": "string"},
				"result": map[string]any{"type": "object"},
			},
		},
		"source":                "fallback-stub",
		"requires_manual_setup": true,
	}
}

func slugify(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	return b.String()
}
