package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const emitJSONTool = "emit_json"

// Anthropic generates text with the Anthropic Messages API.
type Anthropic struct {
	apiKey string
	model  anthropic.Model
}

// NewAnthropic creates an Anthropic generator. An empty model selects the default.
func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = DefaultModel(ProviderAnthropic)
	}

	return &Anthropic{
		apiKey: apiKey,
		model:  anthropic.Model(model),
	}
}

// Generate sends req to Claude. Schema requests are answered through a
// forced tool call whose input is the JSON document.
func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("%w: set ANTHROPIC_API_KEY or use --api-key", ErrMissingAPIKey)
	}

	client := anthropic.NewClient(option.WithAPIKey(a.apiKey))

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: req.maxTokens(),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	if req.Schema != nil {
		tool := anthropic.ToolUnionParamOfTool(schemaInput(req.Schema), emitJSONTool)
		tool.OfTool.Description = anthropic.String("Return the " + req.schemaName() + " document")
		params.Tools = []anthropic.ToolUnionParam{tool}
		params.ToolChoice = anthropic.ToolChoiceParamOfTool(emitJSONTool)
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate content via Anthropic API: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}

	if req.Schema != nil {
		return toolInputJSON(resp.Content)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(textBlock.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}

	return text, nil
}

func schemaInput(schema map[string]any) anthropic.ToolInputSchemaParam {
	in := anthropic.ToolInputSchemaParam{
		Properties: schema[propertiesKey],
	}

	switch required := schema[requiredKey].(type) {
	case []string:
		in.Required = required
	case []any:
		for _, r := range required {
			if name, ok := r.(string); ok {
				in.Required = append(in.Required, name)
			}
		}
	}

	return in
}

// toolInputJSON returns the input of the first tool_use block as JSON text.
func toolInputJSON(content []anthropic.ContentBlockUnion) (string, error) {
	for _, block := range content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			inputBytes, err := json.Marshal(toolUse.Input)
			if err != nil {
				return "", fmt.Errorf("failed to marshal tool input: %w", err)
			}

			return string(inputBytes), nil
		}
	}

	return "", errors.New("no tool use found in Anthropic API response")
}
