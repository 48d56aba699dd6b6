package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// OpenAI generates text with the OpenAI Responses API.
type OpenAI struct {
	apiKey string
	model  string
}

// NewOpenAI creates an OpenAI generator. An empty model selects the default.
func NewOpenAI(apiKey, model string) *OpenAI {
	if model == "" {
		model = DefaultModel(ProviderOpenAI)
	}

	return &OpenAI{
		apiKey: apiKey,
		model:  model,
	}
}

// Generate sends req to OpenAI. Schema requests use strict json_schema output.
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("%w: set OPENAI_API_KEY or use --api-key", ErrMissingAPIKey)
	}

	client := openai.NewClient(option.WithAPIKey(o.apiKey))

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(req.maxTokens()),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(req.Prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if req.System != "" {
		params.Instructions = openai.String(req.System)
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	if req.Schema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   req.schemaName(),
					Schema: req.Schema,
					Strict: openai.Bool(true),
					Type:   "json_schema",
				},
			},
		}
	}

	resp, err := client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate content via OpenAI API: %w", err)
	}

	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}

	return text, nil
}
