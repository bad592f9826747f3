package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o-mini"

const systemPrompt = `You extract travel booking data from document text.
Respond with a single JSON object and nothing else, using this schema:
{
  "flights": [{
    "date": "YYYY-MM-DD", "flightNumber": "", "airline": "",
    "departure": {"code": "", "city": "", "terminal": null},
    "arrival": {"code": "", "city": "", "terminal": null},
    "departureTime": "HH:MM", "arrivalTime": "HH:MM", "arrivalNextDay": false,
    "duration": null, "bookingReference": null, "ticketNumber": null
  }],
  "hotels": [{
    "name": "", "address": null,
    "checkInDate": "YYYY-MM-DD", "checkInTime": null,
    "checkOutDate": "YYYY-MM-DD", "checkOutTime": null,
    "nights": null, "confirmationNumber": null, "roomTypes": []
  }],
  "passenger": {"name": "", "type": "adult", "ticketNumber": null},
  "booking": {"reference": null, "ticketNumber": null}
}
Omit passenger and booking when the document names none. Use null for every
value the document does not state; never invent data. Dates and times are
local to the airport or hotel, never converted between timezones.`

// OpenAIExtractor calls a chat-completion model in JSON mode and decodes the
// reply into the canonical Result shape.
type OpenAIExtractor struct {
	client *goopenai.Client
	model  string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAIExtractor(cfg OpenAIConfig) (*OpenAIExtractor, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("extract: missing OpenAI API key")
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &OpenAIExtractor{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

func (e *OpenAIExtractor) Extract(ctx context.Context, documentText string, hint DocumentHint) (*Result, error) {
	if strings.TrimSpace(documentText) == "" {
		return nil, errors.New("extract: empty document text")
	}

	userPrompt := documentText
	if hint != "" && hint != HintAuto {
		userPrompt = fmt.Sprintf("Document type: %s\n\n%s", hint, documentText)
	}

	resp, err := e.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extract: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("extract: completion returned no choices")
	}

	return ParseResult(resp.Choices[0].Message.Content)
}

// ParseResult decodes the model's JSON reply. Code fences are stripped first;
// models occasionally wrap JSON in them despite JSON mode.
func ParseResult(raw string) (*Result, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("extract: decode result: %w", err)
	}
	return &result, nil
}
