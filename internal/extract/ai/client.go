// Package ai implements Stage B of the extraction pipeline: a
// model-assisted structured-output fallback invoked when Stage A's
// manual parse yields fewer than extract.StageBThreshold validation
// errors (spec §4.1 "Model-assisted extraction").
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// RawSignal is the structured-output schema the model is constrained to
// emit. Prices arrive as float64 (the model cannot emit decimal.Decimal)
// and are converted downstream via extract.FromRawFloats (spec §4.1
// Normalization).
type RawSignal struct {
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	Entries     []float64 `json:"entries"`
	TakeProfits []float64 `json:"take_profits"`
	StopLoss    float64   `json:"stop_loss"`
	Confidence  float64   `json:"confidence"`
}

// RawReply is the structured-output schema for a reply-action
// classification the manual matcher did not resolve (spec §4.1
// "Model-assisted extraction" also covers MODIFY_SL, which the manual
// matcher cannot detect).
type RawReply struct {
	Action  string  `json:"action"`
	NewSL   float64 `json:"new_sl"`
	HasNewSL bool   `json:"has_new_sl"`
}

// IsRetryable reports whether an error returned by ExtractSignal/
// ExtractReply should be retried (spec §4.1 "transient errors retry;
// auth/bad-request errors fail fast to None"). Anything that isn't a
// classified *openai.Error (network errors, context deadline) is treated
// as retryable, matching the transient-error framing.
func IsRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
			http.StatusNotFound, http.StatusUnprocessableEntity:
			return false
		}
	}
	return true
}

// Client wraps the OpenAI structured-output API for Stage B extraction.
type Client struct {
	api   openai.Client
	model string
}

// NewClient builds a Client from an API key and the chat-completion
// model name to use for extraction.
func NewClient(apiKey, model string) *Client {
	return &Client{
		api:   openai.NewClient(option.WithAPIKey(apiKey)),
		model: model,
	}
}

// ExtractSignal asks the model to extract a trading signal from text,
// constrained to the RawSignal JSON schema.
func (c *Client) ExtractSignal(ctx context.Context, text string, allowedSymbols []string) (RawSignal, error) {
	schema := signalSchema()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(signalSystemPrompt(allowedSymbols)),
			openai.UserMessage(text),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "trade_signal",
					Schema: schema,
					Strict: openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return RawSignal{}, fmt.Errorf("ai: extract signal: %w", err)
	}
	if len(resp.Choices) == 0 {
		return RawSignal{}, fmt.Errorf("ai: extract signal: empty response")
	}

	var raw RawSignal
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &raw); err != nil {
		return RawSignal{}, fmt.Errorf("ai: decode signal response: %w", err)
	}
	return raw, nil
}

// ExtractReply asks the model to classify a reply-action from text,
// constrained to the RawReply JSON schema.
func (c *Client) ExtractReply(ctx context.Context, text, originalSignalSummary string) (RawReply, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(replySystemPrompt(originalSignalSummary)),
			openai.UserMessage(text),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "reply_action",
					Schema: replySchema(),
					Strict: openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return RawReply{}, fmt.Errorf("ai: extract reply: %w", err)
	}
	if len(resp.Choices) == 0 {
		return RawReply{}, fmt.Errorf("ai: extract reply: empty response")
	}

	var raw RawReply
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &raw); err != nil {
		return RawReply{}, fmt.Errorf("ai: decode reply response: %w", err)
	}
	return raw, nil
}
