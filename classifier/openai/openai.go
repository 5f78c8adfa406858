// SPDX-License-Identifier: GPL-3.0-or-later
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/CrawX/go-imap-triage/classifier"
	"github.com/CrawX/go-imap-triage/domain"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAI asks a chat completion model. Any OpenAI compatible endpoint works by setting baseURL.
type OpenAI struct {
	client *goopenai.Client
}

func NewOpenAI(apiKey, baseURL string, timeout time.Duration) *OpenAI {
	config := goopenai.DefaultConfig(apiKey)
	if len(baseURL) > 0 {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{
		Timeout: timeout,
	}

	return &OpenAI{client: goopenai.NewClientWithConfig(config)}
}

func (o *OpenAI) Ask(ctx context.Context, req *classifier.Request) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
	})
	if err != nil {
		return "", domain.NewTransportFailure(statusCode(err), fmt.Errorf("could not create chat completion: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewValidationFailure(errors.New("chat completion has no choices"))
	}

	return resp.Choices[0].Message.Content, nil
}

func statusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}

	return 0
}
