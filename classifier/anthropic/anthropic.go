// SPDX-License-Identifier: GPL-3.0-or-later
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/CrawX/go-imap-triage/classifier"
	"github.com/CrawX/go-imap-triage/domain"
)

const (
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	APIVersion      = "2023-06-01"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessagesRequest is the body of a Messages API call. Bedrock accepts the same body with
// AnthropicVersion set instead of Model.
type MessagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version,omitempty"`
	Model            string    `json:"model,omitempty"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []Message `json:"messages"`
}

type MessagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func NewMessagesRequest(req *classifier.Request) *MessagesRequest {
	return &MessagesRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Messages: []Message{
			{Role: "user", Content: req.Prompt},
		},
	}
}

// ReplyText extracts the text of the first content block.
func ReplyText(body []byte) (string, error) {
	resp := &MessagesResponse{}
	err := json.Unmarshal(body, resp)
	if err != nil {
		return "", domain.NewValidationFailure(fmt.Errorf("could not deserialize messages response: %w", err))
	}

	if len(resp.Content) == 0 {
		return "", domain.NewValidationFailure(fmt.Errorf("messages response has no content"))
	}

	return resp.Content[0].Text, nil
}

type Anthropic struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewAnthropic creates a Messages API backend. A zero timeout keeps the http.Client default of no
// timeout.
func NewAnthropic(endpoint, apiKey string, timeout time.Duration) *Anthropic {
	if len(endpoint) == 0 {
		endpoint = DefaultEndpoint
	}

	return &Anthropic{
		client: &http.Client{
			Timeout: timeout,
		},
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

func (an *Anthropic) Ask(ctx context.Context, req *classifier.Request) (string, error) {
	payload, err := json.Marshal(NewMessagesRequest(req))
	if err != nil {
		return "", fmt.Errorf("could not serialize messages request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, an.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("could not create messages request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", an.apiKey)
	httpReq.Header.Set("anthropic-version", APIVersion)

	resp, err := an.client.Do(httpReq)
	if err != nil {
		return "", domain.NewTransportFailure(0, fmt.Errorf("could not send request to anthropic: %w", err))
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewTransportFailure(resp.StatusCode, fmt.Errorf("could not read anthropic response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", domain.NewTransportFailure(resp.StatusCode, fmt.Errorf("unexpected status %d from anthropic: %s", resp.StatusCode, snippet(body)))
	}

	return ReplyText(body)
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
