// SPDX-License-Identifier: GPL-3.0-or-later
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CrawX/go-imap-triage/classifier"
	"github.com/CrawX/go-imap-triage/domain"

	"github.com/stretchr/testify/assert"
)

func TestAnthropic_Ask(t *testing.T) {
	var received *MessagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, APIVersion, r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := ioutil.ReadAll(r.Body)
		assert.NoError(t, err)
		received = &MessagesRequest{}
		assert.NoError(t, json.Unmarshal(body, received))

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Yes."}]}`))
	}))
	defer srv.Close()

	an := NewAnthropic(srv.URL, "secret", 0)
	reply, err := an.Ask(context.Background(), &classifier.Request{
		Model:     "claude-3-opus-20240229",
		MaxTokens: 1000,
		Prompt:    "Is this spam? Buy now!!!",
		Text:      "Buy now!!!",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Yes.", reply)
	assert.Equal(t, &MessagesRequest{
		Model:     "claude-3-opus-20240229",
		MaxTokens: 1000,
		Messages:  []Message{{Role: "user", Content: "Is this spam? Buy now!!!"}},
	}, received)
}

func TestAnthropic_AskStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		category string
	}{
		{"badrequest", http.StatusBadRequest, "bad request"},
		{"unauthorized", http.StatusUnauthorized, "invalid credential"},
		{"ratelimited", http.StatusTooManyRequests, "rate limited"},
		{"overloaded", 529, "unclassified"},
		{"servererror", http.StatusInternalServerError, "unclassified"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"type":"error"}`))
			}))
			defer srv.Close()

			reply, err := NewAnthropic(srv.URL, "secret", 0).Ask(context.Background(), &classifier.Request{})
			assert.Empty(t, reply)

			var f *domain.Failure
			assert.True(t, errors.As(err, &f))
			assert.Equal(t, domain.TransportFailure, f.Kind)
			assert.Equal(t, tc.status, f.Status)
			assert.Equal(t, tc.category, f.Category())
		})
	}
}

func TestAnthropic_AskNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	_, err := NewAnthropic(endpoint, "secret", 0).Ask(context.Background(), &classifier.Request{})

	var f *domain.Failure
	assert.True(t, errors.As(err, &f))
	assert.Equal(t, domain.TransportFailure, f.Kind)
	assert.Equal(t, 0, f.Status)
	assert.Equal(t, "unclassified", f.Category())
}

func TestReplyText(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
		kind     domain.FailureKind
	}{
		{"ok", `{"content":[{"type":"text","text":"no"},{"type":"text","text":"ignored"}]}`, "no", 0},
		{"empty", `{"content":[]}`, "", domain.ValidationFailure},
		{"garbage", `not json`, "", domain.ValidationFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, err := ReplyText([]byte(tc.body))
			assert.Equal(t, tc.expected, text)
			if tc.kind == 0 {
				assert.NoError(t, err)
			} else {
				assert.True(t, domain.IsKind(err, tc.kind))
			}
		})
	}
}
