// SPDX-License-Identifier: GPL-3.0-or-later
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CrawX/go-imap-triage/domain"
	"github.com/CrawX/go-imap-triage/log"

	"github.com/sirupsen/logrus"
)

const (
	DefaultContentLimit = 500
	DefaultMaxTokens    = 1000

	promptTemplate = "Is the following email spam? Only respond with 'yes' or 'no'. Here's the first %d characters of the email: %s"
)

// Request is what a backend sends to its service. Prompt embeds Text; backends that do not take
// instructions, like SpamAssassin, use Text directly.
type Request struct {
	Model     string
	MaxTokens int
	Prompt    string
	Text      string
}

// Backend performs exactly one request per call and returns the raw reply text. Failures should
// be *domain.Failure values of kind TransportFailure or ValidationFailure.
type Backend interface {
	Ask(ctx context.Context, req *Request) (string, error)
}

// Adapter classifies mail text with a Backend. It fails open: any failure yields "not spam" along
// with the error.
type Adapter struct {
	backend      Backend
	model        string
	maxTokens    int
	contentLimit int

	l *logrus.Logger
}

func NewAdapter(backend Backend, model string, maxTokens, contentLimit int) *Adapter {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if contentLimit <= 0 {
		contentLimit = DefaultContentLimit
	}

	return &Adapter{
		backend:      backend,
		model:        model,
		maxTokens:    maxTokens,
		contentLimit: contentLimit,
		l:            log.Logger(log.LOG_CLASSIFIER),
	}
}

func (a *Adapter) Check(ctx context.Context, text string) *domain.SpamResult {
	truncated := Truncate(text, a.contentLimit)
	req := &Request{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Prompt:    fmt.Sprintf(promptTemplate, a.contentLimit, truncated),
		Text:      truncated,
	}

	reply, err := a.backend.Ask(ctx, req)
	if err != nil {
		a.report(err)
		return errResult(err)
	}

	isSpam, err := Normalize(reply)
	if err != nil {
		a.report(err)
		return errResult(err)
	}

	a.l.WithFields(logrus.Fields{"model": a.model, "reply": reply, "isSpam": isSpam}).Debug("Classified mail")
	return &domain.SpamResult{IsSpam: isSpam}
}

func (a *Adapter) report(err error) {
	fields := logrus.Fields{"model": a.model, "error": err}
	var f *domain.Failure
	if errors.As(err, &f) {
		fields["kind"] = f.Kind.String()
		if f.Kind == domain.TransportFailure {
			fields["category"] = f.Category()
			if hint := f.Hint(); len(hint) > 0 {
				fields["hint"] = hint
			}
		}
	}
	a.l.WithFields(fields).Warn("Classification failed, treating mail as not spam")
}

// Normalize maps a reply to a verdict. Only "yes" and "no" are accepted, ignoring case,
// surrounding whitespace and one trailing period.
func Normalize(reply string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(reply))
	normalized = strings.TrimSuffix(normalized, ".")

	switch normalized {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}

	return false, domain.NewValidationFailure(fmt.Errorf("unexpected classifier reply %q", reply))
}

// Truncate returns the first limit characters of text.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}

	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}

	return text
}

func errResult(err error) *domain.SpamResult {
	return &domain.SpamResult{Error: err}
}
