// SPDX-License-Identifier: GPL-3.0-or-later
package spamassassin

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/CrawX/go-imap-triage/classifier"
	"github.com/CrawX/go-imap-triage/domain"

	"github.com/teamwork/spamc"
)

const SpamAssassinTimeout = 20 * time.Second

// SpamAssassin answers the yes/no question with spamd instead of a language model. Only the
// truncated text is sent, the prompt is ignored.
type SpamAssassin struct {
	client *spamc.Client
}

func NewSpamassassin(ctx context.Context, host string) (*SpamAssassin, error) {
	client := spamc.New(host, &net.Dialer{
		Timeout: SpamAssassinTimeout,
	})
	err := client.Ping(ctx)
	if err != nil {
		return nil, domain.NewConfigurationFailure(fmt.Errorf("could not ping SpamAssassin: %w", err))
	}

	return &SpamAssassin{client: client}, nil
}

func (sa *SpamAssassin) Ask(ctx context.Context, req *classifier.Request) (string, error) {
	// empty header block, spamd expects a message
	out, err := sa.client.Process(ctx, strings.NewReader("\r\n"+req.Text), nil)
	if err != nil {
		return "", domain.NewTransportFailure(0, fmt.Errorf("could not check SpamAssassin: %w", err))
	}

	err = out.Message.Close()
	if err != nil {
		return "", domain.NewTransportFailure(0, fmt.Errorf("could not close response: %w", err))
	}

	return answer(out.IsSpam), nil
}

func answer(isSpam bool) string {
	if isSpam {
		return "yes"
	}
	return "no"
}
