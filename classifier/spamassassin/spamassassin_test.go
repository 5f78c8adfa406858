// SPDX-License-Identifier: GPL-3.0-or-later
package spamassassin

import (
	"context"
	"net"
	"testing"

	"github.com/CrawX/go-imap-triage/classifier"
	"github.com/CrawX/go-imap-triage/domain"

	"github.com/stretchr/testify/assert"
	"github.com/teamwork/spamc"
)

func TestAnswerNormalizes(t *testing.T) {
	for _, isSpam := range []bool{true, false} {
		normalized, err := classifier.Normalize(answer(isSpam))
		assert.NoError(t, err)
		assert.Equal(t, isSpam, normalized)
	}
}

func TestSpamAssassin_AskUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	addr := l.Addr().String()
	assert.NoError(t, l.Close())

	sa := &SpamAssassin{client: spamc.New(addr, &net.Dialer{})}
	reply, err := sa.Ask(context.Background(), &classifier.Request{Text: "Buy now!!!"})

	assert.Empty(t, reply)
	assert.True(t, domain.IsKind(err, domain.TransportFailure))
}

func TestNewSpamassassinUnreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	addr := l.Addr().String()
	assert.NoError(t, l.Close())

	_, err = NewSpamassassin(context.Background(), addr)
	assert.True(t, domain.IsKind(err, domain.ConfigurationFailure))
}
