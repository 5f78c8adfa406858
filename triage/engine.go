// SPDX-License-Identifier: GPL-3.0-or-later
package triage

import (
	"context"
	"strings"

	"github.com/CrawX/go-imap-triage/addresslist"
	"github.com/CrawX/go-imap-triage/domain"

	"github.com/sirupsen/logrus"
)

// Engine decides the verdict of a single mail. The first matching rule wins: whitelist, blacklist,
// empty content, classifier.
type Engine struct {
	whitelist  []addresslist.Entry
	blacklist  []addresslist.Entry
	classifier domain.SpamClassifier

	l *logrus.Logger
}

func NewEngine(whitelist, blacklist []addresslist.Entry, classifier domain.SpamClassifier, l *logrus.Logger) *Engine {
	return &Engine{
		whitelist:  whitelist,
		blacklist:  blacklist,
		classifier: classifier,
		l:          l,
	}
}

func (e *Engine) Decide(ctx context.Context, msg *domain.Message) domain.Verdict {
	verdict := e.decide(ctx, msg)

	e.l.WithFields(logrus.Fields{
		"verdict": verdict,
		"sender":  msg.Sender,
		"subject": msg.Subject,
	}).Info("Triaged mail")
	return verdict
}

func (e *Engine) decide(ctx context.Context, msg *domain.Message) domain.Verdict {
	if addresslist.Matches(msg.Address, e.whitelist) {
		return domain.VerdictWhite
	}
	if addresslist.Matches(msg.Address, e.blacklist) {
		return domain.VerdictBlack
	}

	if len(strings.TrimSpace(msg.Body)) == 0 {
		return domain.VerdictEmpty
	}

	result := e.classifier.Check(ctx, msg.Body)
	if result.Error != nil {
		// fail open, the classifier already logged the cause
		e.l.WithFields(logrus.Fields{"uid": msg.Uid, "error": result.Error}).Debug("Classification failed, treating mail as fine")
		return domain.VerdictFine
	}
	if result.IsSpam {
		return domain.VerdictSpam
	}
	return domain.VerdictFine
}
