// SPDX-License-Identifier: GPL-3.0-or-later
package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/CrawX/go-imap-triage/domain"
	"github.com/CrawX/go-imap-triage/log"
	"github.com/CrawX/go-imap-triage/mail"
	"github.com/CrawX/go-imap-triage/metrics"

	"github.com/sirupsen/logrus"
)

// Totals are the counts of one run. Spam counts BLACK and SPAM verdicts whether or not the move
// succeeded.
type Totals struct {
	Processed        int
	Spam             int
	MutationFailures int
	Verdicts         map[domain.Verdict]int
}

func newTotals() *Totals {
	return &Totals{Verdicts: map[domain.Verdict]int{}}
}

func (t *Totals) add(verdict domain.Verdict) {
	t.Processed++
	t.Verdicts[verdict]++
	if verdict.IsSpam() {
		t.Spam++
	}
}

type ImapTriage struct {
	session  domain.MailSession
	parser   *mail.Parser
	engine   *Engine
	recorder *metrics.Recorder

	configuration *configuration

	l *logrus.Logger
}

// NewImapTriage takes ownership of session, Run closes it.
func NewImapTriage(session domain.MailSession, classifier domain.SpamClassifier, configFunc ...ConfigFunc) (*ImapTriage, error) {
	config := defaultConfiguration()
	for _, f := range configFunc {
		err := f(config)
		if err != nil {
			return nil, domain.NewConfigurationFailure(fmt.Errorf("error applying configuration: %w", err))
		}
	}

	l := log.Logger(log.LOG_TRIAGE)
	return &ImapTriage{
		session:       session,
		parser:        mail.NewParser(l),
		engine:        NewEngine(config.Whitelist, config.Blacklist, classifier, l),
		recorder:      metrics.NewRecorder(),
		configuration: config,
		l:             l,
	}, nil
}

// Run triages every mail of the configured folder once. Mailbox level failures abort the run, the
// partial totals are returned together with the error. The session is closed and metrics are
// written in any case.
func (it *ImapTriage) Run(ctx context.Context) (totals *Totals, err error) {
	totals = newTotals()
	cfg := it.configuration
	baseLogger := it.l.WithFields(logrus.Fields{"folder": cfg.Folder, "evaluate": cfg.Evaluate})

	defer func() {
		closeErr := it.session.Close()
		if closeErr != nil {
			baseLogger.WithFields(logrus.Fields{"error": closeErr}).Warn("Could not close mail session")
		}

		if cfg.Evaluate {
			writeErr := it.recorder.WriteFile(cfg.MetricsFile)
			if writeErr != nil && err == nil {
				err = fmt.Errorf("could not write metrics: %w", writeErr)
			} else if writeErr != nil {
				baseLogger.WithFields(logrus.Fields{"error": writeErr}).Error("Could not write metrics")
			}
		}
	}()

	_, err = it.session.Select(cfg.Folder, cfg.Evaluate)
	if err != nil {
		return totals, fmt.Errorf("could not select folder %s: %w", cfg.Folder, err)
	}

	uids, err := it.session.ListUids()
	if err != nil {
		return totals, fmt.Errorf("could not list mails: %w", err)
	}
	baseLogger.WithFields(logrus.Fields{"mails": len(uids)}).Info("Found mails to triage")

	for i, uid := range uids {
		if cfg.MaxMessages > 0 && i >= cfg.MaxMessages {
			baseLogger.WithFields(logrus.Fields{"max": cfg.MaxMessages, "skipped": len(uids) - i}).Info("Reached MaxMessages, stopping")
			break
		}

		err = ctx.Err()
		if err != nil {
			return totals, fmt.Errorf("triage interrupted: %w", err)
		}

		raw, fetchErr := it.session.FetchMail(uid)
		if fetchErr != nil {
			return totals, fmt.Errorf("could not fetch mail %d: %w", uid, fetchErr)
		}

		msg := it.parser.ParseMessage(uid, raw.RawMail)
		verdict := it.engine.Decide(ctx, msg)
		totals.add(verdict)

		if cfg.Evaluate {
			it.recorder.Append(metrics.Record{
				Status:  verdict,
				Sender:  msg.Sender,
				Subject: msg.Subject,
			})
		} else if verdict.IsSpam() {
			if !it.mutate(msg) {
				totals.MutationFailures++
			}
		}

		// only mails that got past the address lists may have reached the classifier
		if verdict != domain.VerdictWhite && verdict != domain.VerdictBlack {
			err = it.throttle(ctx)
			if err != nil {
				return totals, fmt.Errorf("triage interrupted: %w", err)
			}
		}
	}

	if !cfg.Evaluate {
		err = it.session.Expunge()
		if err != nil {
			return totals, fmt.Errorf("could not expunge %s: %w", cfg.Folder, err)
		}
	}

	baseLogger.WithFields(logrus.Fields{
		"processed":        totals.Processed,
		"spam":             totals.Spam,
		"mutationfailures": totals.MutationFailures,
	}).Info("Triage finished")
	return totals, nil
}

// mutate moves a spam mail by copying it to the junk folder and flagging the original. The flag is
// only set when the copy succeeded.
func (it *ImapTriage) mutate(msg *domain.Message) bool {
	mailLogger := it.l.WithFields(logrus.Fields{
		"uid":         msg.Uid,
		"subject":     mail.ShortSubject(msg.Subject),
		"destination": it.configuration.JunkFolder,
	})

	err := it.session.Copy(msg.Uid, it.configuration.JunkFolder)
	if err != nil {
		mailLogger.WithFields(logrus.Fields{"error": err}).Error("Could not copy mail to junk folder")
		return false
	}

	err = it.session.FlagDeleted(msg.Uid)
	if err != nil {
		mailLogger.WithFields(logrus.Fields{"error": err}).Error("Could not flag mail as deleted")
		return false
	}

	mailLogger.Debug("Moved mail to junk folder")
	return true
}

func (it *ImapTriage) throttle(ctx context.Context) error {
	if it.configuration.Throttle <= 0 {
		return nil
	}

	timer := time.NewTimer(it.configuration.Throttle)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (it *ImapTriage) Evaluating() bool {
	return it.configuration.Evaluate
}

func (it *ImapTriage) JunkFolder() string {
	return it.configuration.JunkFolder
}
