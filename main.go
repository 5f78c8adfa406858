// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/CrawX/go-imap-triage/classifier"
	"github.com/CrawX/go-imap-triage/classifier/anthropic"
	"github.com/CrawX/go-imap-triage/classifier/bedrock"
	"github.com/CrawX/go-imap-triage/classifier/openai"
	"github.com/CrawX/go-imap-triage/classifier/spamassassin"
	"github.com/CrawX/go-imap-triage/config"
	"github.com/CrawX/go-imap-triage/imapconnection"
	"github.com/CrawX/go-imap-triage/log"
	"github.com/CrawX/go-imap-triage/triage"

	"github.com/sirupsen/logrus"
)

func main() {
	log.InitLogging("info")
	logger := log.Logger(log.LOG_MAIN)

	configFile := "config.toml"
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}

	err := config.LoadDotEnv()
	if err != nil {
		logger.WithField("error", err).Fatal("Could not load .env")
	}

	conf, err := config.ReadConfig(configFile)
	if err != nil {
		logger.WithFields(logrus.Fields{"file": configFile, "error": err}).Fatal("Could not load config")
	}

	if conf.Loglevel != nil {
		log.SetLogLevel(*conf.Loglevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(ctx, &conf.Classifier)
	if err != nil {
		logger.WithFields(logrus.Fields{"provider": conf.Classifier.Provider, "error": err}).Fatal("Could not start classifier")
	}
	spamClassifier := classifier.NewAdapter(backend, conf.Classifier.Model, conf.Classifier.MaxTokens, conf.Classifier.ContentLimit)

	imapConn, err := imapconnection.NewImapConnection(conf.ImapHost, conf.User, conf.Password, !conf.PlainImap)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not start imap connector")
	}

	configs := []triage.ConfigFunc{
		triage.Folder(conf.Folder),
		triage.JunkFolder(conf.JunkFolder),
		triage.Whitelist(conf.WhitelistEntries()),
		triage.Blacklist(conf.BlacklistEntries()),
		triage.MaxMessages(conf.MaxMessages),
		triage.Throttle(conf.Throttle.Duration),
	}
	if conf.OnlyGatherMetrics {
		configs = append(configs, triage.Evaluate(conf.MetricsFile))
	}

	tr, err := triage.NewImapTriage(imapConn, spamClassifier, configs...)
	if err != nil {
		_ = imapConn.Close()
		logger.WithField("error", err).Fatal("Could not start triage")
	}

	logger.WithFields(logrus.Fields{
		"folder":   conf.Folder,
		"junk":     conf.JunkFolder,
		"provider": conf.Classifier.Provider,
		"evaluate": conf.OnlyGatherMetrics,
	}).Info("Triaging mails")
	if conf.OnlyGatherMetrics {
		logger.WithField("metricsfile", conf.MetricsFile).Warn("Only gathering metrics, no mail will be moved")
	}

	totals, err := tr.Run(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{"processed": totals.Processed, "error": err}).Error("Triage aborted")
	}

	if tr.Evaluating() {
		logger.Info(fmt.Sprintf("Total emails that would be moved to %s folder: %d", tr.JunkFolder(), totals.Spam))
	} else {
		logger.Info(fmt.Sprintf("Total emails moved to %s folder: %d", tr.JunkFolder(), totals.Spam-totals.MutationFailures))
	}

	if err != nil {
		os.Exit(1)
	}
}

func newBackend(ctx context.Context, c *config.ClassifierConfig) (classifier.Backend, error) {
	switch c.Provider {
	case config.ProviderAnthropic:
		return anthropic.NewAnthropic(c.Endpoint, c.ApiKey, c.Timeout.Duration), nil
	case config.ProviderOpenAI:
		return openai.NewOpenAI(c.ApiKey, c.Endpoint, c.Timeout.Duration), nil
	case config.ProviderBedrock:
		return bedrock.NewBedrock(ctx, c.Region)
	case config.ProviderSpamassassin:
		return spamassassin.NewSpamassassin(ctx, c.SpamassassinHost)
	}
	return nil, fmt.Errorf("unknown classifier provider %q", c.Provider)
}
