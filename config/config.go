// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/CrawX/go-imap-triage/addresslist"
	"github.com/CrawX/go-imap-triage/classifier"
	"github.com/CrawX/go-imap-triage/domain"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	EnvPassword = "IMAP_TRIAGE_PASSWORD"
	EnvApiKey   = "IMAP_TRIAGE_API_KEY"

	ProviderAnthropic    = "anthropic"
	ProviderOpenAI       = "openai"
	ProviderBedrock      = "bedrock"
	ProviderSpamassassin = "spamassassin"
)

// Duration is a time.Duration read from a string such as "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

type ClassifierConfig struct {
	Provider string
	Endpoint string
	ApiKey   string

	Model        string
	MaxTokens    int
	ContentLimit int
	Timeout      Duration

	// bedrock
	Region string

	SpamassassinHost string
}

type Config struct {
	ImapHost  string
	User      string
	Password  string
	PlainImap bool

	Folder     string
	JunkFolder string

	Whitelist []string
	Blacklist []string

	OnlyGatherMetrics bool
	MetricsFile       string

	MaxMessages int
	Throttle    Duration

	Classifier ClassifierConfig

	Loglevel *string

	whitelist []addresslist.Entry
	blacklist []addresslist.Entry
}

// LoadDotEnv loads environment variables from the given files, ".env" if none is given. Missing
// files are ignored, variables already set are not overwritten.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}

	for _, filename := range filenames {
		err := godotenv.Load(filename)
		if err != nil && !os.IsNotExist(err) {
			return domain.NewConfigurationFailure(fmt.Errorf("could not load %s: %w", filename, err))
		}
	}
	return nil
}

func ReadConfig(filename string) (*Config, error) {
	config := &Config{
		Folder:      "INBOX",
		JunkFolder:  "Junk",
		MetricsFile: "metrics.csv",
		Throttle:    Duration{250 * time.Millisecond},
		Classifier: ClassifierConfig{
			Provider:         ProviderAnthropic,
			Model:            "claude-3-opus-20240229",
			MaxTokens:        classifier.DefaultMaxTokens,
			ContentLimit:     classifier.DefaultContentLimit,
			Region:           "us-east-1",
			SpamassassinHost: "localhost:783",
		},
	}

	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, domain.NewConfigurationFailure(fmt.Errorf("could not read config file: %w", err))
	}

	if len(config.Password) == 0 {
		config.Password = os.Getenv(EnvPassword)
	}
	if len(config.Classifier.ApiKey) == 0 {
		config.Classifier.ApiKey = os.Getenv(EnvApiKey)
	}

	err = config.validate()
	if err != nil {
		return nil, domain.NewConfigurationFailure(err)
	}

	return config, nil
}

func (c *Config) WhitelistEntries() []addresslist.Entry {
	return c.whitelist
}

func (c *Config) BlacklistEntries() []addresslist.Entry {
	return c.blacklist
}

func (c *Config) validate() error {
	if err := validateNonEmptyStringField(c.ImapHost, "ImapHost must not be empty, set to host:port of the imap server"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.User, "User must not be empty, set to username on the imap server"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.Password, "Password must not be empty, set to password of User on the imap server or set "+EnvPassword); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.Folder, "Folder must not be empty, set to the folder to triage"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.JunkFolder, "JunkFolder must not be empty, set to the folder spam is moved to"); err != nil {
		return err
	}

	if c.OnlyGatherMetrics {
		if err := validateNonEmptyStringField(c.MetricsFile, "MetricsFile must be set if OnlyGatherMetrics is set"); err != nil {
			return err
		}
	}

	if c.MaxMessages < 0 {
		return fmt.Errorf("MaxMessages must not be negative, set to 0 to process all mails")
	}

	if c.Throttle.Duration < 0 {
		return fmt.Errorf("Throttle must not be negative")
	}

	var err error
	c.whitelist, err = addresslist.ParseEntries(c.Whitelist)
	if err != nil {
		return fmt.Errorf("invalid Whitelist: %w", err)
	}
	c.blacklist, err = addresslist.ParseEntries(c.Blacklist)
	if err != nil {
		return fmt.Errorf("invalid Blacklist: %w", err)
	}

	return c.Classifier.validate()
}

func (c *ClassifierConfig) validate() error {
	if c.ContentLimit < 0 {
		return fmt.Errorf("Classifier.ContentLimit must not be negative")
	}
	if c.Timeout.Duration < 0 {
		return fmt.Errorf("Classifier.Timeout must not be negative")
	}

	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI:
		if err := validateNonEmptyStringField(c.ApiKey, "Classifier.ApiKey must be set for "+c.Provider+" or set "+EnvApiKey); err != nil {
			return err
		}
		return validateNonEmptyStringField(c.Model, "Classifier.Model must not be empty")
	case ProviderBedrock:
		if err := validateNonEmptyStringField(c.Region, "Classifier.Region must be set for bedrock"); err != nil {
			return err
		}
		return validateNonEmptyStringField(c.Model, "Classifier.Model must be set to a bedrock model id")
	case ProviderSpamassassin:
		return validateNonEmptyStringField(c.SpamassassinHost, "Classifier.SpamassassinHost must be set for spamassassin")
	}

	return fmt.Errorf("unknown Classifier.Provider %q, use one of %s", c.Provider, strings.Join([]string{ProviderAnthropic, ProviderOpenAI, ProviderBedrock, ProviderSpamassassin}, ", "))
}

func validateNonEmptyStringField(field string, err string) error {
	if len(strings.TrimSpace(field)) == 0 {
		return errors.New(err)
	}

	return nil
}
