// SPDX-License-Identifier: GPL-3.0-or-later
package triage

import (
	"fmt"
	"time"

	"github.com/CrawX/go-imap-triage/addresslist"
)

const (
	DefaultFolder     = "INBOX"
	DefaultJunkFolder = "Junk"
	DefaultThrottle   = 250 * time.Millisecond
)

type ConfigFunc func(c *configuration) error

// Evaluate switches to evaluation mode: the folder is opened read-only and one metrics record per
// mail is written to metricsFile instead of moving spam.
func Evaluate(metricsFile string) ConfigFunc {
	return func(c *configuration) error {
		if len(metricsFile) == 0 {
			return fmt.Errorf("MetricsFile cannot be null")
		}

		c.Evaluate = true
		c.MetricsFile = metricsFile
		return nil
	}
}

func Folder(folder string) ConfigFunc {
	return func(c *configuration) error {
		if len(folder) == 0 {
			return fmt.Errorf("Folder cannot be null")
		}

		c.Folder = folder
		return nil
	}
}

func JunkFolder(folder string) ConfigFunc {
	return func(c *configuration) error {
		if len(folder) == 0 {
			return fmt.Errorf("JunkFolder cannot be null")
		}

		c.JunkFolder = folder
		return nil
	}
}

func Whitelist(entries []addresslist.Entry) ConfigFunc {
	return func(c *configuration) error {
		c.Whitelist = entries
		return nil
	}
}

func Blacklist(entries []addresslist.Entry) ConfigFunc {
	return func(c *configuration) error {
		c.Blacklist = entries
		return nil
	}
}

// MaxMessages caps the number of mails processed per run, 0 means no cap.
func MaxMessages(max int) ConfigFunc {
	return func(c *configuration) error {
		if max < 0 {
			return fmt.Errorf("MaxMessages cannot be negative")
		}

		c.MaxMessages = max
		return nil
	}
}

func Throttle(delay time.Duration) ConfigFunc {
	return func(c *configuration) error {
		if delay < 0 {
			return fmt.Errorf("Throttle cannot be negative")
		}

		c.Throttle = delay
		return nil
	}
}

type configuration struct {
	Evaluate    bool
	MetricsFile string

	Folder     string
	JunkFolder string

	Whitelist []addresslist.Entry
	Blacklist []addresslist.Entry

	MaxMessages int
	Throttle    time.Duration
}

func defaultConfiguration() *configuration {
	return &configuration{
		Folder:     DefaultFolder,
		JunkFolder: DefaultJunkFolder,
		Throttle:   DefaultThrottle,
	}
}
