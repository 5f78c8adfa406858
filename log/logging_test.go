// SPDX-License-Identifier: GPL-3.0-or-later
package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestPrefixFormatter(t *testing.T) {
	logger := logrus.New()
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)
	logger.Formatter = NewPrefixFormatter(LOG_TRIAGE)

	logger.WithField("verdict", "SPAM").Info("Triaged mail")
	assert.Regexp(t, `^TR:\t.*msg="Triaged mail" verdict=SPAM`, buf.String())
}

func TestLogger(t *testing.T) {
	InitLogging("warn")
	assert.Equal(t, logrus.WarnLevel, Logger(LOG_IMAP).Level)

	SetLogLevel("debug")
	for _, prefix := range prefixes {
		assert.Equal(t, logrus.DebugLevel, Logger(prefix).Level)
	}

	assert.Panics(t, func() { Logger("XX") })
}

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, getLevel("unknown"))
	assert.Equal(t, logrus.ErrorLevel, getLevel("ERROR"))
}
