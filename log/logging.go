// SPDX-License-Identifier: GPL-3.0-or-later
package log

import (
	"fmt"
	"io/ioutil"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggers   map[string]*logrus.Logger
	loggersMu sync.Mutex
)

func NewPrefixFormatter(prefix string) *PrefixFormatter {
	stringPrefix := fmt.Sprintf("%s:\t", prefix)

	formatter := &logrus.TextFormatter{}
	formatter.FullTimestamp = true
	formatter.TimestampFormat = "15:04:05"
	formatter.DisableColors = strings.Contains(runtime.GOOS, "windows")
	return &PrefixFormatter{
		formatter,
		[]byte(stringPrefix),
	}
}

type PrefixFormatter struct {
	formatter logrus.Formatter
	prefix    []byte
}

func (f *PrefixFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	text, err := f.formatter.Format(entry)
	if err != nil {
		return nil, err
	}
	return append(f.prefix, text...), nil
}

const (
	LOG_MAIN       = "MA"
	LOG_TRIAGE     = "TR"
	LOG_CLASSIFIER = "CL"
	LOG_IMAP       = "IM"
	LOG_METRICS    = "ME"
)

var prefixes = []string{
	LOG_MAIN,
	LOG_TRIAGE,
	LOG_CLASSIFIER,
	LOG_IMAP,
	LOG_METRICS,
}

func getLevel(loglevel string) logrus.Level {
	switch strings.ToLower(loglevel) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "panic":
		return logrus.PanicLevel
	case "fatal":
		return logrus.FatalLevel
	}

	// Info is default
	return logrus.InfoLevel
}

func initLogger(prefix, loglevel string) {
	loggers[prefix] = logrus.New()
	loggers[prefix].Level = getLevel(loglevel)
	loggers[prefix].Formatter = NewPrefixFormatter(prefix)
}

func InitLogging(loglevel string) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	loggers = make(map[string]*logrus.Logger)
	for _, prefix := range prefixes {
		initLogger(prefix, loglevel)
	}
}

func SetLogLevel(loglevel string) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	for _, v := range loggers {
		v.Level = getLevel(loglevel)
	}
}

// Logger returns the logger registered for prefix. Packages ask for their logger in constructors,
// so tests that never call InitLogging get a silent logger instead of a panic.
func Logger(prefix string) *logrus.Logger {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if loggers == nil {
		return NullLogger()
	}

	l, ok := loggers[prefix]
	if !ok {
		panic("Logger " + prefix + " unknown")
	}

	return l
}

func NullLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)
	return logger
}
