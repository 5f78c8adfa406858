// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CrawX/go-imap-triage/log"
	"github.com/CrawX/go-imap-triage/metrics"

	"github.com/sirupsen/logrus"
)

// triage-report compares metrics files written in evaluation mode against a hand labelled ground
// truth in the same format.
func main() {
	log.InitLogging("info")
	logger := log.Logger(log.LOG_METRICS)

	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <groundtruth.csv> <predicted.csv>...\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	truth, err := metrics.ReadFile(os.Args[1])
	if err != nil {
		logger.WithField("error", err).Fatal("Could not read ground truth")
	}

	evaluations := []*metrics.Evaluation{}
	for _, path := range os.Args[2:] {
		predictions, err := metrics.ReadFile(path)
		if err != nil {
			logger.WithField("error", err).Fatal("Could not read predictions")
		}
		if len(predictions) != len(truth) {
			logger.WithFields(logrus.Fields{
				"file":        path,
				"predictions": len(predictions),
				"truth":       len(truth),
			}).Warn("Row counts differ, rows are compared by position")
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		evaluations = append(evaluations, metrics.Evaluate(name, predictions, truth))
	}

	fmt.Println("Accuracy Analysis:")
	fmt.Println("------------------")
	for _, e := range evaluations {
		e.Print(os.Stdout)
	}

	fmt.Println("\nConclusion:")
	fmt.Printf("%s appears to be the most accurate in predicting spam emails.\n", metrics.Best(evaluations).Name)
}
