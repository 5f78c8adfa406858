// SPDX-License-Identifier: GPL-3.0-or-later
package metrics

import (
	"fmt"
	"io"

	"github.com/CrawX/go-imap-triage/domain"
)

// Evaluation compares a prediction file with a hand labelled ground truth. Rows are paired by
// position, only SPAM and FINE take part in the confusion counts.
type Evaluation struct {
	Name string

	Total   int
	Correct int

	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

func Evaluate(name string, predictions, truth []Record) *Evaluation {
	e := &Evaluation{
		Name:  name,
		Total: len(truth),
	}

	n := len(predictions)
	if len(truth) < n {
		n = len(truth)
	}

	for i := 0; i < n; i++ {
		p, g := predictions[i].Status, truth[i].Status
		if p == g {
			e.Correct++
		}

		switch {
		case p == domain.VerdictSpam && g == domain.VerdictSpam:
			e.TruePositives++
		case p == domain.VerdictSpam && g == domain.VerdictFine:
			e.FalsePositives++
		case p == domain.VerdictFine && g == domain.VerdictFine:
			e.TrueNegatives++
		case p == domain.VerdictFine && g == domain.VerdictSpam:
			e.FalseNegatives++
		}
	}

	return e
}

func (e *Evaluation) Accuracy() float64 {
	return ratio(e.Correct, e.Total)
}

func (e *Evaluation) Precision() float64 {
	return ratio(e.TruePositives, e.TruePositives+e.FalsePositives)
}

func (e *Evaluation) Recall() float64 {
	return ratio(e.TruePositives, e.TruePositives+e.FalseNegatives)
}

func (e *Evaluation) F1() float64 {
	p, r := e.Precision(), e.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func (e *Evaluation) Print(w io.Writer) {
	fmt.Fprintf(w, "\n%s:\n", e.Name)
	fmt.Fprintf(w, "Accuracy: %.2f%%\n", 100*e.Accuracy())
	fmt.Fprintf(w, "Precision: %.2f%%\n", 100*e.Precision())
	fmt.Fprintf(w, "Recall: %.2f%%\n", 100*e.Recall())
	fmt.Fprintf(w, "F1 Score: %.2f%%\n", 100*e.F1())
	fmt.Fprintf(w, "\nConfusion Matrix:\n")
	fmt.Fprintf(w, "True Positives (SPAM correctly identified): %d\n", e.TruePositives)
	fmt.Fprintf(w, "False Positives (FINE incorrectly marked as SPAM): %d\n", e.FalsePositives)
	fmt.Fprintf(w, "True Negatives (FINE correctly identified): %d\n", e.TrueNegatives)
	fmt.Fprintf(w, "False Negatives (SPAM incorrectly marked as FINE): %d\n", e.FalseNegatives)
}

// Best returns the evaluation with the highest accuracy, the first one on ties. nil for no input.
func Best(evaluations []*Evaluation) *Evaluation {
	var best *Evaluation
	for _, e := range evaluations {
		if best == nil || e.Accuracy() > best.Accuracy() {
			best = e
		}
	}
	return best
}
