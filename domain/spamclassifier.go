// SPDX-License-Identifier: GPL-3.0-or-later

//go:generate mockgen -destination=mocks/spamclassifier.go -package=mocks . SpamClassifier
package domain

import "context"

// SpamResult is either a verdict (Error == nil) or a failure. A failed result never reports spam.
type SpamResult struct {
	IsSpam bool
	Error  error
}

type SpamClassifier interface {
	Check(ctx context.Context, text string) *SpamResult
}
