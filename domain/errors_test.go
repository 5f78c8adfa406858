// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailure_Category(t *testing.T) {
	tests := []struct {
		status   int
		category string
		hint     bool
	}{
		{0, "unclassified", false},
		{400, "bad request", true},
		{401, "invalid credential", true},
		{429, "rate limited", true},
		{500, "unclassified", false},
		{529, "unclassified", false},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			f := NewTransportFailure(tc.status, errors.New("boom"))
			assert.Equal(t, tc.category, f.Category())
			assert.Equal(t, tc.hint, len(f.Hint()) > 0)
		})
	}
}

func TestFailure_Error(t *testing.T) {
	assert.Equal(t, "transport failure (429 rate limited): slow down", NewTransportFailure(429, errors.New("slow down")).Error())
	assert.Equal(t, "validation failure: bad reply", NewValidationFailure(errors.New("bad reply")).Error())
}

func TestIsKind(t *testing.T) {
	cause := errors.New("cause")
	wrapped := fmt.Errorf("could not classify: %w", NewValidationFailure(cause))

	assert.True(t, IsKind(wrapped, ValidationFailure))
	assert.False(t, IsKind(wrapped, TransportFailure))
	assert.False(t, IsKind(cause, ValidationFailure))
	assert.False(t, IsKind(nil, ValidationFailure))
	assert.True(t, errors.Is(wrapped, cause))
}

func TestVerdict(t *testing.T) {
	assert.True(t, VerdictBlack.IsSpam())
	assert.True(t, VerdictSpam.IsSpam())
	assert.False(t, VerdictWhite.IsSpam())
	assert.False(t, VerdictFine.IsSpam())
	assert.False(t, VerdictEmpty.IsSpam())

	assert.True(t, VerdictEmpty.Valid())
	assert.False(t, Verdict("MAYBE").Valid())
}
