// SPDX-License-Identifier: GPL-3.0-or-later
package domain

type Message struct {
	Uid uint32
	// Sender is the decoded From header as it appears in the mail, e.g. "Jane <jane@example.com>".
	Sender string
	// Address is the bare address parsed from Sender, used for list matching.
	Address string
	Subject string
	Body    string
}

type Verdict string

const (
	VerdictWhite = Verdict("WHITE")
	VerdictBlack = Verdict("BLACK")
	VerdictSpam  = Verdict("SPAM")
	VerdictFine  = Verdict("FINE")
	VerdictEmpty = Verdict("EMPTY")
)

var Verdicts = []Verdict{VerdictWhite, VerdictBlack, VerdictSpam, VerdictFine, VerdictEmpty}

// IsSpam reports whether the verdict moves the mail to junk and counts towards the spam total.
func (v Verdict) IsSpam() bool {
	return v == VerdictBlack || v == VerdictSpam
}

func (v Verdict) Valid() bool {
	for _, known := range Verdicts {
		if v == known {
			return true
		}
	}
	return false
}

func (v Verdict) String() string {
	return string(v)
}
