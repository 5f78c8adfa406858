// SPDX-License-Identifier: GPL-3.0-or-later
package addresslist

import (
	"fmt"
	"strings"

	"github.com/CrawX/go-imap-triage/domain"
)

const wildcardLocalPart = "*"

// Entry is either a complete address or a domain wildcard of the form *@domain.
type Entry struct {
	local  string
	domain string
}

func (e Entry) IsWildcard() bool {
	return e.local == wildcardLocalPart
}

func (e Entry) String() string {
	return e.local + "@" + e.domain
}

// ParseEntry normalizes a configured list entry. Entries must contain exactly one @ with
// non-empty text on both sides.
func ParseEntry(raw string) (Entry, error) {
	local, domain, ok := split(raw)
	if !ok || len(local) == 0 || len(domain) == 0 {
		return Entry{}, fmt.Errorf("invalid address list entry %q, expected user@domain or *@domain", raw)
	}

	return Entry{local: local, domain: domain}, nil
}

func ParseEntries(raw []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		e, err := ParseEntry(r)
		if err != nil {
			return nil, domain.NewConfigurationFailure(err)
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// Matches reports whether address is on the list. Addresses without exactly one @ never match.
func Matches(address string, entries []Entry) bool {
	local, domain, ok := split(address)
	if !ok {
		return false
	}

	for _, e := range entries {
		if e.domain != domain {
			continue
		}
		if e.IsWildcard() || e.local == local {
			return true
		}
	}

	return false
}

func split(address string) (string, string, bool) {
	address = strings.ToLower(strings.TrimSpace(address))
	if strings.Count(address, "@") != 1 {
		return "", "", false
	}

	parts := strings.SplitN(address, "@", 2)
	return parts[0], parts[1], true
}
