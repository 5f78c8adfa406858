// SPDX-License-Identifier: GPL-3.0-or-later
package domain

//go:generate mockgen -destination=mocks/imap.go -package=mocks . MailSession
type RawImapMail struct {
	Uid     uint32
	RawMail []byte
}

// MailSession is an authenticated connection to one mailbox. It is owned by a single run and used
// strictly sequentially.
type MailSession interface {
	Select(folder string, readOnly bool) (uint32, error)
	ListUids() ([]uint32, error)
	FetchMail(uid uint32) (*RawImapMail, error)
	Copy(uid uint32, folder string) error
	FlagDeleted(uid uint32) error
	Expunge() error

	// Close closes the selected folder and logs out.
	Close() error
}
