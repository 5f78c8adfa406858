// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

//go:generate mockgen -destination=client_mocks_test.go -package=imapconnection -source imap.go
import (
	"fmt"
	"io/ioutil"

	"github.com/CrawX/go-imap-triage/domain"
	"github.com/CrawX/go-imap-triage/log"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"
)

// imapClient is the part of *client.Client the session uses.
type imapClient interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	UidCopy(seqset *imap.SeqSet, dest string) error
	UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
	Expunge(ch chan uint32) error
	Close() error
	Logout() error
}

type ImapConnection struct {
	connection imapClient

	server         string
	selectedFolder string

	l *logrus.Logger
}

// NewImapConnection dials and authenticates. useTLS=false dials plain text, which is only
// meant for local bridges and tests.
func NewImapConnection(server string, user string, password string, useTLS bool) (*ImapConnection, error) {
	var imapClient *client.Client
	var err error
	if useTLS {
		imapClient, err = client.DialTLS(server, nil)
	} else {
		imapClient, err = client.Dial(server)
	}
	if err != nil {
		return nil, domain.NewTransportFailure(0, fmt.Errorf("could not dial to imap: %w", err))
	}

	err = imapClient.Login(user, password)
	if err != nil {
		_ = imapClient.Logout()
		return nil, fmt.Errorf("could not login to imap: %w", err)
	}

	conn := newImapConnection(imapClient, server)
	conn.l.WithFields(logrus.Fields{"server": server}).Debug("Logged in to server")

	return conn, nil
}

func newImapConnection(imapClient imapClient, server string) *ImapConnection {
	return &ImapConnection{
		connection: imapClient,
		server:     server,
		l:          log.Logger(log.LOG_IMAP),
	}
}

func (ic *ImapConnection) Select(folder string, readOnly bool) (uint32, error) {
	m, err := ic.connection.Select(folder, readOnly)
	if err != nil {
		return 0, fmt.Errorf("could not select folder %s: %w", folder, err)
	}
	ic.selectedFolder = folder

	if !readOnly {
		err = ic.warnPreviouslyDeleted()
		if err != nil {
			return 0, err
		}
	}

	return m.UidValidity, nil
}

// warnPreviouslyDeleted logs mails that already carry the deleted flag. EXPUNGE removes everything
// that has the flag set, not only the mails this run flagged.
func (ic *ImapConnection) warnPreviouslyDeleted() error {
	criteria := imap.NewSearchCriteria()
	criteria.WithFlags = []string{imap.DeletedFlag}
	ids, err := ic.connection.UidSearch(criteria)
	if err != nil {
		return fmt.Errorf("could not search for deleted in folder: %w", err)
	}

	if len(ids) > 0 {
		ic.l.WithFields(logrus.Fields{
			"folder": ic.selectedFolder,
			"count":  len(ids),
		}).Warn("Folder has mails with deleted flag set, they will be expunged as well")
	}

	return nil
}

func (ic *ImapConnection) ListUids() ([]uint32, error) {
	// Get all UIDs in folder (empty search criteria)
	criteria := imap.NewSearchCriteria()
	ids, err := ic.connection.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not list folder: %w", err)
	}

	return ids, nil
}

func (ic *ImapConnection) FetchMail(uid uint32) (*domain.RawImapMail, error) {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uid)

	// peek, triage must not mark mails as read
	fullBodySection := &imap.BodySectionName{
		Peek: true,
	}
	fetchItems := []imap.FetchItem{imap.FetchUid, fullBodySection.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.UidFetch(seqset, fetchItems, messages)
	}()

	var mail *domain.RawImapMail
	var readErr error
	for msg := range messages {
		// drain the channel even after an error so UidFetch can return
		if mail != nil || readErr != nil {
			continue
		}

		r := msg.GetBody(fullBodySection)
		if r == nil {
			readErr = fmt.Errorf("server returned no body for mail %d", uid)
			continue
		}
		rawBody, err := ioutil.ReadAll(r)
		if err != nil {
			readErr = fmt.Errorf("could not read mail body: %w", err)
			continue
		}

		mail = &domain.RawImapMail{
			Uid:     uid,
			RawMail: rawBody,
		}
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not fetch mail %d: %w", uid, err)
	}
	if readErr != nil {
		return nil, readErr
	}
	if mail == nil {
		return nil, fmt.Errorf("mail %d not found in %s", uid, ic.selectedFolder)
	}

	return mail, nil
}

func (ic *ImapConnection) Copy(uid uint32, folder string) error {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uid)
	err := ic.connection.UidCopy(seqset, folder)
	if err != nil {
		return fmt.Errorf("could not copy mail %d to %s: %w", uid, folder, err)
	}

	return nil
}

func (ic *ImapConnection) FlagDeleted(uid uint32) error {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uid)
	err := ic.connection.UidStore(seqset, imap.FormatFlagsOp(imap.AddFlags, true), []interface{}{imap.DeletedFlag}, nil)
	if err != nil {
		return fmt.Errorf("could not set deleted flag on mail %d: %w", uid, err)
	}

	return nil
}

func (ic *ImapConnection) Expunge() error {
	err := ic.connection.Expunge(nil)
	if err != nil {
		return fmt.Errorf("could not expunge %s: %w", ic.selectedFolder, err)
	}

	return nil
}

func (ic *ImapConnection) Close() error {
	var closeErr error
	if len(ic.selectedFolder) > 0 {
		closeErr = ic.connection.Close()
		ic.selectedFolder = ""
	}

	err := ic.connection.Logout()
	if err != nil {
		return fmt.Errorf("could not logout: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("could not close folder: %w", closeErr)
	}

	ic.l.WithFields(logrus.Fields{"server": ic.server}).Debug("Logged out")
	return nil
}
