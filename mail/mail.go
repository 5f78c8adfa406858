// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"bufio"
	"bytes"
	"io"
	"io/ioutil"
	"mime"
	"strings"

	"github.com/CrawX/go-imap-triage/domain"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Parser turns raw RFC 5322 mails into messages ready for triage. Parsing never fails: anything
// that cannot be decoded is passed on as raw text.
type Parser struct {
	l *logrus.Logger
}

func NewParser(l *logrus.Logger) *Parser {
	return &Parser{l: l}
}

func (p *Parser) ParseMessage(uid uint32, rawMail []byte) *domain.Message {
	msg := &domain.Message{Uid: uid}

	br := bufio.NewReader(bytes.NewReader(rawMail))
	header, err := textproto.ReadHeader(br)
	if err != nil {
		p.l.WithFields(logrus.Fields{"uid": uid, "error": err}).Warn("Could not parse mail header, using raw mail as body")
		msg.Body = strings.TrimSpace(sanitize(rawMail))
		return msg
	}

	msg.Subject = p.decodeHeader(header.Get("Subject"))
	msg.Sender = p.decodeHeader(header.Get("From"))
	msg.Address = SenderAddress(header.Get("From"))
	msg.Body = p.ExtractText(header, br)

	return msg
}

// ExtractText returns the plain text of a mail. Multipart mails contribute the text/plain parts
// in order; a single part mail is returned whatever its content type. The result is trimmed.
func (p *Parser) ExtractText(header textproto.Header, body io.Reader) string {
	h := message.Header{Header: header}
	mediaType, params, err := h.ContentType()
	if err == nil && strings.HasPrefix(mediaType, "multipart/") {
		return strings.TrimSpace(p.extractMultipart(body, params["boundary"]))
	}

	return strings.TrimSpace(p.decodePart(header, body))
}

func (p *Parser) extractMultipart(body io.Reader, boundary string) string {
	sb := strings.Builder{}

	mr := textproto.NewMultipartReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.l.WithField("error", err).Debug("Could not read next mail part, keeping text collected so far")
			break
		}

		partHeader := message.Header{Header: part.Header}
		mediaType, params, err := partHeader.ContentType()
		if err != nil {
			// Parts without a parseable type default to text/plain
			mediaType = "text/plain"
		}

		switch {
		case strings.HasPrefix(mediaType, "multipart/"):
			sb.WriteString(p.extractMultipart(part, params["boundary"]))
		case mediaType == "text/plain":
			sb.WriteString(p.decodePart(part.Header, part))
		}
	}

	return sb.String()
}

// decodePart undoes the transfer encoding and charset of a leaf part, falling back to the raw
// payload if either cannot be decoded.
func (p *Parser) decodePart(header textproto.Header, body io.Reader) string {
	raw, err := ioutil.ReadAll(body)
	if err != nil && len(raw) == 0 {
		p.l.WithField("error", domain.NewContentDecodingFailure(err)).Debug("Could not read mail part")
		return ""
	}

	entity, err := message.New(message.Header{Header: header}, bytes.NewReader(raw))
	if err != nil {
		p.l.WithField("error", domain.NewContentDecodingFailure(err)).Debug("Falling back to raw mail part")
		return sanitize(raw)
	}

	decoded, err := ioutil.ReadAll(entity.Body)
	if err != nil {
		p.l.WithField("error", domain.NewContentDecodingFailure(err)).Debug("Falling back to raw mail part")
		return sanitize(raw)
	}

	return sanitize(decoded)
}

func (p *Parser) decodeHeader(value string) string {
	dec := &mime.WordDecoder{
		CharsetReader: charset.Reader,
	}
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		p.l.WithFields(logrus.Fields{"header": value, "error": err}).Debug("Could not decode header, using it verbatim")
		return strings.TrimSpace(value)
	}

	return strings.TrimSpace(decoded)
}

// SenderAddress extracts the bare address from a From header like "Jane <jane@example.com>". If
// the header is not a valid address the trimmed header is returned so matching fails closed.
func SenderAddress(from string) string {
	addr, err := gomail.ParseAddress(from)
	if err != nil {
		return strings.TrimSpace(from)
	}

	return addr.Address
}

func ShortSubject(subject string) string {
	r := []rune(subject)
	if len(r) > 30 {
		subject = string(r[:30]) + "..."
	}
	return subject
}

func sanitize(b []byte) string {
	s, _, err := transform.String(runes.ReplaceIllFormed(), string(b))
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return s
}
