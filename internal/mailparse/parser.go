package mailparse

import (
	"io"
	"mime"
	"regexp"

	"netflix-verifybot/internal/models"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

var (
	addressRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	linkRe    = regexp.MustCompile(`https?://[^\s"'<>)\]]+`)
)

// Parse normalizes a raw IMAP message into a models.Email: decoded
// headers, plain and HTML bodies, internal date, seen flag, and a fresh
// trace ID for log correlation.
func Parse(msg *imap.Message) (*models.Email, error) {
	section := &imap.BodySectionName{}
	r := msg.GetBody(section)
	if r == nil {
		return nil, io.EOF
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, err
	}

	email := &models.Email{
		UID:          msg.Uid,
		InternalDate: msg.InternalDate,
		TraceID:      uuid.New().String(),
	}

	for _, flag := range msg.Flags {
		if flag == imap.SeenFlag {
			email.Seen = true
			break
		}
	}

	header := mr.Header

	email.From = extractEmailAddress(header.Get("From"))

	if toList, err := header.AddressList("To"); err == nil {
		for _, addr := range toList {
			email.To = append(email.To, addr.Address)
		}
		if len(toList) > 0 {
			email.ToPrimary = toList[0].Address
		}
	}

	decodedSubject, err := DecodeHeader(header.Get("Subject"))
	if err != nil {
		return nil, err
	}
	email.Subject = decodedSubject

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, err := h.ContentType()
			if err != nil {
				continue
			}
			switch contentType {
			case "text/plain":
				body, err := io.ReadAll(p.Body)
				if err != nil {
					continue
				}
				email.BodyText = string(body)
			case "text/html":
				body, err := io.ReadAll(p.Body)
				if err != nil {
					continue
				}
				email.BodyHTML = string(body)
			}
		}
	}

	return email, nil
}

// Simple regex to extract email address from "From" header, which may contain name and email
func extractEmailAddress(fromHeader string) string {
	return addressRe.FindString(fromHeader)
}

// DecodeHeader decodes MIME-encoded headers (e.g., "=?UTF-8?B?...?=") to plain text
func DecodeHeader(encoded string) (string, error) {
	decoder := new(mime.WordDecoder)
	decoded, err := decoder.DecodeHeader(encoded)
	if err != nil {
		return "", err
	}
	return decoded, nil
}

// ExtractLinks uses a regex to find all URLs in the given text
func ExtractLinks(text string) []string {
	return linkRe.FindAllString(text, -1)
}
