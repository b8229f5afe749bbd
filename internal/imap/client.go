package imap

import (
	"fmt"
	"strings"
	"time"

	"netflix-verifybot/internal/mailparse"
	"netflix-verifybot/internal/models"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

type StandardClient struct {
	client  *client.Client
	timeout time.Duration
}

// NewStandardClient creates a new StandardClient with a default timeout of 30 seconds for IMAP operations
func NewStandardClient() *StandardClient {
	return &StandardClient{
		timeout: 30 * time.Second,
	}
}

// Connect establishes a secure connection to the IMAP server using TLS.
// Network failures surface as a ConnectivityError.
func (c *StandardClient) Connect(addr string) error {
	cl, err := client.DialTLS(addr, nil)
	if err != nil {
		return &ConnectivityError{Err: err}
	}
	c.client = cl
	return nil
}

// Login authenticates against the IMAP server. A rejection surfaces as
// an AuthError, which the pipeline treats as fatal.
func (c *StandardClient) Login(user, password string) error {
	if c.client == nil {
		return ErrNotConnected
	}
	if err := c.client.Login(user, password); err != nil {
		return &AuthError{Err: err}
	}
	return nil
}

// SelectMailbox selects the named mailbox for subsequent operations
func (c *StandardClient) SelectMailbox(name string) error {
	if c.client == nil {
		return ErrNotConnected
	}
	_, err := c.client.Select(name, false)
	return err
}

// Noop pings the server; used to detect a session the server dropped
// between polling passes.
func (c *StandardClient) Noop() error {
	if c.client == nil {
		return ErrNotConnected
	}
	return c.client.Noop()
}

// SearchFrom returns the UIDs of all messages in the selected mailbox
// whose From header matches the given sender pattern, in server order.
func (c *StandardClient) SearchFrom(sender string) ([]uint32, error) {
	if c.client == nil {
		return nil, ErrNotConnected
	}

	criteria := goimap.NewSearchCriteria()
	criteria.Header.Add("From", sender)

	uids, err := c.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("searching by sender %q: %w", sender, err)
	}
	return uids, nil
}

// SearchAll returns the UIDs of every message in the selected mailbox
func (c *StandardClient) SearchAll() ([]uint32, error) {
	if c.client == nil {
		return nil, ErrNotConnected
	}

	uids, err := c.client.UidSearch(goimap.NewSearchCriteria())
	if err != nil {
		return nil, fmt.Errorf("listing mailbox: %w", err)
	}
	return uids, nil
}

// FetchEmail retrieves and normalizes the message with the given UID.
// A vanished UID surfaces as a NotFoundError.
func (c *StandardClient) FetchEmail(uid uint32) (*models.Email, error) {
	if c.client == nil {
		return nil, ErrNotConnected
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uid)

	section := &goimap.BodySectionName{}
	items := []goimap.FetchItem{
		section.FetchItem(),
		goimap.FetchInternalDate,
		goimap.FetchFlags,
		goimap.FetchUid,
	}

	prevTimeout := c.client.Timeout
	c.client.Timeout = c.timeout
	defer func() { c.client.Timeout = prevTimeout }()

	messages := make(chan *goimap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- c.client.UidFetch(seqSet, items, messages)
	}()

	var msg *goimap.Message
	for m := range messages {
		msg = m
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetching message UID %d: %w", uid, err)
	}

	if msg == nil {
		return nil, &NotFoundError{UID: uid}
	}

	return mailparse.Parse(msg)
}

// InternalDates fetches the server-side received timestamp for each of
// the given UIDs. UIDs that vanished in the meantime are simply absent
// from the result.
func (c *StandardClient) InternalDates(uids []uint32) (map[uint32]time.Time, error) {
	if c.client == nil {
		return nil, ErrNotConnected
	}
	if len(uids) == 0 {
		return map[uint32]time.Time{}, nil
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uids...)

	items := []goimap.FetchItem{goimap.FetchInternalDate, goimap.FetchUid}

	messages := make(chan *goimap.Message, len(uids))
	done := make(chan error, 1)

	go func() {
		done <- c.client.UidFetch(seqSet, items, messages)
	}()

	dates := make(map[uint32]time.Time, len(uids))
	for m := range messages {
		dates[m.Uid] = m.InternalDate
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetching internal dates: %w", err)
	}

	return dates, nil
}

// Move transfers the message to the destination folder, creating the
// folder on first use. A move that fails because the message vanished
// surfaces as a benign StateError.
func (c *StandardClient) Move(uid uint32, folder string) error {
	if c.client == nil {
		return ErrNotConnected
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uid)

	err := c.client.UidMove(seqSet, folder)
	if err == nil {
		return nil
	}

	// Servers answer NO [TRYCREATE] when the destination is missing.
	if strings.Contains(strings.ToUpper(err.Error()), "TRYCREATE") ||
		strings.Contains(strings.ToLower(err.Error()), "no such mailbox") {
		if createErr := c.client.Create(folder); createErr != nil {
			return fmt.Errorf("creating folder %q: %w", folder, createErr)
		}
		if err = c.client.UidMove(seqSet, folder); err == nil {
			return nil
		}
	}

	if isVanishedErr(err) {
		return &StateError{UID: uid, Err: err}
	}
	return fmt.Errorf("moving UID %d to %q: %w", uid, folder, err)
}

// isVanishedErr reports whether a server rejection means the message no
// longer exists, as opposed to a transport or protocol failure.
func isVanishedErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"not found", "no such message", "does not exist", "expunged", "invalid uid"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Delete permanently expunges the message with the given UID
func (c *StandardClient) Delete(uid uint32) error {
	if c.client == nil {
		return ErrNotConnected
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uid)

	item := goimap.FormatFlagsOp(goimap.AddFlags, true)
	flags := []interface{}{goimap.DeletedFlag}

	if err := c.client.UidStore(seqSet, item, flags, nil); err != nil {
		if isVanishedErr(err) {
			return &StateError{UID: uid, Err: err}
		}
		return fmt.Errorf("flagging UID %d for deletion: %w", uid, err)
	}

	if err := c.client.Expunge(nil); err != nil {
		return fmt.Errorf("expunging UID %d: %w", uid, err)
	}
	return nil
}

// MarkSeen marks the email with the specified UID as seen on the server
func (c *StandardClient) MarkSeen(uid uint32) error {
	if c.client == nil {
		return ErrNotConnected
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uid)

	item := goimap.FormatFlagsOp(goimap.AddFlags, true)
	flags := []interface{}{goimap.SeenFlag}

	return c.client.UidStore(seqSet, item, flags, nil)
}

// Close logs out from the IMAP server and closes the connection
func (c *StandardClient) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Logout()
	c.client = nil
	return err
}
