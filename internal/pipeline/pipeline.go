package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"netflix-verifybot/internal/browser"
	imapclient "netflix-verifybot/internal/imap"
	"netflix-verifybot/internal/logging"
	"netflix-verifybot/internal/models"
	"netflix-verifybot/internal/netflix"
	"netflix-verifybot/internal/notify"
	"netflix-verifybot/internal/retry"

	"github.com/sirupsen/logrus"
)

const inboxFolder = "INBOX"

// disposition is the mailbox-state transition an outcome maps to
type disposition int

const (
	dispLeave    disposition = iota // stays in the inbox, retried next pass
	dispMove                        // handled, goes to the processed folder
	dispMarkSeen                    // left in the inbox for manual review
)

// Pipeline is the single-worker polling loop: fetch candidates,
// classify, extract, confirm in the browser, transition mailbox state,
// notify, and housekeep the processed folder. It owns the IMAP session
// for the lifetime of a run.
type Pipeline struct {
	client    imapclient.Client
	rules     *netflix.Rules
	browser   browser.Browser
	notifier  notify.Notifier
	cfg       *models.Config
	now       func() time.Time
	connected bool
}

// New wires a Pipeline from its collaborators
func New(client imapclient.Client, rules *netflix.Rules, b browser.Browser, notifier notify.Notifier, cfg *models.Config) *Pipeline {
	return &Pipeline{
		client:   client,
		rules:    rules,
		browser:  b,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run polls until the context is canceled or an unrecoverable mailbox
// failure occurs. Cancellation is honored between steps only;
// a graceful stop returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	defer func() {
		if err := p.client.Close(); err != nil {
			logging.Log.WithError(err).Warn("Error closing IMAP session")
		}
	}()

	for {
		if err := p.ensureSession(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		p.runPass(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.cfg.App.CheckInterval):
		}
	}
}

// ensureSession reuses the existing IMAP session when the server still
// answers, and reconnects otherwise. Connectivity failures are retried
// with bounded exponential backoff; an authentication rejection is
// fatal immediately.
func (p *Pipeline) ensureSession(ctx context.Context) error {
	if p.connected {
		if err := p.client.Noop(); err == nil {
			return nil
		}
		logging.Log.Warn("IMAP session lost, reconnecting")
		p.dropSession()
	}

	policy := retry.Policy{
		MaxAttempts: p.cfg.App.MaxRetryAttempts,
		BaseDelay:   p.cfg.App.CheckInterval,
		Multiplier:  2,
	}

	err := policy.Do(ctx, func() error {
		if err := p.client.Connect(p.cfg.Email.Addr()); err != nil {
			logging.Log.WithError(err).Error("IMAP connection error")
			return err
		}
		if err := p.client.Login(p.cfg.Email.Address, p.cfg.Email.Password); err != nil {
			_ = p.client.Close()
			var authErr *imapclient.AuthError
			if errors.As(err, &authErr) {
				return retry.Permanent(err)
			}
			logging.Log.WithError(err).Error("IMAP login error")
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.connected = true
	logging.Log.Infof("Connected to %s as %s", p.cfg.Email.Addr(), p.cfg.Email.Address)
	return nil
}

func (p *Pipeline) dropSession() {
	_ = p.client.Close()
	p.connected = false
}

// runPass executes one polling pass: process inbox candidates, then
// housekeep the processed folder. A session-level failure drops the
// session so the next pass reconnects; one message's failure never
// aborts the batch.
func (p *Pipeline) runPass(ctx context.Context) {
	if err := p.client.SelectMailbox(inboxFolder); err != nil {
		logging.Log.WithError(err).Error("Folder selection error")
		p.dropSession()
		return
	}

	uids, err := p.client.SearchFrom(p.rules.SenderDomain)
	if err != nil {
		logging.Log.WithError(err).Error("Error searching for candidate emails")
		p.dropSession()
		return
	}

	for _, uid := range uids {
		if ctx.Err() != nil {
			return
		}
		p.processMessage(ctx, uid)
	}

	p.housekeep()
}

// processMessage handles one candidate UID through fetch, classify,
// extract, confirm, and the resulting mailbox-state transition. Each
// message is touched at most once per pass.
func (p *Pipeline) processMessage(ctx context.Context, uid uint32) {
	email, err := p.client.FetchEmail(uid)
	if err != nil {
		var notFound *imapclient.NotFoundError
		if errors.As(err, &notFound) {
			logging.Log.Infof("Message UID %d vanished before fetch, skipping", uid)
			return
		}
		logging.Log.WithError(err).Errorf("Error fetching email UID %d", uid)
		return
	}

	locallog := logging.Log.WithField("trace_id", email.TraceID)

	classification := p.rules.Classify(email)
	if classification == models.ClassIrrelevant {
		locallog.Infof("Email from %s not a known Netflix template, leaving untouched", email.From)
		return
	}

	if email.Seen {
		// Read template messages past the retention window have been
		// dealt with; park them in the processed folder so the inbox
		// stays clean.
		if p.age(email) > p.cfg.App.Retention {
			p.moveToProcessed(uid, locallog, "aged read message")
			return
		}
		// Already skipped on an earlier pass; awaiting manual review.
		locallog.Debugf("Message UID %d already reviewed, skipping", uid)
		return
	}

	locallog.Infof("Processing %s email for %s", classification, email.ToPrimary)

	outcome, disp := p.handle(ctx, classification, email)
	p.report(locallog, email, classification, outcome)

	switch disp {
	case dispMove:
		p.moveToProcessed(uid, locallog, outcome.Status.String())
	case dispMarkSeen:
		if err := p.client.MarkSeen(uid); err != nil {
			locallog.WithError(err).Warnf("Error marking message UID %d as seen", uid)
		}
	case dispLeave:
		// Automation failed after retries: the message stays unread in
		// the inbox and the next pass tries again.
	}
}

// handle runs extraction and the browser action for one classified
// email and maps the result to an outcome plus mailbox disposition.
func (p *Pipeline) handle(ctx context.Context, classification models.Classification, email *models.Email) (models.Outcome, disposition) {
	action, err := p.rules.Extract(classification, email)
	if err != nil {
		return models.Skipped(err.Error()), dispMarkSeen
	}

	switch classification {
	case models.ClassAccessCode:
		// The code sits in the email body itself; no browser needed.
		return models.ConfirmedCode(action.Code), dispMove

	case models.ClassTravelVerification:
		var code string
		err := p.automationPolicy().Do(ctx, func() error {
			c, ferr := p.browser.FetchCode(action.URL, email.TraceID)
			if ferr != nil {
				return retryableAutomation(ferr)
			}
			code = c
			return nil
		})
		if err != nil {
			return p.automationOutcome(err)
		}
		return models.ConfirmedCode(code), dispMove

	default: // models.ClassLocationConfirmation
		err := p.automationPolicy().Do(ctx, func() error {
			if cerr := p.browser.Confirm(action.URL, email.TraceID); cerr != nil {
				return retryableAutomation(cerr)
			}
			return nil
		})
		if err != nil {
			return p.automationOutcome(err)
		}
		return models.Confirmed(), dispMove
	}
}

func (p *Pipeline) automationPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: p.cfg.App.MaxRetryAttempts,
		BaseDelay:   time.Second,
		Multiplier:  2,
	}
}

// retryableAutomation marks terminal browser failures permanent so the
// retry policy does not re-drive a link that can never succeed.
func retryableAutomation(err error) error {
	var autoErr *browser.AutomationError
	if errors.As(err, &autoErr) && autoErr.Reason == browser.ReasonLinkExpired {
		return retry.Permanent(err)
	}
	return err
}

// automationOutcome maps an exhausted or terminal automation error to
// the message's outcome and disposition.
func (p *Pipeline) automationOutcome(err error) (models.Outcome, disposition) {
	var autoErr *browser.AutomationError
	if errors.As(err, &autoErr) {
		if autoErr.Reason == browser.ReasonLinkExpired {
			// Nothing actionable remains on an expired link.
			return models.Skipped(string(browser.ReasonLinkExpired)), dispMove
		}
		return models.Failed(string(autoErr.Reason)), dispLeave
	}
	return models.Failed(err.Error()), dispLeave
}

// report logs one terminal outcome and mirrors it to the notifier
func (p *Pipeline) report(locallog *logrus.Entry, email *models.Email, classification models.Classification, outcome models.Outcome) {
	summary := fmt.Sprintf("%s email %q: %s", classification, email.Subject, outcome.Status)
	if outcome.Reason != "" {
		summary += " (" + outcome.Reason + ")"
	}
	if outcome.Code != "" {
		summary += ", verification code " + outcome.Code
	}

	switch outcome.Status {
	case models.OutcomeConfirmed:
		locallog.Info(summary)
	default:
		locallog.Warn(summary)
	}

	p.notifier.Notify(summary)
}

// moveToProcessed transfers a message to the processed folder. A
// concurrent-vanish is benign: another client already took care of it.
func (p *Pipeline) moveToProcessed(uid uint32, locallog *logrus.Entry, reason string) {
	err := p.client.Move(uid, p.cfg.App.GelesenFolder)
	if err == nil {
		locallog.Infof("Message UID %d moved to %s (%s)", uid, p.cfg.App.GelesenFolder, reason)
		return
	}

	var stateErr *imapclient.StateError
	if errors.As(err, &stateErr) {
		locallog.Infof("Message UID %d already moved or gone, skipping", uid)
		return
	}
	locallog.WithError(err).Errorf("Error moving message UID %d to %s", uid, p.cfg.App.GelesenFolder)
}

// housekeep deletes processed messages that have sat in the processed
// folder strictly longer than the retention window. Messages exactly at
// the window boundary are not yet eligible.
func (p *Pipeline) housekeep() {
	if err := p.client.SelectMailbox(p.cfg.App.GelesenFolder); err != nil {
		// Nothing has been processed yet, so the folder may not exist.
		logging.Log.WithError(err).Debugf("Skipping housekeeping, cannot select %s", p.cfg.App.GelesenFolder)
		return
	}

	uids, err := p.client.SearchAll()
	if err != nil {
		logging.Log.WithError(err).Warn("Housekeeping search failed")
		return
	}
	if len(uids) == 0 {
		return
	}

	dates, err := p.client.InternalDates(uids)
	if err != nil {
		logging.Log.WithError(err).Warn("Housekeeping date fetch failed")
		return
	}

	for _, uid := range uids {
		date, ok := dates[uid]
		if !ok || date.IsZero() {
			continue
		}
		if p.now().Sub(date) <= p.cfg.App.Retention {
			continue
		}
		if err := p.client.Delete(uid); err != nil {
			logging.Log.WithError(err).Warnf("Error deleting aged message UID %d", uid)
			continue
		}
		logging.Log.Infof("Deleted aged message UID %d from %s", uid, p.cfg.App.GelesenFolder)
	}
}

func (p *Pipeline) age(email *models.Email) time.Duration {
	if email.InternalDate.IsZero() {
		return 0
	}
	return p.now().Sub(email.InternalDate)
}
