package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/hal9000y/mail-mcp/internal/message"
)

const inbox = "INBOX"

// NewReader creates a Reader that opens a session per call through dialer.
func NewReader(dialer Dialer) *Reader {
	return &Reader{dialer: dialer}
}

// Reader fetches unseen inbox messages.
type Reader struct {
	dialer Dialer
}

// FetchUnread returns up to maxCount unseen inbox messages, in the order the
// store's search returned them. The inbox is opened read-only, so no message
// is marked as seen.
func (r *Reader) FetchUnread(ctx context.Context, maxCount int) ([]message.Message, error) {
	if maxCount < 1 {
		return nil, fmt.Errorf("max count must be positive, got %d", maxCount)
	}

	sess, err := r.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dialer.Dial failed: %w", err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.Println(fmt.Errorf("sess.Close failed: %w", closeErr))
		}
	}()

	if err := sess.Select(inbox, true); err != nil {
		return nil, fmt.Errorf("sess.Select(%s) failed: %w", inbox, err)
	}

	ids, err := sess.SearchUnseen()
	if err != nil {
		return nil, fmt.Errorf("sess.SearchUnseen failed: %w", err)
	}
	if len(ids) == 0 {
		return []message.Message{}, nil
	}
	if len(ids) > maxCount {
		ids = ids[:maxCount]
	}

	raws, err := sess.Fetch(ids)
	if err != nil {
		return nil, fmt.Errorf("sess.Fetch failed: %w", err)
	}

	msgs := make([]message.Message, 0, len(ids))
	for _, id := range ids {
		raw, ok := raws[id]
		if !ok {
			// expunged between SEARCH and FETCH
			log.Printf("message %d missing from fetch response\n", id)
			continue
		}
		msgs = append(msgs, message.Normalize(strconv.FormatUint(uint64(id), 10), raw))
	}

	return msgs, nil
}

// ErrNoDraftsMailbox is returned when no drafts mailbox accepted the message.
var ErrNoDraftsMailbox = errors.New("no drafts mailbox accepted the message")

// NewDrafts creates a Drafts store that tries mailboxes in order.
func NewDrafts(dialer Dialer, mailboxes ...string) *Drafts {
	seen := make(map[string]bool, len(mailboxes))
	names := make([]string, 0, len(mailboxes))
	for _, m := range mailboxes {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		names = append(names, m)
	}

	return &Drafts{dialer: dialer, mailboxes: names}
}

// Drafts saves messages into the store's drafts mailbox.
type Drafts struct {
	dialer    Dialer
	mailboxes []string
}

// Save appends raw with the \Draft flag to the first mailbox that accepts it
// and returns that mailbox's name.
func (d *Drafts) Save(ctx context.Context, raw []byte) (string, error) {
	if len(d.mailboxes) == 0 {
		return "", ErrNoDraftsMailbox
	}

	sess, err := d.dialer.Dial(ctx)
	if err != nil {
		return "", fmt.Errorf("dialer.Dial failed: %w", err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.Println(fmt.Errorf("sess.Close failed: %w", closeErr))
		}
	}()

	var errs []error
	for _, mailbox := range d.mailboxes {
		err := sess.Append(mailbox, raw, []string{DraftFlag})
		if err == nil {
			return mailbox, nil
		}
		errs = append(errs, fmt.Errorf("sess.Append(%s) failed: %w", mailbox, err))
	}

	return "", errors.Join(append([]error{ErrNoDraftsMailbox}, errs...)...)
}
