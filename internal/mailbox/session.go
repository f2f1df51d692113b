// Package mailbox reads unseen messages from, and appends drafts to, a mail
// store through short-lived sessions.
package mailbox

import "context"

// DraftFlag marks an appended message as a draft.
const DraftFlag = `\Draft`

// Session is one authenticated connection to the mail store.
type Session interface {
	// Select opens a mailbox. A read-only selection never changes flags.
	Select(mailbox string, readOnly bool) error
	// SearchUnseen returns identifiers of unseen messages in the store's order.
	SearchUnseen() ([]uint32, error)
	// Fetch returns the full raw content of each message, keyed by identifier,
	// without setting the \Seen flag.
	Fetch(ids []uint32) (map[uint32][]byte, error)
	Append(mailbox string, raw []byte, flags []string) error
	Close() error
}

// Dialer opens new sessions. Every call returns a fresh, logged in session.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}
