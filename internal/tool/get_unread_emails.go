package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/hal9000y/mail-mcp/internal/message"
)

const defaultMaxEmails = 10

// NoUnreadText is returned when the inbox has no unseen messages.
const NoUnreadText = "No unread emails found."

var GetUnreadEmailsDescriptor = Descriptor{
	Name:        "get_unread_emails",
	Description: "Fetch unread emails from the inbox",
	Params: []Param{
		{
			Name:        "max_emails",
			Type:        "number",
			Default:     defaultMaxEmails,
			Description: "Maximum number of unread emails to fetch (default: 10)",
		},
	},
}

type getUnreadEmailsSvc interface {
	FetchUnread(ctx context.Context, maxCount int) ([]message.Message, error)
}

func NewGetUnreadEmails(svc getUnreadEmailsSvc) *GetUnreadEmails {
	return &GetUnreadEmails{
		svc: svc,
	}
}

type GetUnreadEmails struct {
	svc getUnreadEmailsSvc
}

func (t *GetUnreadEmails) GetUnreadEmails(ctx context.Context, args Arguments) ([]string, error) {
	maxEmails, err := args.Int("max_emails")
	if err != nil {
		return nil, err
	}

	msgs, err := t.svc.FetchUnread(ctx, maxEmails)
	if err != nil {
		return nil, fmt.Errorf("svc.FetchUnread failed: %w", err)
	}

	return []string{RenderUnread(msgs)}, nil
}

// RenderUnread formats messages as numbered sections, or NoUnreadText when
// there are none.
func RenderUnread(msgs []message.Message) string {
	if len(msgs) == 0 {
		return NoUnreadText
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d unread email(s):\n\n", len(msgs))
	for i, m := range msgs {
		fmt.Fprintf(&b, "--- Email %d ---\n", i+1)
		fmt.Fprintf(&b, "From: %s\n", m.From)
		fmt.Fprintf(&b, "Subject: %s\n", m.Subject)
		fmt.Fprintf(&b, "Date: %s\n", m.Date)
		fmt.Fprintf(&b, "Message-ID: %s\n", m.MessageID)
		fmt.Fprintf(&b, "Body:\n%s\n\n", m.Body)
	}

	return b.String()
}
