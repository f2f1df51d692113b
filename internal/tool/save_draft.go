package tool

import (
	"context"
	"fmt"

	"github.com/hal9000y/mail-mcp/internal/message"
)

var SaveDraftDescriptor = Descriptor{
	Name:        "save_draft",
	Description: "Save a draft email to the drafts mailbox",
	Params: []Param{
		{Name: "to", Type: "string", Required: true, Description: "Recipient email address"},
		{Name: "subject", Type: "string", Required: true, Description: "Email subject"},
		{Name: "body", Type: "string", Required: true, Description: "Email body content"},
		{Name: "in_reply_to", Type: "string", Description: "Message ID of the email being replied to (optional)"},
	},
}

type saveDraftSvc interface {
	Save(ctx context.Context, raw []byte) (string, error)
}

func NewSaveDraft(svc saveDraftSvc, account string) *SaveDraft {
	return &SaveDraft{
		svc:     svc,
		account: account,
	}
}

type SaveDraft struct {
	svc     saveDraftSvc
	account string
}

func (t *SaveDraft) SaveDraft(ctx context.Context, args Arguments) ([]string, error) {
	out, err := outgoingFromArgs(args)
	if err != nil {
		return nil, err
	}
	out.From = t.account
	if out.InReplyTo, err = args.String("in_reply_to"); err != nil {
		return nil, err
	}

	raw, err := message.Compose(out)
	if err != nil {
		return nil, fmt.Errorf("message.Compose failed: %w", err)
	}

	mailbox, err := t.svc.Save(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("svc.Save failed: %w", err)
	}

	return []string{fmt.Sprintf("✓ Draft saved to %s for %s", mailbox, out.To)}, nil
}
