package tool

import (
	"context"
	"fmt"

	"github.com/hal9000y/mail-mcp/internal/message"
)

var SendEmailDescriptor = Descriptor{
	Name:        "send_email",
	Description: "Send an email",
	Params: []Param{
		{Name: "to", Type: "string", Required: true, Description: "Recipient email address"},
		{Name: "subject", Type: "string", Required: true, Description: "Email subject"},
		{Name: "body", Type: "string", Required: true, Description: "Email body content"},
	},
}

type sendEmailSvc interface {
	Send(ctx context.Context, from string, to []string, raw []byte) error
}

func NewSendEmail(svc sendEmailSvc, account string) *SendEmail {
	return &SendEmail{
		svc:     svc,
		account: account,
	}
}

type SendEmail struct {
	svc     sendEmailSvc
	account string
}

func (t *SendEmail) SendEmail(ctx context.Context, args Arguments) ([]string, error) {
	out, err := outgoingFromArgs(args)
	if err != nil {
		return nil, err
	}
	out.From = t.account

	rcpts, err := out.Recipients()
	if err != nil {
		return nil, fmt.Errorf("out.Recipients failed: %w", err)
	}

	raw, err := message.Compose(out)
	if err != nil {
		return nil, fmt.Errorf("message.Compose failed: %w", err)
	}

	if err := t.svc.Send(ctx, t.account, rcpts, raw); err != nil {
		return nil, fmt.Errorf("svc.Send failed: %w", err)
	}

	return []string{fmt.Sprintf("✓ Email sent to %s", out.To)}, nil
}

func outgoingFromArgs(args Arguments) (message.Outgoing, error) {
	var (
		out message.Outgoing
		err error
	)
	if out.To, err = args.String("to"); err != nil {
		return out, err
	}
	if out.Subject, err = args.String("subject"); err != nil {
		return out, err
	}
	if out.Body, err = args.String("body"); err != nil {
		return out, err
	}
	return out, nil
}
