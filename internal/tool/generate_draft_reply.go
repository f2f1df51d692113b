package tool

import (
	"context"
	"fmt"
	"strings"
)

const defaultTone = "professional"

var GenerateDraftReplyDescriptor = Descriptor{
	Name:        "generate_draft_reply",
	Description: "Generate an AI-powered draft reply to an email",
	Params: []Param{
		{Name: "email_from", Type: "string", Required: true, Description: "The sender of the email to reply to"},
		{Name: "email_subject", Type: "string", Required: true, Description: "The subject of the email to reply to"},
		{Name: "email_body", Type: "string", Required: true, Description: "The body of the email to reply to"},
		{Name: "email_date", Type: "string", Required: true, Description: "The date of the email to reply to"},
		{
			Name:        "tone",
			Type:        "string",
			Default:     defaultTone,
			Description: "The tone of the reply (e.g., professional, casual, friendly)",
		},
		{
			Name:        "additional_context",
			Type:        "string",
			Default:     "",
			Description: "Additional context or instructions for the reply",
		},
	},
}

type generateDraftReplySvc interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

func NewGenerateDraftReply(svc generateDraftReplySvc, maxTokens int) *GenerateDraftReply {
	return &GenerateDraftReply{
		svc:       svc,
		maxTokens: maxTokens,
	}
}

type GenerateDraftReply struct {
	svc       generateDraftReplySvc
	maxTokens int
}

// ReplyRequest holds the email being answered and how to answer it.
type ReplyRequest struct {
	From              string
	Subject           string
	Date              string
	Body              string
	Tone              string
	AdditionalContext string
}

func (t *GenerateDraftReply) GenerateDraftReply(ctx context.Context, args Arguments) ([]string, error) {
	var (
		req ReplyRequest
		err error
	)
	fields := []struct {
		name string
		dst  *string
	}{
		{"email_from", &req.From},
		{"email_subject", &req.Subject},
		{"email_body", &req.Body},
		{"email_date", &req.Date},
		{"tone", &req.Tone},
		{"additional_context", &req.AdditionalContext},
	}
	for _, f := range fields {
		if *f.dst, err = args.String(f.name); err != nil {
			return nil, err
		}
	}
	if req.Tone == "" {
		req.Tone = defaultTone
	}

	draft, err := t.svc.Generate(ctx, BuildReplyPrompt(req), t.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("svc.Generate failed: %w", err)
	}

	return []string{fmt.Sprintf("Generated Draft Reply:\n\n%s\n\n(Tone: %s)", draft, req.Tone)}, nil
}

// BuildReplyPrompt renders the instruction sent to the text generator.
func BuildReplyPrompt(req ReplyRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are helping draft a reply to an email. Generate a %s response.\n\n", req.Tone)
	b.WriteString("Original Email:\n")
	fmt.Fprintf(&b, "From: %s\n", req.From)
	fmt.Fprintf(&b, "Subject: %s\n", req.Subject)
	fmt.Fprintf(&b, "Date: %s\n\n", req.Date)
	fmt.Fprintf(&b, "Body:\n%s\n\n", req.Body)
	if req.AdditionalContext != "" {
		fmt.Fprintf(&b, "Additional Context: %s\n\n", req.AdditionalContext)
	}
	fmt.Fprintf(&b, "Please generate a clear, concise, and %s reply to this email. ", req.Tone)
	b.WriteString(`Only provide the email body text, without any subject line or greetings like "Dear [Name]" unless specifically needed for the context.`)

	return b.String()
}
