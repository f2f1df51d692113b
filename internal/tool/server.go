package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Services are the collaborators behind the four mail tools.
type Services struct {
	// Account is the sender address stamped on outgoing mail and drafts.
	Account   string
	Sender    sendEmailSvc
	Reader    getUnreadEmailsSvc
	Generator generateDraftReplySvc
	MaxTokens int
	Drafts    saveDraftSvc
}

// NewMailRegistry creates the registry of mail tools.
func NewMailRegistry(svc Services) (*Registry, error) {
	return NewRegistry(
		Tool{Descriptor: SendEmailDescriptor, Handler: NewSendEmail(svc.Sender, svc.Account).SendEmail},
		Tool{Descriptor: GetUnreadEmailsDescriptor, Handler: NewGetUnreadEmails(svc.Reader).GetUnreadEmails},
		Tool{Descriptor: GenerateDraftReplyDescriptor, Handler: NewGenerateDraftReply(svc.Generator, svc.MaxTokens).GenerateDraftReply},
		Tool{Descriptor: SaveDraftDescriptor, Handler: NewSaveDraft(svc.Drafts, svc.Account).SaveDraft},
	)
}

// NewServer creates an MCP server exposing every tool of reg.
func NewServer(reg *Registry) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "email-server", Version: "1.0.0"}, nil)

	for _, d := range reg.List() {
		server.AddTool(&mcp.Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema(),
		}, reg.handle)
	}

	return server
}

func (r *Registry) handle(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := ParseArguments(req.Params.Arguments)
	if err != nil {
		return toCallToolResult(Result{Err: err}), nil
	}

	return toCallToolResult(r.Call(ctx, req.Params.Name, args)), nil
}

func toCallToolResult(res Result) *mcp.CallToolResult {
	if res.Failed() {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: res.Err.Error()}},
			IsError: true,
		}
	}

	content := make([]mcp.Content, 0, len(res.Content))
	for _, text := range res.Content {
		content = append(content, &mcp.TextContent{Text: text})
	}

	return &mcp.CallToolResult{Content: content}
}
