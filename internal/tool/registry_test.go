package tool_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mail-mcp/internal/tool"
)

func echoTool(name string, params ...tool.Param) tool.Tool {
	return tool.Tool{
		Descriptor: tool.Descriptor{Name: name, Params: params},
		Handler: func(_ context.Context, args tool.Arguments) ([]string, error) {
			b, err := json.Marshal(args)
			if err != nil {
				return nil, err
			}
			return []string{string(b)}, nil
		},
	}
}

func TestRegistryCall(t *testing.T) {
	handlerErr := errors.New("mail store unreachable")

	reg, err := tool.NewRegistry(
		echoTool("echo",
			tool.Param{Name: "to", Type: "string", Required: true},
			tool.Param{Name: "tone", Type: "string", Default: "professional"},
			tool.Param{Name: "count", Type: "number", Default: 10},
			tool.Param{Name: "note", Type: "string"},
		),
		tool.Tool{
			Descriptor: tool.Descriptor{Name: "fail"},
			Handler: func(context.Context, tool.Arguments) ([]string, error) {
				return nil, handlerErr
			},
		},
		tool.Tool{
			Descriptor: tool.Descriptor{Name: "panic"},
			Handler: func(context.Context, tool.Arguments) ([]string, error) {
				panic("boom")
			},
		},
	)
	require.NoError(t, err)

	cases := []struct {
		name         string
		tool         string
		args         tool.Arguments
		expected     []string
		expectedErr  string
		expectedType any
	}{
		{
			name:     "defaults_filled",
			tool:     "echo",
			args:     tool.Arguments{"to": "bob@example.com"},
			expected: []string{`{"count":10,"to":"bob@example.com","tone":"professional"}`},
		},
		{
			name:     "supplied_values_kept",
			tool:     "echo",
			args:     tool.Arguments{"to": "a", "tone": "casual", "count": 2.0, "note": "x"},
			expected: []string{`{"count":2,"note":"x","to":"a","tone":"casual"}`},
		},
		{
			name:     "extra_arguments_passed_through",
			tool:     "echo",
			args:     tool.Arguments{"to": "a", "extra": true},
			expected: []string{`{"count":10,"extra":true,"to":"a","tone":"professional"}`},
		},
		{
			name:         "missing_required",
			tool:         "echo",
			args:         tool.Arguments{"tone": "casual"},
			expectedErr:  `missing required parameter "to" for tool echo`,
			expectedType: &tool.MissingParameterError{},
		},
		{
			name:         "null_required_is_missing",
			tool:         "echo",
			args:         tool.Arguments{"to": nil},
			expectedErr:  `missing required parameter "to"`,
			expectedType: &tool.MissingParameterError{},
		},
		{
			name:         "unknown_tool",
			tool:         "unknownTool",
			args:         tool.Arguments{},
			expectedErr:  "unknown tool: unknownTool",
			expectedType: &tool.UnknownToolError{},
		},
		{
			name:         "handler_error",
			tool:         "fail",
			expectedErr:  "mail store unreachable",
			expectedType: &tool.HandlerError{},
		},
		{
			name:         "handler_panic",
			tool:         "panic",
			expectedErr:  "panic: boom",
			expectedType: &tool.HandlerError{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := reg.Call(context.Background(), tc.tool, tc.args)

			if tc.expectedErr != "" {
				require.True(t, res.Failed())
				assert.Contains(t, res.Err.Error(), tc.expectedErr)
				assert.Empty(t, res.Content)

				switch tc.expectedType.(type) {
				case *tool.MissingParameterError:
					var target *tool.MissingParameterError
					require.ErrorAs(t, res.Err, &target)
					assert.Equal(t, "to", target.Param)
				case *tool.UnknownToolError:
					var target *tool.UnknownToolError
					require.ErrorAs(t, res.Err, &target)
					assert.Equal(t, tc.tool, target.Name)
				case *tool.HandlerError:
					var target *tool.HandlerError
					require.ErrorAs(t, res.Err, &target)
					assert.Equal(t, tc.tool, target.Tool)
				}
				return
			}

			require.False(t, res.Failed(), "unexpected error: %v", res.Err)
			assert.Equal(t, tc.expected, res.Content)
		})
	}

	t.Run("handler_error_unwraps", func(t *testing.T) {
		res := reg.Call(context.Background(), "fail", nil)
		assert.ErrorIs(t, res.Err, handlerErr)
	})

	t.Run("registry_survives_failures", func(t *testing.T) {
		_ = reg.Call(context.Background(), "panic", nil)
		res := reg.Call(context.Background(), "echo", tool.Arguments{"to": "a"})
		assert.False(t, res.Failed())
	})
}

func TestRegistryCallDoesNotMutateArguments(t *testing.T) {
	reg, err := tool.NewRegistry(echoTool("echo", tool.Param{Name: "tone", Default: "professional"}))
	require.NoError(t, err)

	args := tool.Arguments{}
	_ = reg.Call(context.Background(), "echo", args)

	assert.Empty(t, args)
}

func TestNewRegistryRejectsInvalidCatalog(t *testing.T) {
	_, err := tool.NewRegistry(echoTool("a"), echoTool("a"))
	assert.Error(t, err)

	_, err = tool.NewRegistry(tool.Tool{Descriptor: tool.Descriptor{Name: "nohandler"}})
	assert.Error(t, err)

	_, err = tool.NewRegistry(echoTool(""))
	assert.Error(t, err)
}

func TestMailRegistryCatalog(t *testing.T) {
	reg, err := tool.NewMailRegistry(tool.Services{})
	require.NoError(t, err)

	list := reg.List()
	names := make([]string, 0, len(list))
	for _, d := range list {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"send_email", "get_unread_emails", "generate_draft_reply", "save_draft"}, names)
	assert.Equal(t, list, reg.List())

	res := reg.Call(context.Background(), "send_email", tool.Arguments{"subject": "s", "body": "b"})
	var missing *tool.MissingParameterError
	require.ErrorAs(t, res.Err, &missing)
	assert.Equal(t, "to", missing.Param)
	assert.Equal(t, "send_email", missing.Tool)
}

func TestDescriptorInputSchema(t *testing.T) {
	cases := []struct {
		name     string
		desc     tool.Descriptor
		valid    []string
		invalid  []string
		required []string
	}{
		{
			name:     "send_email",
			desc:     tool.SendEmailDescriptor,
			valid:    []string{`{"to":"a@b.c","subject":"s","body":"b"}`},
			invalid:  []string{`{"subject":"s","body":"b"}`, `{"to":1,"subject":"s","body":"b"}`},
			required: []string{"to", "subject", "body"},
		},
		{
			name:     "get_unread_emails",
			desc:     tool.GetUnreadEmailsDescriptor,
			valid:    []string{`{}`, `{"max_emails":5}`},
			invalid:  []string{`{"max_emails":"five"}`},
			required: []string{},
		},
		{
			name:     "generate_draft_reply",
			desc:     tool.GenerateDraftReplyDescriptor,
			valid:    []string{`{"email_from":"a","email_subject":"s","email_body":"b","email_date":"d","tone":"casual"}`},
			invalid:  []string{`{"email_from":"a","email_subject":"s","email_body":"b"}`},
			required: []string{"email_from", "email_subject", "email_body", "email_date"},
		},
		{
			name:     "save_draft",
			desc:     tool.SaveDraftDescriptor,
			valid:    []string{`{"to":"a","subject":"s","body":"b"}`, `{"to":"a","subject":"s","body":"b","in_reply_to":"<x@y>"}`},
			invalid:  []string{`{"to":"a","subject":"s"}`},
			required: []string{"to", "subject", "body"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			schema := tc.desc.InputSchema()
			assert.Equal(t, "object", schema.Type)
			assert.Equal(t, tc.required, schema.Required)
			assert.Len(t, schema.Properties, len(tc.desc.Params))

			raw, err := json.Marshal(schema)
			require.NoError(t, err)

			compiler := sjsonschema.NewCompiler()
			require.NoError(t, compiler.AddResource("schema.json", bytes.NewReader(raw)))
			compiled, err := compiler.Compile("schema.json")
			require.NoError(t, err)

			for _, doc := range tc.valid {
				assert.NoError(t, compiled.Validate(decode(t, doc)), doc)
			}
			for _, doc := range tc.invalid {
				assert.Error(t, compiled.Validate(decode(t, doc)), doc)
			}
		})
	}
}

func TestInputSchemaDefaults(t *testing.T) {
	schema := tool.GenerateDraftReplyDescriptor.InputSchema()
	assert.JSONEq(t, `"professional"`, string(schema.Properties["tone"].Default))
	assert.JSONEq(t, `""`, string(schema.Properties["additional_context"].Default))

	schema = tool.GetUnreadEmailsDescriptor.InputSchema()
	assert.JSONEq(t, `10`, string(schema.Properties["max_emails"].Default))
}

func decode(t *testing.T, doc string) any {
	t.Helper()

	var v any
	require.NoError(t, json.Unmarshal([]byte(doc), &v))
	return v
}
