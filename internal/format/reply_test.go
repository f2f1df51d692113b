package format_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hal9000y/mail-mcp/internal/format"
)

func TestExtractReply(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "attribution_then_quote",
			body:     "Thanks!\n\nOn Jan 1, Alice wrote:\n> old text",
			expected: "Thanks!",
		},
		{
			name:     "quote_block_without_attribution",
			body:     "Sounds good.\n> did you get the file?\n> it is attached\nmore after quote",
			expected: "Sounds good.",
		},
		{
			name:     "indented_quote",
			body:     "Reply text\n  > quoted",
			expected: "Reply text",
		},
		{
			name:     "signature_delimiter",
			body:     "See you tomorrow.\nBob\n-- \nBob Smith\nACME Corp",
			expected: "See you tomorrow.\nBob",
		},
		{
			name:     "quote_before_signature",
			body:     "Yes.\n> question?\n-- \nsig",
			expected: "Yes.",
		},
		{
			name:     "attribution_case_insensitive",
			body:     "ok\nON TUE, 2 JAN 2024 BOB <bob@example.com> WROTE:\nhistory",
			expected: "ok",
		},
		{
			name:     "wrapped_attribution",
			body:     "Will do.\n\nOn Mon, Jan 1, 2024 at 10:00 AM Alice Example <alice@example.com>\nwrote:\n\nold text",
			expected: "Will do.",
		},
		{
			name:     "sentence_ending_in_wrote_is_text",
			body:     "On Monday the plan\nthat you wrote:\nis fine",
			expected: "On Monday the plan\nthat you wrote:\nis fine",
		},
		{
			name:     "crlf_line_endings",
			body:     "Hello\r\n\r\nOn Jan 1, Alice wrote:\r\n> old",
			expected: "Hello",
		},
		{
			name:     "double_dash_without_space_is_text",
			body:     "a\n--\nb",
			expected: "a\n--\nb",
		},
		{
			name:     "quote_on_first_line",
			body:     "> only history",
			expected: "",
		},
		{
			name:     "blank_lines_trimmed",
			body:     "\n\n  Hi there  \n\n\n",
			expected: "Hi there",
		},
		{
			name:     "empty",
			body:     "",
			expected: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, format.ExtractReply(tc.body))
		})
	}
}

func TestExtractReplyWithoutMarkersKeepsBody(t *testing.T) {
	bodies := []string{
		"Just one line",
		"Line one\nLine two\n\nParagraph two",
		"\n\nIndented  \n  text with  trailing spaces   \n",
		"Prices went up > 5% this week",
		"I wrote: nothing important",
		"On Monday the plan\nthat you wrote:\nis fine",
	}

	for _, body := range bodies {
		assert.Equal(t, strings.TrimSpace(body), format.ExtractReply(body), "body %q", body)
	}
}

func TestExtractReplyNeverKeepsQuotedLines(t *testing.T) {
	bodies := []string{
		"top\n> q1\n> q2\nbottom reply",
		"a\nb\n>c\nd\n>e",
		"x\n\n> quoted\n\nlater text",
	}

	for _, body := range bodies {
		got := format.ExtractReply(body)
		assert.NotContains(t, got, ">", "body %q", body)

		first := strings.Index(body, "\n>")
		assert.Equal(t, strings.TrimSpace(body[:first]), got, "body %q", body)
	}
}
