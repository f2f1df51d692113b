package message

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Outgoing describes a plain text message to be sent or saved as a draft.
type Outgoing struct {
	From    string
	To      string
	Subject string
	Body    string
	// InReplyTo is the Message-ID of the message being answered, if any.
	InReplyTo string
	Date      time.Time
}

// Recipients returns the bare addresses of the To field.
func (o Outgoing) Recipients() ([]string, error) {
	addrs, err := mail.ParseAddressList(sanitizeHeaderValue(o.To))
	if err != nil {
		return nil, fmt.Errorf("mail.ParseAddressList(%q) failed: %w", o.To, err)
	}

	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Address)
	}

	return out, nil
}

// Compose renders o as an RFC 5322 message with a single text/plain body.
func Compose(o Outgoing) ([]byte, error) {
	var h mail.Header

	setAddressHeader(&h, "From", o.From)
	setAddressHeader(&h, "To", o.To)
	h.SetSubject(sanitizeHeaderValue(o.Subject))

	date := o.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)

	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("h.GenerateMessageID failed: %w", err)
	}

	if ref := sanitizeHeaderValue(strings.TrimSpace(o.InReplyTo)); ref != "" {
		ref = "<" + strings.Trim(ref, "<>") + ">"
		h.Set("In-Reply-To", ref)
		h.Set("References", ref)
	}

	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("mail.CreateSingleInlineWriter failed: %w", err)
	}
	if _, err := w.Write([]byte(o.Body)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("w.Write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("w.Close failed: %w", err)
	}

	return buf.Bytes(), nil
}

func setAddressHeader(h *mail.Header, key, value string) {
	value = sanitizeHeaderValue(value)
	if value == "" {
		return
	}

	if addrs, err := mail.ParseAddressList(value); err == nil && len(addrs) > 0 {
		h.SetAddressList(key, addrs)
		return
	}

	h.Set(key, value)
}

// sanitizeHeaderValue strips CR and LF so header values cannot inject fields.
func sanitizeHeaderValue(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
