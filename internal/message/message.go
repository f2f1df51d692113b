// Package message turns raw RFC 5322 messages into plain text records and
// builds outbound messages.
package message

// Message is a normalized mail message. It is built once per fetched message
// and never modified afterwards.
type Message struct {
	// ID is the mail store's identifier for the message within one session.
	ID        string `json:"id"`
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	// Body is FullBody with quoted history and signature removed.
	Body     string `json:"body"`
	FullBody string `json:"full_body"`
}
