package message

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	gomessage "github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"

	"github.com/hal9000y/mail-mcp/internal/format"
)

const (
	mediaTextPlain = "text/plain"
	mediaTextHTML  = "text/html"

	mediaMessageRFC822 = "message/rfc822"
)

var errBodyFound = errors.New("body found")

// Normalize parses a raw message fetched under id into a Message.
// It never fails: parts that cannot be decoded degrade to best-effort text.
func Normalize(id string, raw []byte) Message {
	msg := Message{ID: id}

	entity, err := gomessage.Read(bytes.NewReader(raw))
	if entity == nil {
		log.Println(fmt.Errorf("message %s: gomessage.Read failed: %w", id, err))
		msg.FullBody = toText(rawBody(raw))
		msg.Body = format.ExtractReply(msg.FullBody)
		return msg
	}

	msg.From = DecodeHeader(entity.Header.Get("From"))
	msg.Subject = DecodeHeader(entity.Header.Get("Subject"))
	msg.Date = DecodeHeader(entity.Header.Get("Date"))
	msg.MessageID = strings.TrimSpace(entity.Header.Get("Message-Id"))

	if strings.HasPrefix(mediaType(entity.Header), "multipart/") {
		msg.FullBody = multipartBody(id, entity, raw)
	} else {
		msg.FullBody = singleBody(entity, raw)
	}
	msg.Body = format.ExtractReply(msg.FullBody)

	return msg
}

// multipartBody returns the first inline text/plain part in depth-first order,
// descending into inline message/rfc822 parts. An inline text/html part is
// flattened to text when no plain part exists. A multipart message whose parts
// cannot be read at all falls back to its raw body.
func multipartBody(id string, entity *gomessage.Entity, raw []byte) string {
	var c bodyCandidates
	err := c.walk(id, entity)
	if err != nil && !errors.Is(err, errBodyFound) {
		log.Println(fmt.Errorf("message %s: entity.Walk failed: %w", id, err))
	}

	if c.found {
		return c.plain
	}
	if c.html != "" {
		return format.HTML2Text(c.html)
	}
	if err != nil && c.parts == 0 {
		return toText(rawBody(raw))
	}

	return ""
}

type bodyCandidates struct {
	plain string
	found bool
	html  string
	// parts counts the non-root parts visited
	parts int
}

func (c *bodyCandidates) walk(id string, entity *gomessage.Entity) error {
	return entity.Walk(func(path []int, part *gomessage.Entity, err error) error {
		if part == nil || (err != nil && !decodeAnomaly(err)) {
			return nil
		}
		if len(path) > 0 {
			c.parts++
		}
		if isAttachment(part.Header) {
			return nil
		}

		switch mediaType(part.Header) {
		case mediaTextPlain:
			data, readErr := io.ReadAll(part.Body)
			if readErr != nil && len(data) == 0 {
				log.Println(fmt.Errorf("message %s: read text/plain part failed: %w", id, readErr))
				return nil
			}
			c.plain = toText(data)
			c.found = true
			return errBodyFound
		case mediaTextHTML:
			if c.html != "" {
				return nil
			}
			data, _ := io.ReadAll(part.Body)
			c.html = toText(data)
		case mediaMessageRFC822:
			data, _ := io.ReadAll(part.Body)
			inner, _ := gomessage.Read(bytes.NewReader(data))
			if inner == nil {
				return nil
			}
			if innerErr := c.walk(id, inner); errors.Is(innerErr, errBodyFound) {
				return errBodyFound
			}
		}

		return nil
	})
}

func singleBody(entity *gomessage.Entity, raw []byte) string {
	data, err := io.ReadAll(entity.Body)
	if err != nil && len(data) == 0 {
		return toText(rawBody(raw))
	}

	text := toText(data)
	if mediaType(entity.Header) == mediaTextHTML {
		return format.HTML2Text(text)
	}

	return text
}

func mediaType(h gomessage.Header) string {
	if h.Get("Content-Type") == "" {
		return mediaTextPlain
	}

	t, _, err := h.ContentType()
	if err != nil {
		return mediaTextPlain
	}

	return strings.ToLower(t)
}

func isAttachment(h gomessage.Header) bool {
	disp, _, err := h.ContentDisposition()
	if err != nil {
		return strings.Contains(strings.ToLower(h.Get("Content-Disposition")), "attachment")
	}

	return strings.EqualFold(disp, "attachment")
}

func decodeAnomaly(err error) bool {
	return gomessage.IsUnknownCharset(err) || gomessage.IsUnknownEncoding(err)
}

// rawBody returns everything after the header block.
func rawBody(raw []byte) []byte {
	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx != -1 {
		return raw[idx+4:]
	}
	if idx := bytes.Index(raw, []byte("\n\n")); idx != -1 {
		return raw[idx+2:]
	}

	return raw
}

func toText(data []byte) string {
	text := strings.ToValidUTF8(string(data), "\uFFFD")
	return strings.ReplaceAll(text, "\r\n", "\n")
}
