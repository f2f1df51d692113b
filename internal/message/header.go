package message

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/quotedprintable"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

var encodedWordRe = regexp.MustCompile(`=\?([^?\s]+)\?([bBqQ])\?([^?\s]*)\?=`)

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// DecodeHeader decodes RFC 2047 encoded words found in a raw header value.
// Literal text is kept as is. A word that cannot be decoded under its declared
// charset is decoded as UTF-8 instead, so the result is always usable text.
func DecodeHeader(raw string) string {
	if raw == "" {
		return ""
	}
	raw = unfold(raw)

	matches := encodedWordRe.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return raw
	}

	var b strings.Builder
	prevEnd := 0
	for i, m := range matches {
		literal := raw[prevEnd:m[0]]
		// whitespace separating two encoded words is not part of the text
		if i == 0 || strings.TrimSpace(literal) != "" {
			b.WriteString(literal)
		}
		b.WriteString(decodeWord(raw[m[0]:m[1]], raw[m[4]:m[5]], raw[m[6]:m[7]]))
		prevEnd = m[1]
	}
	b.WriteString(raw[prevEnd:])

	return b.String()
}

func decodeWord(word, encoding, payload string) string {
	if decoded, err := wordDecoder.Decode(word); err == nil {
		return strings.ToValidUTF8(decoded, "\uFFFD")
	}

	data, err := decodePayload(encoding, payload)
	if err != nil {
		return word
	}

	return strings.ToValidUTF8(string(data), "\uFFFD")
}

func decodePayload(encoding, payload string) ([]byte, error) {
	if strings.EqualFold(encoding, "b") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		return data, nil
	}

	return io.ReadAll(quotedprintable.NewReader(strings.NewReader(strings.ReplaceAll(payload, "_", " "))))
}

// charsetReader resolves a charset through the IANA registry. Unknown charsets
// are read as UTF-8.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	// RFC 2231 language suffix, e.g. "utf-8*en"
	if idx := strings.IndexByte(charset, '*'); idx != -1 {
		charset = charset[:idx]
	}
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return input, nil
	}

	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return input, nil
	}

	return transform.NewReader(input, enc.NewDecoder()), nil
}

func unfold(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}

	return strings.NewReplacer("\r\n", "", "\n", "", "\r", "").Replace(s)
}
