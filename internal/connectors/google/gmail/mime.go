package gmail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
)

// SendOptions describes an outgoing email.
type SendOptions struct {
	To      []string
	CC      []string
	BCC     []string
	Subject string
	Body    string
	// HTML marks the body as text/html instead of text/plain.
	HTML bool
	// ThreadID threads the message into an existing conversation.
	ThreadID string
	// InReplyTo is the ID of the message being replied to; it sets the
	// In-Reply-To and References headers for client-side threading.
	InReplyTo string
}

// buildRawMessage assembles an RFC 5322 message and encodes it in the
// web-safe base64 form the Gmail API expects in Message.Raw.
func buildRawMessage(opts SendOptions) string {
	var b strings.Builder

	writeHeader(&b, "To", strings.Join(opts.To, ", "))
	if len(opts.CC) > 0 {
		writeHeader(&b, "Cc", strings.Join(opts.CC, ", "))
	}
	if len(opts.BCC) > 0 {
		writeHeader(&b, "Bcc", strings.Join(opts.BCC, ", "))
	}
	writeHeader(&b, "Subject", mime.QEncoding.Encode("utf-8", opts.Subject))
	if opts.InReplyTo != "" {
		writeHeader(&b, "In-Reply-To", "<"+opts.InReplyTo+">")
		writeHeader(&b, "References", "<"+opts.InReplyTo+">")
	}
	writeHeader(&b, "MIME-Version", "1.0")
	contentType := "text/plain"
	if opts.HTML {
		contentType = "text/html"
	}
	writeHeader(&b, "Content-Type", contentType+`; charset="UTF-8"`)
	b.WriteString("\r\n")
	b.WriteString(opts.Body)

	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}

func writeHeader(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "%s: %s\r\n", name, value)
}
