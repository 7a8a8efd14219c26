package gmail

import (
	"encoding/base64"
	"net/mail"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
)

// ParseMessage converts a raw API message into a Message. When
// includeBody is false only headers and metadata are extracted.
func ParseMessage(data *gmailapi.Message, includeBody bool) *Message {
	msg := &Message{
		ID:       data.Id,
		ThreadID: data.ThreadId,
		Snippet:  data.Snippet,
		Labels:   data.LabelIds,
	}
	if msg.ThreadID == "" {
		msg.ThreadID = data.Id
	}

	if data.Payload != nil {
		msg.Subject = headerValue(data.Payload.Headers, "Subject")
		msg.From = headerValue(data.Payload.Headers, "From")
		msg.To = headerValue(data.Payload.Headers, "To")
		msg.CC = splitAddresses(headerValue(data.Payload.Headers, "Cc"))
		msg.Date = parseDate(headerValue(data.Payload.Headers, "Date"), data.InternalDate)

		if includeBody {
			walkPayload(data.Payload, msg)
		}
	}

	return msg
}

// ParseLabel converts a raw API label into a Label.
func ParseLabel(data *gmailapi.Label) *Label {
	name := data.Name
	if name == "" {
		name = data.Id
	}
	return &Label{
		ID:             data.Id,
		Name:           name,
		System:         data.Type == "system",
		MessagesTotal:  data.MessagesTotal,
		MessagesUnread: data.MessagesUnread,
		ThreadsTotal:   data.ThreadsTotal,
		ThreadsUnread:  data.ThreadsUnread,
	}
}

// headerValue finds a header by case-insensitive name.
func headerValue(headers []*gmailapi.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func splitAddresses(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, addr := range strings.Split(value, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// parseDate prefers the RFC 5322 Date header and falls back to the
// server-side internal timestamp (epoch milliseconds).
func parseDate(header string, internalDate int64) time.Time {
	if header != "" {
		if t, err := mail.ParseDate(header); err == nil {
			return t
		}
	}
	if internalDate > 0 {
		return time.UnixMilli(internalDate)
	}
	return time.Time{}
}

// walkPayload recurses through the MIME part tree collecting the first
// plain and HTML bodies and any attachments.
func walkPayload(part *gmailapi.MessagePart, msg *Message) {
	if part == nil {
		return
	}

	if part.Body != nil && part.Body.Data != "" {
		if decoded, err := decodeWebSafe(part.Body.Data); err == nil {
			switch {
			case part.MimeType == "text/plain" && msg.Plain == "":
				msg.Plain = string(decoded)
			case part.MimeType == "text/html" && msg.HTML == "":
				msg.HTML = string(decoded)
			}
		}
	}

	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		msg.Attachments = append(msg.Attachments, &Attachment{
			ID:        part.Body.AttachmentId,
			Filename:  part.Filename,
			MIMEType:  part.MimeType,
			Size:      part.Body.Size,
			messageID: msg.ID,
		})
	}

	for _, sub := range part.Parts {
		walkPayload(sub, msg)
	}
}

// decodeWebSafe decodes URL-safe base64 with or without padding.
func decodeWebSafe(data string) ([]byte, error) {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.RawURLEncoding.DecodeString(data)
}
