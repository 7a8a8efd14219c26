package gmail

import (
	"context"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
)

// Well-known Gmail system label IDs.
const (
	LabelInbox     = "INBOX"
	LabelSent      = "SENT"
	LabelDraft     = "DRAFT"
	LabelTrash     = "TRASH"
	LabelSpam      = "SPAM"
	LabelStarred   = "STARRED"
	LabelUnread    = "UNREAD"
	LabelImportant = "IMPORTANT"
)

// Attachment is an email attachment. Attachments returned by a Client
// are bound to it, so Download works directly.
type Attachment struct {
	ID       string
	Filename string
	MIMEType string
	Size     int64

	messageID string
	client    *Client
}

// Download fetches the attachment content.
func (a *Attachment) Download(ctx context.Context) ([]byte, error) {
	return a.client.DownloadAttachment(ctx, a.messageID, a.ID)
}

// Save downloads the attachment and writes it to path. An empty path
// uses the attachment's filename in the current directory.
func (a *Attachment) Save(ctx context.Context, path string) (string, error) {
	content, err := a.Download(ctx)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = a.Filename
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Message is a Gmail message. Messages returned by a Client are bound
// to it, so the modification methods act on the live mailbox and keep
// the local label set in sync.
type Message struct {
	ID          string
	ThreadID    string
	Subject     string
	From        string
	To          string
	CC          []string
	Date        time.Time
	Snippet     string
	Plain       string
	HTML        string
	Labels      []string
	Attachments []*Attachment

	client *Client
}

// IsUnread reports whether the message carries the UNREAD label.
func (m *Message) IsUnread() bool { return slices.Contains(m.Labels, LabelUnread) }

// IsStarred reports whether the message is starred.
func (m *Message) IsStarred() bool { return slices.Contains(m.Labels, LabelStarred) }

// IsImportant reports whether the message is marked important.
func (m *Message) IsImportant() bool { return slices.Contains(m.Labels, LabelImportant) }

// Body returns the message body, preferring plain text over HTML.
func (m *Message) Body() string {
	if m.Plain != "" {
		return m.Plain
	}
	return m.HTML
}

func (m *Message) addLabel(label string) {
	if !slices.Contains(m.Labels, label) {
		m.Labels = append(m.Labels, label)
	}
}

func (m *Message) removeLabel(label string) {
	m.Labels = slices.DeleteFunc(m.Labels, func(l string) bool { return l == label })
}

// MarkAsRead removes the UNREAD label.
func (m *Message) MarkAsRead(ctx context.Context) error {
	if !m.IsUnread() {
		return nil
	}
	if err := m.client.ModifyLabels(ctx, m.ID, nil, []string{LabelUnread}); err != nil {
		return err
	}
	m.removeLabel(LabelUnread)
	return nil
}

// MarkAsUnread adds the UNREAD label.
func (m *Message) MarkAsUnread(ctx context.Context) error {
	if m.IsUnread() {
		return nil
	}
	if err := m.client.ModifyLabels(ctx, m.ID, []string{LabelUnread}, nil); err != nil {
		return err
	}
	m.addLabel(LabelUnread)
	return nil
}

// Star adds the STARRED label.
func (m *Message) Star(ctx context.Context) error {
	if m.IsStarred() {
		return nil
	}
	if err := m.client.ModifyLabels(ctx, m.ID, []string{LabelStarred}, nil); err != nil {
		return err
	}
	m.addLabel(LabelStarred)
	return nil
}

// Unstar removes the STARRED label.
func (m *Message) Unstar(ctx context.Context) error {
	if !m.IsStarred() {
		return nil
	}
	if err := m.client.ModifyLabels(ctx, m.ID, nil, []string{LabelStarred}); err != nil {
		return err
	}
	m.removeLabel(LabelStarred)
	return nil
}

// MarkImportant adds the IMPORTANT label.
func (m *Message) MarkImportant(ctx context.Context) error {
	if m.IsImportant() {
		return nil
	}
	if err := m.client.ModifyLabels(ctx, m.ID, []string{LabelImportant}, nil); err != nil {
		return err
	}
	m.addLabel(LabelImportant)
	return nil
}

// MarkNotImportant removes the IMPORTANT label.
func (m *Message) MarkNotImportant(ctx context.Context) error {
	if !m.IsImportant() {
		return nil
	}
	if err := m.client.ModifyLabels(ctx, m.ID, nil, []string{LabelImportant}); err != nil {
		return err
	}
	m.removeLabel(LabelImportant)
	return nil
}

// Archive removes the message from the inbox.
func (m *Message) Archive(ctx context.Context) error {
	if err := m.client.ModifyLabels(ctx, m.ID, nil, []string{LabelInbox}); err != nil {
		return err
	}
	m.removeLabel(LabelInbox)
	return nil
}

// MoveToInbox puts the message back in the inbox.
func (m *Message) MoveToInbox(ctx context.Context) error {
	if err := m.client.ModifyLabels(ctx, m.ID, []string{LabelInbox}, nil); err != nil {
		return err
	}
	m.addLabel(LabelInbox)
	return nil
}

// Trash moves the message to the trash.
func (m *Message) Trash(ctx context.Context) error {
	if err := m.client.TrashMessage(ctx, m.ID); err != nil {
		return err
	}
	m.addLabel(LabelTrash)
	return nil
}

// Untrash restores the message from the trash.
func (m *Message) Untrash(ctx context.Context) error {
	if err := m.client.UntrashMessage(ctx, m.ID); err != nil {
		return err
	}
	m.removeLabel(LabelTrash)
	return nil
}

// AddLabel applies a label by name, resolving it through the client's
// label cache.
func (m *Message) AddLabel(ctx context.Context, name string) error {
	labelID, found, err := m.client.LabelID(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewNotFoundError("gmail", "label", name)
	}
	if slices.Contains(m.Labels, labelID) {
		return nil
	}
	if err := m.client.ModifyLabels(ctx, m.ID, []string{labelID}, nil); err != nil {
		return err
	}
	m.addLabel(labelID)
	return nil
}

// RemoveLabel removes a label by name.
func (m *Message) RemoveLabel(ctx context.Context, name string) error {
	labelID, found, err := m.client.LabelID(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewNotFoundError("gmail", "label", name)
	}
	if !slices.Contains(m.Labels, labelID) {
		return nil
	}
	if err := m.client.ModifyLabels(ctx, m.ID, nil, []string{labelID}); err != nil {
		return err
	}
	m.removeLabel(labelID)
	return nil
}

// Reply sends a reply on the message's thread, back to its sender.
func (m *Message) Reply(ctx context.Context, body string, html bool) (*Message, error) {
	subject := m.Subject
	if !strings.HasPrefix(subject, "Re:") {
		subject = "Re: " + subject
	}

	return m.client.Send(ctx, SendOptions{
		To:        []string{m.From},
		Subject:   subject,
		Body:      body,
		HTML:      html,
		ThreadID:  m.ThreadID,
		InReplyTo: m.ID,
	})
}

// Thread is a Gmail conversation.
type Thread struct {
	ID       string
	Messages []*Message
	Snippet  string
}

// Subject returns the subject of the first message.
func (t *Thread) Subject() string {
	if len(t.Messages) == 0 {
		return ""
	}
	return t.Messages[0].Subject
}

// HasUnread reports whether any message in the thread is unread.
func (t *Thread) HasUnread() bool {
	return slices.ContainsFunc(t.Messages, (*Message).IsUnread)
}

// Participants returns the unique sender and recipient addresses.
func (t *Thread) Participants() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, msg := range t.Messages {
		for _, addr := range []string{msg.From, msg.To} {
			if addr == "" {
				continue
			}
			if _, ok := seen[addr]; !ok {
				seen[addr] = struct{}{}
				out = append(out, addr)
			}
		}
	}
	return out
}

// Label is a Gmail label with its message counts.
type Label struct {
	ID             string
	Name           string
	System         bool
	MessagesTotal  int64
	MessagesUnread int64
	ThreadsTotal   int64
	ThreadsUnread  int64
}

// HasUnread reports whether the label has unread messages.
func (l *Label) HasUnread() bool { return l.MessagesUnread > 0 }

// Profile is the authenticated user's mailbox profile.
type Profile struct {
	EmailAddress  string
	MessagesTotal int64
	ThreadsTotal  int64
	HistoryID     uint64
}
