// Package gmail provides a high-level Gmail client: search with a
// composable query builder, message and thread retrieval, label
// management, and sending.
package gmail

import (
	"context"
	"sync"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google"
	"github.com/custodia-labs/gsuite-cli/internal/core/ports/driven"
)

// maxPageSize is the Gmail API's hard cap on list page sizes.
const maxPageSize = 500

// Client is a high-level Gmail client. All calls go through the
// shared rate limiter and retry policy.
type Client struct {
	svc     *gmailapi.Service
	userID  string
	timeout time.Duration
	limiter *google.RateLimiter
	policy  google.RetryPolicy

	// labels caches label name -> id, labelIDs the known ids, both for
	// the client's lifetime.
	mu       sync.Mutex
	labels   map[string]string
	labelIDs map[string]struct{}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithUserID sets the Gmail user ID (default "me").
func WithUserID(userID string) ClientOption {
	return func(c *Client) { c.userID = userID }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy google.RetryPolicy) ClientOption {
	return func(c *Client) { c.policy = policy }
}

// WithRequestTimeout caps each HTTP request against the API. Effective
// only for clients built with NewClient.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.timeout = timeout }
}

// NewClient creates a Gmail client drawing tokens from the provider.
func NewClient(ctx context.Context, provider driven.TokenProvider, opts ...ClientOption) (*Client, error) {
	c := newClient(opts...)
	svc, err := google.NewGmailService(ctx,
		google.NewHTTPClient(ctx, google.NewTokenSource(ctx, provider), c.timeout))
	if err != nil {
		return nil, err
	}
	c.svc = svc
	return c, nil
}

// NewClientFromService wraps an existing Gmail API service. Tests use
// this with a service pointed at a fake endpoint.
func NewClientFromService(svc *gmailapi.Service, opts ...ClientOption) *Client {
	c := newClient(opts...)
	c.svc = svc
	return c
}

func newClient(opts ...ClientOption) *Client {
	c := &Client{
		userID:  "me",
		limiter: google.NewRateLimiter(google.ServiceGmail),
		policy:  google.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) callInfo(operation, resourceType, resourceID string) google.CallInfo {
	return google.CallInfo{
		Service:      string(google.ServiceGmail),
		Operation:    operation,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// bind links a parsed message (and its attachments) to this client so
// the fluent modification methods work.
func (c *Client) bind(msg *Message) *Message {
	msg.client = c
	for _, att := range msg.Attachments {
		att.client = c
	}
	return msg
}

// ListOptions filters a message listing.
type ListOptions struct {
	// Query is a Gmail search expression.
	Query Query
	// LabelIDs restricts results to messages carrying all the labels.
	LabelIDs []string
	// MaxResults caps the number of messages (default 25, max 500).
	MaxResults int64
	// MetadataOnly skips fetching message bodies.
	MetadataOnly bool
}

func (o ListOptions) pageSize() int64 {
	if o.MaxResults <= 0 {
		return 25
	}
	return min(o.MaxResults, maxPageSize)
}

// ListMessages returns messages matching the options. Each listed
// reference is fetched individually for its content.
func (c *Client) ListMessages(ctx context.Context, opts ListOptions) ([]*Message, error) {
	call := c.svc.Users.Messages.List(c.userID).MaxResults(opts.pageSize())
	if !opts.Query.IsZero() {
		call = call.Q(opts.Query.String())
	}
	if len(opts.LabelIDs) > 0 {
		call = call.LabelIds(opts.LabelIDs...)
	}

	listing, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("list messages", "message", ""),
		func() (*gmailapi.ListMessagesResponse, error) {
			return call.Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}

	messages := make([]*Message, 0, len(listing.Messages))
	for _, ref := range listing.Messages {
		msg, err := c.fetchMessage(ctx, ref.Id, !opts.MetadataOnly)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Search returns messages matching a query.
func (c *Client) Search(ctx context.Context, query Query, maxResults int64) ([]*Message, error) {
	return c.ListMessages(ctx, ListOptions{Query: query, MaxResults: maxResults})
}

// Unread returns unread messages.
func (c *Client) Unread(ctx context.Context, maxResults int64) ([]*Message, error) {
	return c.Search(ctx, IsUnread(), maxResults)
}

// UnreadInbox returns unread messages in the inbox.
func (c *Client) UnreadInbox(ctx context.Context, maxResults int64) ([]*Message, error) {
	return c.Search(ctx, IsUnread().And(InInbox()), maxResults)
}

// Starred returns starred messages.
func (c *Client) Starred(ctx context.Context, maxResults int64) ([]*Message, error) {
	return c.Search(ctx, IsStarred(), maxResults)
}

// Important returns important messages.
func (c *Client) Important(ctx context.Context, maxResults int64) ([]*Message, error) {
	return c.Search(ctx, IsImportant(), maxResults)
}

// Sent returns sent messages.
func (c *Client) Sent(ctx context.Context, maxResults int64) ([]*Message, error) {
	return c.Search(ctx, InSent(), maxResults)
}

// Drafts returns draft messages.
func (c *Client) Drafts(ctx context.Context, maxResults int64) ([]*Message, error) {
	return c.Search(ctx, InDrafts(), maxResults)
}

// GetMessage fetches a message by ID. Returns found=false when the
// message does not exist.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*Message, bool, error) {
	msg, found, err := google.CallOptional(ctx, c.limiter, c.policy,
		c.callInfo("get message", "message", messageID),
		func() (*gmailapi.Message, error) {
			return c.svc.Users.Messages.Get(c.userID, messageID).Format("full").Context(ctx).Do()
		})
	if err != nil || !found {
		return nil, false, err
	}
	return c.bind(ParseMessage(msg, true)), true, nil
}

func (c *Client) fetchMessage(ctx context.Context, messageID string, includeBody bool) (*Message, error) {
	format := "metadata"
	if includeBody {
		format = "full"
	}
	msg, err := google.Call(ctx, c.limiter, c.policy,
		c.callInfo("get message", "message", messageID),
		func() (*gmailapi.Message, error) {
			return c.svc.Users.Messages.Get(c.userID, messageID).Format(format).Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}
	return c.bind(ParseMessage(msg, includeBody)), nil
}

// GetThread fetches a full conversation by ID.
func (c *Client) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	thread, err := google.Call(ctx, c.limiter, c.policy,
		c.callInfo("get thread", "thread", threadID),
		func() (*gmailapi.Thread, error) {
			return c.svc.Users.Threads.Get(c.userID, threadID).Format("full").Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}

	messages := make([]*Message, 0, len(thread.Messages))
	for _, raw := range thread.Messages {
		messages = append(messages, c.bind(ParseMessage(raw, true)))
	}
	return &Thread{ID: thread.Id, Messages: messages, Snippet: thread.Snippet}, nil
}

// Labels returns all labels with their message counts. The listing
// endpoint omits counts, so each label is fetched individually.
func (c *Client) Labels(ctx context.Context) ([]*Label, error) {
	listing, err := google.Call(ctx, c.limiter, c.policy,
		c.callInfo("list labels", "label", ""),
		func() (*gmailapi.ListLabelsResponse, error) {
			return c.svc.Users.Labels.List(c.userID).Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}

	labels := make([]*Label, 0, len(listing.Labels))
	for _, ref := range listing.Labels {
		full, err := google.Call(ctx, c.limiter, c.policy,
			c.callInfo("get label", "label", ref.Id),
			func() (*gmailapi.Label, error) {
				return c.svc.Users.Labels.Get(c.userID, ref.Id).Context(ctx).Do()
			})
		if err != nil {
			return nil, err
		}
		labels = append(labels, ParseLabel(full))
	}
	return labels, nil
}

// LabelID resolves a label name (or ID) to its ID, caching the name
// map for the client's lifetime. The bool reports whether the label is
// known.
func (c *Client) LabelID(ctx context.Context, name string) (string, bool, error) {
	c.mu.Lock()
	cache, ids := c.labels, c.labelIDs
	c.mu.Unlock()

	if cache == nil {
		labels, err := c.Labels(ctx)
		if err != nil {
			return "", false, err
		}
		cache = make(map[string]string, len(labels))
		ids = make(map[string]struct{}, len(labels))
		for _, label := range labels {
			cache[label.Name] = label.ID
			ids[label.ID] = struct{}{}
		}
		c.mu.Lock()
		c.labels, c.labelIDs = cache, ids
		c.mu.Unlock()
	}

	if _, ok := ids[name]; ok {
		return name, true, nil
	}
	id, ok := cache[name]
	return id, ok, nil
}

// Send sends an email and returns the sent message as stored in the
// mailbox.
func (c *Client) Send(ctx context.Context, opts SendOptions) (*Message, error) {
	payload := &gmailapi.Message{Raw: buildRawMessage(opts)}
	if opts.ThreadID != "" {
		payload.ThreadId = opts.ThreadID
	}

	sent, err := google.Call(ctx, c.limiter, c.policy,
		c.callInfo("send message", "message", ""),
		func() (*gmailapi.Message, error) {
			return c.svc.Users.Messages.Send(c.userID, payload).Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}

	return c.fetchMessage(ctx, sent.Id, true)
}

// Profile returns the authenticated user's mailbox profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	profile, err := google.Call(ctx, c.limiter, c.policy,
		c.callInfo("get profile", "profile", ""),
		func() (*gmailapi.Profile, error) {
			return c.svc.Users.GetProfile(c.userID).Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}
	return &Profile{
		EmailAddress:  profile.EmailAddress,
		MessagesTotal: profile.MessagesTotal,
		ThreadsTotal:  profile.ThreadsTotal,
		HistoryID:     profile.HistoryId,
	}, nil
}

// EmailAddress returns the authenticated user's email address.
func (c *Client) EmailAddress(ctx context.Context) (string, error) {
	profile, err := c.Profile(ctx)
	if err != nil {
		return "", err
	}
	return profile.EmailAddress, nil
}

// ModifyLabels adds and removes label IDs on a message.
func (c *Client) ModifyLabels(ctx context.Context, messageID string, add, remove []string) error {
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}
	_, err := google.Call(ctx, c.limiter, c.policy,
		c.callInfo("modify labels", "message", messageID),
		func() (*gmailapi.Message, error) {
			return c.svc.Users.Messages.Modify(c.userID, messageID, &gmailapi.ModifyMessageRequest{
				AddLabelIds:    add,
				RemoveLabelIds: remove,
			}).Context(ctx).Do()
		})
	return err
}

// TrashMessage moves a message to the trash.
func (c *Client) TrashMessage(ctx context.Context, messageID string) error {
	_, err := google.Call(ctx, c.limiter, c.policy,
		c.callInfo("trash message", "message", messageID),
		func() (*gmailapi.Message, error) {
			return c.svc.Users.Messages.Trash(c.userID, messageID).Context(ctx).Do()
		})
	return err
}

// UntrashMessage restores a message from the trash.
func (c *Client) UntrashMessage(ctx context.Context, messageID string) error {
	_, err := google.Call(ctx, c.limiter, c.policy,
		c.callInfo("untrash message", "message", messageID),
		func() (*gmailapi.Message, error) {
			return c.svc.Users.Messages.Untrash(c.userID, messageID).Context(ctx).Do()
		})
	return err
}

// DownloadAttachment fetches and decodes attachment content.
func (c *Client) DownloadAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	body, err := google.Call(ctx, c.limiter, c.policy,
		c.callInfo("download attachment", "attachment", attachmentID),
		func() (*gmailapi.MessagePartBody, error) {
			return c.svc.Users.Messages.Attachments.Get(c.userID, messageID, attachmentID).Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}
	return decodeWebSafe(body.Data)
}
